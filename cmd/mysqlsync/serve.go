package main

import (
	"github.com/spf13/cobra"

	"github.com/doubleninth99/mysql-sync/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve exposes connection management and schema comparison as a JSON API
under /api. It stops gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if listen == "" {
				listen = a.cfg.Listen
			}
			store, err := a.profiles()
			if err != nil {
				return err
			}
			backend, err := server.NewMySQLBackend(a.logger)
			if err != nil {
				return err
			}

			srv := server.New(store, backend, server.Options{
				Logger:  a.logger,
				Timeout: a.cfg.Timeout,
			})
			return srv.Run(cmd.Context(), listen)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (default from MYSQLSYNC_LISTEN or :3000)")
	return cmd
}
