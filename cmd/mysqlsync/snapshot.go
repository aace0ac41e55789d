package main

import (
	"fmt"

	"github.com/spf13/cobra"

	tomlschema "github.com/doubleninth99/mysql-sync/internal/parser/toml"
)

func newSnapshotCmd(a *app) *cobra.Command {
	var outFile string
	cmd := &cobra.Command{
		Use:   "snapshot <ref>",
		Short: "Save a schema as a TOML snapshot",
		Long: `Snapshot reads a schema from a dump, a profile or a DSN and writes it as TOML.
The snapshot can be used as a diff or migrate reference later, for example
to compare production against the schema it had at the last release.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loader, err := a.loader()
			if err != nil {
				return err
			}
			ctx, cancel := a.withTimeout(cmd.Context())
			defer cancel()

			s, err := loader.Load(ctx, args[0])
			if err != nil {
				return err
			}

			if outFile == "" {
				return tomlschema.Encode(cmd.OutOrStdout(), s)
			}
			if err := tomlschema.WriteFile(outFile, s); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Snapshot of %d tables saved to %s\n", s.Tables.Len(), outFile)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outFile, "output", "o", "", "Output .toml file (default stdout)")
	return cmd
}
