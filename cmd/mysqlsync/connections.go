package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/doubleninth99/mysql-sync/internal/profile"
)

func newConnectionsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "connections",
		Aliases: []string{"conn"},
		Short:   "Manage stored connection profiles",
		Long: `Connection profiles are kept in a TOML file with their passwords encrypted.
A stored profile is referenced elsewhere as @name or @name/database.`,
	}

	cmd.AddCommand(newConnectionsListCmd(a))
	cmd.AddCommand(newConnectionsAddCmd(a))
	cmd.AddCommand(newConnectionsRemoveCmd(a))
	cmd.AddCommand(newConnectionsTestCmd(a))
	cmd.AddCommand(newConnectionsDatabasesCmd(a))
	return cmd
}

func newConnectionsListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.profiles()
			if err != nil {
				return err
			}
			profiles, err := store.List()
			if err != nil {
				return err
			}
			if len(profiles) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No connection profiles stored.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "NAME\tID\tADDRESS\tUSER\tDATABASE")
			for _, p := range profiles {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s:%d\t%s\t%s\n", p.Name, p.ID, p.Host, p.Port, p.User, p.Database)
			}
			return w.Flush()
		},
	}
}

func newConnectionsAddCmd(a *app) *cobra.Command {
	var p profile.Profile
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Store a new profile, or update one with --id",
		Long: `Add stores a connection profile. When --password is omitted and stdin is a
terminal, the password is read without echo.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.profiles()
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("password") {
				if p.Password, err = promptPassword(cmd); err != nil {
					return err
				}
				// An update without a new password keeps the stored one.
				if p.ID != "" && p.Password == "" {
					if stored, err := store.Get(p.ID); err == nil {
						p.Password = stored.Password
					}
				}
			}

			saved, err := store.Save(p)
			if err != nil {
				return err
			}
			a.logger.Info("connection profile saved", "id", saved.ID, "name", saved.Name)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%s)\n", saved.Name, saved.ID)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&p.ID, "id", "", "ID of an existing profile to update")
	flags.StringVar(&p.Name, "name", "", "Profile name (default user@host)")
	flags.StringVar(&p.Host, "host", "", "Server host (required)")
	flags.IntVar(&p.Port, "port", profile.DefaultPort, "Server port")
	flags.StringVar(&p.User, "user", "", "User name (required)")
	flags.StringVar(&p.Password, "password", "", "Password (prompted when omitted)")
	flags.StringVar(&p.Database, "database", "", "Default database")
	_ = cmd.MarkFlagRequired("host")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

// promptPassword reads a password from the terminal. It returns an empty
// password when stdin is not a terminal.
func promptPassword(cmd *cobra.Command) (string, error) {
	in, ok := cmd.InOrStdin().(*os.File)
	if !ok || !term.IsTerminal(int(in.Fd())) {
		return "", nil
	}
	_, _ = fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	pw, err := term.ReadPassword(int(in.Fd()))
	_, _ = fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(pw), nil
}

func newConnectionsRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id|name>",
		Aliases: []string{"rm"},
		Short:   "Delete a stored profile",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.profiles()
			if err != nil {
				return err
			}
			p, err := store.Get(args[0])
			if err != nil {
				return err
			}
			if err := store.Delete(p.ID); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Removed %s (%s)\n", p.Name, p.ID)
			return nil
		},
	}
}

func newConnectionsTestCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "test <id|name>",
		Short: "Check that a stored profile can connect",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.lookupProfile(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := a.withTimeout(cmd.Context())
			defer cancel()

			if err := profile.TestConnection(ctx, p); err != nil {
				return fmt.Errorf("connection %s failed: %w", p.Name, err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Connection %s OK\n", p.Name)
			return nil
		},
	}
}

func newConnectionsDatabasesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "databases <id|name>",
		Short: "List the user databases reachable with a stored profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.lookupProfile(args[0])
			if err != nil {
				return err
			}
			loader, err := a.loader()
			if err != nil {
				return err
			}
			ctx, cancel := a.withTimeout(cmd.Context())
			defer cancel()

			db, err := loader.Open(ctx, p.DSN(""))
			if err != nil {
				return err
			}
			defer db.Close()

			databases, err := loader.Introspecter.ListDatabases(ctx, db)
			if err != nil {
				return err
			}
			for _, name := range databases {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func (a *app) lookupProfile(idOrName string) (profile.Profile, error) {
	store, err := a.profiles()
	if err != nil {
		return profile.Profile{}, err
	}
	return store.Get(idOrName)
}
