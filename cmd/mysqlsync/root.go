package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/doubleninth99/mysql-sync/internal/config"
	"github.com/doubleninth99/mysql-sync/internal/profile"
	"github.com/doubleninth99/mysql-sync/internal/secret"
	"github.com/doubleninth99/mysql-sync/internal/source"
)

// app carries the settings shared by every command. It is filled in by the
// root command's PersistentPreRunE.
type app struct {
	logLevel     string
	logFormat    string
	profilesPath string
	timeout      time.Duration

	cfg      *config.Config
	logger   *slog.Logger
	profiles func() (*profile.Store, error)
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "mysqlsync",
		Short: "Compare MySQL schemas and generate migration scripts",
		Long: `mysqlsync compares a source schema with a target schema and generates the
SQL that turns the target into the source.

A schema reference is one of:
  schema.sql                          a DDL dump
  schema.toml                         a snapshot written by 'mysqlsync snapshot'
  @name[/database]                    a stored connection profile
  user:pass@tcp(host:3306)/database   a MySQL DSN`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn or error (default from "+config.EnvLogLevel+")")
	flags.StringVar(&a.logFormat, "log-format", "", "Log format: text or json (default from "+config.EnvLogFormat+")")
	flags.StringVar(&a.profilesPath, "profiles", "", "Path to the connection profile store (default from "+config.EnvProfiles+")")
	flags.DurationVar(&a.timeout, "timeout", config.DefaultTimeout, "Timeout for reading a schema from a live database")

	rootCmd.AddCommand(newDiffCmd(a))
	rootCmd.AddCommand(newMigrateCmd(a))
	rootCmd.AddCommand(newSnapshotCmd(a))
	rootCmd.AddCommand(newApplyCmd(a))
	rootCmd.AddCommand(newConnectionsCmd(a))
	rootCmd.AddCommand(newServeCmd(a))
	return rootCmd
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(".env")
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if a.logFormat != "" {
		cfg.LogFormat = a.logFormat
	}
	if a.profilesPath != "" {
		cfg.ProfilesPath = a.profilesPath
	}
	if cmd.Flags().Changed("timeout") {
		if a.timeout <= 0 {
			return fmt.Errorf("--timeout must be positive, got %s", a.timeout)
		}
		cfg.Timeout = a.timeout
	}

	logger, err := config.NewLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	a.cfg, a.logger = cfg, logger

	// The store and its key are only touched by commands that need a profile,
	// so file-only runs never reach the OS keyring.
	a.profiles = sync.OnceValues(func() (*profile.Store, error) {
		c, err := secret.NewCipherFromEnv(cfg.SecretKey)
		if err != nil {
			return nil, fmt.Errorf("load profile encryption key: %w", err)
		}
		logger.Debug("using profile store", "path", cfg.ProfilesPath)
		return profile.NewStore(cfg.ProfilesPath, c), nil
	})
	return nil
}

// lazyProfiles opens the profile store on first lookup.
type lazyProfiles struct {
	a *app
}

func (l lazyProfiles) Get(idOrName string) (profile.Profile, error) {
	store, err := l.a.profiles()
	if err != nil {
		return profile.Profile{}, err
	}
	return store.Get(idOrName)
}

func (a *app) loader() (*source.Loader, error) {
	return source.NewLoader(lazyProfiles{a: a}, a.logger)
}

func (a *app) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, a.cfg.Timeout)
}

// emit prints content, or writes it to outFile and reports where it went.
// 0644 permissions means read/write for owner, read for group and others.
func emit(cmd *cobra.Command, content, outFile string) error {
	if outFile == "" {
		_, err := fmt.Fprint(cmd.OutOrStdout(), content)
		return err
	}
	if err := os.WriteFile(outFile, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Output saved to %s\n", outFile)
	return nil
}
