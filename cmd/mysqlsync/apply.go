package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/doubleninth99/mysql-sync/internal/apply"
	"github.com/doubleninth99/mysql-sync/internal/source"
)

func newApplyCmd(a *app) *cobra.Command {
	var (
		target                string
		file                  string
		dryRun                bool
		transaction           bool
		allowNonTransactional bool
		unsafe                bool
	)

	cmd := &cobra.Command{
		Use:   "apply [<source> <target>]",
		Short: "Apply a migration to a live database",
		Long: `Connects to the target database and applies a migration.

Either pass a script with --target and --file, or pass a source and a target
reference to generate the migration and apply it in one step.

This command performs preflight checks before execution:
- Warns about potentially blocking DDL operations
- Refuses destructive operations (DROP TABLE, DROP COLUMN, ...) without --unsafe
- Checks transaction safety of the migration

Examples:
  mysqlsync apply --target @prod/shop --file migration.sql --dry-run
  mysqlsync apply --target "user:pass@tcp(localhost:3306)/shop" --file migration.sql --unsafe
  mysqlsync apply schema.sql @staging/shop`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := apply.Options{
				DryRun:                dryRun,
				Transaction:           transaction,
				AllowNonTransactional: allowNonTransactional,
				Unsafe:                unsafe,
				Out:                   cmd.OutOrStdout(),
				Logger:                a.logger,
			}

			switch len(args) {
			case 2:
				if file != "" || target != "" {
					return errors.New("--target and --file cannot be combined with <source> <target>")
				}
				return a.applyGenerated(cmd, args[0], args[1], opts)
			case 0:
				if target == "" {
					return errors.New("--target is required")
				}
				if file == "" {
					return errors.New("--file is required")
				}
				return a.applyFile(cmd, target, file, opts)
			default:
				return errors.New("apply takes either <source> <target> or --target with --file")
			}
		},
	}

	cmd.Flags().StringVar(&target, "target", "", "Database to migrate: @profile[/database] or a DSN")
	cmd.Flags().StringVar(&file, "file", "", "Path to the migration file (.sql or a json script)")
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "d", false, "Print statements and run preflight checks without executing")
	cmd.Flags().BoolVarP(&transaction, "transaction", "t", false, "Run the migration in one transaction; DDL needs --allow-non-transactional")
	cmd.Flags().BoolVar(&allowNonTransactional, "allow-non-transactional", false, "Allow non-transactional DDL when --transaction is set")
	cmd.Flags().BoolVarP(&unsafe, "unsafe", "u", false, "Allow destructive operations (DROP TABLE, DROP COLUMN, ...)")
	return cmd
}

func (a *app) applyFile(cmd *cobra.Command, targetRef, path string, opts apply.Options) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read migration file: %w", err)
	}
	if opts.DSN, err = a.targetDSN(targetRef); err != nil {
		return err
	}

	applier := apply.NewApplier(opts)
	statements := applier.ParseStatements(string(content))
	if len(statements) == 0 {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No SQL statements found in migration file")
		return nil
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Found %d statement(s) in %s\n\n", len(statements), path)

	preflight := applier.PreflightChecks(statements)
	if opts.DryRun {
		return applier.Apply(cmd.Context(), statements, preflight)
	}

	printWarnings(cmd, preflight)
	if err := a.connect(cmd, applier); err != nil {
		return err
	}
	defer a.closeApplier(applier)

	return applier.Apply(cmd.Context(), statements, preflight)
}

func (a *app) applyGenerated(cmd *cobra.Command, sourceRef, targetRef string, opts apply.Options) error {
	var err error
	if opts.DSN, err = a.targetDSN(targetRef); err != nil {
		return err
	}
	script, err := a.generate(cmd, sourceRef, targetRef)
	if err != nil {
		return err
	}

	applier := apply.NewApplier(opts)
	if !opts.DryRun && !script.IsEmpty() {
		printWarnings(cmd, applier.PreflightChecks(script.SQLStatements()))
		if err := a.connect(cmd, applier); err != nil {
			return err
		}
		defer a.closeApplier(applier)
	}
	return applier.ApplyScript(cmd.Context(), script)
}

func (a *app) connect(cmd *cobra.Command, applier *apply.Applier) error {
	ctx, cancel := a.withTimeout(cmd.Context())
	defer cancel()

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Connecting to database...")
	return applier.Connect(ctx)
}

func (a *app) closeApplier(applier *apply.Applier) {
	if err := applier.Close(); err != nil {
		a.logger.Warn("failed to close database connection", "error", err)
	}
}

// targetDSN resolves the database a migration runs against. Files are
// rejected since there is nothing to apply them to.
func (a *app) targetDSN(ref string) (string, error) {
	r, err := source.Resolve(ref)
	if err != nil {
		return "", err
	}
	switch r.Kind {
	case source.KindDSN:
		return r.DSN, nil
	case source.KindProfile:
		store, err := a.profiles()
		if err != nil {
			return "", err
		}
		p, err := store.Get(r.Profile)
		if err != nil {
			return "", err
		}
		return p.DSN(r.Database), nil
	default:
		return "", fmt.Errorf("apply target %q must be a live database (@profile or DSN), not a %s", ref, r.Kind)
	}
}

func printWarnings(cmd *cobra.Command, preflight *apply.PreflightResult) {
	if len(preflight.Warnings) == 0 {
		return
	}
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(out, "--- Preflight Warnings ---")
	for _, w := range preflight.Warnings {
		_, _ = fmt.Fprintf(out, "[%s] %s\n", w.Level, w.Message)
	}
	_, _ = fmt.Fprintln(out)
}
