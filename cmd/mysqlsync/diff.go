package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	mysqldialect "github.com/doubleninth99/mysql-sync/internal/dialect/mysql"
	"github.com/doubleninth99/mysql-sync/internal/diff"
	"github.com/doubleninth99/mysql-sync/internal/migration"
	"github.com/doubleninth99/mysql-sync/internal/output"
)

func formatHelp() string {
	names := make([]string, 0, len(output.Formats))
	for _, f := range output.Formats {
		names = append(names, string(f))
	}
	return "Output format: " + strings.Join(names, ", ")
}

// compare loads both references and diffs them.
func (a *app) compare(cmd *cobra.Command, sourceRef, targetRef string) (*diff.SchemaDiff, error) {
	loader, err := a.loader()
	if err != nil {
		return nil, err
	}
	ctx, cancel := a.withTimeout(cmd.Context())
	defer cancel()

	source, target, err := loader.LoadPair(ctx, sourceRef, targetRef)
	if err != nil {
		return nil, err
	}
	return diff.Compare(source, target)
}

// generate builds the script that turns targetRef into sourceRef. Generator
// warnings are logged.
func (a *app) generate(cmd *cobra.Command, sourceRef, targetRef string) (*migration.Script, error) {
	d, err := a.compare(cmd, sourceRef, targetRef)
	if err != nil {
		return nil, err
	}
	script := mysqldialect.NewMySQLGenerator().Generate(d)
	for _, w := range script.Warnings {
		a.logger.Warn("migration warning", "warning", w)
	}
	a.logger.Info("migration generated", "tables", d.Tables.Len(), "statements", len(script.Statements))
	return script, nil
}

func newDiffCmd(a *app) *cobra.Command {
	var (
		format  string
		outFile string
	)
	cmd := &cobra.Command{
		Use:   "diff <source> <target>",
		Short: "Compare two schemas",
		Long: `Diff reports every table, column, index and foreign key that differs
between the source and the target. NEW means present only in the source,
DELETED means present only in the target.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter, err := output.NewFormatter(format)
			if err != nil {
				return err
			}
			d, err := a.compare(cmd, args[0], args[1])
			if err != nil {
				return err
			}
			formatted, err := formatter.FormatDiff(d)
			if err != nil {
				return fmt.Errorf("failed to format output: %w", err)
			}
			return emit(cmd, formatted, outFile)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(output.FormatSQL), formatHelp())
	cmd.Flags().StringVarP(&outFile, "output", "o", "", "Output file for the diff")
	return cmd
}

func newMigrateCmd(a *app) *cobra.Command {
	var (
		format  string
		outFile string
	)
	cmd := &cobra.Command{
		Use:   "migrate <source> <target>",
		Short: "Generate the SQL that turns the target schema into the source schema",
		Long: `Migrate generates the statements that transition the target schema to the
source schema, one statement per table: CREATE TABLE for new tables,
DROP TABLE for removed ones and a single ALTER TABLE for changed ones.

Review the script before running it; 'mysqlsync apply' runs it with
preflight checks.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter, err := output.NewFormatter(format)
			if err != nil {
				return err
			}
			script, err := a.generate(cmd, args[0], args[1])
			if err != nil {
				return err
			}
			formatted, err := formatter.FormatScript(script)
			if err != nil {
				return fmt.Errorf("failed to format output: %w", err)
			}
			return emit(cmd, formatted, outFile)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(output.FormatSQL), formatHelp())
	cmd.Flags().StringVarP(&outFile, "output", "o", "", "Output file for the generated migration")
	return cmd
}
