// Package apply executes a migration script against a live MySQL database.
// Every run starts with a preflight analysis so that destructive statements
// need an explicit opt-in and implicit commits are reported before anything runs.
package apply

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	introspectmysql "github.com/doubleninth99/mysql-sync/internal/introspect/mysql"
	"github.com/doubleninth99/mysql-sync/internal/migration"
)

// ErrDestructive is returned when a script drops data and Unsafe is not set.
var ErrDestructive = errors.New("destructive operations detected without --unsafe flag")

// Options controls how a script is applied.
type Options struct {
	DSN    string
	DryRun bool
	// Transaction wraps the statements in one transaction. MySQL commits DDL
	// implicitly, so this only holds for pure DML scripts unless
	// AllowNonTransactional is set.
	Transaction           bool
	AllowNonTransactional bool
	Unsafe                bool
	Out                   io.Writer
	Logger                *slog.Logger
}

// Applier runs statements over a database connection.
type Applier struct {
	db       *sql.DB
	ownsDB   bool
	options  Options
	analyzer *StatementAnalyzer
	out      io.Writer
	logger   *slog.Logger
}

// NewApplier returns an Applier with options. Out and Logger default to discard.
func NewApplier(options Options) *Applier {
	out := options.Out
	if out == nil {
		out = io.Discard
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Applier{
		options:  options,
		analyzer: NewStatementAnalyzer(),
		out:      out,
		logger:   logger,
	}
}

func (a *Applier) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.out, format, args...)
}

func (a *Applier) println(args ...any) {
	_, _ = fmt.Fprintln(a.out, args...)
}

// Connect opens and pings a connection to Options.DSN.
func (a *Applier) Connect(ctx context.Context) error {
	db, err := introspectmysql.Open(ctx, a.options.DSN)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	a.db, a.ownsDB = db, true
	return nil
}

// UseDB makes the applier run on an existing pool. Close leaves it open.
func (a *Applier) UseDB(db *sql.DB) {
	a.db, a.ownsDB = db, false
}

// Close releases a connection opened by Connect.
func (a *Applier) Close() error {
	if a.db == nil || !a.ownsDB {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}

// PreflightChecks analyzes statements with the configured Unsafe setting.
func (a *Applier) PreflightChecks(statements []string) *PreflightResult {
	return a.analyzer.Preflight(statements, a.options.Unsafe)
}

// ParseStatements extracts statements from a script file. A JSON script as
// written by the json formatter is read directly; anything else is split as SQL.
func (a *Applier) ParseStatements(content string) []string {
	content = strings.TrimSpace(content)

	var script migration.Script
	if strings.HasPrefix(content, "{") && json.Unmarshal([]byte(content), &script) == nil {
		var out []string
		for _, stmt := range script.SQLStatements() {
			if stmt = strings.TrimSpace(stmt); stmt != "" {
				out = append(out, stmt)
			}
		}
		return out
	}
	return a.analyzer.Split(content)
}

// ApplyScript runs a generated script. Generator warnings are logged first.
func (a *Applier) ApplyScript(ctx context.Context, script *migration.Script) error {
	for _, w := range script.Warnings {
		a.logger.Warn("migration warning", "warning", w)
	}
	if script.IsEmpty() {
		a.println("Nothing to apply: schemas are in sync")
		return nil
	}
	statements := script.SQLStatements()
	return a.Apply(ctx, statements, a.PreflightChecks(statements))
}

// Apply validates preflight and then either prints the plan (dry run) or
// executes statements in order.
func (a *Applier) Apply(ctx context.Context, statements []string, preflight *PreflightResult) error {
	if a.options.DryRun {
		return a.dryRun(statements, preflight)
	}
	if err := a.validate(preflight); err != nil {
		return err
	}
	if a.db == nil {
		return errors.New("apply: not connected")
	}

	a.logger.Info("applying migration", "statements", len(statements), "transactional", preflight.IsTransactional)
	if a.options.Transaction && preflight.IsTransactional {
		return a.applyWithTransaction(ctx, statements)
	}
	return a.applyWithoutTransaction(ctx, statements)
}

func (a *Applier) validate(preflight *PreflightResult) error {
	if preflight.HasDanger() && !a.options.Unsafe {
		return fmt.Errorf("preflight checks failed: %w", ErrDestructive)
	}
	if a.options.Transaction && !preflight.IsTransactional && !a.options.AllowNonTransactional {
		return errors.New("preflight checks failed: migration contains non-transactional DDL; use --allow-non-transactional to proceed")
	}
	return nil
}

func (a *Applier) dryRun(statements []string, preflight *PreflightResult) error {
	a.println("=== DRY RUN MODE ===")

	a.println("--- Preflight Checks ---")
	if len(preflight.Warnings) == 0 {
		a.println("No warnings")
	}
	for _, w := range preflight.Warnings {
		a.printf("[%s] %s\n", w.Level, w.Message)
		if w.SQL != "" {
			a.printf("    SQL: %s\n", truncateSQL(w.SQL))
		}
	}

	a.println("--- Transaction Safety ---")
	if preflight.IsTransactional {
		a.println("All statements are transaction-safe")
	} else {
		a.println("Migration is NOT transaction-safe")
		for _, reason := range preflight.NonTxReasons {
			a.printf("  - %s\n", reason)
		}
	}

	a.println("--- Statements to Execute ---")
	for i, stmt := range statements {
		a.printf("%d. %s\n\n", i+1, stmt)
	}

	if err := a.validate(preflight); err != nil {
		return err
	}

	a.println("=== DRY RUN COMPLETE ===")
	a.println("All preflight checks passed. Run without --dry-run to apply.")
	return nil
}

func (a *Applier) applyWithTransaction(ctx context.Context, statements []string) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	for i, stmt := range statements {
		a.printf("Executing statement %d/%d...\n", i+1, len(statements))
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				return fmt.Errorf("execute failed: %w; rollback also failed: %v", err, rbErr)
			}
			return fmt.Errorf("execute failed (rolled back): %w\n  Statement: %s", err, truncateSQL(stmt))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	a.printf("Successfully applied %d statements\n", len(statements))
	return nil
}

func (a *Applier) applyWithoutTransaction(ctx context.Context, statements []string) error {
	a.println("Applying migration without transaction wrapper (DDL statements cause implicit commits)")

	for i, stmt := range statements {
		a.printf("Executing statement %d/%d...\n", i+1, len(statements))
		if _, err := a.db.ExecContext(ctx, stmt); err != nil {
			a.logger.Error("statement failed", "index", i+1, "error", err)
			return fmt.Errorf("statement %d failed: %w\n  Statement: %s\n  %d statements were already applied and cannot be automatically rolled back",
				i+1, err, truncateSQL(stmt), i)
		}
	}

	a.printf("Successfully applied %d statements\n", len(statements))
	return nil
}

func truncateSQL(stmt string) string {
	stmt = strings.Join(strings.Fields(stmt), " ")
	if len(stmt) > 80 {
		return stmt[:77] + "..."
	}
	return stmt
}
