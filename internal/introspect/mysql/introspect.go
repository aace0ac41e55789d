// Package mysql contains the introspect implementation for MySQL and MariaDB.
// It reads information_schema plus SHOW CREATE TABLE over a sql pool to build
// a core.Schema.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	driver "github.com/go-sql-driver/mysql"

	"github.com/doubleninth99/mysql-sync/internal/core"
	"github.com/doubleninth99/mysql-sync/internal/dialect"
	"github.com/doubleninth99/mysql-sync/internal/introspect"
)

func init() {
	introspect.Register(dialect.MySQL, New)
	introspect.Register(dialect.MariaDB, New)
}

// ErrNoDatabase is returned when neither the caller nor the connection names a database.
var ErrNoDatabase = errors.New("no database selected")

var systemDatabases = []string{"information_schema", "mysql", "performance_schema", "sys"}

type introspecter struct{}

type introspectCtx struct {
	ctx    context.Context
	db     *sql.DB
	flavor dialect.Type
	schema *core.Schema
}

// New returns an Introspecter that reads schemas from information_schema.
func New() introspect.Introspecter {
	return &introspecter{}
}

// Open opens a connection pool for dsn and verifies it with a ping.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	if _, err := driver.ParseDSN(dsn); err != nil {
		return nil, fmt.Errorf("invalid dsn: %w", err)
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open connection: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(3 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

func (i *introspecter) Introspect(ctx context.Context, db *sql.DB, database string) (*core.Schema, error) {
	if database == "" {
		var current sql.NullString
		if err := db.QueryRowContext(ctx, "SELECT DATABASE()").Scan(&current); err != nil {
			return nil, fmt.Errorf("select current database: %w", err)
		}
		if !current.Valid || current.String == "" {
			return nil, ErrNoDatabase
		}
		database = current.String
	}

	flavor, _, err := DetectFlavor(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("detect server flavor: %w", err)
	}

	ic := &introspectCtx{
		ctx:    ctx,
		db:     db,
		flavor: flavor,
		schema: core.NewSchema(database),
	}

	steps := []struct {
		name string
		fn   func(*introspectCtx) error
	}{
		{"tables", introspectTables},
		{"create statements", introspectCreateStatements},
		{"columns", introspectColumns},
		{"indexes", introspectIndexes},
		{"foreign keys", introspectForeignKeys},
	}
	for _, step := range steps {
		if err := step.fn(ic); err != nil {
			return nil, fmt.Errorf("introspect %s of %s: %w", step.name, database, err)
		}
	}

	return ic.schema, nil
}

func (i *introspecter) ListDatabases(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, "SHOW DATABASES")
	if err != nil {
		return nil, fmt.Errorf("list databases: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		if isSystemDatabase(name) {
			continue
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func isSystemDatabase(name string) bool {
	return slices.Contains(systemDatabases, strings.ToLower(name))
}

func quoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
