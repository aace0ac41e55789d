// Package dialect provides a unified interface for SQL dialects. The diff
// algorithm is dialect independent; a dialect supplies the formatting rules that
// turn a diff into executable statements and the parser for its DDL dumps.
package dialect

import (
	"sync"

	"github.com/doubleninth99/mysql-sync/internal/core"
	"github.com/doubleninth99/mysql-sync/internal/diff"
	"github.com/doubleninth99/mysql-sync/internal/migration"
)

type Type string

const (
	MySQL   Type = "mysql"
	MariaDB Type = "mariadb"
)

// Generator turns a schema diff into an ordered migration script.
type Generator interface {
	Generate(d *diff.SchemaDiff) *migration.Script
	QuoteIdentifier(name string) string
	QuoteString(value string) string
}

// Parser interface is used to parse SQL statements into a database schema.
type Parser interface {
	Parse(sql string) (*core.Schema, error)
}

// Dialect interface creates a way to interact with a specific SQL dialect.
type Dialect interface {
	Name() Type
	Generator() Generator
	Parser() Parser
}

var (
	registry = map[Type]func() Dialect{}
	mu       sync.RWMutex
)

// RegisterDialect creates a new registry entry for the specified dialect.
func RegisterDialect(d Type, ctor func() Dialect) {
	mu.Lock()
	defer mu.Unlock()
	registry[d] = ctor
}

// GetDialect returns the dialect for the specified type from the registry.
// Unknown types fall back to MySQL when it is registered.
func GetDialect(d Type) Dialect {
	mu.RLock()
	defer mu.RUnlock()
	if ctor, ok := registry[d]; ok {
		return ctor()
	}
	if ctor, ok := registry[MySQL]; ok {
		return ctor()
	}
	return nil
}
