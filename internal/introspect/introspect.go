// Package introspect contains the main introspecter interface, which reads the
// current state of a live database. It returns a core.Schema with every table,
// column, index and foreign key, or an error if the connection or queries fail.
package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/doubleninth99/mysql-sync/internal/core"
	"github.com/doubleninth99/mysql-sync/internal/dialect"
)

type Introspecter interface {
	// Introspect reads database, or the connection's current database when empty.
	Introspect(ctx context.Context, db *sql.DB, database string) (*core.Schema, error)
	// ListDatabases returns the user databases visible to the connection.
	ListDatabases(ctx context.Context, db *sql.DB) ([]string, error)
}

var (
	registry = make(map[dialect.Type]func() Introspecter)
	mu       sync.RWMutex
)

func Register(d dialect.Type, fn func() Introspecter) {
	mu.Lock()
	defer mu.Unlock()
	registry[d] = fn
}

func NewIntrospecter(d dialect.Type) (Introspecter, error) {
	mu.RLock()
	fn, ok := registry[d]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unsupported dialect %v", d)
	}

	return fn(), nil
}
