package server

import (
	"context"
	"log/slog"

	"github.com/doubleninth99/mysql-sync/internal/core"
	"github.com/doubleninth99/mysql-sync/internal/profile"
	"github.com/doubleninth99/mysql-sync/internal/source"
)

type mysqlBackend struct {
	loader *source.Loader
}

// NewMySQLBackend returns a Backend that connects to MySQL with the
// go-sql-driver and reads schemas through the MySQL introspecter.
func NewMySQLBackend(logger *slog.Logger) (Backend, error) {
	loader, err := source.NewLoader(nil, logger)
	if err != nil {
		return nil, err
	}
	return &mysqlBackend{loader: loader}, nil
}

func (b *mysqlBackend) TestConnection(ctx context.Context, p profile.Profile) error {
	return profile.TestConnection(ctx, p)
}

func (b *mysqlBackend) ListDatabases(ctx context.Context, p profile.Profile) ([]string, error) {
	db, err := b.loader.Open(ctx, p.DSN(""))
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return b.loader.Introspecter.ListDatabases(ctx, db)
}

func (b *mysqlBackend) LoadSchema(ctx context.Context, p profile.Profile, database string) (*core.Schema, error) {
	if database == "" {
		database = p.Database
	}
	return b.loader.LoadReference(ctx, source.Reference{
		Raw:      p.Name,
		Kind:     source.KindDSN,
		DSN:      p.DSN(database),
		Database: database,
	})
}
