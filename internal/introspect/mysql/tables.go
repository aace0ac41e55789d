package mysql

import (
	"database/sql"
	"fmt"

	"github.com/doubleninth99/mysql-sync/internal/core"
)

func introspectTables(ic *introspectCtx) error {
	rows, err := ic.db.QueryContext(ic.ctx, `
		SELECT table_name, engine, table_collation, table_comment
		FROM information_schema.tables
		WHERE table_schema = ? AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`, ic.schema.Name)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var engine, collation, comment sql.NullString
		if err := rows.Scan(&name, &engine, &collation, &comment); err != nil {
			return err
		}

		t := core.NewTable(name)
		t.Engine = engine.String
		t.Collation = collation.String
		t.Comment = comment.String
		ic.schema.AddTable(t)
	}

	return rows.Err()
}

func introspectCreateStatements(ic *introspectCtx) error {
	for name, t := range ic.schema.Tables.All() {
		query := fmt.Sprintf("SHOW CREATE TABLE %s.%s", quoteIdentifier(ic.schema.Name), quoteIdentifier(name))
		var tableName, createSQL string
		if err := ic.db.QueryRowContext(ic.ctx, query).Scan(&tableName, &createSQL); err != nil {
			return fmt.Errorf("table %s: %w", name, err)
		}
		t.CreateSQL = createSQL
	}
	return nil
}
