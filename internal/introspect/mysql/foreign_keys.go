package mysql

import (
	"github.com/doubleninth99/mysql-sync/internal/core"
)

func introspectForeignKeys(ic *introspectCtx) error {
	rows, err := ic.db.QueryContext(ic.ctx, `
		SELECT
			k.table_name,
			k.constraint_name,
			k.column_name,
			k.referenced_table_name,
			k.referenced_column_name,
			r.update_rule,
			r.delete_rule
		FROM information_schema.key_column_usage k
		JOIN information_schema.referential_constraints r
			ON r.constraint_schema = k.constraint_schema
			AND r.constraint_name = k.constraint_name
			AND r.table_name = k.table_name
		WHERE k.table_schema = ? AND k.referenced_table_name IS NOT NULL
		ORDER BY k.table_name, k.constraint_name, k.ordinal_position
	`, ic.schema.Name)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var tableName, name, column, refTable, refColumn, updateRule, deleteRule string
		if err := rows.Scan(&tableName, &name, &column, &refTable, &refColumn, &updateRule, &deleteRule); err != nil {
			return err
		}

		t := ic.schema.Table(tableName)
		if t == nil {
			continue
		}

		fk := t.ForeignKey(name)
		if fk == nil {
			fk = &core.ForeignKey{
				Name:            name,
				Table:           tableName,
				ReferencedTable: refTable,
				UpdateRule:      updateRule,
				DeleteRule:      deleteRule,
			}
			t.AddForeignKey(fk)
		}
		// both lists follow ORDINAL_POSITION, so the i-th entries pair up
		fk.Columns = append(fk.Columns, column)
		fk.ReferencedColumns = append(fk.ReferencedColumns, refColumn)
	}

	return rows.Err()
}
