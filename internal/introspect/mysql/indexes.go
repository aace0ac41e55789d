package mysql

import (
	"database/sql"
	"strings"

	"github.com/doubleninth99/mysql-sync/internal/core"
)

func introspectIndexes(ic *introspectCtx) error {
	rows, err := ic.db.QueryContext(ic.ctx, `
		SELECT
			s.table_name,
			s.index_name,
			s.non_unique,
			s.seq_in_index,
			s.column_name,
			s.sub_part,
			s.index_type,
			s.index_comment,
			s.comment
		FROM information_schema.statistics s
		WHERE s.table_schema = ?
		ORDER BY s.table_name, s.index_name, s.seq_in_index
	`, ic.schema.Name)
	if err != nil {
		return err
	}
	defer rows.Close()

	// functional key parts have no column name and cannot be modeled
	skipped := make(map[string]bool)

	for rows.Next() {
		var tableName, indexName string
		var nonUnique, seq int64
		var columnName, indexType, indexComment, comment sql.NullString
		var subPart sql.NullInt64
		if err := rows.Scan(&tableName, &indexName, &nonUnique, &seq, &columnName, &subPart,
			&indexType, &indexComment, &comment); err != nil {
			return err
		}

		t := ic.schema.Table(tableName)
		if t == nil {
			continue
		}
		key := tableName + "." + indexName
		if !columnName.Valid {
			skipped[key] = true
			t.Indexes.Delete(indexName)
			continue
		}
		if skipped[key] {
			continue
		}

		idx := t.Index(indexName)
		if idx == nil {
			idx = &core.Index{
				Name:    indexName,
				Unique:  nonUnique == 0,
				Type:    strings.ToUpper(indexType.String),
				Comment: indexComment.String,
			}
			if idx.Comment == "" {
				idx.Comment = comment.String
			}
			t.AddIndex(idx)
		}

		col := core.IndexColumn{Name: columnName.String, Seq: int(seq)}
		if subPart.Valid {
			col.SubPart = core.IntPtr(int(subPart.Int64))
		}
		idx.Columns = append(idx.Columns, col)
	}

	return rows.Err()
}
