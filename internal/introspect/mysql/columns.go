package mysql

import (
	"database/sql"
	"regexp"
	"strings"

	"github.com/doubleninth99/mysql-sync/internal/core"
	"github.com/doubleninth99/mysql-sync/internal/dialect"
)

var mariaDBTimestampRe = regexp.MustCompile(`(?i)^current_timestamp\((\d*)\)$`)

func introspectColumns(ic *introspectCtx) error {
	rows, err := ic.db.QueryContext(ic.ctx, `
		SELECT
			c.table_name,
			c.column_name,
			c.data_type,
			c.column_type,
			c.is_nullable,
			c.column_default,
			c.column_key,
			c.extra,
			c.column_comment,
			c.collation_name,
			c.character_maximum_length,
			c.numeric_precision,
			c.numeric_scale
		FROM information_schema.columns c
		WHERE c.table_schema = ?
		ORDER BY c.table_name, c.ordinal_position
	`, ic.schema.Name)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var tableName, name, dataType, colType, nullable string
		var defaultVal, colKey, extra, comment, collation sql.NullString
		var length, precision, scale sql.NullInt64
		if err := rows.Scan(&tableName, &name, &dataType, &colType, &nullable, &defaultVal,
			&colKey, &extra, &comment, &collation, &length, &precision, &scale); err != nil {
			return err
		}

		t := ic.schema.Table(tableName)
		if t == nil {
			// views share information_schema.columns with tables
			continue
		}

		t.AddColumn(&core.Column{
			Name:      name,
			Type:      dataType,
			FullType:  colType,
			Nullable:  nullable == "YES",
			Default:   convertDefault(ic.flavor, defaultVal),
			Key:       colKey.String,
			Extra:     extra.String,
			Comment:   comment.String,
			Collation: collation.String,
			Length:    nullInt64Ptr(length),
			Precision: nullInt64Ptr(precision),
			Scale:     nullInt64Ptr(scale),
		})
	}

	return rows.Err()
}

// convertDefault maps COLUMN_DEFAULT to a default. MySQL reports SQL NULL for
// no default and the bare literal otherwise; MariaDB quotes literals and spells
// a NULL default as the text NULL.
func convertDefault(flavor dialect.Type, v sql.NullString) core.Default {
	if !v.Valid {
		return core.NullDefault()
	}
	if flavor != dialect.MariaDB {
		return core.StringDefault(v.String)
	}

	s := v.String
	switch {
	case strings.EqualFold(s, "NULL"):
		return core.NullDefault()
	case len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'':
		return core.StringDefault(strings.ReplaceAll(s[1:len(s)-1], "''", "'"))
	}
	if m := mariaDBTimestampRe.FindStringSubmatch(s); m != nil {
		if m[1] == "" {
			return core.StringDefault("CURRENT_TIMESTAMP")
		}
		return core.StringDefault("CURRENT_TIMESTAMP(" + m[1] + ")")
	}
	return core.StringDefault(s)
}

func nullInt64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}
