// Package toml reads and writes schema snapshots in TOML. A snapshot captures
// every table, column, index and foreign key of a database so it can be
// compared offline. Arrays keep the catalog order.
package toml

import (
	"fmt"
	"strings"
)

// snapshotFile is the top-level TOML document.
type snapshotFile struct {
	Database tomlDatabase `toml:"database"`
	Tables   []tomlTable  `toml:"tables"`
}

// tomlDatabase maps [database].
type tomlDatabase struct {
	Name    string `toml:"name,omitempty"`
	Dialect string `toml:"dialect,omitempty"`
}

// tomlTable maps [[tables]].
type tomlTable struct {
	Name        string           `toml:"name"`
	Engine      string           `toml:"engine,omitempty"`
	Collation   string           `toml:"collation,omitempty"`
	Comment     string           `toml:"comment,omitempty"`
	CreateSQL   string           `toml:"create_sql,omitempty"`
	Columns     []tomlColumn     `toml:"columns,omitempty"`
	Indexes     []tomlIndex      `toml:"indexes,omitempty"`
	ForeignKeys []tomlForeignKey `toml:"foreign_keys,omitempty"`
}

// tomlColumn maps [[tables.columns]]. A NULL default is written as
// default_null = true since TOML has no null value; a missing default and a
// false default_null mean the default is unset.
type tomlColumn struct {
	Name        string `toml:"name"`
	Type        string `toml:"type,omitempty"`
	FullType    string `toml:"full_type"`
	Nullable    bool   `toml:"nullable"`
	Default     any    `toml:"default"`
	DefaultNull bool   `toml:"default_null,omitempty"`
	Key         string `toml:"key,omitempty"`
	Extra       string `toml:"extra,omitempty"`
	Comment     string `toml:"comment,omitempty"`
	Collation   string `toml:"collation,omitempty"`
	Length      *int64 `toml:"length,omitempty"`
	Precision   *int64 `toml:"precision,omitempty"`
	Scale       *int64 `toml:"scale,omitempty"`
}

// tomlIndex maps [[tables.indexes]].
type tomlIndex struct {
	Name    string            `toml:"name"`
	Unique  bool              `toml:"unique"`
	Type    string            `toml:"type,omitempty"`
	Comment string            `toml:"comment,omitempty"`
	Columns []tomlIndexColumn `toml:"columns"`
}

// tomlIndexColumn maps [[tables.indexes.columns]].
type tomlIndexColumn struct {
	Name    string `toml:"name"`
	Seq     int    `toml:"seq,omitempty"`
	SubPart *int   `toml:"sub_part,omitempty"`
}

// tomlForeignKey maps [[tables.foreign_keys]].
type tomlForeignKey struct {
	Name              string   `toml:"name"`
	Columns           []string `toml:"columns"`
	ReferencedTable   string   `toml:"referenced_table"`
	ReferencedColumns []string `toml:"referenced_columns"`
	OnUpdate          string   `toml:"on_update,omitempty"`
	OnDelete          string   `toml:"on_delete,omitempty"`
}

var supportedDialects = []string{"mysql", "mariadb"}

// validateDialect accepts an empty dialect or one of supportedDialects.
func validateDialect(raw string) error {
	if raw == "" {
		return nil
	}
	for _, d := range supportedDialects {
		if strings.EqualFold(raw, d) {
			return nil
		}
	}
	return fmt.Errorf("toml: unsupported dialect %q; supported: %v", raw, supportedDialects)
}
