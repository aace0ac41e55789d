// Package core contains the single source of truth for a MySQL schema snapshot.
// It provides a structured representation of tables, columns, indexes and foreign
// keys as read from the catalog, keyed by name and kept in catalog order.
package core

import (
	"strings"
)

// PrimaryIndexName is the reserved name MySQL gives to the primary key.
const PrimaryIndexName = "PRIMARY"

// Schema represents one database as an ordered mapping of table name to table.
type Schema struct {
	Name   string              `json:"name,omitempty" yaml:"name,omitempty"`
	Tables *OrderedMap[*Table] `json:"tables" yaml:"tables"`
}

// NewSchema creates an empty schema with the given database name.
func NewSchema(name string) *Schema {
	return &Schema{Name: name, Tables: NewOrderedMap[*Table](0)}
}

// AddTable appends t keyed by its name.
func (s *Schema) AddTable(t *Table) {
	if s.Tables == nil {
		s.Tables = NewOrderedMap[*Table](0)
	}
	s.Tables.Set(t.Name, t)
}

// Table returns the table with the given name, or nil.
func (s *Schema) Table(name string) *Table {
	if s == nil {
		return nil
	}
	t, _ := s.Tables.Get(name)
	return t
}

// Table represents a table in the schema.
type Table struct {
	Name      string `json:"name" yaml:"name"`
	Engine    string `json:"engine" yaml:"engine"`
	Collation string `json:"collation" yaml:"collation"`
	Comment   string `json:"comment" yaml:"comment"`
	// CreateSQL is the verbatim CREATE TABLE statement reported by the server.
	CreateSQL string `json:"createSql,omitempty" yaml:"createSql,omitempty"`

	Columns     *OrderedMap[*Column]     `json:"columns" yaml:"columns"`
	Indexes     *OrderedMap[*Index]      `json:"indexes" yaml:"indexes"`
	ForeignKeys *OrderedMap[*ForeignKey] `json:"foreignKeys" yaml:"foreignKeys"`
}

// NewTable creates a table with empty column, index and foreign key maps.
func NewTable(name string) *Table {
	return &Table{
		Name:        name,
		Columns:     NewOrderedMap[*Column](0),
		Indexes:     NewOrderedMap[*Index](0),
		ForeignKeys: NewOrderedMap[*ForeignKey](0),
	}
}

// AddColumn appends c keyed by its name.
func (t *Table) AddColumn(c *Column) { t.Columns.Set(c.Name, c) }

// AddIndex appends i keyed by its name.
func (t *Table) AddIndex(i *Index) { t.Indexes.Set(i.Name, i) }

// AddForeignKey appends fk keyed by its name.
func (t *Table) AddForeignKey(fk *ForeignKey) { t.ForeignKeys.Set(fk.Name, fk) }

// Column returns the column with the given name, or nil.
func (t *Table) Column(name string) *Column {
	c, _ := t.Columns.Get(name)
	return c
}

// Index returns the index with the given name, or nil.
func (t *Table) Index(name string) *Index {
	i, _ := t.Indexes.Get(name)
	return i
}

// ForeignKey returns the foreign key with the given name, or nil.
func (t *Table) ForeignKey(name string) *ForeignKey {
	fk, _ := t.ForeignKeys.Get(name)
	return fk
}

// Column represents a single column inside a table.
type Column struct {
	Name string `json:"name" yaml:"name"`
	// Type is the bare data type, e.g. "varchar".
	Type string `json:"type" yaml:"type"`
	// FullType is the declared type, e.g. "varchar(255)" or "int unsigned".
	FullType string  `json:"fullType" yaml:"fullType"`
	Nullable bool    `json:"nullable" yaml:"nullable"`
	Default  Default `json:"default" yaml:"default"`
	Key      string  `json:"key,omitempty" yaml:"key,omitempty"`
	// Extra holds modifiers such as auto_increment or on update CURRENT_TIMESTAMP.
	Extra     string `json:"extra" yaml:"extra"`
	Comment   string `json:"comment" yaml:"comment"`
	Collation string `json:"collation,omitempty" yaml:"collation,omitempty"`

	Length    *int64 `json:"length,omitempty" yaml:"length,omitempty"`
	Precision *int64 `json:"precision,omitempty" yaml:"precision,omitempty"`
	Scale     *int64 `json:"scale,omitempty" yaml:"scale,omitempty"`
}

// Index contains the definition of a single index, including PRIMARY.
type Index struct {
	Name    string        `json:"name" yaml:"name"`
	Unique  bool          `json:"unique" yaml:"unique"`
	Type    string        `json:"type" yaml:"type"`
	Comment string        `json:"comment" yaml:"comment"`
	Columns []IndexColumn `json:"columns" yaml:"columns"`
}

// IsPrimary reports whether the index is the table's primary key.
func (i *Index) IsPrimary() bool {
	return strings.EqualFold(i.Name, PrimaryIndexName)
}

// ColumnNames returns the indexed column names in key order.
func (i *Index) ColumnNames() []string {
	out := make([]string, 0, len(i.Columns))
	for _, c := range i.Columns {
		out = append(out, c.Name)
	}
	return out
}

// IndexColumn is one key part of an index.
type IndexColumn struct {
	Name string `json:"name" yaml:"name"`
	Seq  int    `json:"seq" yaml:"seq"`
	// SubPart is the prefix length for partial-column indexes; nil means the whole column.
	SubPart *int `json:"subPart" yaml:"subPart"`
}

// SameKeyPart reports whether two key parts index the same column with the same prefix.
func (c IndexColumn) SameKeyPart(o IndexColumn) bool {
	if c.Name != o.Name {
		return false
	}
	if c.SubPart == nil || o.SubPart == nil {
		return c.SubPart == nil && o.SubPart == nil
	}
	return *c.SubPart == *o.SubPart
}

// ForeignKey describes a FOREIGN KEY constraint. Columns[i] references
// ReferencedColumns[i].
type ForeignKey struct {
	Name              string   `json:"name" yaml:"name"`
	Table             string   `json:"table" yaml:"table"`
	ReferencedTable   string   `json:"referencedTable" yaml:"referencedTable"`
	UpdateRule        string   `json:"updateRule" yaml:"updateRule"`
	DeleteRule        string   `json:"deleteRule" yaml:"deleteRule"`
	Columns           []string `json:"columns" yaml:"columns"`
	ReferencedColumns []string `json:"referencedColumns" yaml:"referencedColumns"`
}

// Equal reports whether fk and o define the same constraint. Column lists are
// compared pairwise, so the position correlation is part of the identity.
func (fk *ForeignKey) Equal(o *ForeignKey) bool {
	if fk.ReferencedTable != o.ReferencedTable ||
		fk.UpdateRule != o.UpdateRule ||
		fk.DeleteRule != o.DeleteRule {
		return false
	}
	if len(fk.Columns) != len(o.Columns) || len(fk.ReferencedColumns) != len(o.ReferencedColumns) {
		return false
	}
	for i := range fk.Columns {
		if fk.Columns[i] != o.Columns[i] {
			return false
		}
	}
	for i := range fk.ReferencedColumns {
		if fk.ReferencedColumns[i] != o.ReferencedColumns[i] {
			return false
		}
	}
	return true
}

// IntPtr returns a pointer to v. Useful for SubPart and the size facets.
func IntPtr(v int) *int { return &v }
