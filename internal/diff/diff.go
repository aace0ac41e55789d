// Package diff compares two schema snapshots and produces an ordered tree of
// NEW, MODIFIED and DELETED entries for tables, columns, indexes and foreign keys.
// Entities that are equal on both sides are omitted from the tree.
package diff

import (
	"github.com/doubleninth99/mysql-sync/internal/core"
)

// Status classifies an entity in a diff.
type Status string

const (
	// StatusNew marks an entity present only in the source.
	StatusNew Status = "NEW"
	// StatusModified marks an entity present on both sides with differences.
	StatusModified Status = "MODIFIED"
	// StatusDeleted marks an entity present only in the target.
	StatusDeleted Status = "DELETED"
)

// SchemaDiff is the result of comparing a source schema with a target schema.
type SchemaDiff struct {
	Tables *core.OrderedMap[*TableDiff] `json:"tables" yaml:"tables"`
}

// TableDiff describes one table. Source is set for NEW and MODIFIED, Target for
// DELETED and MODIFIED, and Diff only for MODIFIED.
type TableDiff struct {
	Name   string        `json:"name" yaml:"name"`
	Status Status        `json:"status" yaml:"status"`
	Source *core.Table   `json:"source,omitempty" yaml:"source,omitempty"`
	Target *core.Table   `json:"target,omitempty" yaml:"target,omitempty"`
	Diff   *TableChanges `json:"diff,omitempty" yaml:"diff,omitempty"`
}

// TableChanges holds the nested differences of a MODIFIED table.
type TableChanges struct {
	Columns     *core.OrderedMap[*ColumnDiff]     `json:"columns" yaml:"columns"`
	Indexes     *core.OrderedMap[*IndexDiff]      `json:"indexes" yaml:"indexes"`
	ForeignKeys *core.OrderedMap[*ForeignKeyDiff] `json:"foreignKeys" yaml:"foreignKeys"`
	// Props is keyed by property name: engine, collation, comment.
	Props *core.OrderedMap[FieldChange] `json:"props" yaml:"props"`
}

// IsEmpty reports whether no nested difference was recorded.
func (c *TableChanges) IsEmpty() bool {
	return c.Columns.Len() == 0 && c.Indexes.Len() == 0 && c.ForeignKeys.Len() == 0 && c.Props.Len() == 0
}

// ColumnDiff describes one column of a MODIFIED table.
type ColumnDiff struct {
	Name   string       `json:"name" yaml:"name"`
	Status Status       `json:"status" yaml:"status"`
	Source *core.Column `json:"source,omitempty" yaml:"source,omitempty"`
	Target *core.Column `json:"target,omitempty" yaml:"target,omitempty"`
	// Diff is keyed by field name: fullType, nullable, default, comment, extra.
	Diff *core.OrderedMap[FieldChange] `json:"diff,omitempty" yaml:"diff,omitempty"`
}

// IndexDiff describes one index of a MODIFIED table. Diff holds exactly one of
// unique, type or columns because the comparison stops at the first difference.
type IndexDiff struct {
	Name   string                        `json:"name" yaml:"name"`
	Status Status                        `json:"status" yaml:"status"`
	Source *core.Index                   `json:"source,omitempty" yaml:"source,omitempty"`
	Target *core.Index                   `json:"target,omitempty" yaml:"target,omitempty"`
	Diff   *core.OrderedMap[FieldChange] `json:"diff,omitempty" yaml:"diff,omitempty"`
}

// ForeignKeyDiff describes one foreign key of a MODIFIED table. Foreign keys are
// compared for equality only, so there is no field-level diff.
type ForeignKeyDiff struct {
	Name   string           `json:"name" yaml:"name"`
	Status Status           `json:"status" yaml:"status"`
	Source *core.ForeignKey `json:"source,omitempty" yaml:"source,omitempty"`
	Target *core.ForeignKey `json:"target,omitempty" yaml:"target,omitempty"`
}

// FieldChange holds the source and target value of a differing field.
type FieldChange struct {
	Source any `json:"source" yaml:"source"`
	Target any `json:"target" yaml:"target"`
}

// IsEmpty returns true if there are no differences in the schema diff.
func (d *SchemaDiff) IsEmpty() bool {
	return d == nil || d.Tables.Len() == 0
}

// Compare classifies every table, column, index and foreign key of source
// against target. Iteration follows the source order, with target-only entries
// appended in target order. Both schemas are validated first; a malformed
// schema yields a *core.InvalidSchemaError.
func Compare(source, target *core.Schema) (*SchemaDiff, error) {
	if err := core.Validate("source", source); err != nil {
		return nil, err
	}
	if err := core.Validate("target", target); err != nil {
		return nil, err
	}

	d := &SchemaDiff{Tables: core.NewOrderedMap[*TableDiff](0)}
	classify(source.Tables, target.Tables, d.Tables, entityComparer[*core.Table, *TableDiff]{
		added: func(name string, t *core.Table) *TableDiff {
			return &TableDiff{Name: name, Status: StatusNew, Source: t}
		},
		deleted: func(name string, t *core.Table) *TableDiff {
			return &TableDiff{Name: name, Status: StatusDeleted, Target: t}
		},
		modified: compareTable,
	})
	return d, nil
}

// entityComparer builds diff nodes for one level of the tree.
type entityComparer[E, D any] struct {
	added    func(name string, src E) D
	deleted  func(name string, tgt E) D
	modified func(name string, src, tgt E) (D, bool)
}

// classify walks source then target, emitting NEW, MODIFIED and DELETED nodes into out.
func classify[E, D any](source, target *core.OrderedMap[E], out *core.OrderedMap[D], cmp entityComparer[E, D]) {
	for name, src := range source.All() {
		tgt, ok := target.Get(name)
		if !ok {
			out.Set(name, cmp.added(name, src))
			continue
		}
		if node, changed := cmp.modified(name, src, tgt); changed {
			out.Set(name, node)
		}
	}
	for name, tgt := range target.All() {
		if !source.Has(name) {
			out.Set(name, cmp.deleted(name, tgt))
		}
	}
}
