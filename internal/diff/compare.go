package diff

import (
	"github.com/doubleninth99/mysql-sync/internal/core"
)

// fieldChangeCollector records differing fields in the order they are checked.
type fieldChangeCollector struct {
	changes *core.OrderedMap[FieldChange]
}

func newCollector() *fieldChangeCollector {
	return &fieldChangeCollector{changes: core.NewOrderedMap[FieldChange](0)}
}

// Add records field when the values differ under strict comparison.
func (c *fieldChangeCollector) Add(field string, source, target any) {
	if source == target {
		return
	}
	c.changes.Set(field, FieldChange{Source: source, Target: target})
}

func (c *fieldChangeCollector) force(field string, source, target any) {
	c.changes.Set(field, FieldChange{Source: source, Target: target})
}

func (c *fieldChangeCollector) empty() bool { return c.changes.Len() == 0 }

func compareTable(name string, src, tgt *core.Table) (*TableDiff, bool) {
	changes := &TableChanges{
		Columns:     core.NewOrderedMap[*ColumnDiff](0),
		Indexes:     core.NewOrderedMap[*IndexDiff](0),
		ForeignKeys: core.NewOrderedMap[*ForeignKeyDiff](0),
	}

	classify(src.Columns, tgt.Columns, changes.Columns, entityComparer[*core.Column, *ColumnDiff]{
		added: func(n string, c *core.Column) *ColumnDiff {
			return &ColumnDiff{Name: n, Status: StatusNew, Source: c}
		},
		deleted: func(n string, c *core.Column) *ColumnDiff {
			return &ColumnDiff{Name: n, Status: StatusDeleted, Target: c}
		},
		modified: compareColumn,
	})

	classify(src.Indexes, tgt.Indexes, changes.Indexes, entityComparer[*core.Index, *IndexDiff]{
		added: func(n string, i *core.Index) *IndexDiff {
			return &IndexDiff{Name: n, Status: StatusNew, Source: i}
		},
		deleted: func(n string, i *core.Index) *IndexDiff {
			return &IndexDiff{Name: n, Status: StatusDeleted, Target: i}
		},
		modified: compareIndex,
	})

	classify(src.ForeignKeys, tgt.ForeignKeys, changes.ForeignKeys, entityComparer[*core.ForeignKey, *ForeignKeyDiff]{
		added: func(n string, fk *core.ForeignKey) *ForeignKeyDiff {
			return &ForeignKeyDiff{Name: n, Status: StatusNew, Source: fk}
		},
		deleted: func(n string, fk *core.ForeignKey) *ForeignKeyDiff {
			return &ForeignKeyDiff{Name: n, Status: StatusDeleted, Target: fk}
		},
		modified: compareForeignKey,
	})

	props := newCollector()
	props.Add("engine", src.Engine, tgt.Engine)
	props.Add("collation", src.Collation, tgt.Collation)
	props.Add("comment", src.Comment, tgt.Comment)
	changes.Props = props.changes

	if changes.IsEmpty() {
		return nil, false
	}
	return &TableDiff{Name: name, Status: StatusModified, Source: src, Target: tgt, Diff: changes}, true
}

func compareColumn(name string, src, tgt *core.Column) (*ColumnDiff, bool) {
	c := newCollector()
	c.Add("fullType", src.FullType, tgt.FullType)
	c.Add("nullable", src.Nullable, tgt.Nullable)
	if defaultsDiffer(src.Default, tgt.Default) {
		c.force("default", src.Default, tgt.Default)
	}
	c.Add("comment", src.Comment, tgt.Comment)
	c.Add("extra", src.Extra, tgt.Extra)

	if c.empty() {
		return nil, false
	}
	return &ColumnDiff{Name: name, Status: StatusModified, Source: src, Target: tgt, Diff: c.changes}, true
}

// defaultsDiffer compares the string-coerced forms first, so a numeric 0 and the
// string "0" match. Only when those differ are the raw values checked, which
// keeps an unset default equal to NULL. A NULL never matches a literal, even the
// string "null".
func defaultsDiffer(src, tgt core.Default) bool {
	if src.Text() == tgt.Text() && src.IsNullish() == tgt.IsNullish() {
		return false
	}
	return !src.Equal(tgt)
}

// compareIndex stops at the first differing aspect: unique, then type, then the
// key parts. Any key part mismatch reports the whole column list.
func compareIndex(name string, src, tgt *core.Index) (*IndexDiff, bool) {
	c := newCollector()
	switch {
	case src.Unique != tgt.Unique:
		c.force("unique", src.Unique, tgt.Unique)
	case src.Type != tgt.Type:
		c.force("type", src.Type, tgt.Type)
	case !sameKeyParts(src.Columns, tgt.Columns):
		c.force("columns", src.Columns, tgt.Columns)
	default:
		return nil, false
	}
	return &IndexDiff{Name: name, Status: StatusModified, Source: src, Target: tgt, Diff: c.changes}, true
}

func sameKeyParts(a, b []core.IndexColumn) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].SameKeyPart(b[i]) {
			return false
		}
	}
	return true
}

func compareForeignKey(name string, src, tgt *core.ForeignKey) (*ForeignKeyDiff, bool) {
	if src.Equal(tgt) {
		return nil, false
	}
	return &ForeignKeyDiff{Name: name, Status: StatusModified, Source: src, Target: tgt}, true
}
