package core

import (
	"fmt"
	"strings"
)

// InvalidSchemaError reports malformed input, naming the offending path
// (e.g. "source.tables.users.columns").
type InvalidSchemaError struct {
	Path   string
	Reason string
}

func (e *InvalidSchemaError) Error() string {
	return fmt.Sprintf("invalid schema at %s: %s", e.Path, e.Reason)
}

func invalid(path, format string, args ...any) *InvalidSchemaError {
	return &InvalidSchemaError{Path: path, Reason: fmt.Sprintf(format, args...)}
}

// Validate checks that s is structurally well formed: every map present, every
// map key matching the entity name, and foreign key column lists correlated.
// label prefixes the reported path, typically "source" or "target".
// It returns the first *InvalidSchemaError found.
func Validate(label string, s *Schema) error {
	if s == nil {
		return invalid(label, "schema is nil")
	}
	if s.Tables == nil {
		return invalid(label+".tables", "tables map is missing")
	}

	for name, t := range s.Tables.All() {
		if err := validateTable(fmt.Sprintf("%s.tables.%s", label, name), name, t); err != nil {
			return err
		}
	}
	return nil
}

func validateTable(path, key string, t *Table) error {
	if t == nil {
		return invalid(path, "table is nil")
	}
	if t.Name != key {
		return invalid(path, "table name %q does not match its key", t.Name)
	}
	if t.Columns == nil {
		return invalid(path+".columns", "columns map is missing")
	}
	if t.Indexes == nil {
		return invalid(path+".indexes", "indexes map is missing")
	}
	if t.ForeignKeys == nil {
		return invalid(path+".foreignKeys", "foreign keys map is missing")
	}

	for name, c := range t.Columns.All() {
		if err := validateColumn(path+".columns."+name, name, c); err != nil {
			return err
		}
	}
	for name, idx := range t.Indexes.All() {
		if err := validateIndex(path+".indexes."+name, name, idx); err != nil {
			return err
		}
	}
	for name, fk := range t.ForeignKeys.All() {
		if err := validateForeignKey(path+".foreignKeys."+name, name, fk); err != nil {
			return err
		}
	}
	return nil
}

func validateColumn(path, key string, c *Column) error {
	if c == nil {
		return invalid(path, "column is nil")
	}
	if c.Name != key {
		return invalid(path, "column name %q does not match its key", c.Name)
	}
	if strings.TrimSpace(c.FullType) == "" {
		return invalid(path, "full type is empty")
	}
	if c.Default.Kind == DefaultLiteral {
		switch c.Default.Value.(type) {
		case string, int64, float64, bool:
		default:
			return invalid(path, "unsupported default value type %T", c.Default.Value)
		}
	}
	return nil
}

func validateIndex(path, key string, idx *Index) error {
	if idx == nil {
		return invalid(path, "index is nil")
	}
	if idx.Name != key {
		return invalid(path, "index name %q does not match its key", idx.Name)
	}
	if len(idx.Columns) == 0 {
		return invalid(path, "index has no columns")
	}
	for i, c := range idx.Columns {
		if strings.TrimSpace(c.Name) == "" {
			return invalid(fmt.Sprintf("%s.columns[%d]", path, i), "column name is empty")
		}
	}
	return nil
}

func validateForeignKey(path, key string, fk *ForeignKey) error {
	if fk == nil {
		return invalid(path, "foreign key is nil")
	}
	if fk.Name != key {
		return invalid(path, "foreign key name %q does not match its key", fk.Name)
	}
	if len(fk.Columns) == 0 {
		return invalid(path, "foreign key has no columns")
	}
	if len(fk.Columns) != len(fk.ReferencedColumns) {
		return invalid(path, "%d columns reference %d columns", len(fk.Columns), len(fk.ReferencedColumns))
	}
	if strings.TrimSpace(fk.ReferencedTable) == "" {
		return invalid(path, "referenced table is empty")
	}
	return nil
}
