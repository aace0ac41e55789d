package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSchema() *Schema {
	s := NewSchema("app")
	users := NewTable("users")
	users.Engine = "InnoDB"
	users.AddColumn(&Column{Name: "id", Type: "int", FullType: "int"})
	users.AddColumn(&Column{Name: "team_id", Type: "int", FullType: "int", Nullable: true, Default: NullDefault()})
	users.AddIndex(&Index{Name: "PRIMARY", Unique: true, Type: "BTREE", Columns: []IndexColumn{{Name: "id", Seq: 1}}})
	users.AddForeignKey(&ForeignKey{
		Name:              "fk_team",
		Table:             "users",
		ReferencedTable:   "teams",
		Columns:           []string{"team_id"},
		ReferencedColumns: []string{"id"},
	})
	s.AddTable(users)
	return s
}

func TestValidateAcceptsWellFormedSchema(t *testing.T) {
	require.NoError(t, Validate("source", validSchema()))
	require.NoError(t, Validate("source", NewSchema("empty")))
}

func TestValidateRejectsMalformedSchema(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(s *Schema) *Schema
		wantPath string
	}{
		{
			name:     "nil schema",
			mutate:   func(*Schema) *Schema { return nil },
			wantPath: "source",
		},
		{
			name:     "missing tables map",
			mutate:   func(s *Schema) *Schema { s.Tables = nil; return s },
			wantPath: "source.tables",
		},
		{
			name: "nil table",
			mutate: func(s *Schema) *Schema {
				s.Tables.Set("ghost", nil)
				return s
			},
			wantPath: "source.tables.ghost",
		},
		{
			name: "table key mismatch",
			mutate: func(s *Schema) *Schema {
				s.Tables.Set("people", NewTable("persons"))
				return s
			},
			wantPath: "source.tables.people",
		},
		{
			name:     "missing columns map",
			mutate:   func(s *Schema) *Schema { s.Table("users").Columns = nil; return s },
			wantPath: "source.tables.users.columns",
		},
		{
			name:     "missing indexes map",
			mutate:   func(s *Schema) *Schema { s.Table("users").Indexes = nil; return s },
			wantPath: "source.tables.users.indexes",
		},
		{
			name:     "missing foreign keys map",
			mutate:   func(s *Schema) *Schema { s.Table("users").ForeignKeys = nil; return s },
			wantPath: "source.tables.users.foreignKeys",
		},
		{
			name: "column without type",
			mutate: func(s *Schema) *Schema {
				s.Table("users").AddColumn(&Column{Name: "bad"})
				return s
			},
			wantPath: "source.tables.users.columns.bad",
		},
		{
			name: "unsupported default value",
			mutate: func(s *Schema) *Schema {
				s.Table("users").AddColumn(&Column{Name: "x", FullType: "int", Default: LiteralDefault([]int{1})})
				return s
			},
			wantPath: "source.tables.users.columns.x",
		},
		{
			name: "index without columns",
			mutate: func(s *Schema) *Schema {
				s.Table("users").AddIndex(&Index{Name: "idx_empty"})
				return s
			},
			wantPath: "source.tables.users.indexes.idx_empty",
		},
		{
			name: "foreign key column count mismatch",
			mutate: func(s *Schema) *Schema {
				fk := s.Table("users").ForeignKey("fk_team")
				fk.ReferencedColumns = []string{"id", "org_id"}
				return s
			},
			wantPath: "source.tables.users.foreignKeys.fk_team",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate("source", tt.mutate(validSchema()))
			require.Error(t, err)

			var invalidErr *InvalidSchemaError
			require.True(t, errors.As(err, &invalidErr))
			assert.Equal(t, tt.wantPath, invalidErr.Path)
			assert.Contains(t, err.Error(), tt.wantPath)
		})
	}
}

func TestIndexColumnSameKeyPart(t *testing.T) {
	assert.True(t, IndexColumn{Name: "a"}.SameKeyPart(IndexColumn{Name: "a", Seq: 2}))
	assert.True(t, IndexColumn{Name: "a", SubPart: IntPtr(10)}.SameKeyPart(IndexColumn{Name: "a", SubPart: IntPtr(10)}))
	assert.False(t, IndexColumn{Name: "a", SubPart: IntPtr(10)}.SameKeyPart(IndexColumn{Name: "a"}))
	assert.False(t, IndexColumn{Name: "a", SubPart: IntPtr(10)}.SameKeyPart(IndexColumn{Name: "a", SubPart: IntPtr(12)}))
	assert.False(t, IndexColumn{Name: "a"}.SameKeyPart(IndexColumn{Name: "b"}))
}

func TestForeignKeyEqual(t *testing.T) {
	base := &ForeignKey{
		Name:              "fk",
		ReferencedTable:   "users",
		UpdateRule:        "RESTRICT",
		DeleteRule:        "CASCADE",
		Columns:           []string{"a", "b"},
		ReferencedColumns: []string{"x", "y"},
	}
	same := *base
	assert.True(t, base.Equal(&same))

	swapped := *base
	swapped.ReferencedColumns = []string{"y", "x"}
	assert.False(t, base.Equal(&swapped))

	shorter := *base
	shorter.Columns = []string{"a"}
	shorter.ReferencedColumns = []string{"x"}
	assert.False(t, base.Equal(&shorter))

	rule := *base
	rule.DeleteRule = "RESTRICT"
	assert.False(t, base.Equal(&rule))
}
