package toml

import (
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/doubleninth99/mysql-sync/internal/core"
)

// Parser reads TOML schema snapshots.
type Parser struct{}

// NewParser creates a new TOML snapshot parser.
func NewParser() *Parser {
	return &Parser{}
}

// ParseFile opens the file at the given path and parses it as a TOML snapshot.
func (p *Parser) ParseFile(path string) (*core.Schema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("toml: open file %q: %w", path, err)
	}
	defer f.Close()

	return p.Parse(f)
}

// Parse reads TOML content from r and returns the validated schema.
func (p *Parser) Parse(r io.Reader) (*core.Schema, error) {
	var sf snapshotFile
	md, err := toml.NewDecoder(r).Decode(&sf)
	if err != nil {
		return nil, fmt.Errorf("toml: decode error: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("toml: unknown keys: %v", undecoded)
	}
	if err := validateDialect(sf.Database.Dialect); err != nil {
		return nil, err
	}

	s := core.NewSchema(sf.Database.Name)
	for i := range sf.Tables {
		tt := &sf.Tables[i]
		if tt.Name == "" {
			return nil, fmt.Errorf("toml: table #%d: name is required", i+1)
		}
		if s.Tables.Has(tt.Name) {
			return nil, fmt.Errorf("toml: table %q is defined more than once", tt.Name)
		}
		t, err := convertTable(tt)
		if err != nil {
			return nil, fmt.Errorf("toml: table %q: %w", tt.Name, err)
		}
		s.AddTable(t)
	}

	if err := core.Validate("snapshot", s); err != nil {
		return nil, err
	}
	return s, nil
}

func convertTable(tt *tomlTable) (*core.Table, error) {
	t := core.NewTable(tt.Name)
	t.Engine = tt.Engine
	t.Collation = tt.Collation
	t.Comment = tt.Comment
	t.CreateSQL = tt.CreateSQL

	for i := range tt.Columns {
		tc := &tt.Columns[i]
		if t.Columns.Has(tc.Name) {
			return nil, fmt.Errorf("column %q is defined more than once", tc.Name)
		}
		def, err := convertDefault(tc)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", tc.Name, err)
		}
		t.AddColumn(&core.Column{
			Name:      tc.Name,
			Type:      tc.Type,
			FullType:  tc.FullType,
			Nullable:  tc.Nullable,
			Default:   def,
			Key:       tc.Key,
			Extra:     tc.Extra,
			Comment:   tc.Comment,
			Collation: tc.Collation,
			Length:    tc.Length,
			Precision: tc.Precision,
			Scale:     tc.Scale,
		})
	}

	for i := range tt.Indexes {
		ti := &tt.Indexes[i]
		if t.Indexes.Has(ti.Name) {
			return nil, fmt.Errorf("index %q is defined more than once", ti.Name)
		}
		idx := &core.Index{Name: ti.Name, Unique: ti.Unique, Type: ti.Type, Comment: ti.Comment}
		for j, c := range ti.Columns {
			seq := c.Seq
			if seq == 0 {
				seq = j + 1
			}
			idx.Columns = append(idx.Columns, core.IndexColumn{Name: c.Name, Seq: seq, SubPart: c.SubPart})
		}
		t.AddIndex(idx)
	}

	for i := range tt.ForeignKeys {
		tf := &tt.ForeignKeys[i]
		if t.ForeignKeys.Has(tf.Name) {
			return nil, fmt.Errorf("foreign key %q is defined more than once", tf.Name)
		}
		t.AddForeignKey(&core.ForeignKey{
			Name:              tf.Name,
			Table:             tt.Name,
			ReferencedTable:   tf.ReferencedTable,
			Columns:           tf.Columns,
			ReferencedColumns: tf.ReferencedColumns,
			UpdateRule:        tf.OnUpdate,
			DeleteRule:        tf.OnDelete,
		})
	}

	return t, nil
}

func convertDefault(tc *tomlColumn) (core.Default, error) {
	if tc.DefaultNull {
		if tc.Default != nil {
			return core.Default{}, fmt.Errorf("default and default_null are mutually exclusive")
		}
		return core.NullDefault(), nil
	}
	switch v := tc.Default.(type) {
	case nil:
		return core.Default{}, nil
	case string, int64, float64, bool:
		return core.LiteralDefault(v), nil
	default:
		return core.Default{}, fmt.Errorf("unsupported default value of type %T", v)
	}
}
