package toml

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/doubleninth99/mysql-sync/internal/core"
)

// Encode writes s to w as a TOML snapshot that Parse reads back unchanged.
func Encode(w io.Writer, s *core.Schema) error {
	if err := core.Validate("snapshot", s); err != nil {
		return err
	}

	sf := snapshotFile{Database: tomlDatabase{Name: s.Name, Dialect: "mysql"}}
	for _, t := range s.Tables.All() {
		sf.Tables = append(sf.Tables, fromTable(t))
	}

	if err := toml.NewEncoder(w).Encode(sf); err != nil {
		return fmt.Errorf("toml: encode error: %w", err)
	}
	return nil
}

// WriteFile encodes s into the file at path.
// 0644 permissions means read/write for owner, read for group and others.
func WriteFile(path string, s *core.Schema) error {
	var buf bytes.Buffer
	if err := Encode(&buf, s); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("toml: write file %q: %w", path, err)
	}
	return nil
}

func fromTable(t *core.Table) tomlTable {
	tt := tomlTable{
		Name:      t.Name,
		Engine:    t.Engine,
		Collation: t.Collation,
		Comment:   t.Comment,
		CreateSQL: t.CreateSQL,
	}

	for _, c := range t.Columns.All() {
		tc := tomlColumn{
			Name:      c.Name,
			Type:      c.Type,
			FullType:  c.FullType,
			Nullable:  c.Nullable,
			Key:       c.Key,
			Extra:     c.Extra,
			Comment:   c.Comment,
			Collation: c.Collation,
			Length:    c.Length,
			Precision: c.Precision,
			Scale:     c.Scale,
		}
		switch c.Default.Kind {
		case core.DefaultNull:
			tc.DefaultNull = true
		case core.DefaultLiteral:
			tc.Default = c.Default.Value
		}
		tt.Columns = append(tt.Columns, tc)
	}

	for _, idx := range t.Indexes.All() {
		ti := tomlIndex{Name: idx.Name, Unique: idx.Unique, Type: idx.Type, Comment: idx.Comment}
		for _, c := range idx.Columns {
			ti.Columns = append(ti.Columns, tomlIndexColumn{Name: c.Name, Seq: c.Seq, SubPart: c.SubPart})
		}
		tt.Indexes = append(tt.Indexes, ti)
	}

	for _, fk := range t.ForeignKeys.All() {
		tt.ForeignKeys = append(tt.ForeignKeys, tomlForeignKey{
			Name:              fk.Name,
			Columns:           fk.Columns,
			ReferencedTable:   fk.ReferencedTable,
			ReferencedColumns: fk.ReferencedColumns,
			OnUpdate:          fk.UpdateRule,
			OnDelete:          fk.DeleteRule,
		})
	}

	return tt
}
