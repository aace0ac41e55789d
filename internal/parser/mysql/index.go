package mysql

import (
	"fmt"
	"strings"

	"github.com/pingcap/tidb/pkg/parser/ast"

	"github.com/doubleninth99/mysql-sync/internal/core"
)

const (
	indexTypeBTree    = "BTREE"
	indexTypeFullText = "FULLTEXT"
	defaultReferRule  = "NO ACTION"
)

func (p *Parser) parseConstraints(constraints []*ast.Constraint, table *core.Table) {
	for _, constraint := range constraints {
		if constraint == nil {
			continue
		}
		cols, ok := keyParts(constraint.Keys)
		if !ok {
			// functional key parts are not part of the snapshot model
			continue
		}

		switch constraint.Tp {
		case ast.ConstraintPrimaryKey:
			for _, c := range cols {
				addPrimaryKeyColumn(table, c)
			}
		case ast.ConstraintUniq, ast.ConstraintUniqKey, ast.ConstraintUniqIndex:
			addIndex(table, constraint, cols, true, indexTypeBTree)
		case ast.ConstraintIndex, ast.ConstraintKey:
			addIndex(table, constraint, cols, false, indexTypeBTree)
		case ast.ConstraintFulltext:
			addIndex(table, constraint, cols, false, indexTypeFullText)
		case ast.ConstraintForeignKey:
			addForeignKey(table, constraint, cols)
		}
	}
}

func keyParts(keys []*ast.IndexPartSpecification) ([]core.IndexColumn, bool) {
	cols := make([]core.IndexColumn, 0, len(keys))
	for i, key := range keys {
		if key == nil || key.Column == nil {
			return nil, false
		}
		c := core.IndexColumn{Name: key.Column.Name.O, Seq: i + 1}
		if key.Length > 0 {
			c.SubPart = core.IntPtr(key.Length)
		}
		cols = append(cols, c)
	}
	return cols, true
}

func addPrimaryKeyColumn(table *core.Table, c core.IndexColumn) {
	pk := table.Index(core.PrimaryIndexName)
	if pk == nil {
		pk = &core.Index{Name: core.PrimaryIndexName, Unique: true, Type: indexTypeBTree}
		table.AddIndex(pk)
	}
	for _, existing := range pk.Columns {
		if strings.EqualFold(existing.Name, c.Name) {
			return
		}
	}
	c.Seq = len(pk.Columns) + 1
	pk.Columns = append(pk.Columns, c)
	if col := table.Column(c.Name); col != nil {
		col.Nullable = false
	}
}

func addUniqueColumnIndex(table *core.Table, colName string) {
	table.AddIndex(&core.Index{
		Name:    uniqueIndexName(table, colName),
		Unique:  true,
		Type:    indexTypeBTree,
		Columns: []core.IndexColumn{{Name: colName, Seq: 1}},
	})
}

func addIndex(table *core.Table, constraint *ast.Constraint, cols []core.IndexColumn, unique bool, typ string) {
	name := constraint.Name
	if name == "" {
		name = uniqueIndexName(table, cols[0].Name)
	}
	idx := &core.Index{Name: name, Unique: unique, Type: typ, Columns: cols}
	if constraint.Option != nil {
		idx.Comment = constraint.Option.Comment
	}
	table.AddIndex(idx)
}

func addForeignKey(table *core.Table, constraint *ast.Constraint, cols []core.IndexColumn) {
	if constraint.Refer == nil {
		return
	}
	name := constraint.Name
	if name == "" {
		name = fmt.Sprintf("%s_ibfk_%d", table.Name, table.ForeignKeys.Len()+1)
	}

	fk := &core.ForeignKey{
		Name:            name,
		Table:           table.Name,
		ReferencedTable: constraint.Refer.Table.Name.O,
		UpdateRule:      defaultReferRule,
		DeleteRule:      defaultReferRule,
	}
	for _, c := range cols {
		fk.Columns = append(fk.Columns, c.Name)
	}
	for _, spec := range constraint.Refer.IndexPartSpecifications {
		if spec.Column != nil {
			fk.ReferencedColumns = append(fk.ReferencedColumns, spec.Column.Name.O)
		}
	}
	if opt := constraint.Refer.OnUpdate; opt != nil {
		if rule := opt.ReferOpt.String(); rule != "" {
			fk.UpdateRule = strings.ToUpper(rule)
		}
	}
	if opt := constraint.Refer.OnDelete; opt != nil {
		if rule := opt.ReferOpt.String(); rule != "" {
			fk.DeleteRule = strings.ToUpper(rule)
		}
	}
	table.AddForeignKey(fk)
}

// addImplicitForeignKeyIndexes creates the index the server adds for a foreign
// key whose columns are not the leading columns of an existing index.
func addImplicitForeignKeyIndexes(table *core.Table) {
	for _, fk := range table.ForeignKeys.All() {
		if hasLeadingIndex(table, fk.Columns) {
			continue
		}
		cols := make([]core.IndexColumn, len(fk.Columns))
		for i, c := range fk.Columns {
			cols[i] = core.IndexColumn{Name: c, Seq: i + 1}
		}
		name := fk.Name
		if table.Indexes.Has(name) {
			name = uniqueIndexName(table, fk.Columns[0])
		}
		table.AddIndex(&core.Index{Name: name, Type: indexTypeBTree, Columns: cols})
	}
}

func hasLeadingIndex(table *core.Table, cols []string) bool {
	for _, idx := range table.Indexes.All() {
		if idx.Type == indexTypeFullText || len(idx.Columns) < len(cols) {
			continue
		}
		match := true
		for i, c := range cols {
			if !strings.EqualFold(idx.Columns[i].Name, c) {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// uniqueIndexName mirrors the server's naming of unnamed indexes: the first
// column name, suffixed with _2, _3 and so on when taken.
func uniqueIndexName(table *core.Table, base string) string {
	if !table.Indexes.Has(base) && !strings.EqualFold(base, core.PrimaryIndexName) {
		return base
	}
	for n := 2; ; n++ {
		name := fmt.Sprintf("%s_%d", base, n)
		if !table.Indexes.Has(name) {
			return name
		}
	}
}

// markColumnKeys fills Column.Key the way the catalog reports COLUMN_KEY.
func markColumnKeys(table *core.Table) {
	for _, idx := range table.Indexes.All() {
		if len(idx.Columns) == 0 {
			continue
		}
		col := table.Column(idx.Columns[0].Name)
		if col == nil {
			continue
		}
		switch {
		case idx.IsPrimary():
			col.Key = "PRI"
		case col.Key != "":
		case idx.Unique && len(idx.Columns) == 1:
			col.Key = "UNI"
		default:
			col.Key = "MUL"
		}
	}
}
