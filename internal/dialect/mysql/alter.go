package mysql

import (
	"fmt"
	"strings"

	"github.com/doubleninth99/mysql-sync/internal/core"
	"github.com/doubleninth99/mysql-sync/internal/diff"
)

// alterClauses returns the ALTER TABLE clauses in dependency order: columns,
// index drops, index adds, foreign key drops, foreign key adds, then table
// options.
func (g *Generator) alterClauses(td *diff.TableDiff) []string {
	var clauses []string
	changes := td.Diff

	for name, cd := range changes.Columns.All() {
		switch cd.Status {
		case diff.StatusNew:
			clauses = append(clauses, "ADD COLUMN "+g.columnDefinition(cd.Source))
		case diff.StatusDeleted:
			clauses = append(clauses, "DROP COLUMN "+g.QuoteIdentifier(name))
		case diff.StatusModified:
			clauses = append(clauses, "MODIFY COLUMN "+g.columnDefinition(cd.Source))
		}
	}

	for name, id := range changes.Indexes.All() {
		if id.Status == diff.StatusNew {
			continue
		}
		if strings.EqualFold(name, core.PrimaryIndexName) {
			clauses = append(clauses, "DROP PRIMARY KEY")
			continue
		}
		clauses = append(clauses, "DROP INDEX "+g.QuoteIdentifier(name))
	}
	for _, id := range changes.Indexes.All() {
		if id.Status == diff.StatusDeleted {
			continue
		}
		clauses = append(clauses, g.addIndex(id.Source))
	}

	for name, fd := range changes.ForeignKeys.All() {
		if fd.Status == diff.StatusNew {
			continue
		}
		clauses = append(clauses, "DROP FOREIGN KEY "+g.QuoteIdentifier(name))
	}
	for _, fd := range changes.ForeignKeys.All() {
		if fd.Status == diff.StatusDeleted {
			continue
		}
		clauses = append(clauses, g.addForeignKey(fd.Source))
	}

	if changes.Props.Has("engine") {
		clauses = append(clauses, "ENGINE="+td.Source.Engine)
	}
	if changes.Props.Has("comment") {
		clauses = append(clauses, "COMMENT="+g.QuoteString(td.Source.Comment))
	}
	if changes.Props.Has("collation") {
		clauses = append(clauses, "COLLATE="+td.Source.Collation)
	}

	return clauses
}

func (g *Generator) addIndex(idx *core.Index) string {
	cols := g.formatIndexColumns(idx.Columns)
	if idx.IsPrimary() {
		return "ADD PRIMARY KEY " + cols
	}

	var sb strings.Builder
	sb.WriteString("ADD ")
	if idx.Unique {
		sb.WriteString("UNIQUE ")
	}
	switch typ := strings.ToUpper(strings.TrimSpace(idx.Type)); typ {
	case "FULLTEXT", "SPATIAL":
		sb.WriteString(typ + " ")
	}
	sb.WriteString("INDEX ")
	sb.WriteString(g.QuoteIdentifier(idx.Name))
	sb.WriteString(" ")
	sb.WriteString(cols)
	return sb.String()
}

func (g *Generator) addForeignKey(fk *core.ForeignKey) string {
	clause := fmt.Sprintf("ADD CONSTRAINT %s FOREIGN KEY %s REFERENCES %s %s",
		g.QuoteIdentifier(fk.Name),
		g.formatColumns(fk.Columns),
		g.QuoteIdentifier(fk.ReferencedTable),
		g.formatColumns(fk.ReferencedColumns),
	)
	if rule := strings.TrimSpace(fk.UpdateRule); rule != "" {
		clause += " ON UPDATE " + rule
	}
	if rule := strings.TrimSpace(fk.DeleteRule); rule != "" {
		clause += " ON DELETE " + rule
	}
	return clause
}
