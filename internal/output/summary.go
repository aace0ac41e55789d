package output

import (
	"fmt"
	"strings"

	"github.com/doubleninth99/mysql-sync/internal/apply"
	"github.com/doubleninth99/mysql-sync/internal/core"
	"github.com/doubleninth99/mysql-sync/internal/diff"
	"github.com/doubleninth99/mysql-sync/internal/migration"
)

type summaryFormatter struct{}

// counts tallies entities per status.
type counts struct {
	added, modified, removed int
}

func (c *counts) add(s diff.Status) {
	switch s {
	case diff.StatusNew:
		c.added++
	case diff.StatusModified:
		c.modified++
	case diff.StatusDeleted:
		c.removed++
	}
}

func (c counts) String() string {
	return fmt.Sprintf("+%d, ~%d, -%d", c.added, c.modified, c.removed)
}

type diffCounts struct {
	tables, columns, indexes, foreignKeys counts
}

// FormatDiff formats a schema diff as a compact summary.
// Example output:
//
//	Tables:       +3, ~2, -0
//	Columns:      +5, ~2, -0
//	Indexes:      +1, ~0, -2
//	Foreign keys: +0, ~1, -0
func (summaryFormatter) FormatDiff(d *diff.SchemaDiff) (string, error) {
	if d.IsEmpty() {
		return "No changes detected.\n", nil
	}

	c := countDiff(d)

	var sb strings.Builder
	sb.WriteString("Schema Diff Summary\n")
	sb.WriteString("===================\n\n")
	fmt.Fprintf(&sb, "Tables:       %s\n", c.tables)
	fmt.Fprintf(&sb, "Columns:      %s\n", c.columns)
	fmt.Fprintf(&sb, "Indexes:      %s\n", c.indexes)
	fmt.Fprintf(&sb, "Foreign keys: %s\n", c.foreignKeys)

	sb.WriteString("\nDetails:\n")
	for _, td := range d.Tables.All() {
		switch td.Status {
		case diff.StatusNew:
			fmt.Fprintf(&sb, "  + %s (new table)\n", td.Name)
		case diff.StatusDeleted:
			fmt.Fprintf(&sb, "  - %s (removed table)\n", td.Name)
		default:
			fmt.Fprintf(&sb, "  ~ %s (%s)\n", td.Name, describeChanges(td.Diff))
		}
	}
	return sb.String(), nil
}

// countDiff counts a NEW or DELETED table's own entities as added or removed.
func countDiff(d *diff.SchemaDiff) diffCounts {
	var c diffCounts
	for _, td := range d.Tables.All() {
		c.tables.add(td.Status)
		switch td.Status {
		case diff.StatusNew:
			countTable(&c, td.Source, diff.StatusNew)
		case diff.StatusDeleted:
			countTable(&c, td.Target, diff.StatusDeleted)
		default:
			for _, cd := range td.Diff.Columns.All() {
				c.columns.add(cd.Status)
			}
			for _, id := range td.Diff.Indexes.All() {
				c.indexes.add(id.Status)
			}
			for _, fd := range td.Diff.ForeignKeys.All() {
				c.foreignKeys.add(fd.Status)
			}
		}
	}
	return c
}

func countTable(c *diffCounts, t *core.Table, s diff.Status) {
	if t == nil {
		return
	}
	for range t.Columns.Len() {
		c.columns.add(s)
	}
	for range t.Indexes.Len() {
		c.indexes.add(s)
	}
	for range t.ForeignKeys.Len() {
		c.foreignKeys.add(s)
	}
}

// describeChanges returns a human-readable summary of changes in a table.
func describeChanges(ch *diff.TableChanges) string {
	if ch == nil {
		return "no changes"
	}

	var parts []string
	appendCounts := func(unit string, c counts) {
		if c.added > 0 {
			parts = append(parts, fmt.Sprintf("+%d %s", c.added, unit))
		}
		if c.removed > 0 {
			parts = append(parts, fmt.Sprintf("-%d %s", c.removed, unit))
		}
		if c.modified > 0 {
			parts = append(parts, fmt.Sprintf("~%d %s", c.modified, unit))
		}
	}

	var cols, idx, fks counts
	for _, cd := range ch.Columns.All() {
		cols.add(cd.Status)
	}
	for _, id := range ch.Indexes.All() {
		idx.add(id.Status)
	}
	for _, fd := range ch.ForeignKeys.All() {
		fks.add(fd.Status)
	}
	appendCounts("cols", cols)
	appendCounts("idx", idx)
	appendCounts("fk", fks)

	if ch.Props.Len() > 0 {
		parts = append(parts, "options changed")
	}
	return strings.Join(parts, ", ")
}

// FormatScript formats a script as a compact summary with preflight risk counts.
func (summaryFormatter) FormatScript(s *migration.Script) (string, error) {
	if s.IsEmpty() && (s == nil || len(s.Warnings) == 0) {
		return "No migration statements.\n", nil
	}

	var sb strings.Builder
	sb.WriteString("Migration Summary\n")
	sb.WriteString("=================\n\n")

	statements := s.SQLStatements()
	preflight := apply.NewStatementAnalyzer().Preflight(statements, true)
	var danger, caution int
	for _, w := range preflight.Warnings {
		if w.Level == apply.WarnDanger {
			danger++
		} else {
			caution++
		}
	}

	fmt.Fprintf(&sb, "SQL Statements: %d\n", len(statements))
	fmt.Fprintf(&sb, "Danger:         %d\n", danger)
	fmt.Fprintf(&sb, "Caution:        %d\n", caution)

	if len(s.Statements) > 0 {
		sb.WriteString("\nTables:\n")
		for _, st := range s.Statements {
			fmt.Fprintf(&sb, "   - %s: %s\n", st.TableName, firstLine(st.SQL))
		}
	}

	if len(s.Warnings) > 0 {
		fmt.Fprintf(&sb, "\nWarnings: %d\n", len(s.Warnings))
		for _, w := range s.Warnings {
			fmt.Fprintf(&sb, "   - %s\n", w)
		}
	}
	return sb.String(), nil
}

func firstLine(stmt string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(stmt), "\n")
	return strings.TrimSuffix(line, ";")
}
