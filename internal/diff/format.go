package diff

import (
	"fmt"
	"os"
	"strings"

	"github.com/doubleninth99/mysql-sync/internal/core"
)

var statusMarks = map[Status]string{
	StatusNew:      "+",
	StatusModified: "~",
	StatusDeleted:  "-",
}

// String returns a human-readable tree of all schema differences.
func (d *SchemaDiff) String() string {
	if d.IsEmpty() {
		return "No differences detected.\n"
	}

	var sb strings.Builder
	sb.WriteString("Schema differences:\n")
	for _, td := range d.Tables.All() {
		writeTableDiff(&sb, td)
	}
	return sb.String()
}

func writeTableDiff(sb *strings.Builder, td *TableDiff) {
	fmt.Fprintf(sb, "\n%s %s (%s)\n", statusMarks[td.Status], td.Name, strings.ToLower(string(td.Status)))
	if td.Diff == nil {
		return
	}

	if td.Diff.Props.Len() > 0 {
		sb.WriteString("    Options changed:\n")
		for name, fc := range td.Diff.Props.All() {
			fmt.Fprintf(sb, "      - %s: %s -> %s\n", name, formatValue(fc.Target), formatValue(fc.Source))
		}
	}

	if td.Diff.Columns.Len() > 0 {
		sb.WriteString("    Columns:\n")
		for name, cd := range td.Diff.Columns.All() {
			switch cd.Status {
			case StatusNew:
				fmt.Fprintf(sb, "      + %s: %s\n", name, cd.Source.FullType)
			case StatusDeleted:
				fmt.Fprintf(sb, "      - %s: %s\n", name, cd.Target.FullType)
			default:
				fmt.Fprintf(sb, "      ~ %s:\n", name)
				writeFieldChanges(sb, cd.Diff)
			}
		}
	}

	if td.Diff.Indexes.Len() > 0 {
		sb.WriteString("    Indexes:\n")
		for name, id := range td.Diff.Indexes.All() {
			switch id.Status {
			case StatusNew:
				fmt.Fprintf(sb, "      + %s %s\n", name, formatIndexColumns(id.Source.Columns))
			case StatusDeleted:
				fmt.Fprintf(sb, "      - %s %s\n", name, formatIndexColumns(id.Target.Columns))
			default:
				fmt.Fprintf(sb, "      ~ %s:\n", name)
				writeFieldChanges(sb, id.Diff)
			}
		}
	}

	if td.Diff.ForeignKeys.Len() > 0 {
		sb.WriteString("    Foreign keys:\n")
		for name, fd := range td.Diff.ForeignKeys.All() {
			switch fd.Status {
			case StatusNew:
				fmt.Fprintf(sb, "      + %s %s\n", name, formatForeignKey(fd.Source))
			case StatusDeleted:
				fmt.Fprintf(sb, "      - %s %s\n", name, formatForeignKey(fd.Target))
			default:
				fmt.Fprintf(sb, "      ~ %s: %s -> %s\n", name, formatForeignKey(fd.Target), formatForeignKey(fd.Source))
			}
		}
	}
}

// writeFieldChanges prints each change as target -> source, the direction the
// migration moves the database.
func writeFieldChanges(sb *strings.Builder, changes *core.OrderedMap[FieldChange]) {
	for field, fc := range changes.All() {
		fmt.Fprintf(sb, "        - %s: %s -> %s\n", field, formatValue(fc.Target), formatValue(fc.Source))
	}
}

func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		return fmt.Sprintf("%q", val)
	case []core.IndexColumn:
		return formatIndexColumns(val)
	default:
		return fmt.Sprint(val)
	}
}

func formatIndexColumns(cols []core.IndexColumn) string {
	parts := make([]string, 0, len(cols))
	for _, c := range cols {
		if c.SubPart != nil {
			parts = append(parts, fmt.Sprintf("%s(%d)", c.Name, *c.SubPart))
			continue
		}
		parts = append(parts, c.Name)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func formatForeignKey(fk *core.ForeignKey) string {
	s := fmt.Sprintf("(%s) -> %s(%s)", strings.Join(fk.Columns, ", "), fk.ReferencedTable, strings.Join(fk.ReferencedColumns, ", "))
	if fk.UpdateRule != "" {
		s += " ON UPDATE " + fk.UpdateRule
	}
	if fk.DeleteRule != "" {
		s += " ON DELETE " + fk.DeleteRule
	}
	return s
}

// SaveToFile writes the human-readable diff to path.
// 0644 permissions means read/write for owner, read for group and others.
func (d *SchemaDiff) SaveToFile(path string) error {
	return os.WriteFile(path, []byte(d.String()), 0644)
}
