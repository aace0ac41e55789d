package output

import (
	"strings"

	"github.com/doubleninth99/mysql-sync/internal/apply"
	"github.com/doubleninth99/mysql-sync/internal/diff"
	"github.com/doubleninth99/mysql-sync/internal/migration"
)

type sqlFormatter struct{}

// FormatDiff renders the human-readable diff tree.
func (sqlFormatter) FormatDiff(d *diff.SchemaDiff) (string, error) {
	return d.String(), nil
}

// FormatScript renders an executable script. Each statement is preceded by
// its table name and any preflight risks, as SQL comments.
func (sqlFormatter) FormatScript(s *migration.Script) (string, error) {
	var sb strings.Builder
	sb.WriteString("-- mysqlsync migration\n")
	sb.WriteString("-- Review before running in production.\n")

	if s != nil {
		writeCommentSection(&sb, "WARNINGS", s.Warnings)
	}

	if s.IsEmpty() {
		sb.WriteString("\n-- No SQL statements generated.\n")
		return sb.String(), nil
	}

	analyzer := apply.NewStatementAnalyzer()
	for _, st := range s.Statements {
		sb.WriteString("\n-- table: " + st.TableName + "\n")
		writeRiskComments(&sb, analyzer.Analyze(st.SQL).Warnings(""))
		sb.WriteString(terminate(st.SQL))
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func writeRiskComments(sb *strings.Builder, warnings []apply.Warning) {
	for _, w := range warnings {
		sb.WriteString("-- [" + string(w.Level) + "] " + w.Message + "\n")
	}
}

func writeCommentSection(sb *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	sb.WriteString("\n-- " + title + "\n")
	for _, item := range items {
		for _, line := range splitCommentLines(item) {
			if line == "" {
				continue
			}
			sb.WriteString("-- - " + line + "\n")
		}
	}
}

func splitCommentLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return lines
}
