package apply

import (
	"strings"
)

// Split breaks a SQL script into statements. The TiDB parser is tried first
// and keeps each statement's original text; a script it rejects is split on
// lines ending in a semicolon, skipping "--" comment lines.
func (a *StatementAnalyzer) Split(content string) []string {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}

	if nodes, _, err := a.parser.Parse(content, "", ""); err == nil && len(nodes) > 0 {
		var statements []string
		for _, node := range nodes {
			if node == nil {
				continue
			}
			if stmt := trimStatement(node.Text()); stmt != "" {
				statements = append(statements, stmt)
			}
		}
		if len(statements) > 0 {
			return statements
		}
	}
	return splitLines(content)
}

func splitLines(content string) []string {
	var (
		statements []string
		current    strings.Builder
	)
	for line := range strings.SplitSeq(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}

		current.WriteString(line)
		current.WriteString("\n")

		if strings.HasSuffix(trimmed, ";") {
			if stmt := trimStatement(current.String()); stmt != "" {
				statements = append(statements, stmt)
			}
			current.Reset()
		}
	}
	if stmt := trimStatement(current.String()); stmt != "" {
		statements = append(statements, stmt)
	}
	return statements
}

// trimStatement drops surrounding blanks, leading comment lines and the
// terminating semicolon.
func trimStatement(stmt string) string {
	stmt = strings.TrimSpace(stmt)
	for strings.HasPrefix(stmt, "--") {
		_, rest, found := strings.Cut(stmt, "\n")
		if !found {
			return ""
		}
		stmt = strings.TrimSpace(rest)
	}
	return strings.TrimSpace(strings.TrimSuffix(stmt, ";"))
}
