package mysql

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/doubleninth99/mysql-sync/internal/core"
)

// The only keyword default the catalog reports; its synonyms are normalized to
// it on load. Any other string default is a literal, including 'NULL' and 'now'.
var keywordDefaultRe = regexp.MustCompile(`(?i)^CURRENT_TIMESTAMP(\(\d*\))?$`)

// The catalog marks expression defaults with this token in EXTRA; it is not
// valid in a column definition.
const defaultGeneratedMarker = "DEFAULT_GENERATED"

func (g *Generator) formatColumns(cols []string) string {
	var quoted []string
	for _, c := range cols {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		quoted = append(quoted, g.QuoteIdentifier(c))
	}
	return "(" + strings.Join(quoted, ", ") + ")"
}

func (g *Generator) formatIndexColumns(cols []core.IndexColumn) string {
	var quoted []string
	for _, c := range cols {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			continue
		}
		qname := g.QuoteIdentifier(name)
		if c.SubPart != nil {
			qname = fmt.Sprintf("%s(%d)", qname, *c.SubPart)
		}
		quoted = append(quoted, qname)
	}
	return "(" + strings.Join(quoted, ", ") + ")"
}

// columnDefinition renders `name` type [NOT NULL] [DEFAULT ...] [extra] [COMMENT '...'].
// Nullable columns without a literal default get an explicit DEFAULT NULL.
func (g *Generator) columnDefinition(c *core.Column) string {
	parts := []string{g.QuoteIdentifier(c.Name), strings.TrimSpace(c.FullType)}
	if !c.Nullable {
		parts = append(parts, "NOT NULL")
	}

	switch {
	case c.Default.Kind == core.DefaultLiteral:
		parts = append(parts, "DEFAULT", g.formatDefault(c))
	case c.Nullable:
		parts = append(parts, "DEFAULT NULL")
	}

	if extra := cleanExtra(c.Extra); extra != "" {
		parts = append(parts, extra)
	}
	if c.Comment != "" {
		parts = append(parts, "COMMENT", g.QuoteString(c.Comment))
	}
	return strings.Join(parts, " ")
}

func (g *Generator) formatDefault(c *core.Column) string {
	text := c.Default.Text()
	if s, ok := c.Default.Value.(string); ok && keywordDefaultRe.MatchString(strings.TrimSpace(s)) {
		return strings.TrimSpace(s)
	}
	if b, ok := c.Default.Value.(bool); ok {
		if b {
			return "'1'"
		}
		return "'0'"
	}
	if isExpressionDefault(c.Extra) {
		return "(" + text + ")"
	}
	return g.QuoteString(text)
}

func isExpressionDefault(extra string) bool {
	return strings.Contains(strings.ToUpper(extra), defaultGeneratedMarker)
}

// cleanExtra strips catalog-only markers from EXTRA and collapses whitespace.
func cleanExtra(extra string) string {
	fields := strings.Fields(extra)
	out := fields[:0]
	for _, f := range fields {
		if strings.EqualFold(f, defaultGeneratedMarker) {
			continue
		}
		out = append(out, f)
	}
	return strings.Join(out, " ")
}
