package mysql

import (
	"regexp"
	"strings"

	"github.com/pingcap/tidb/pkg/parser/ast"
	"github.com/pingcap/tidb/pkg/parser/format"
	pmysql "github.com/pingcap/tidb/pkg/parser/mysql"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver"
	"github.com/pingcap/tidb/pkg/parser/types"

	"github.com/doubleninth99/mysql-sync/internal/core"
)

// The server reports NOW(), LOCALTIME and friends as CURRENT_TIMESTAMP.
var timestampFuncRe = regexp.MustCompile(`(?i)^(CURRENT_TIMESTAMP|NOW|LOCALTIME|LOCALTIMESTAMP)\((\d*)\)$`)

// Integer display widths are deprecated and not reported by the catalog, except
// for tinyint(1).
var intDisplayWidthRe = regexp.MustCompile(`^(tinyint|smallint|mediumint|int|integer|bigint)\((\d+)\)`)

func (p *Parser) parseColumns(cols []*ast.ColumnDef, table *core.Table) {
	for _, colDef := range cols {
		col := newColumnFromDef(colDef)
		var extra []string
		for _, opt := range colDef.Options {
			extra = p.applyColumnOption(table, col, opt, extra)
		}
		col.Extra = strings.Join(extra, " ")
		table.AddColumn(col)
	}
}

func newColumnFromDef(colDef *ast.ColumnDef) *core.Column {
	tp := colDef.Tp
	fullType := stripDisplayWidth(tp.CompactStr())
	if pmysql.HasUnsignedFlag(tp.GetFlag()) {
		fullType += " unsigned"
	}
	if pmysql.HasZerofillFlag(tp.GetFlag()) {
		fullType += " zerofill"
	}

	col := &core.Column{
		Name:      colDef.Name.Name.O,
		Type:      dataType(fullType),
		FullType:  fullType,
		Nullable:  true,
		Default:   core.NullDefault(),
		Collation: tp.GetCollate(),
	}
	fillLengths(col, tp)
	return col
}

func stripDisplayWidth(t string) string {
	m := intDisplayWidthRe.FindStringSubmatch(t)
	if m == nil || (m[1] == "tinyint" && m[2] == "1") {
		return t
	}
	return m[1] + t[len(m[0]):]
}

func dataType(fullType string) string {
	if i := strings.IndexAny(fullType, "( "); i > 0 {
		return fullType[:i]
	}
	return fullType
}

func fillLengths(col *core.Column, tp *types.FieldType) {
	flen, dec := int64(tp.GetFlen()), int64(tp.GetDecimal())
	switch {
	case strings.Contains(col.Type, "char") || strings.Contains(col.Type, "binary"):
		if flen > 0 {
			col.Length = &flen
		}
	case col.Type == "decimal" || col.Type == "numeric":
		if flen > 0 {
			col.Precision = &flen
		}
		if dec >= 0 {
			col.Scale = &dec
		}
	}
}

func (p *Parser) applyColumnOption(table *core.Table, col *core.Column, opt *ast.ColumnOption, extra []string) []string {
	if opt == nil {
		return extra
	}

	switch opt.Tp {
	case ast.ColumnOptionNotNull:
		col.Nullable = false
	case ast.ColumnOptionNull:
		col.Nullable = true
	case ast.ColumnOptionPrimaryKey:
		col.Nullable = false
		addPrimaryKeyColumn(table, core.IndexColumn{Name: col.Name})
	case ast.ColumnOptionAutoIncrement:
		extra = append(extra, "auto_increment")
	case ast.ColumnOptionDefaultValue:
		var generated bool
		col.Default, generated = p.convertDefault(opt.Expr)
		if generated {
			extra = append([]string{"DEFAULT_GENERATED"}, extra...)
		}
	case ast.ColumnOptionOnUpdate:
		if s, _ := p.exprToString(opt.Expr); s != "" {
			extra = append(extra, "on update "+normalizeTimestampFunc(s))
		}
	case ast.ColumnOptionUniqKey:
		addUniqueColumnIndex(table, col.Name)
	case ast.ColumnOptionComment:
		if s, _ := p.exprToString(opt.Expr); s != "" {
			col.Comment = s
		}
	case ast.ColumnOptionCollate:
		if opt.StrValue != "" {
			col.Collation = opt.StrValue
		}
	case ast.ColumnOptionGenerated:
		if opt.Stored {
			extra = append(extra, "STORED GENERATED")
		} else {
			extra = append(extra, "VIRTUAL GENERATED")
		}
	}
	// Inline REFERENCES and CHECK clauses are parsed but ignored, as the server
	// does for column-level references.
	return extra
}

// convertDefault maps a DEFAULT expression to the form the catalog reports:
// NULL becomes a null default, literals become their text and anything else is
// an expression default, flagged by the second return value.
func (p *Parser) convertDefault(expr ast.ExprNode) (core.Default, bool) {
	s, quoted := p.exprToString(expr)
	if !quoted && strings.EqualFold(s, "NULL") {
		return core.NullDefault(), false
	}
	if isLiteral(expr) {
		return core.StringDefault(s), false
	}
	return core.StringDefault(normalizeTimestampFunc(s)), true
}

func isLiteral(expr ast.ExprNode) bool {
	switch e := expr.(type) {
	case ast.ValueExpr:
		return true
	case *ast.UnaryOperationExpr:
		_, ok := e.V.(ast.ValueExpr)
		return ok
	default:
		return false
	}
}

func normalizeTimestampFunc(s string) string {
	m := timestampFuncRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return s
	}
	if m[2] == "" {
		return "CURRENT_TIMESTAMP"
	}
	return "CURRENT_TIMESTAMP(" + m[2] + ")"
}

// exprToString restores expr as SQL text. A single string literal is returned
// unquoted, with quoted set.
func (p *Parser) exprToString(expr ast.ExprNode) (string, bool) {
	if expr == nil {
		return "", false
	}

	var sb strings.Builder
	restoreCtx := format.NewRestoreCtx(format.DefaultRestoreFlags, &sb)
	if err := expr.Restore(restoreCtx); err != nil {
		return "", false
	}
	s := strings.TrimSpace(sb.String())

	if unquoted, ok := tryUnquoteSQLStringLiteral(s); ok {
		return unquoted, true
	}
	return s, false
}

func tryUnquoteSQLStringLiteral(s string) (string, bool) {
	if len(s) < 2 || s[len(s)-1] != '\'' {
		return "", false
	}

	if s[0] == '\'' {
		inner := s[1 : len(s)-1]
		if strings.Contains(strings.ReplaceAll(inner, "''", ""), "'") {
			return "", false
		}
		return strings.ReplaceAll(inner, "''", "'"), true
	}

	q := strings.IndexByte(s, '\'')
	if q <= 0 || !isSQLStringIntroducer(strings.TrimSpace(s[:q])) {
		return "", false
	}
	return strings.ReplaceAll(s[q+1:len(s)-1], "''", "'"), true
}

func isSQLStringIntroducer(prefix string) bool {
	if strings.EqualFold(prefix, "N") {
		return true
	}
	if !strings.HasPrefix(prefix, "_") || len(prefix) == 1 {
		return false
	}
	for _, r := range prefix[1:] {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}
