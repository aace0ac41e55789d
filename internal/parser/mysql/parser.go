// Package mysql reads a MySQL DDL dump (as produced by mysqldump --no-data or
// SHOW CREATE TABLE) into a schema snapshot using the TiDB SQL parser.
package mysql

import (
	"fmt"
	"strings"

	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
	"github.com/pingcap/tidb/pkg/parser/format"

	"github.com/doubleninth99/mysql-sync/internal/core"
)

type Parser struct {
	p *parser.Parser
}

func NewParser() *Parser {
	return &Parser{
		p: parser.New(),
	}
}

// Parse converts every CREATE TABLE statement of sql into a table of the
// returned schema, in dump order. Other statements are ignored.
func (p *Parser) Parse(sql string) (*core.Schema, error) {
	stmtNodes, _, err := p.p.Parse(sql, "", "")
	if err != nil {
		return nil, fmt.Errorf("failed to parse MySQL dump: %w", err)
	}

	s := core.NewSchema("")
	for _, stmtNode := range stmtNodes {
		switch stmt := stmtNode.(type) {
		case *ast.UseStmt:
			if s.Name == "" {
				s.Name = stmt.DBName
			}
		case *ast.CreateTableStmt:
			table, err := p.convertCreateTable(stmt)
			if err != nil {
				return nil, err
			}
			if s.Tables.Has(table.Name) {
				return nil, fmt.Errorf("table %s is defined more than once", table.Name)
			}
			s.AddTable(table)
		}
	}

	return s, nil
}

func (p *Parser) convertCreateTable(stmt *ast.CreateTableStmt) (*core.Table, error) {
	if stmt.ReferTable != nil {
		return nil, fmt.Errorf("table %s: CREATE TABLE ... LIKE is not supported", stmt.Table.Name.O)
	}
	if stmt.Select != nil {
		return nil, fmt.Errorf("table %s: CREATE TABLE ... SELECT is not supported", stmt.Table.Name.O)
	}

	table := core.NewTable(stmt.Table.Name.O)
	createSQL, err := statementText(stmt)
	if err != nil {
		return nil, fmt.Errorf("table %s: %w", table.Name, err)
	}
	table.CreateSQL = createSQL

	p.parseTableOptions(stmt.Options, table)
	p.parseColumns(stmt.Cols, table)
	p.parseConstraints(stmt.Constraints, table)
	addImplicitForeignKeyIndexes(table)
	markColumnKeys(table)

	return table, nil
}

func (p *Parser) parseTableOptions(opts []*ast.TableOption, table *core.Table) {
	for _, opt := range opts {
		switch opt.Tp {
		case ast.TableOptionEngine:
			table.Engine = opt.StrValue
		case ast.TableOptionCollate:
			table.Collation = opt.StrValue
		case ast.TableOptionComment:
			table.Comment = opt.StrValue
		}
	}
}

// statementText returns the statement as written in the dump, restoring it
// from the AST when the parser did not keep the original text.
func statementText(stmt *ast.CreateTableStmt) (string, error) {
	if text := strings.TrimSpace(stmt.Text()); text != "" {
		return strings.TrimSuffix(text, ";"), nil
	}
	var sb strings.Builder
	if err := stmt.Restore(format.NewRestoreCtx(format.DefaultRestoreFlags, &sb)); err != nil {
		return "", fmt.Errorf("restore create statement: %w", err)
	}
	return sb.String(), nil
}
