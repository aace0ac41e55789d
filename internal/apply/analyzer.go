package apply

import (
	"fmt"
	"strings"

	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver" // registers the value expression driver
)

// WarningLevel grades a preflight finding.
type WarningLevel string

const (
	WarnCaution WarningLevel = "CAUTION"
	WarnDanger  WarningLevel = "DANGER"
)

// Warning is a preflight finding tied to the statement that raised it.
type Warning struct {
	Level   WarningLevel `json:"level" yaml:"level"`
	Message string       `json:"message" yaml:"message"`
	SQL     string       `json:"sql,omitempty" yaml:"sql,omitempty"`
}

// PreflightResult summarizes the risks of a list of statements.
type PreflightResult struct {
	Warnings        []Warning
	IsTransactional bool
	NonTxReasons    []string
}

// HasDanger reports whether any statement would destroy data.
func (r *PreflightResult) HasDanger() bool {
	if r == nil {
		return false
	}
	for _, w := range r.Warnings {
		if w.Level == WarnDanger {
			return true
		}
	}
	return false
}

// StatementAnalysis is the risk profile of a single statement.
type StatementAnalysis struct {
	Kind           string
	Blocking       []string
	Destructive    []string
	ImplicitCommit bool
}

// Warnings converts the analysis into preflight warnings for sql.
func (s StatementAnalysis) Warnings(sql string) []Warning {
	out := make([]Warning, 0, len(s.Destructive)+len(s.Blocking))
	for _, reason := range s.Destructive {
		out = append(out, Warning{Level: WarnDanger, Message: reason, SQL: sql})
	}
	for _, reason := range s.Blocking {
		out = append(out, Warning{Level: WarnCaution, Message: "Potentially blocking DDL: " + reason, SQL: sql})
	}
	return out
}

type specEffect struct {
	blocking    string
	destructive string
}

var alterSpecEffects = map[ast.AlterTableType]specEffect{
	ast.AlterTableAddColumns: {
		blocking: "ADD COLUMN may rebuild the table",
	},
	ast.AlterTableDropColumn: {
		blocking:    "DROP COLUMN rebuilds the table",
		destructive: "DROP COLUMN permanently deletes the column and its data",
	},
	ast.AlterTableModifyColumn: {
		blocking: "MODIFY COLUMN may rebuild the table and can truncate values when the type narrows",
	},
	ast.AlterTableChangeColumn: {
		blocking: "CHANGE COLUMN may rebuild the table",
	},
	ast.AlterTableDropIndex: {
		blocking: "DROP INDEX briefly locks the table",
	},
	ast.AlterTableDropPrimaryKey: {
		blocking: "DROP PRIMARY KEY rebuilds the table",
	},
	ast.AlterTableDropForeignKey: {
		blocking: "DROP FOREIGN KEY briefly locks the table",
	},
	ast.AlterTableRenameTable: {
		blocking: "RENAME takes an exclusive metadata lock",
	},
	ast.AlterTableForce: {
		blocking: "FORCE rebuilds the table",
	},
}

// ddlPrefixes cause an implicit commit when the parser cannot classify the statement.
var ddlPrefixes = []string{"CREATE ", "DROP ", "ALTER ", "RENAME ", "TRUNCATE "}

// StatementAnalyzer classifies statements with the TiDB parser. It is not safe
// for concurrent use.
type StatementAnalyzer struct {
	parser *parser.Parser
}

func NewStatementAnalyzer() *StatementAnalyzer {
	return &StatementAnalyzer{parser: parser.New()}
}

// Analyze classifies one statement. Statements the parser rejects fall back to
// a keyword check, so MySQL syntax unknown to TiDB is still treated as DDL.
func (a *StatementAnalyzer) Analyze(sql string) StatementAnalysis {
	nodes, _, err := a.parser.Parse(sql, "", "")
	if err != nil || len(nodes) == 0 {
		return analyzeText(sql)
	}
	return analyzeNode(nodes[0], sql)
}

// Preflight analyzes every statement. Without unsafe, destructive findings are
// flagged as needing --unsafe.
func (a *StatementAnalyzer) Preflight(statements []string, unsafe bool) *PreflightResult {
	result := &PreflightResult{IsTransactional: true}

	for _, stmt := range statements {
		analysis := a.Analyze(stmt)
		for _, w := range analysis.Warnings(stmt) {
			if w.Level == WarnDanger && !unsafe {
				w.Message += " (requires --unsafe flag)"
			}
			result.Warnings = append(result.Warnings, w)
		}
		if analysis.ImplicitCommit {
			result.IsTransactional = false
			result.NonTxReasons = append(result.NonTxReasons,
				fmt.Sprintf("%s causes an implicit commit: %s", analysis.Kind, truncateSQL(stmt)))
		}
	}
	return result
}

func analyzeNode(node ast.StmtNode, sql string) StatementAnalysis {
	var s StatementAnalysis
	switch stmt := node.(type) {
	case *ast.CreateTableStmt:
		s = ddl("CREATE TABLE")
	case *ast.CreateDatabaseStmt:
		s = ddl("CREATE DATABASE")
	case *ast.CreateViewStmt:
		s = ddl("CREATE VIEW")
	case *ast.CreateIndexStmt:
		s = ddl("CREATE INDEX")
		s.Blocking = append(s.Blocking, "CREATE INDEX may lock large tables while the index builds")
	case *ast.DropTableStmt:
		s = ddl("DROP TABLE")
		s.Destructive = append(s.Destructive, "DROP TABLE permanently deletes the table and all its data")
	case *ast.DropDatabaseStmt:
		s = ddl("DROP DATABASE")
		s.Destructive = append(s.Destructive, "DROP DATABASE permanently deletes the entire database")
	case *ast.DropIndexStmt:
		s = ddl("DROP INDEX")
		s.Blocking = append(s.Blocking, "DROP INDEX briefly locks the table")
	case *ast.TruncateTableStmt:
		s = ddl("TRUNCATE TABLE")
		s.Destructive = append(s.Destructive, "TRUNCATE TABLE deletes every row of the table")
	case *ast.RenameTableStmt:
		s = ddl("RENAME TABLE")
		s.Blocking = append(s.Blocking, "RENAME TABLE takes an exclusive metadata lock")
	case *ast.AlterDatabaseStmt:
		s = ddl("ALTER DATABASE")
	case *ast.AlterTableStmt:
		s = ddl("ALTER TABLE")
		for _, spec := range stmt.Specs {
			analyzeAlterSpec(spec, &s)
		}
	case *ast.DeleteStmt:
		s.Kind = "DELETE"
		s.Destructive = append(s.Destructive, "DELETE removes rows from the table")
	case *ast.InsertStmt:
		s.Kind = "INSERT"
	case *ast.UpdateStmt:
		s.Kind = "UPDATE"
	case *ast.SelectStmt:
		s.Kind = "SELECT"
	default:
		s = analyzeText(sql)
	}
	return s
}

func ddl(kind string) StatementAnalysis {
	return StatementAnalysis{Kind: kind, ImplicitCommit: true}
}

func analyzeAlterSpec(spec *ast.AlterTableSpec, s *StatementAnalysis) {
	switch spec.Tp {
	case ast.AlterTableAddConstraint:
		s.Blocking = append(s.Blocking, constraintEffect(spec.Constraint))
		return
	case ast.AlterTableOption:
		for _, opt := range spec.Options {
			if opt.Tp == ast.TableOptionEngine {
				s.Blocking = append(s.Blocking, "changing ENGINE copies the whole table")
			}
		}
		return
	}

	effect, ok := alterSpecEffects[spec.Tp]
	if !ok {
		return
	}
	if effect.destructive != "" {
		s.Destructive = append(s.Destructive, effect.destructive)
	}
	if effect.blocking != "" {
		s.Blocking = append(s.Blocking, effect.blocking)
	}
}

func constraintEffect(c *ast.Constraint) string {
	if c == nil {
		return "ADD CONSTRAINT may lock the table while existing rows are checked"
	}
	switch c.Tp {
	case ast.ConstraintPrimaryKey:
		return "ADD PRIMARY KEY rebuilds the table"
	case ast.ConstraintForeignKey:
		return "ADD FOREIGN KEY locks the table while existing rows are checked"
	case ast.ConstraintIndex, ast.ConstraintKey, ast.ConstraintUniq,
		ast.ConstraintUniqKey, ast.ConstraintUniqIndex, ast.ConstraintFulltext:
		return "ADD INDEX may lock large tables while the index builds"
	default:
		return "ADD CONSTRAINT may lock the table while existing rows are checked"
	}
}

func analyzeText(sql string) StatementAnalysis {
	upper := strings.ToUpper(strings.TrimSpace(sql))
	s := StatementAnalysis{Kind: "OTHER"}
	for _, prefix := range ddlPrefixes {
		if !strings.HasPrefix(upper, prefix) {
			continue
		}
		s.ImplicitCommit = true
		s.Kind = leadingWords(upper, 2)
		if prefix == "DROP " && strings.HasPrefix(upper, "DROP TABLE") {
			s.Destructive = append(s.Destructive, "DROP TABLE permanently deletes the table and all its data")
		}
		break
	}
	return s
}

func leadingWords(s string, n int) string {
	fields := strings.Fields(s)
	if len(fields) > n {
		fields = fields[:n]
	}
	return strings.Join(fields, " ")
}
