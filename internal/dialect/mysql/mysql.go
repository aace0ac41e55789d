// Package mysql provides MySQL dialect support: the migration script generator
// and the registration that ties it to the MySQL DDL parser.
package mysql

import (
	"fmt"
	"strings"

	"github.com/doubleninth99/mysql-sync/internal/dialect"
	"github.com/doubleninth99/mysql-sync/internal/diff"
	"github.com/doubleninth99/mysql-sync/internal/migration"
	mysqlparser "github.com/doubleninth99/mysql-sync/internal/parser/mysql"
)

func init() {
	ctor := func() dialect.Dialect {
		return NewMySQLDialect()
	}
	dialect.RegisterDialect(dialect.MySQL, ctor)
	dialect.RegisterDialect(dialect.MariaDB, ctor)
}

// Dialect represents the MySQL dialect struct, with migration generator
// and parser.
type Dialect struct {
	generator *Generator
	parser    *mysqlparser.Parser
}

// NewMySQLDialect initializes a new MySQL dialect instance.
func NewMySQLDialect() *Dialect {
	return &Dialect{
		generator: NewMySQLGenerator(),
		parser:    mysqlparser.NewParser(),
	}
}

// Name returns the name of the MySQL dialect.
func (d *Dialect) Name() dialect.Type {
	return dialect.MySQL
}

// Generator returns the migration generator for the MySQL dialect.
func (d *Dialect) Generator() dialect.Generator {
	return d.generator
}

// Parser returns the schema parser for the MySQL dialect.
func (d *Dialect) Parser() dialect.Parser {
	return d.parser
}

// Generator is a stateless struct for generating MySQL migrations.
type Generator struct{}

// NewMySQLGenerator initializes a new MySQL migration generator instance.
func NewMySQLGenerator() *Generator {
	return &Generator{}
}

// Generate emits one statement per table of d, in diff order: the verbatim
// create statement for NEW tables, DROP TABLE for DELETED ones and a single
// ALTER TABLE for MODIFIED ones. A NEW table without a create statement is
// skipped with a warning.
func (g *Generator) Generate(d *diff.SchemaDiff) *migration.Script {
	s := &migration.Script{}
	if d.IsEmpty() {
		return s
	}

	for name, td := range d.Tables.All() {
		switch td.Status {
		case diff.StatusNew:
			create := ""
			if td.Source != nil {
				create = strings.TrimSpace(td.Source.CreateSQL)
			}
			if create == "" {
				s.AddWarning("table %s: no create statement available; skipped", name)
				continue
			}
			if !strings.HasSuffix(create, ";") {
				create += ";"
			}
			s.AddStatement(name, create)
		case diff.StatusDeleted:
			s.AddStatement(name, g.GenerateDropTable(name))
		case diff.StatusModified:
			if stmt := g.GenerateAlterTable(td); stmt != "" {
				s.AddStatement(name, stmt)
			}
		}
	}
	return s
}

// GenerateDropTable generate an SQL statement to drop a table.
func (g *Generator) GenerateDropTable(name string) string {
	return fmt.Sprintf("DROP TABLE %s;", g.QuoteIdentifier(name))
}

// GenerateAlterTable builds the ALTER TABLE statement for a MODIFIED table, or
// returns an empty string when there is nothing to alter.
func (g *Generator) GenerateAlterTable(td *diff.TableDiff) string {
	if td == nil || td.Diff == nil {
		return ""
	}
	clauses := g.alterClauses(td)
	if len(clauses) == 0 {
		return ""
	}
	return fmt.Sprintf("ALTER TABLE %s\n  %s;", g.QuoteIdentifier(td.Name), strings.Join(clauses, ",\n  "))
}

// QuoteIdentifier is a function used for quote identification inside an SQL dialect.
func (g *Generator) QuoteIdentifier(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "`", "``")
	return "`" + name + "`"
}

// QuoteString is a function used for quote string inside an SQL dialect.
func (g *Generator) QuoteString(value string) string {
	var b strings.Builder
	b.Grow(len(value) + len(value)/10 + 2)

	b.WriteByte('\'')
	for _, char := range value {
		switch char {
		case '\'':
			b.WriteString("''")
		case '\\':
			b.WriteString(`\\`)
		case '\x00':
			b.WriteString(`\0`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\x1A': // Ctrl+Z
			b.WriteString(`\Z`)
		default:
			b.WriteRune(char)
		}
	}
	b.WriteByte('\'')
	return b.String()
}
