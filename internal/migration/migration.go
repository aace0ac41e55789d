// Package migration holds the output of the script generator: an ordered list of
// per-table SQL statements plus any warnings raised while generating them.
package migration

import (
	"fmt"
	"os"
	"strings"
)

// Statement is one complete SQL statement affecting a single table.
type Statement struct {
	TableName string `json:"tableName" yaml:"tableName"`
	SQL       string `json:"sql" yaml:"sql"`
}

// Script contains every statement needed to move the target schema to the
// source schema, in execution order.
type Script struct {
	Statements []Statement `json:"statements" yaml:"statements"`
	Warnings   []string    `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// AddStatement appends stmt for table. Blank statements are ignored.
func (s *Script) AddStatement(table, stmt string) {
	if stmt = strings.TrimSpace(stmt); stmt == "" {
		return
	}
	s.Statements = append(s.Statements, Statement{TableName: table, SQL: stmt})
}

// AddWarning appends a formatted warning unless the same text was already recorded.
func (s *Script) AddWarning(format string, args ...any) {
	msg := strings.TrimSpace(fmt.Sprintf(format, args...))
	if msg == "" {
		return
	}
	for _, w := range s.Warnings {
		if w == msg {
			return
		}
	}
	s.Warnings = append(s.Warnings, msg)
}

// IsEmpty reports whether the script has no statements.
func (s *Script) IsEmpty() bool {
	return s == nil || len(s.Statements) == 0
}

// SQLStatements returns the bare SQL of every statement, in order.
func (s *Script) SQLStatements() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.Statements))
	for _, st := range s.Statements {
		out = append(out, st.SQL)
	}
	return out
}

// ForTable returns the statements that affect table.
func (s *Script) ForTable(table string) []Statement {
	var out []Statement
	for _, st := range s.Statements {
		if st.TableName == table {
			out = append(out, st)
		}
	}
	return out
}

// String joins all statements with blank lines, ready to be piped into a client.
func (s *Script) String() string {
	if s.IsEmpty() {
		return ""
	}
	return strings.Join(s.SQLStatements(), "\n\n") + "\n"
}

// SaveToFile writes the plain SQL script to path.
func (s *Script) SaveToFile(path string) error {
	return os.WriteFile(path, []byte(s.String()), 0644)
}
