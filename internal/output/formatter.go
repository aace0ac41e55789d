// Package output renders schema diffs and migration scripts. It supports the
// sql, json, yaml and summary formats.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/doubleninth99/mysql-sync/internal/core"
	"github.com/doubleninth99/mysql-sync/internal/diff"
	"github.com/doubleninth99/mysql-sync/internal/migration"
)

// Format is an enum type representing the available output formats.
type Format string

const (
	FormatSQL     Format = "sql"
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatSummary Format = "summary"
)

// Formats lists every supported format name, for flag help.
var Formats = []Format{FormatSQL, FormatJSON, FormatYAML, FormatSummary}

// Formatter renders schema diffs and migration scripts.
type Formatter interface {
	FormatDiff(*diff.SchemaDiff) (string, error)
	FormatScript(*migration.Script) (string, error)
}

// NewFormatter creates a new Formatter instance based on the given name.
// If no format is specified, defaults to SQL format.
func NewFormatter(name string) (Formatter, error) {
	switch Format(strings.ToLower(strings.TrimSpace(name))) {
	case "", FormatSQL:
		return sqlFormatter{}, nil
	case FormatJSON:
		return jsonFormatter{}, nil
	case FormatYAML:
		return yamlFormatter{}, nil
	case FormatSummary:
		return summaryFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s; use 'sql', 'json', 'yaml', or 'summary'", name)
	}
}

// WriteDiff formats d with f and writes it to w.
func WriteDiff(w io.Writer, f Formatter, d *diff.SchemaDiff) error {
	content, err := f.FormatDiff(d)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, content)
	return err
}

// WriteScript formats s with f and writes it to w.
func WriteScript(w io.Writer, f Formatter, s *migration.Script) error {
	content, err := f.FormatScript(s)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, content)
	return err
}

func terminate(stmt string) string {
	stmt = strings.TrimSpace(stmt)
	if stmt != "" && !strings.HasSuffix(stmt, ";") {
		stmt += ";"
	}
	return stmt
}

func orEmpty(d *diff.SchemaDiff) *diff.SchemaDiff {
	if d == nil || d.Tables == nil {
		return &diff.SchemaDiff{Tables: core.NewOrderedMap[*diff.TableDiff](0)}
	}
	return d
}
