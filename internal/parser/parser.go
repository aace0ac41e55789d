// Package parser reads offline schema sources: a MySQL DDL dump (.sql) or a
// TOML snapshot (.toml), both converted to core.Schema.
package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/doubleninth99/mysql-sync/internal/core"
	"github.com/doubleninth99/mysql-sync/internal/parser/mysql"
	"github.com/doubleninth99/mysql-sync/internal/parser/toml"
)

// ParseFile picks a parser from the file extension.
func ParseFile(path string) (*core.Schema, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.NewParser().ParseFile(path)
	case ".sql":
		return parseSQLFile(path)
	default:
		return nil, &UnsupportedFormatError{Path: path}
	}
}

// Supported reports whether ParseFile understands the extension of path.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml", ".sql":
		return true
	}
	return false
}

func parseSQLFile(path string) (*core.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("sql: read file %q: %w", path, err)
	}
	s, err := mysql.NewParser().Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("sql: %q: %w", path, err)
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err := core.Validate("dump", s); err != nil {
		return nil, err
	}
	return s, nil
}

type UnsupportedFormatError struct {
	Path string
}

func (e *UnsupportedFormatError) Error() string {
	return "unsupported file format: " + e.Path
}
