package output

import (
	"encoding/json"

	"github.com/doubleninth99/mysql-sync/internal/diff"
	"github.com/doubleninth99/mysql-sync/internal/migration"
)

type jsonFormatter struct{}

// CompareResponse is the body returned by the compare endpoint: the diff tree
// plus the generated per-table statements.
type CompareResponse struct {
	Diff     *diff.SchemaDiff      `json:"diff" yaml:"diff"`
	SQL      []migration.Statement `json:"sql" yaml:"sql"`
	Warnings []string              `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// NewCompareResponse pairs d with the script generated from it.
func NewCompareResponse(d *diff.SchemaDiff, s *migration.Script) CompareResponse {
	payload := scriptPayload(s)
	return CompareResponse{
		Diff:     orEmpty(d),
		SQL:      payload.Statements,
		Warnings: payload.Warnings,
	}
}

func (jsonFormatter) FormatDiff(d *diff.SchemaDiff) (string, error) {
	return marshalJSON(orEmpty(d))
}

func (jsonFormatter) FormatScript(s *migration.Script) (string, error) {
	return marshalJSON(scriptPayload(s))
}

// scriptPayload never has a null statement list.
func scriptPayload(s *migration.Script) *migration.Script {
	out := &migration.Script{Statements: []migration.Statement{}}
	if s != nil {
		out.Statements = append(out.Statements, s.Statements...)
		out.Warnings = s.Warnings
	}
	return out
}

func marshalJSON(payload any) (string, error) {
	b, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b) + "\n", nil
}
