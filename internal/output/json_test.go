package output

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/doubleninth99/mysql-sync/internal/migration"
)

func TestJSONFormatDiff(t *testing.T) {
	got, err := jsonFormatter{}.FormatDiff(sampleDiff(t))
	require.NoError(t, err)

	var payload struct {
		Tables map[string]struct {
			Status string `json:"status"`
			Diff   *struct {
				Columns map[string]struct {
					Status string `json:"status"`
				} `json:"columns"`
			} `json:"diff"`
		} `json:"tables"`
	}
	require.NoError(t, json.Unmarshal([]byte(got), &payload))
	require.Len(t, payload.Tables, 3)
	assert.Equal(t, "MODIFIED", payload.Tables["users"].Status)
	assert.Equal(t, "NEW", payload.Tables["users"].Diff.Columns["name"].Status)
	assert.Equal(t, "NEW", payload.Tables["orders"].Status)
	assert.Equal(t, "DELETED", payload.Tables["logs"].Status)

	users := strings.Index(got, `"users"`)
	orders := strings.Index(got, `"orders"`)
	logs := strings.Index(got, `"logs"`)
	assert.True(t, users < orders && orders < logs, "tables keep diff order")
}

func TestJSONFormatDiffNil(t *testing.T) {
	got, err := jsonFormatter{}.FormatDiff(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"tables":{}}`, got)
}

func TestJSONFormatScript(t *testing.T) {
	got, err := jsonFormatter{}.FormatScript(sampleScript(t))
	require.NoError(t, err)

	var s migration.Script
	require.NoError(t, json.Unmarshal([]byte(got), &s))
	require.Len(t, s.Statements, 3)
	assert.Equal(t, "users", s.Statements[0].TableName)
	assert.Equal(t, "DROP TABLE `logs`;", s.Statements[2].SQL)

	got, err = jsonFormatter{}.FormatScript(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"statements":[]}`, got)
}

func TestNewCompareResponse(t *testing.T) {
	d := sampleDiff(t)
	s := sampleScript(t)

	resp := NewCompareResponse(d, s)
	assert.Same(t, d, resp.Diff)
	assert.Equal(t, s.Statements, resp.SQL)

	b, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"diff":{"tables":{"users"`)
	assert.Contains(t, string(b), `"sql":[{"tableName":"users","sql":"ALTER TABLE`)

	empty := NewCompareResponse(nil, nil)
	assert.True(t, empty.Diff.IsEmpty())
	assert.NotNil(t, empty.SQL)
	assert.Empty(t, empty.SQL)
}

func TestYAMLFormatDiff(t *testing.T) {
	got, err := yamlFormatter{}.FormatDiff(sampleDiff(t))
	require.NoError(t, err)

	var payload struct {
		Tables map[string]struct {
			Status string `yaml:"status"`
		} `yaml:"tables"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(got), &payload))
	assert.Equal(t, "MODIFIED", payload.Tables["users"].Status)
	assert.Equal(t, "NEW", payload.Tables["orders"].Status)
	assert.Equal(t, "DELETED", payload.Tables["logs"].Status)
	assert.Less(t, strings.Index(got, "users:"), strings.Index(got, "orders:"))
}

func TestYAMLFormatScript(t *testing.T) {
	got, err := yamlFormatter{}.FormatScript(sampleScript(t))
	require.NoError(t, err)

	var s migration.Script
	require.NoError(t, yaml.Unmarshal([]byte(got), &s))
	require.Len(t, s.Statements, 3)
	assert.Equal(t, "orders", s.Statements[1].TableName)

	got, err = yamlFormatter{}.FormatScript(nil)
	require.NoError(t, err)
	assert.Equal(t, "statements: []\n", got)
}
