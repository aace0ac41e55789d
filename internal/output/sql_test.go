package output

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doubleninth99/mysql-sync/internal/migration"
)

func TestSQLFormatDiffUsesTree(t *testing.T) {
	d := sampleDiff(t)
	got, err := sqlFormatter{}.FormatDiff(d)
	require.NoError(t, err)
	assert.Equal(t, d.String(), got)

	got, err = sqlFormatter{}.FormatDiff(nil)
	require.NoError(t, err)
	assert.Equal(t, "No differences detected.\n", got)
}

func TestSQLFormatScript(t *testing.T) {
	s := sampleScript(t)
	s.AddWarning("table %s: no create statement available; skipped", "ghost")

	got, err := sqlFormatter{}.FormatScript(s)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(got, "-- mysqlsync migration\n-- Review before running in production.\n"))
	assert.Contains(t, got, "\n-- WARNINGS\n-- - table ghost: no create statement available; skipped\n")
	assert.Contains(t, got, "\n-- table: users\n-- [CAUTION] Potentially blocking DDL: ADD COLUMN may rebuild the table\nALTER TABLE `users`\n  ADD COLUMN `name` varchar(255) NOT NULL;\n")
	assert.Contains(t, got, "\n-- table: orders\nCREATE TABLE `orders` (")
	assert.Contains(t, got, "\n-- table: logs\n-- [DANGER] DROP TABLE permanently deletes the table and all its data\nDROP TABLE `logs`;\n")

	users := strings.Index(got, "-- table: users")
	orders := strings.Index(got, "-- table: orders")
	logs := strings.Index(got, "-- table: logs")
	assert.True(t, users < orders && orders < logs, "statements keep diff order")
}

func TestSQLFormatScriptEmpty(t *testing.T) {
	for _, s := range []*migration.Script{nil, {}} {
		got, err := sqlFormatter{}.FormatScript(s)
		require.NoError(t, err)
		assert.Contains(t, got, "-- No SQL statements generated.")
	}
}

func TestSplitCommentLines(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, splitCommentLines(" a \r\nb\rc"))
}
