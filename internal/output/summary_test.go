package output

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doubleninth99/mysql-sync/internal/diff"
	"github.com/doubleninth99/mysql-sync/internal/migration"
)

func TestSummaryFormatDiff(t *testing.T) {
	got, err := summaryFormatter{}.FormatDiff(sampleDiff(t))
	require.NoError(t, err)

	assert.Contains(t, got, "Schema Diff Summary")
	assert.Contains(t, got, "Tables:       +1, ~1, -1\n")
	assert.Contains(t, got, "Columns:      +3, ~0, -1\n")
	assert.Contains(t, got, "Indexes:      +1, ~0, -0\n")
	assert.Contains(t, got, "Foreign keys: +0, ~0, -0\n")
	assert.Contains(t, got, "  ~ users (+1 cols)\n")
	assert.Contains(t, got, "  + orders (new table)\n")
	assert.Contains(t, got, "  - logs (removed table)\n")
}

func TestSummaryFormatDiffEmpty(t *testing.T) {
	for _, d := range []*diff.SchemaDiff{nil, orEmpty(nil)} {
		got, err := summaryFormatter{}.FormatDiff(d)
		require.NoError(t, err)
		assert.Equal(t, "No changes detected.\n", got)
	}
}

func TestDescribeChanges(t *testing.T) {
	assert.Equal(t, "no changes", describeChanges(nil))

	d := sampleDiff(t)
	users, ok := d.Tables.Get("users")
	require.True(t, ok)
	users.Diff.Props.Set("engine", diff.FieldChange{Source: "InnoDB", Target: "MyISAM"})
	assert.Equal(t, "+1 cols, options changed", describeChanges(users.Diff))
}

func TestSummaryFormatScript(t *testing.T) {
	s := sampleScript(t)
	s.AddWarning("table %s: no create statement available; skipped", "ghost")

	got, err := summaryFormatter{}.FormatScript(s)
	require.NoError(t, err)

	assert.Contains(t, got, "SQL Statements: 3\n")
	assert.Contains(t, got, "Danger:         1\n")
	assert.Contains(t, got, "Caution:        1\n")
	assert.Contains(t, got, "   - users: ALTER TABLE `users`\n")
	assert.Contains(t, got, "   - logs: DROP TABLE `logs`\n")
	assert.Contains(t, got, "Warnings: 1\n")
}

func TestSummaryFormatScriptEmpty(t *testing.T) {
	for _, s := range []*migration.Script{nil, {}} {
		got, err := summaryFormatter{}.FormatScript(s)
		require.NoError(t, err)
		assert.Equal(t, "No migration statements.\n", got)
	}
}
