package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doubleninth99/mysql-sync/internal/apply"
	"github.com/doubleninth99/mysql-sync/internal/config"
	"github.com/doubleninth99/mysql-sync/internal/profile"
)

const (
	sourceDump = `CREATE TABLE users (
  id INT NOT NULL AUTO_INCREMENT,
  email VARCHAR(255) NOT NULL,
  PRIMARY KEY (id)
);
CREATE TABLE orders (
  id INT NOT NULL,
  user_id INT NOT NULL,
  PRIMARY KEY (id)
);`

	targetDump = `CREATE TABLE users (
  id INT NOT NULL AUTO_INCREMENT,
  PRIMARY KEY (id)
);
CREATE TABLE legacy (
  id INT NOT NULL
);`

	testDSN = "root:secret@tcp(localhost:3306)/shop"
)

type result struct {
	stdout string
	stderr string
	err    error
}

type cli struct {
	t        *testing.T
	profiles string
}

// newCLI isolates the profile store, its key and the log level for one test.
func newCLI(t *testing.T) *cli {
	t.Helper()
	c := &cli{t: t, profiles: filepath.Join(t.TempDir(), "connections.toml")}
	t.Setenv(config.EnvSecretKey, strings.Repeat("ab", 32))
	t.Setenv(config.EnvLogLevel, "error")
	t.Setenv(config.EnvProfiles, c.profiles)
	return c
}

func (c *cli) run(args ...string) result {
	c.t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(""))

	err := cmd.Execute()
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDiffCommand(t *testing.T) {
	c := newCLI(t)
	src := writeFile(t, "source.sql", sourceDump)
	tgt := writeFile(t, "target.sql", targetDump)

	res := c.run("diff", src, tgt)
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "Schema differences:")
	assert.Contains(t, res.stdout, "~ users (modified)")
	assert.Contains(t, res.stdout, "+ email")
	assert.Contains(t, res.stdout, "+ orders (new)")
	assert.Contains(t, res.stdout, "- legacy (deleted)")

	res = c.run("diff", src, src)
	require.NoError(t, res.err)
	assert.Equal(t, "No differences detected.\n", res.stdout)
}

func TestDiffCommandFormats(t *testing.T) {
	c := newCLI(t)
	src := writeFile(t, "source.sql", sourceDump)
	tgt := writeFile(t, "target.sql", targetDump)

	tests := []struct {
		format string
		want   string
	}{
		{format: "json", want: `"status": "MODIFIED"`},
		{format: "yaml", want: "status: MODIFIED"},
		{format: "summary", want: "Tables:"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			res := c.run("diff", "-f", tt.format, src, tgt)
			require.NoError(t, res.err, res.stderr)
			assert.Contains(t, res.stdout, tt.want)
		})
	}

	res := c.run("diff", "-f", "xml", src, tgt)
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "unsupported format: xml")
}

func TestMigrateCommand(t *testing.T) {
	c := newCLI(t)
	src := writeFile(t, "source.sql", sourceDump)
	tgt := writeFile(t, "target.sql", targetDump)

	res := c.run("migrate", src, tgt)
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "-- table: users")
	assert.Contains(t, res.stdout, "ADD COLUMN `email`")
	assert.Contains(t, res.stdout, "CREATE TABLE")
	assert.Contains(t, res.stdout, "DROP TABLE `legacy`;")

	out := filepath.Join(t.TempDir(), "migration.sql")
	res = c.run("migrate", "-o", out, src, tgt)
	require.NoError(t, res.err)
	assert.Empty(t, res.stdout)
	assert.Contains(t, res.stderr, "Output saved to "+out)

	content, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(content), "DROP TABLE `legacy`;")
}

func TestMigrateCommandRejectsBadReference(t *testing.T) {
	c := newCLI(t)
	src := writeFile(t, "source.sql", sourceDump)

	res := c.run("migrate", src, filepath.Join(t.TempDir(), "missing.sql"))
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "target")

	res = c.run("migrate", src)
	assert.Error(t, res.err)
}

func TestSnapshotCommand(t *testing.T) {
	c := newCLI(t)
	src := writeFile(t, "source.sql", sourceDump)
	snap := filepath.Join(t.TempDir(), "source.toml")

	res := c.run("snapshot", src, "-o", snap)
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stderr, "Snapshot of 2 tables saved to "+snap)

	res = c.run("diff", snap, src)
	require.NoError(t, res.err, res.stderr)
	assert.Equal(t, "No differences detected.\n", res.stdout)

	res = c.run("snapshot", src)
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "[[tables]]")
}

func TestApplyCommandDryRun(t *testing.T) {
	c := newCLI(t)
	script := writeFile(t, "migration.sql", "-- add email\nALTER TABLE users ADD COLUMN email VARCHAR(255) NOT NULL;\n")

	res := c.run("apply", "--target", testDSN, "--file", script, "--dry-run")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "Found 1 statement(s)")
	assert.Contains(t, res.stdout, "=== DRY RUN MODE ===")
	assert.Contains(t, res.stdout, "=== DRY RUN COMPLETE ===")
}

func TestApplyCommandRefusesDestructiveScript(t *testing.T) {
	c := newCLI(t)
	script := writeFile(t, "migration.sql", "DROP TABLE legacy;\n")

	res := c.run("apply", "--target", testDSN, "--file", script, "--dry-run")
	require.Error(t, res.err)
	assert.ErrorIs(t, res.err, apply.ErrDestructive)
	assert.Contains(t, res.stdout, "[DANGER] DROP TABLE permanently deletes the table and all its data")

	res = c.run("apply", "--target", testDSN, "--file", script, "--dry-run", "--unsafe", "--transaction=false")
	require.NoError(t, res.err, res.stderr)
}

func TestApplyCommandArguments(t *testing.T) {
	c := newCLI(t)
	script := writeFile(t, "migration.sql", "SELECT 1;\n")
	dump := writeFile(t, "schema.sql", sourceDump)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "missing target", args: []string{"apply", "--file", script}, wantErr: "--target is required"},
		{name: "missing file", args: []string{"apply", "--target", testDSN}, wantErr: "--file is required"},
		{name: "one reference", args: []string{"apply", dump}, wantErr: "either <source> <target>"},
		{name: "mixed forms", args: []string{"apply", "--file", script, dump, dump}, wantErr: "cannot be combined"},
		{name: "file target", args: []string{"apply", "--target", dump, "--file", script}, wantErr: "must be a live database"},
		{name: "too many", args: []string{"apply", "a", "b", "c"}, wantErr: "accepts at most 2 arg(s)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := c.run(tt.args...)
			require.Error(t, res.err)
			assert.Contains(t, res.err.Error(), tt.wantErr)
		})
	}
}

func TestConnectionsCommands(t *testing.T) {
	c := newCLI(t)
	res := c.run("connections", "list")
	require.NoError(t, res.err, res.stderr)
	assert.Equal(t, "No connection profiles stored.\n", res.stdout)

	res = c.run("connections", "add", "--name", "prod", "--host", "db.internal", "--user", "app", "--password", "hunter2", "--database", "shop")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "Saved prod (")

	res = c.run("connections", "list")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "NAME")
	assert.Contains(t, res.stdout, "prod")
	assert.Contains(t, res.stdout, "db.internal:3306")
	assert.NotContains(t, res.stdout, "hunter2")

	raw, err := os.ReadFile(c.profiles)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "hunter2", "password is encrypted at rest")

	script := writeFile(t, "migration.sql", "ALTER TABLE users ADD COLUMN email VARCHAR(255);\n")
	res = c.run("apply", "--target", "@prod/shop", "--file", script, "--dry-run")
	require.NoError(t, res.err, res.stderr)

	res = c.run("connections", "remove", "prod")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Removed prod")

	res = c.run("connections", "remove", "prod")
	require.Error(t, res.err)
	assert.ErrorIs(t, res.err, profile.ErrNotFound)

	res = c.run("apply", "--target", "@prod", "--file", script, "--dry-run")
	assert.ErrorIs(t, res.err, profile.ErrNotFound)
}

func TestConnectionsAddValidates(t *testing.T) {
	c := newCLI(t)
	res := c.run("connections", "add", "--user", "app")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), `"host" not set`)

	res = c.run("connections", "add", "--host", "db", "--user", "app", "--port", "70000")
	assert.ErrorIs(t, res.err, profile.ErrInvalidProfile)
}

func TestRootFlags(t *testing.T) {
	c := newCLI(t)
	src := writeFile(t, "source.sql", sourceDump)

	res := c.run("--log-level", "loud", "diff", src, src)
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "unsupported log level")

	res = c.run("--timeout", "0s", "diff", src, src)
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "--timeout must be positive")

	res = c.run("--log-format", "json", "--log-level", "debug", "diff", src, src)
	require.NoError(t, res.err)
	assert.Contains(t, res.stderr, `"msg":"schema loaded"`)
}
