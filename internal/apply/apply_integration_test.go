package apply

import (
	"bytes"
	"context"
	"database/sql"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mysql"

	"github.com/doubleninth99/mysql-sync/internal/migration"
)

type testMySQLContainer struct {
	container *mysql.MySQLContainer
	dsn       string
	db        *sql.DB
}

func setupMySQL(t *testing.T) *testMySQLContainer {
	t.Helper()
	ctx := context.Background()

	mysqlContainer, err := mysql.Run(ctx, "mysql:8.0",
		mysql.WithDatabase("testdb"),
		mysql.WithUsername("root"),
		mysql.WithPassword("testpass"),
	)
	require.NoError(t, err, "failed to start MySQL container")

	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(mysqlContainer); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := mysqlContainer.ConnectionString(ctx, "parseTime=true")
	require.NoError(t, err, "failed to get connection string")

	db, err := sql.Open("mysql", dsn)
	require.NoError(t, err, "failed to open direct DB connection")
	require.NoError(t, db.PingContext(ctx), "failed to ping database")
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close DB connection: %v", err)
		}
	})

	return &testMySQLContainer{container: mysqlContainer, dsn: dsn, db: db}
}

func tableExists(t *testing.T, db *sql.DB, table string) bool {
	t.Helper()
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = 'testdb' AND table_name = ?", table).Scan(&count)
	require.NoError(t, err)
	return count == 1
}

func TestApplierIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tc := setupMySQL(t)
	ctx := context.Background()

	t.Run("connect with invalid dsn fails", func(t *testing.T) {
		a := NewApplier(Options{DSN: "invalid:user@tcp(127.0.0.1:1)/nope"})
		assert.Error(t, a.Connect(ctx))
		assert.NoError(t, a.Close())
	})

	t.Run("applies a generated script", func(t *testing.T) {
		var buf bytes.Buffer
		a := NewApplier(Options{DSN: tc.dsn, Out: &buf})
		require.NoError(t, a.Connect(ctx))
		defer a.Close()

		script := &migration.Script{}
		script.AddStatement("users", "CREATE TABLE `users` (`id` int NOT NULL, PRIMARY KEY (`id`)) ENGINE=InnoDB;")
		script.AddStatement("users", "ALTER TABLE `users`\n  ADD COLUMN `name` varchar(255) NOT NULL;")

		require.NoError(t, a.ApplyScript(ctx, script))
		assert.Contains(t, buf.String(), "Successfully applied 2 statements")
		assert.True(t, tableExists(t, tc.db, "users"))
	})

	t.Run("destructive script is refused", func(t *testing.T) {
		_, err := tc.db.Exec("CREATE TABLE keep_me (id INT)")
		require.NoError(t, err)

		a := NewApplier(Options{DSN: tc.dsn})
		require.NoError(t, a.Connect(ctx))
		defer a.Close()

		script := &migration.Script{}
		script.AddStatement("keep_me", "DROP TABLE `keep_me`;")
		assert.ErrorIs(t, a.ApplyScript(ctx, script), ErrDestructive)
		assert.True(t, tableExists(t, tc.db, "keep_me"))
	})

	t.Run("transactional dml rolls back", func(t *testing.T) {
		_, err := tc.db.Exec("CREATE TABLE tx_rows (id INT PRIMARY KEY)")
		require.NoError(t, err)

		a := NewApplier(Options{Transaction: true})
		a.UseDB(tc.db)

		stmts := []string{"INSERT INTO tx_rows VALUES (1)", "INSERT INTO tx_rows VALUES (1)"}
		err = a.Apply(ctx, stmts, a.PreflightChecks(stmts))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rolled back")

		var count int
		require.NoError(t, tc.db.QueryRow("SELECT COUNT(*) FROM tx_rows").Scan(&count))
		assert.Equal(t, 0, count)

		require.NoError(t, a.Close())
		require.NoError(t, tc.db.PingContext(ctx), "UseDB pools stay open after Close")
	})

	t.Run("partial failure reports applied count", func(t *testing.T) {
		a := NewApplier(Options{})
		a.UseDB(tc.db)

		stmts := []string{"CREATE TABLE partial_a (id INT)", "CREATE TABLE partial_a (id INT)"}
		err := a.Apply(ctx, stmts, a.PreflightChecks(stmts))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "statement 2 failed")
		assert.Contains(t, err.Error(), "1 statements were already applied")
		assert.True(t, tableExists(t, tc.db, "partial_a"))
	})
}
