package mysql

import (
	"context"
	"database/sql"
	"strings"

	"github.com/doubleninth99/mysql-sync/internal/dialect"
)

// DetectFlavor tells MySQL and MariaDB apart and returns the bare server version.
func DetectFlavor(ctx context.Context, db *sql.DB) (dialect.Type, string, error) {
	var varName, comment string

	err := db.QueryRowContext(ctx, "SHOW VARIABLES LIKE 'version_comment'").Scan(&varName, &comment)
	if err != nil {
		return "", "", err
	}

	version := getVersion(ctx, db)
	if strings.Contains(strings.ToLower(comment+" "+version), "mariadb") {
		return dialect.MariaDB, trimVersion(version), nil
	}
	return dialect.MySQL, trimVersion(version), nil
}

func getVersion(ctx context.Context, db *sql.DB) string {
	var version string
	_ = db.QueryRowContext(ctx, "SELECT VERSION()").Scan(&version)
	return version
}

func trimVersion(version string) string {
	if idx := strings.Index(version, "-"); idx > 0 {
		return version[:idx]
	}
	return version
}
