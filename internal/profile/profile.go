// Package profile stores named MySQL connection profiles in a TOML file.
// Passwords are encrypted at rest with a secret.Cipher.
package profile

import (
	"context"
	"errors"
	"net"
	"strconv"
	"time"

	driver "github.com/go-sql-driver/mysql"

	introspectmysql "github.com/doubleninth99/mysql-sync/internal/introspect/mysql"
)

const DefaultPort = 3306

var (
	ErrNotFound       = errors.New("connection profile not found")
	ErrInvalidProfile = errors.New("invalid connection profile")
)

// Profile describes how to reach a MySQL server.
type Profile struct {
	ID       string `toml:"id" json:"id"`
	Name     string `toml:"name" json:"name"`
	Host     string `toml:"host" json:"host"`
	Port     int    `toml:"port" json:"port"`
	User     string `toml:"user" json:"user"`
	Password string `toml:"password,omitempty" json:"password,omitempty"`
	Database string `toml:"database,omitempty" json:"database,omitempty"`
}

// DSN builds a go-sql-driver DSN. An empty database falls back to the
// profile's default database.
func (p Profile) DSN(database string) string {
	if database == "" {
		database = p.Database
	}
	port := p.Port
	if port == 0 {
		port = DefaultPort
	}

	cfg := driver.NewConfig()
	cfg.User = p.User
	cfg.Passwd = p.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(p.Host, strconv.Itoa(port))
	cfg.DBName = database
	cfg.Timeout = 10 * time.Second
	return cfg.FormatDSN()
}

// Redacted returns a copy without the password, for listing.
func (p Profile) Redacted() Profile {
	p.Password = ""
	return p
}

// TestConnection opens a connection with p and pings it.
func TestConnection(ctx context.Context, p Profile) error {
	db, err := introspectmysql.Open(ctx, p.DSN(""))
	if err != nil {
		return err
	}
	return db.Close()
}
