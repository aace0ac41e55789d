// Package config resolves runtime settings from an optional .env file and
// MYSQLSYNC_* environment variables. Command-line flags override both.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvProfiles  = "MYSQLSYNC_PROFILES"
	EnvSecretKey = "MYSQLSYNC_SECRET_KEY"
	EnvListen    = "MYSQLSYNC_LISTEN"
	EnvLogLevel  = "MYSQLSYNC_LOG_LEVEL"
	EnvLogFormat = "MYSQLSYNC_LOG_FORMAT"
	EnvTimeout   = "MYSQLSYNC_TIMEOUT"

	DefaultListen  = ":3000"
	DefaultTimeout = 30 * time.Second
)

type Config struct {
	ProfilesPath string
	SecretKey    string
	Listen       string
	LogLevel     string
	LogFormat    string
	Timeout      time.Duration
}

// Load reads envFile (when it exists) into the process environment without
// overriding variables that are already set, then builds the configuration.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds the configuration from getenv, applying defaults.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		ProfilesPath: getenv(EnvProfiles),
		SecretKey:    getenv(EnvSecretKey),
		Listen:       getenv(EnvListen),
		LogLevel:     getenv(EnvLogLevel),
		LogFormat:    getenv(EnvLogFormat),
		Timeout:      DefaultTimeout,
	}

	if cfg.ProfilesPath == "" {
		path, err := defaultProfilesPath()
		if err != nil {
			return nil, err
		}
		cfg.ProfilesPath = path
	}
	if cfg.Listen == "" {
		cfg.Listen = DefaultListen
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if raw := getenv(EnvTimeout); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid %s %q: want a positive duration such as 30s", EnvTimeout, raw)
		}
		cfg.Timeout = d
	}
	if _, err := ParseLevel(cfg.LogLevel); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultProfilesPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config directory: %w", err)
	}
	return filepath.Join(dir, "mysqlsync", "connections.toml"), nil
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unsupported log level %q; use debug, info, warn or error", s)
	}
}
