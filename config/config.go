// ABOUTME: Runtime configuration for dealpulse
// ABOUTME: Loads .env and DEALPULSE_* environment variables with XDG defaults
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

const (
	EnvDBPath   = "DEALPULSE_DB_PATH"
	EnvLogLevel = "DEALPULSE_LOG_LEVEL"
	EnvTimezone = "DEALPULSE_TIMEZONE"
	EnvNow      = "DEALPULSE_NOW"
)

type Config struct {
	DBPath   string
	LogLevel log.Level
	Location *time.Location
	// Now pins the reference time when set.
	Now *time.Time
}

// DefaultDBPath is the database location under the XDG data directory.
func DefaultDBPath() string {
	return filepath.Join(xdg.DataHome, "dealpulse", "dealpulse.db")
}

// Load reads an optional .env file from the working directory, then the
// environment. Variables already set in the environment win over .env.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		DBPath:   DefaultDBPath(),
		LogLevel: log.InfoLevel,
		Location: time.Local,
	}

	if p := strings.TrimSpace(getenv(EnvDBPath)); p != "" {
		cfg.DBPath = p
	}

	if lvl := strings.TrimSpace(getenv(EnvLogLevel)); lvl != "" {
		parsed, err := log.ParseLevel(lvl)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvLogLevel, err)
		}
		cfg.LogLevel = parsed
	}

	if tz := strings.TrimSpace(getenv(EnvTimezone)); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvTimezone, err)
		}
		cfg.Location = loc
	}

	if now := strings.TrimSpace(getenv(EnvNow)); now != "" {
		t, err := time.Parse(time.RFC3339, now)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvNow, err)
		}
		t = t.In(cfg.Location)
		cfg.Now = &t
	}

	return cfg, nil
}

// WithDBPath returns the flag override when set, else the configured path.
func (c *Config) WithDBPath(override string) string {
	if override != "" {
		return override
	}
	return c.DBPath
}

// NewLogger builds the process logger at the configured level.
func (c *Config) NewLogger() *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{
		Level:           c.LogLevel,
		ReportTimestamp: true,
		Prefix:          "dealpulse",
	})
}
