// ABOUTME: Tests for configuration loading
// ABOUTME: Covers defaults, overrides and invalid values
package config

import (
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(envMap(nil))
	require.NoError(t, err)

	assert.Equal(t, DefaultDBPath(), cfg.DBPath)
	assert.Contains(t, cfg.DBPath, "dealpulse.db")
	assert.Equal(t, log.InfoLevel, cfg.LogLevel)
	assert.Equal(t, time.Local, cfg.Location)
	assert.Nil(t, cfg.Now)
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{
		EnvDBPath:   "/tmp/pipeline.db",
		EnvLogLevel: "debug",
		EnvTimezone: "UTC",
		EnvNow:      "2025-03-12T10:00:00Z",
	}))
	require.NoError(t, err)

	assert.Equal(t, "/tmp/pipeline.db", cfg.DBPath)
	assert.Equal(t, log.DebugLevel, cfg.LogLevel)
	assert.Equal(t, "UTC", cfg.Location.String())
	require.NotNil(t, cfg.Now)
	assert.True(t, cfg.Now.Equal(time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)))
}

func TestFromEnvInvalidValues(t *testing.T) {
	tests := map[string]map[string]string{
		"log level": {EnvLogLevel: "chatty"},
		"timezone":  {EnvTimezone: "Mars/Olympus_Mons"},
		"now":       {EnvNow: "yesterday"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := FromEnv(envMap(env))
			assert.Error(t, err)
		})
	}
}

func TestWithDBPath(t *testing.T) {
	cfg := &Config{DBPath: "/data/default.db"}
	assert.Equal(t, "/data/default.db", cfg.WithDBPath(""))
	assert.Equal(t, "/tmp/override.db", cfg.WithDBPath("/tmp/override.db"))
}
