package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, time.Minute, cfg.Reconcile.Interval.Std())
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadYAMLFile(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9090"
store:
  driver: file
  path: /var/lib/pairbook
llm:
  api_key: sk-test
  timeout: 5s
reconcile:
  interval: 90s
`)

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "file", cfg.Store.Driver)
	assert.Equal(t, "/var/lib/pairbook", cfg.Store.Path)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, 5*time.Second, cfg.LLM.Timeout.Std())
	assert.Equal(t, 90*time.Second, cfg.Reconcile.Interval.Std())
	// Untouched fields keep their defaults.
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9090"
`)
	t.Setenv("PAIRBOOK_ADDR", ":7070")
	t.Setenv("PAIRBOOK_RECONCILE_INTERVAL", "30s")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, 30*time.Second, cfg.Reconcile.Interval.Std())
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))

	assert.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.Store.Driver = "mongo" }},
		{"empty path", func(c *Config) { c.Store.Path = "" }},
		{"zero interval", func(c *Config) { c.Reconcile.Interval = 0 }},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestMatrixEnabled(t *testing.T) {
	var m MatrixConfig
	assert.False(t, m.Enabled())

	m = MatrixConfig{
		Homeserver:  "https://matrix.example.org",
		UserID:      "@bot:example.org",
		AccessToken: "token",
		RoomID:      "!room:example.org",
	}
	assert.True(t, m.Enabled())
}
