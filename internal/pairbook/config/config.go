// Package config loads service configuration from an optional YAML file with
// environment-variable overrides. Precedence, lowest to highest: built-in
// defaults, the YAML file, then PAIRBOOK_* environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/soyj/pairbook/common/environment"
)

// Duration wraps time.Duration so YAML can carry human-readable values like
// "30s" or "1m".
type Duration time.Duration

// UnmarshalYAML accepts either a duration string ("90s") or a bare integer
// nanosecond count.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("invalid duration value")
	}
	*d = Duration(n)
	return nil
}

// MarshalYAML renders the duration in its string form.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the full service configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	LLM       LLMConfig       `yaml:"llm"`
	Matrix    MatrixConfig    `yaml:"matrix"`
	Reconcile ReconcileConfig `yaml:"reconcile"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	// Driver is one of "sqlite", "file", "postgres".
	Driver string `yaml:"driver"`
	// Path is the sqlite database path, the file-store directory, or the
	// postgres connection string, depending on the driver.
	Path string `yaml:"path"`
}

// LLMConfig configures the dialogue provider. An empty APIKey disables
// generation entirely; every dialogue call then returns the fallback phrase.
type LLMConfig struct {
	APIKey  string   `yaml:"api_key"`
	BaseURL string   `yaml:"base_url"`
	Model   string   `yaml:"model"`
	Timeout Duration `yaml:"timeout"`
}

// MatrixConfig configures due-todo notifications posted as Matrix room
// notices. Disabled unless all connection fields are set.
type MatrixConfig struct {
	Homeserver  string `yaml:"homeserver"`
	UserID      string `yaml:"user_id"`
	AccessToken string `yaml:"access_token"`
	RoomID      string `yaml:"room_id"`
}

// Enabled reports whether the notifier has everything it needs to connect.
func (m MatrixConfig) Enabled() bool {
	return m.Homeserver != "" && m.UserID != "" && m.AccessToken != "" && m.RoomID != ""
}

// ReconcileConfig controls the background reconciliation loop.
type ReconcileConfig struct {
	Interval Duration `yaml:"interval"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	Level string `yaml:"level"`
	// Format is "text" or "json".
	Format string `yaml:"format"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{Addr: ":8080"},
		Store:  StoreConfig{Driver: "sqlite", Path: "pairbook.db"},
		LLM: LLMConfig{
			BaseURL: "https://api.openai.com/v1",
			Model:   "gpt-4o-mini",
			Timeout: Duration(30 * time.Second),
		},
		Reconcile: ReconcileConfig{Interval: Duration(time.Minute)},
		Log:       LogConfig{Level: "info", Format: "text"},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// path is non-empty; a missing file is an error since the caller asked for
// it), then environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv layers PAIRBOOK_* environment variables over the current values.
func (c *Config) applyEnv() {
	c.Server.Addr = environment.StringOr("PAIRBOOK_ADDR", c.Server.Addr)

	c.Store.Driver = environment.StringOr("PAIRBOOK_STORE_DRIVER", c.Store.Driver)
	c.Store.Path = environment.StringOr("PAIRBOOK_STORE_PATH", c.Store.Path)

	c.LLM.APIKey = environment.StringOr("PAIRBOOK_LLM_API_KEY", c.LLM.APIKey)
	c.LLM.BaseURL = environment.StringOr("PAIRBOOK_LLM_BASE_URL", c.LLM.BaseURL)
	c.LLM.Model = environment.StringOr("PAIRBOOK_LLM_MODEL", c.LLM.Model)
	c.LLM.Timeout = Duration(environment.DurationOr("PAIRBOOK_LLM_TIMEOUT", c.LLM.Timeout.Std()))

	c.Matrix.Homeserver = environment.StringOr("PAIRBOOK_MATRIX_HOMESERVER", c.Matrix.Homeserver)
	c.Matrix.UserID = environment.StringOr("PAIRBOOK_MATRIX_USER_ID", c.Matrix.UserID)
	c.Matrix.AccessToken = environment.StringOr("PAIRBOOK_MATRIX_ACCESS_TOKEN", c.Matrix.AccessToken)
	c.Matrix.RoomID = environment.StringOr("PAIRBOOK_MATRIX_ROOM_ID", c.Matrix.RoomID)

	c.Reconcile.Interval = Duration(environment.DurationOr("PAIRBOOK_RECONCILE_INTERVAL", c.Reconcile.Interval.Std()))

	c.Log.Level = environment.StringOr("PAIRBOOK_LOG_LEVEL", c.Log.Level)
	c.Log.Format = environment.StringOr("PAIRBOOK_LOG_FORMAT", c.Log.Format)
}

// Validate rejects values that would only fail later, at a worse moment.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case "sqlite", "file", "postgres":
	default:
		return fmt.Errorf("store.driver: unknown driver %q", c.Store.Driver)
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store.path: must not be empty")
	}
	if c.Reconcile.Interval <= 0 {
		return fmt.Errorf("reconcile.interval: must be positive, got %s", c.Reconcile.Interval.Std())
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level: unknown level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format: unknown format %q", c.Log.Format)
	}
	return nil
}
