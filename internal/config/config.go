// Package config loads the upkeep configuration from an optional YAML
// file layered under UPKEEP_* environment variables. Environment wins.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v10"
	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"
)

// HTTPConfig configures the JSON API server.
type HTTPConfig struct {
	// ListenAddr is the address the API server binds to.
	ListenAddr string `env:"LISTEN_ADDR" yaml:"listen_addr"`

	// AllowedOrigins restricts CORS. Empty allows any origin.
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," yaml:"allowed_origins"`
}

// DBConfig configures the SQLite database.
type DBConfig struct {
	// Path is the database file. A relative path is resolved against
	// the data path.
	Path string `env:"PATH" yaml:"path"`
}

// RedisConfig configures notification dispatch. An empty URL keeps
// notifications on the log instead of a broker.
type RedisConfig struct {
	// URL is a redis:// connection URL.
	URL string `env:"URL" yaml:"url"`

	// Channel overrides the pub/sub channel notifications publish to.
	// Empty uses the notifier's default.
	Channel string `env:"CHANNEL" yaml:"channel"`
}

// LogConfig configures the logger.
type LogConfig struct {
	// Format is one of "text", "json" or "logfmt".
	Format string `env:"FORMAT" yaml:"format"`

	// Level is a charmbracelet/log level name, e.g. "debug" or "info".
	Level string `env:"LEVEL" yaml:"level"`
}

// SweepConfig configures the background sweeps.
type SweepConfig struct {
	// ExpirySpec is the cron spec for the proposal expiry sweep.
	ExpirySpec string `env:"EXPIRY_SPEC" yaml:"expiry_spec"`

	// IdleLinkSpec is the cron spec for the idle-link sweep. Empty
	// leaves the sweep off.
	IdleLinkSpec string `env:"IDLE_LINK_SPEC" yaml:"idle_link_spec"`

	// IdleLinkDays is how many days a link may go without a job before
	// the sweep deactivates it.
	IdleLinkDays int `env:"IDLE_LINK_DAYS" yaml:"idle_link_days"`
}

// Config is the configuration for upkeep.
type Config struct {
	HTTP  HTTPConfig  `envPrefix:"HTTP_" yaml:"http"`
	DB    DBConfig    `envPrefix:"DB_" yaml:"db"`
	Redis RedisConfig `envPrefix:"REDIS_" yaml:"redis"`
	Log   LogConfig   `envPrefix:"LOG_" yaml:"log"`
	Sweep SweepConfig `envPrefix:"SWEEP_" yaml:"sweep"`

	// DataPath is the directory holding the database and config file.
	DataPath string `env:"DATA_PATH" yaml:"-"`
}

// DefaultDataPath returns the data directory: UPKEEP_DATA_PATH when
// set, otherwise ~/.upkeep.
func DefaultDataPath() string {
	if dp := os.Getenv("UPKEEP_DATA_PATH"); dp != "" {
		return dp
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".upkeep"
	}
	return filepath.Join(home, ".upkeep")
}

// DefaultConfig returns the default Config. Relative paths resolve
// against the data path in Validate.
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			ListenAddr: ":8080",
		},
		DB: DBConfig{
			Path: "upkeep.db",
		},
		Log: LogConfig{
			Format: "text",
			Level:  "info",
		},
		Sweep: SweepConfig{
			ExpirySpec:   "@every 10m",
			IdleLinkDays: 90,
		},
		DataPath: DefaultDataPath(),
	}
}

// ConfigPath returns the path to the config file.
func (c *Config) ConfigPath() string { // nolint:revive
	return filepath.Join(c.DataPath, "config.yaml")
}

// Exist returns true if the config file exists.
func (c *Config) Exist() bool {
	_, err := os.Stat(c.ConfigPath())
	return err == nil
}

// ParseFile loads the YAML config file over the current values and
// validates the result.
func (c *Config) ParseFile() error {
	f, err := os.Open(c.ConfigPath())
	if err != nil {
		return err
	}
	defer f.Close() // nolint: errcheck

	if err := yaml.NewDecoder(f).Decode(c); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	return c.Validate()
}

// ParseEnv applies UPKEEP_* environment variables over the current
// values and validates the result.
func (c *Config) ParseEnv() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: "UPKEEP_"}); err != nil {
		return fmt.Errorf("parse environment variables: %w", err)
	}
	return c.Validate()
}

// Load builds the effective configuration: defaults, then the config
// file when present, then the environment.
func Load() (*Config, error) {
	cfg := DefaultConfig()
	if cfg.Exist() {
		if err := cfg.ParseFile(); err != nil {
			return nil, err
		}
	}
	if err := cfg.ParseEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// WriteConfig writes the configuration to the config file, creating
// the data directory when missing.
func (c *Config) WriteConfig() error {
	if err := os.MkdirAll(c.DataPath, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(c.ConfigPath(), data, 0o644)
}

// Validate checks enum fields and resolves relative paths against the
// data path.
func (c *Config) Validate() error {
	if !filepath.IsAbs(c.DataPath) {
		dp, err := filepath.Abs(c.DataPath)
		if err != nil {
			return err
		}
		c.DataPath = dp
	}

	if c.DB.Path != "" && !filepath.IsAbs(c.DB.Path) {
		c.DB.Path = filepath.Join(c.DataPath, c.DB.Path)
	}

	switch c.Log.Format {
	case "text", "json", "logfmt":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}

	if c.Sweep.IdleLinkDays < 1 {
		return fmt.Errorf("sweep idle link days must be positive, got %d", c.Sweep.IdleLinkDays)
	}

	return nil
}
