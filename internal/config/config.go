// Package config provides configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/vinayprograms/plugtree/internal/logging"
)

// DefaultFile is the config file looked up in the current directory.
const DefaultFile = "plugtree.toml"

// EnvConfig names the config file when no path is given explicitly.
const EnvConfig = "PLUGTREE_CONFIG"

// EnvNATSURL overrides publish.nats_url.
const EnvNATSURL = "PLUGTREE_NATS_URL"

// Config represents the plugtree configuration.
type Config struct {
	Plugin    PluginConfig    `toml:"plugin"`
	Log       LogConfig       `toml:"log"`
	Report    ReportConfig    `toml:"report"`
	Checks    ChecksConfig    `toml:"checks"`
	Publish   PublishConfig   `toml:"publish"`
	Telemetry TelemetryConfig `toml:"telemetry"`
}

// PluginConfig selects the plugin tree to run.
type PluginConfig struct {
	Definition string `toml:"definition"` // YAML definition file
	Target     string `toml:"target"`     // Dotted path run standalone, empty for the whole tree
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `toml:"level"` // debug|info|warn|error
	File  string `toml:"file"`  // Append logs here instead of stderr
}

// ReportConfig controls the report printed on stdout.
type ReportConfig struct {
	LongText bool `toml:"long_text"`
}

// ChecksConfig contains defaults for built-in checks.
type ChecksConfig struct {
	Timeout int `toml:"timeout"` // Seconds, used when a check has no timeout argument (default 10)
}

// PublishConfig contains result publishing settings.
type PublishConfig struct {
	NATSURL string `toml:"nats_url"` // Empty disables publishing
	Subject string `toml:"subject"`
	Timeout int    `toml:"timeout"` // Flush timeout in seconds (default 5)
}

// TelemetryConfig contains trace export settings.
type TelemetryConfig struct {
	Enabled  bool              `toml:"enabled"`
	Endpoint string            `toml:"endpoint"` // host:port for grpc, URL or host:port for http
	Protocol string            `toml:"protocol"` // grpc|http|noop
	Insecure bool              `toml:"insecure"`
	Headers  map[string]string `toml:"headers"`
}

// New creates a new config with defaults.
func New() *Config {
	return &Config{
		Log: LogConfig{
			Level: "warn",
		},
		Checks: ChecksConfig{
			Timeout: 10,
		},
		Publish: PublishConfig{
			Subject: "plugtree.results",
			Timeout: 5,
		},
		Telemetry: TelemetryConfig{
			Protocol: "noop",
		},
	}
}

// LoadFile loads configuration from a TOML file.
func LoadFile(path string) (*Config, error) {
	cfg := New()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadDefault loads configuration from plugtree.toml in the current directory.
func LoadDefault() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}

	return LoadFile(filepath.Join(cwd, DefaultFile))
}

// Load resolves the config file: an explicit path, then $PLUGTREE_CONFIG, then
// plugtree.toml in the current directory. Only the last one may be missing, in
// which case defaults are returned.
func Load(path string) (*Config, error) {
	if path != "" {
		return LoadFile(path)
	}
	if env := os.Getenv(EnvConfig); env != "" {
		return LoadFile(env)
	}
	cfg, err := LoadDefault()
	if errors.Is(err, fs.ErrNotExist) {
		return New(), nil
	}
	return cfg, err
}

// Validate checks values the TOML decoder cannot.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Checks.Timeout < 0 {
		return fmt.Errorf("checks.timeout must not be negative")
	}
	if c.Publish.Timeout < 0 {
		return fmt.Errorf("publish.timeout must not be negative")
	}
	switch c.Telemetry.Protocol {
	case "grpc", "http", "noop":
	default:
		return fmt.Errorf("telemetry.protocol must be grpc, http or noop, got %q", c.Telemetry.Protocol)
	}
	if c.Telemetry.Enabled && c.Telemetry.Protocol != "noop" && c.Telemetry.Endpoint == "" {
		return fmt.Errorf("telemetry.endpoint is required when telemetry is enabled")
	}
	return nil
}

// CheckTimeout returns the default check timeout.
func (c *Config) CheckTimeout() time.Duration {
	return time.Duration(c.Checks.Timeout) * time.Second
}

// PublishTimeout returns the publish flush timeout.
func (c *Config) PublishTimeout() time.Duration {
	return time.Duration(c.Publish.Timeout) * time.Second
}

// GetNATSURL returns the NATS URL, preferring the environment override.
func (c *Config) GetNATSURL() string {
	if url := os.Getenv(EnvNATSURL); url != "" {
		return url
	}
	return c.Publish.NATSURL
}

// LogLevel returns the parsed log level.
func (c *Config) LogLevel() logging.Level {
	level, _ := logging.ParseLevel(c.Log.Level)
	return level
}
