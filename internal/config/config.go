// Package config loads the YAML configuration shared by the CLI and the
// HTTP server.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/raysh454/owaspscan/internal/engine"
	"github.com/raysh454/owaspscan/internal/history"
	"github.com/raysh454/owaspscan/internal/live"
	"github.com/raysh454/owaspscan/internal/logging"
)

// AddrEnv overrides Server.Addr when set.
const AddrEnv = "OWASPSCAN_ADDR"

var ErrInvalidConfig = errors.New("invalid config")

// Config contains the runtime configuration of every component.
type Config struct {
	Engine  engine.Config `yaml:"engine" json:"engine"`
	Server  ServerConfig  `yaml:"server" json:"server"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
	History HistoryConfig `yaml:"history" json:"history"`
}

type ServerConfig struct {
	// Addr is the HTTP listen address.
	Addr string `yaml:"addr" json:"addr"`

	ReadTimeout  time.Duration `yaml:"read_timeout" json:"readTimeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"writeTimeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" json:"idleTimeout"`

	// MaxCodeBytes is the largest accepted code submission.
	MaxCodeBytes int64 `yaml:"max_code_bytes" json:"maxCodeBytes"`

	// Debounce is the live analysis delay.
	Debounce time.Duration `yaml:"debounce" json:"debounce"`

	// AllowedOrigins feeds the CORS and WebSocket origin checks. "*"
	// allows any origin.
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowedOrigins"`
}

type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	JSON  bool   `yaml:"json" json:"json"`
}

type HistoryConfig struct {
	MaxEntries int `yaml:"max_entries" json:"maxEntries"`
}

// DefaultConfig returns a Config populated with development defaults.
func DefaultConfig() *Config {
	return &Config{
		Engine: engine.DefaultConfig(),
		Server: ServerConfig{
			Addr:           "localhost:8080",
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   30 * time.Second,
			IdleTimeout:    60 * time.Second,
			MaxCodeBytes:   1 << 20,
			Debounce:       live.DefaultDelay,
			AllowedOrigins: []string{"*"},
		},
		Logging: LoggingConfig{Level: "info"},
		History: HistoryConfig{MaxEntries: history.DefaultMaxEntries},
	}
}

// Load reads the YAML file at path over the defaults, applies
// environment overrides and validates the result. An empty path yields
// the defaults plus overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := cfg.decode(bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}
	cfg.ApplyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML from r over the defaults without consulting the
// environment.
func Parse(r io.Reader) (*Config, error) {
	cfg := DefaultConfig()
	if err := cfg.decode(r); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ApplyEnv applies OWASPSCAN_LOG_LEVEL and OWASPSCAN_ADDR from getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv(logging.LevelEnv)); v != "" {
		c.Logging.Level = v
	}
	if v := strings.TrimSpace(getenv(AddrEnv)); v != "" {
		c.Server.Addr = v
	}
}

// Validate checks every section. Rule IDs in Engine.DisabledRules are
// checked when the engine is built.
func (c *Config) Validate() error {
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}
	if err := c.Engine.Validate(); err != nil {
		return fail("engine: %v", err)
	}
	if strings.TrimSpace(c.Server.Addr) == "" {
		return fail("server.addr is empty")
	}
	if c.Server.Debounce < 0 {
		return fail("server.debounce must not be negative, got %s", c.Server.Debounce)
	}
	if c.Server.MaxCodeBytes <= 0 {
		return fail("server.max_code_bytes must be positive, got %d", c.Server.MaxCodeBytes)
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 || c.Server.IdleTimeout < 0 {
		return fail("server timeouts must not be negative")
	}
	if c.History.MaxEntries < 1 {
		return fail("history.max_entries must be at least 1, got %d", c.History.MaxEntries)
	}
	if !logging.ValidLevel(c.Logging.Level) {
		return fail("logging.level %q is not one of trace, debug, info, warn, error", c.Logging.Level)
	}
	return nil
}

// Logger builds the hclog-backed logger described by the logging section.
func (c *Config) Logger(name string, out io.Writer) logging.Logger {
	return logging.NewHCLogger(logging.Options{
		Name:   name,
		Level:  c.Logging.Level,
		JSON:   c.Logging.JSON,
		Output: out,
	})
}
