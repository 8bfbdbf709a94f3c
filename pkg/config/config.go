// Package config loads the WebOS server configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete server configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Desktop DesktopConfig `yaml:"desktop"`
	Catalog CatalogConfig `yaml:"catalog"`
	LLM     LLMConfig     `yaml:"llm"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr         string   `yaml:"addr"`
	StaticDir    string   `yaml:"static_dir"`
	ReadTimeout  Duration `yaml:"read_timeout"`
	WriteTimeout Duration `yaml:"write_timeout"`
	IdleTimeout  Duration `yaml:"idle_timeout"`
	TLSCert      string   `yaml:"tls_cert"`
	TLSKey       string   `yaml:"tls_key"`
	// EventBuffer is the per-subscriber queue length of the event hub.
	EventBuffer int `yaml:"event_buffer"`
}

// DesktopConfig holds the window geometry constants.
type DesktopConfig struct {
	ViewportWidth        int  `yaml:"viewport_width"`
	ViewportHeight       int  `yaml:"viewport_height"`
	TaskbarHeight        int  `yaml:"taskbar_height"`
	ChromeHeight         int  `yaml:"chrome_height"`
	MinWidth             int  `yaml:"min_width"`
	MinHeight            int  `yaml:"min_height"`
	BaseZ                int  `yaml:"base_z"`
	DynamicZOffset       int  `yaml:"dynamic_z_offset"`
	CascadeCloseOnDelete bool `yaml:"cascade_close_on_delete"`
}

// CatalogConfig selects the application store.
type CatalogConfig struct {
	Driver string `yaml:"driver"` // memory, sqlite
	DSN    string `yaml:"dsn"`
}

// LLMConfig configures the assistant.
type LLMConfig struct {
	APIKey       string   `yaml:"api_key"`
	Model        string   `yaml:"model"`
	Timeout      Duration `yaml:"timeout"`
	HistoryTurns int      `yaml:"history_turns"`
	Temperature  float32  `yaml:"temperature"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level       string `yaml:"level"` // debug, info, warn, error
	Development bool   `yaml:"development"`
}

// Duration is a time.Duration written as "30s" in YAML.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":8080",
			StaticDir:    "./static",
			ReadTimeout:  Duration(30 * time.Second),
			WriteTimeout: Duration(60 * time.Second),
			IdleTimeout:  Duration(120 * time.Second),
			EventBuffer:  64,
		},
		Desktop: DesktopConfig{
			ViewportWidth:  1920,
			ViewportHeight: 1080,
			TaskbarHeight:  80,
			ChromeHeight:   40,
			MinWidth:       300,
			MinHeight:      200,
			BaseZ:          1000,
			DynamicZOffset: 1000,
		},
		Catalog: CatalogConfig{
			Driver: "memory",
		},
		LLM: LLMConfig{
			Model:        "gemini-2.5-flash",
			Timeout:      Duration(30 * time.Second),
			HistoryTurns: 5,
			Temperature:  0.7,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from a YAML file over the defaults. An empty
// path or a missing file yields the defaults. Environment overrides are
// applied last.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("WEBOS_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("WEBOS_STATIC"); v != "" {
		c.Server.StaticDir = v
	}
	if v := os.Getenv("WEBOS_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("WEBOS_CATALOG_DSN"); v != "" {
		c.Catalog.DSN = v
		if c.Catalog.Driver == "" || c.Catalog.Driver == "memory" {
			c.Catalog.Driver = "sqlite"
		}
	}
	if v := os.Getenv("WEBOS_CASCADE_CLOSE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Desktop.CascadeCloseOnDelete = b
		}
	}

	// LLM API key from environment (generic name wins)
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if key := os.Getenv("WEBOS_LLM_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if v := os.Getenv("WEBOS_LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
}

// Validation errors.
var (
	ErrInvalidViewport = errors.New("viewport must be positive")
	ErrInvalidMinSize  = errors.New("minimum window size must be positive")
	ErrInvalidDriver   = errors.New("unknown catalog driver")
	ErrInvalidLevel    = errors.New("unknown log level")
)

// Validate reports configuration values the server cannot run with.
func (c *Config) Validate() error {
	d := c.Desktop
	if d.ViewportWidth <= 0 || d.ViewportHeight <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidViewport, d.ViewportWidth, d.ViewportHeight)
	}
	if d.MinWidth <= 0 || d.MinHeight <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidMinSize, d.MinWidth, d.MinHeight)
	}
	switch c.Catalog.Driver {
	case "", "memory", "sqlite":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidDriver, c.Catalog.Driver)
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLevel, c.Logging.Level)
	}
	return nil
}
