// Package config loads tripsession settings from YAML. Values of the form
// ${VAR_NAME} are replaced by the environment before parsing.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/tripsession/logging"
)

// Config is the complete tripsession configuration.
type Config struct {
	Session SessionConfig `yaml:"session"`
	Model   ModelConfig   `yaml:"model"`
	Store   StoreConfig   `yaml:"store"`
	Logging LoggingConfig `yaml:"logging"`
	Render  RenderConfig  `yaml:"render"`
}

// SessionConfig controls the session window and which ingestion paths are open.
type SessionConfig struct {
	Window     int    `yaml:"window"`
	Separator  string `yaml:"separator"`
	Structured bool   `yaml:"structured"`
	Replay     bool   `yaml:"replay"`
}

// ModelConfig selects and tunes the model provider used by the runner.
type ModelConfig struct {
	Provider     string  `yaml:"provider"` // gemini, anthropic, openai or mock
	Name         string  `yaml:"name"`
	APIKey       string  `yaml:"api_key"`
	Temperature  float64 `yaml:"temperature"`
	MaxTokens    int     `yaml:"max_tokens"`
	Instructions string  `yaml:"instructions"`
	MaxSteps     int     `yaml:"max_steps"`

	Timeout    time.Duration `yaml:"-"`
	TimeoutRaw string        `yaml:"timeout"`
}

// StoreConfig selects the session persistence backend.
type StoreConfig struct {
	Driver string `yaml:"driver"` // memory or sqlite
	Path   string `yaml:"path"`
}

// LoggingConfig holds log level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text, json or pretty
}

// RenderConfig controls terminal and HTML rendering.
type RenderConfig struct {
	Placeholder string `yaml:"placeholder"`
	Width       int    `yaml:"width"`
	Style       string `yaml:"style"`
}

// Providers lists the accepted model.provider values.
var Providers = []string{"gemini", "anthropic", "openai", "mock"}

// Default returns the planner configuration: window 10 with structured
// ingestion, the Gemini provider and an in-memory store.
func Default() *Config {
	return &Config{
		Session: SessionConfig{Window: 10, Separator: "\n", Structured: true},
		Model:   ModelConfig{Provider: "gemini", Name: "gemini-2.5-flash", MaxTokens: 4096, MaxSteps: 8, Timeout: 2 * time.Minute, TimeoutRaw: "2m"},
		Store:   StoreConfig{Driver: "memory"},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Render:  RenderConfig{Placeholder: "https://placehold.net/default.svg", Width: 80, Style: "auto"},
	}
}

// Load reads the file at path over the defaults, expands environment
// variables, parses durations and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse is Load for in-memory YAML.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal([]byte(expandEnvVars(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

var envPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} patterns with the environment value, or
// the empty string when unset.
func expandEnvVars(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(envPattern.FindStringSubmatch(match)[1])
	})
}

func parseDurations(cfg *Config) error {
	if cfg.Model.TimeoutRaw == "" {
		return nil
	}
	d, err := time.ParseDuration(cfg.Model.TimeoutRaw)
	if err != nil {
		return fmt.Errorf("parsing model.timeout %q: %w", cfg.Model.TimeoutRaw, err)
	}
	cfg.Model.Timeout = d
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Session.Window < 1 {
		return errors.New("session.window must be at least 1")
	}
	if !slices.Contains(Providers, c.Model.Provider) {
		return fmt.Errorf("model.provider %q is not one of %v", c.Model.Provider, Providers)
	}
	if c.Model.MaxSteps < 0 {
		return errors.New("model.max_steps must not be negative")
	}
	switch c.Store.Driver {
	case "memory":
	case "sqlite":
		if c.Store.Path == "" {
			return errors.New("store.path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("store.driver %q is not supported", c.Store.Driver)
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	switch c.Logging.Format {
	case "", "text", "json", "pretty":
	default:
		return fmt.Errorf("logging.format %q is not supported", c.Logging.Format)
	}
	return nil
}
