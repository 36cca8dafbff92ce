// Package config loads the server configuration file.
package config

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the full process configuration.
type Config struct {
	AllowedVersions []string         `yaml:"allowed_versions"`
	LogLevel        string           `yaml:"log_level"`
	RateLimit       RateLimit        `yaml:"rate_limit"`
	Worlds          map[string]World `yaml:"worlds"`
	Redis           Redis            `yaml:"redis"`
	CatalogPath     string           `yaml:"catalog_path"`
}

// RateLimit holds the three admission caps enforced at the connection
// boundary. Zero values fall back to the defaults when Enabled is set.
type RateLimit struct {
	Enabled                  bool    `yaml:"enabled"`
	AddressConnectsPerSecond float64 `yaml:"address_connects_per_second"`
	AddressEventsPerSecond   float64 `yaml:"address_events_per_second"`
	UserEventsPerSecond      float64 `yaml:"user_events_per_second"`
}

// World configures one listen endpoint.
type World struct {
	Port     int `yaml:"port"`
	WSPort   int `yaml:"ws_port"` // 0 disables the WebSocket listener
	MaxUsers int `yaml:"max_users"`
}

// Redis configures the optional Redis-backed store. An empty Addr selects
// the in-memory store.
type Redis struct {
	Addr string `yaml:"addr"`
}

// Default returns a single-world development configuration.
func Default() *Config {
	return &Config{
		AllowedVersions: []string{"153"},
		LogLevel:        "info",
		RateLimit: RateLimit{
			Enabled:                  true,
			AddressConnectsPerSecond: 5,
			AddressEventsPerSecond:   250,
			UserEventsPerSecond:      100,
		},
		Worlds: map[string]World{
			"blizzard": {Port: 6112, MaxUsers: 300},
		},
	}
}

// Load parses the YAML file at path, filling gaps with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.Worlds) == 0 {
		return fmt.Errorf("config: no worlds defined")
	}
	for name, w := range c.Worlds {
		if w.Port <= 0 || w.Port > 65535 {
			return fmt.Errorf("config: world %s: invalid port %d", name, w.Port)
		}
		if w.MaxUsers <= 0 {
			return fmt.Errorf("config: world %s: max_users must be positive", name)
		}
	}
	return nil
}

// SlogLevel maps the configured verbosity to a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// VersionAllowed reports whether a client protocol version is accepted.
func (c *Config) VersionAllowed(v string) bool {
	for _, allowed := range c.AllowedVersions {
		if allowed == v {
			return true
		}
	}
	return false
}
