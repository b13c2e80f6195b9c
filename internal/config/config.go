// Package config loads the trellis configuration file.
//
// Configuration is deliberately small: where the data lives, which engine
// backs it, and how the server and logger behave. Flags override file
// values; the file is optional and every field has a default.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Backend names accepted by storage.backend.
const (
	BackendBadger = "badger"
	BackendSQLite = "sqlite"
)

// Config is the root of the configuration file.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
}

// StorageConfig selects and locates the engine.
type StorageConfig struct {
	// Backend is "badger" or "sqlite".
	Backend string `yaml:"backend"`

	// Path is the badger directory or the sqlite database file.
	Path string `yaml:"path"`

	// AdjacencyIndex opts into the auxiliary traversal index.
	AdjacencyIndex bool `yaml:"adjacency_index"`
}

// ServerConfig shapes the HTTP surface.
type ServerConfig struct {
	// Listen is the address the HTTP server binds.
	Listen string `yaml:"listen"`

	// Auth gates mutating routes behind single-use bearer tokens.
	Auth bool `yaml:"auth"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend: BackendBadger,
			Path:    "./trellis-data",
		},
		Server: ServerConfig{
			Listen: ":7474",
			Auth:   true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads and validates the configuration file at path. Omitted fields
// keep their defaults; unknown fields are rejected.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field values. Called by Load and again after flag
// overrides are applied.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendBadger, BackendSQLite:
	default:
		return fmt.Errorf("storage.backend must be %q or %q, got %q",
			BackendBadger, BackendSQLite, c.Storage.Backend)
	}
	if c.Storage.Path == "" {
		return fmt.Errorf("storage.path must not be empty")
	}
	if c.Server.Listen == "" {
		return fmt.Errorf("server.listen must not be empty")
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel maps the configured level name onto a slog level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	switch l.Level {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("log.level must be one of debug, info, warn, error; got %q", l.Level)
	}
}
