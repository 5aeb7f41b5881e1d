// Package config loads the engine configuration: a reconcile.yaml file for
// tunables and environment variables for the database connection.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"bank-reconciliation-engine/internal/services/matching"
)

// Config is the top-level reconcile.yaml configuration.
type Config struct {
	Server   ServerConfig    `yaml:"server"`
	Matching matching.Config `yaml:"matching"`

	// Workers is the batch concurrency; 1 processes transactions in
	// statement order.
	Workers int `yaml:"workers"`
}

// ServerConfig carries the HTTP listener settings.
type ServerConfig struct {
	Addr        string   `yaml:"addr"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// Default returns the stock configuration the engine runs with when no file
// is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:        ":8080",
			CORSOrigins: []string{"http://localhost:3000"},
		},
		Matching: matching.DefaultConfig(),
		Workers:  1,
	}
}

// Load reads a reconcile.yaml file. Missing keys keep their defaults, so a
// file may override just the values it cares about.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Matching.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault loads the file at path, or returns defaults when path is
// empty.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
