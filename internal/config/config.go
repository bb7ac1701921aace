package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all mapgrove configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Retention RetentionConfig `yaml:"retention"`
}

type ServerConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RetentionConfig struct {
	// WindowDays is how many calendar days an untouched map survives.
	WindowDays int `yaml:"window_days"`
	// SweepInterval is how often the server looks for expired maps,
	// in time.ParseDuration syntax ("1h", "30m").
	SweepInterval string `yaml:"sweep_interval"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 3000,
		},
		Database: DatabaseConfig{
			Path: "", // resolved at runtime via store.DefaultDBPath()
		},
		Retention: RetentionConfig{
			WindowDays:    30,
			SweepInterval: "1h",
		},
	}
}

// Load reads the YAML config at path laid over the defaults. A missing file
// is not an error; callers simply get the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if c.Retention.WindowDays <= 0 {
		return fmt.Errorf("retention window must be positive, got %d days", c.Retention.WindowDays)
	}
	if _, err := time.ParseDuration(c.Retention.SweepInterval); err != nil {
		return fmt.Errorf("sweep interval: %w", err)
	}
	return nil
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}

// SweepEvery returns the parsed sweep interval, falling back to hourly if
// the configured value never went through validate.
func (c *Config) SweepEvery() time.Duration {
	d, err := time.ParseDuration(c.Retention.SweepInterval)
	if err != nil || d <= 0 {
		return time.Hour
	}
	return d
}
