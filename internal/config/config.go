// Package config loads the darkroom command-line configuration.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds darkroom settings.
type Config struct {
	LogLevel           string `yaml:"log_level"`
	CheckpointInterval int    `yaml:"checkpoint_interval"`
	MacroDir           string `yaml:"macro_dir"`
	LibraryPath        string `yaml:"library_path"`
	JPEGQuality        int    `yaml:"jpeg_quality"`
	CompressSessions   bool   `yaml:"compress_sessions"`
	Language           string `yaml:"language"`
}

// Default returns a Config with every field at its default.
func Default() *Config {
	c := &Config{CompressSessions: true}
	c.defaults()
	return c
}

func (c *Config) defaults() {
	if c.LogLevel == "" {
		c.LogLevel = "warn"
	}
	if c.CheckpointInterval == 0 {
		c.CheckpointInterval = 8
	}
	if c.MacroDir == "" {
		c.MacroDir = "."
	}
	if c.LibraryPath == "" {
		c.LibraryPath = "darkroom.db"
	}
	if c.JPEGQuality <= 0 || c.JPEGQuality > 100 {
		c.JPEGQuality = 90
	}
	if c.Language == "" {
		c.Language = "en"
	}
}

// Load reads a YAML config file. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML config data and fills unset fields with defaults.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{CompressSessions: true}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.defaults()
	if _, err := cfg.Level(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Level returns the slog level named by LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("config: log_level %q: %w", c.LogLevel, err)
	}
	return l, nil
}
