// Package config loads tool configuration from YAML files. Values not
// present in the file keep their defaults, so a partial config is valid.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/texelforge/uvwrap/internal/engine"
	"github.com/texelforge/uvwrap/internal/logger"
	"github.com/texelforge/uvwrap/internal/model"
)

// LoggingConfig controls log verbosity and optional file output.
type LoggingConfig struct {
	Level string            `yaml:"level"`
	File  logger.FileConfig `yaml:"file"`
}

// Config is the full tool configuration.
type Config struct {
	Defaults   model.UnwrapParams `yaml:"defaults"`
	Lattice    engine.Lattice     `yaml:"lattice"`
	Workers    int                `yaml:"workers"`
	Resolution int                `yaml:"resolution"`
	Logging    LoggingConfig      `yaml:"logging"`
}

// Default returns the built-in configuration: default unwrap
// parameters, the standard search lattice, auto worker count, and a
// 512x512 coverage raster.
func Default() Config {
	return Config{
		Defaults:   model.DefaultParams(),
		Lattice:    engine.DefaultLattice(),
		Workers:    0,
		Resolution: 512,
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads a YAML config file over the defaults. An empty path means
// defaults only.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.Resolution < 2 {
		return Default(), fmt.Errorf("resolution must be at least 2, got %d", cfg.Resolution)
	}
	if cfg.Workers < 0 {
		return Default(), fmt.Errorf("workers must not be negative, got %d", cfg.Workers)
	}
	if len(cfg.Lattice.AngleThresholds) == 0 || len(cfg.Lattice.MinIslandFaces) == 0 {
		cfg.Lattice = engine.DefaultLattice()
	}
	return cfg, nil
}

// FindConfigFile returns the first config file that exists among the
// standard locations: ./uvwrap.yaml, then ~/.uvwrap/config.yaml. An
// empty string means no config file was found.
func FindConfigFile() string {
	candidates := []string{"uvwrap.yaml", "uvwrap.yml"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates,
			filepath.Join(home, ".uvwrap", "config.yaml"),
			filepath.Join(home, ".uvwrap", "config.yml"),
		)
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c
		}
	}
	return ""
}
