// Package config loads the rewards YAML configuration and applies
// environment overrides on top of it.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/bytspot/rewards/internal/engine"
)

// Engine mirrors engine.Config with YAML keys
type Engine struct {
	DismissAfter    time.Duration `yaml:"dismiss_after"`
	ProbeMin        time.Duration `yaml:"probe_min"`
	ProbeMax        time.Duration `yaml:"probe_max"`
	ProbeChance     float64       `yaml:"probe_chance"`
	ProbeEnabled    bool          `yaml:"probe_enabled"`
	TickInterval    time.Duration `yaml:"tick_interval"`
	MaxCatchUpSteps int           `yaml:"max_catch_up_steps"`
	WorldWidth      float64       `yaml:"world_width"`
	WorldHeight     float64       `yaml:"world_height"`
}

type Analytics struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type Config struct {
	LogLevel     string    `yaml:"log_level"`
	CleanLogFile bool      `yaml:"clean_log_file"`
	CatalogFile  string    `yaml:"catalog_file"`
	Engine       Engine    `yaml:"engine"`
	Analytics    Analytics `yaml:"analytics"`
}

// Default returns the built-in configuration
func Default() Config {
	d := engine.DefaultConfig()
	return Config{
		LogLevel: "info",
		Engine: Engine{
			DismissAfter:    d.DismissAfter,
			ProbeMin:        d.ProbeMin,
			ProbeMax:        d.ProbeMax,
			ProbeChance:     d.ProbeChance,
			ProbeEnabled:    d.ProbeEnabled,
			TickInterval:    d.TickInterval,
			MaxCatchUpSteps: d.MaxCatchUpSteps,
			WorldWidth:      d.WorldWidth,
			WorldHeight:     d.WorldHeight,
		},
		Analytics: Analytics{Enabled: true},
	}
}

// Parse decodes a YAML document over the defaults. Keys absent from the
// document keep their default value.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Load reads the config file at path. A missing file yields the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

// Validate reports the first invalid setting
func (c Config) Validate() error {
	e := c.Engine
	switch {
	case e.DismissAfter <= 0:
		return fmt.Errorf("engine.dismiss_after must be positive, got %s", e.DismissAfter)
	case e.ProbeMin <= 0:
		return fmt.Errorf("engine.probe_min must be positive, got %s", e.ProbeMin)
	case e.ProbeMax < e.ProbeMin:
		return fmt.Errorf("engine.probe_max (%s) is below engine.probe_min (%s)", e.ProbeMax, e.ProbeMin)
	case e.ProbeChance < 0 || e.ProbeChance > 1:
		return fmt.Errorf("engine.probe_chance must be within [0, 1], got %g", e.ProbeChance)
	case e.TickInterval <= 0:
		return fmt.Errorf("engine.tick_interval must be positive, got %s", e.TickInterval)
	case e.MaxCatchUpSteps < 1:
		return fmt.Errorf("engine.max_catch_up_steps must be at least 1, got %d", e.MaxCatchUpSteps)
	case e.WorldWidth <= 0 || e.WorldHeight <= 0:
		return fmt.Errorf("engine world size must be positive, got %gx%g", e.WorldWidth, e.WorldHeight)
	}
	if _, err := zap.ParseAtomicLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

// EngineConfig converts the engine section for engine.New
func (c Config) EngineConfig() engine.Config {
	return engine.Config{
		DismissAfter:    c.Engine.DismissAfter,
		ProbeMin:        c.Engine.ProbeMin,
		ProbeMax:        c.Engine.ProbeMax,
		ProbeChance:     c.Engine.ProbeChance,
		ProbeEnabled:    c.Engine.ProbeEnabled,
		TickInterval:    c.Engine.TickInterval,
		MaxCatchUpSteps: c.Engine.MaxCatchUpSteps,
		WorldWidth:      c.Engine.WorldWidth,
		WorldHeight:     c.Engine.WorldHeight,
	}
}

// AtomicLevel returns the configured zap level, falling back to info
func (c Config) AtomicLevel() zap.AtomicLevel {
	level, err := zap.ParseAtomicLevel(c.LogLevel)
	if err != nil {
		return zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return level
}
