// Package config loads runtime settings from a YAML file with environment
// overrides.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/talgya/stampede/internal/scenario"
)

// Render modes.
const (
	RenderNone = "none"
	RenderText = "text"
	RenderTUI  = "tui"
)

// Config holds everything the driver needs to set up a run.
type Config struct {
	Seed       int64         `yaml:"seed"`
	MaxTicks   uint64        `yaml:"max_ticks"`   // 0 = until everyone is out or dead
	IntervalMS int           `yaml:"interval_ms"` // Base tick interval
	Speed      float64       `yaml:"speed"`       // 0 starts paused
	LogLevel   string        `yaml:"log_level"`   // debug, info, warn, error
	DBPath     string        `yaml:"db_path"`     // Empty disables run history
	APIPort    int           `yaml:"api_port"`    // 0 disables the HTTP API
	AdminKey   string        `yaml:"admin_key"`   // Bearer token for POST endpoints
	Render     string        `yaml:"render"`      // none, text, tui
	Scenario   scenario.Spec `yaml:"scenario"`
}

// Default returns a configuration that runs the hall preset headless with
// text output.
func Default() Config {
	return Config{
		Seed:       42,
		MaxTicks:   500,
		IntervalMS: 250,
		Speed:      1,
		LogLevel:   "info",
		DBPath:     filepath.Join("data", "stampede.db"),
		APIPort:    0,
		Render:     RenderText,
		Scenario:   scenario.Default(),
	}
}

// Load reads a YAML config file over the defaults, then applies environment
// overrides. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := loadYAML(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadYAML(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	var peek struct {
		Scenario struct {
			Preset *string  `yaml:"preset"`
			Layout []string `yaml:"layout"`
			Rows   int      `yaml:"rows"`
			Cols   int      `yaml:"cols"`
		} `yaml:"scenario"`
	}
	if err := yaml.Unmarshal(b, &peek); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	// A scenario that brings its own layout or dimensions does not inherit
	// the default preset, which would otherwise take precedence.
	sc := peek.Scenario
	if sc.Preset == nil && (len(sc.Layout) > 0 || sc.Rows > 0 || sc.Cols > 0) {
		cfg.Scenario.Preset = ""
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("STAMPEDE_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("STAMPEDE_SEED: %w", err)
		}
		c.Seed = seed
	}
	if v := os.Getenv("STAMPEDE_API_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("STAMPEDE_API_PORT: %w", err)
		}
		c.APIPort = port
	}
	if v, ok := os.LookupEnv("STAMPEDE_DB"); ok {
		c.DBPath = v
	}
	if v := os.Getenv("STAMPEDE_ADMIN_KEY"); v != "" {
		c.AdminKey = v
	}
	if v := os.Getenv("STAMPEDE_RENDER"); v != "" {
		c.Render = strings.ToLower(v)
	}
	if v := os.Getenv("STAMPEDE_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	return nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch c.Render {
	case RenderNone, RenderText, RenderTUI:
	default:
		return fmt.Errorf("render mode %q: want none, text or tui", c.Render)
	}
	if c.IntervalMS <= 0 {
		return fmt.Errorf("interval_ms must be positive, got %d", c.IntervalMS)
	}
	if c.Speed < 0 {
		return fmt.Errorf("speed must be >= 0, got %v", c.Speed)
	}
	if c.APIPort < 0 || c.APIPort > 65535 {
		return fmt.Errorf("api_port out of range: %d", c.APIPort)
	}
	if c.Scenario.Population < 0 {
		return fmt.Errorf("scenario population must be >= 0, got %d", c.Scenario.Population)
	}
	for name, p := range map[string]float64{
		"strong":   c.Scenario.Traits.Strong,
		"rational": c.Scenario.Traits.Rational,
		"relaxed":  c.Scenario.Traits.Relaxed,
	} {
		if p < 0 || p > 1 {
			return fmt.Errorf("trait probability %s must be within [0,1], got %v", name, p)
		}
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// Interval returns the tick interval as a duration.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.IntervalMS) * time.Millisecond
}

// SlogLevel parses LogLevel.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level %q: %w", c.LogLevel, err)
	}
	return level, nil
}
