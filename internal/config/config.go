// Package config loads unitplayer settings from TOML files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const appName = "unitplayer"

type Config struct {
	Engine EngineConfig `koanf:"engine"`
	Player PlayerConfig `koanf:"player"`
	State  StateConfig  `koanf:"state"`
	Log    LogConfig    `koanf:"log"`
}

// EngineConfig configures the processing context and its output.
type EngineConfig struct {
	SampleRate      int           `koanf:"sample_rate"`      // output rate in Hz (default: 44100)
	Buffer          time.Duration `koanf:"buffer"`           // device buffer (default: 100ms)
	MaxChannels     int           `koanf:"max_channels"`     // attached endpoints limit (default: 32)
	ResampleQuality int           `koanf:"resample_quality"` // 1-64 (default: 4)
}

// PlayerConfig configures each file player endpoint.
type PlayerConfig struct {
	ReadAhead      time.Duration `koanf:"read_ahead"`      // decoded audio buffered ahead (default: 2s)
	BlockFrames    int           `koanf:"block_frames"`    // frames per ring block (default: 1024)
	RefillInterval time.Duration `koanf:"refill_interval"` // loader poll period (default: 10ms)
	Volume         *float64      `koanf:"volume"`          // initial volume 0-1 (default: 1)
	Pan            *float64      `koanf:"pan"`             // initial pan -1..1 (default: 0)
}

// StateConfig configures the resume store.
type StateConfig struct {
	Enabled *bool  `koanf:"enabled"` // persist resume records (default: true)
	Path    string `koanf:"path"`    // database file (default: XDG data dir)
	Resume  *bool  `koanf:"resume"`  // restore position on load (default: true)
}

// LogConfig configures the default logger.
type LogConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error (default: info)
	Format string `koanf:"format"` // text or json (default: text)
}

// Load reads the default config files, then explicit if it is not empty.
// A missing explicit file is an error; missing default files are skipped.
func Load(explicit string) (*Config, error) {
	paths := getConfigPaths()
	if explicit != "" {
		explicit = expandPath(explicit)
		if _, err := os.Stat(explicit); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		paths = append(paths, explicit)
	}
	return LoadFiles(paths...)
}

// LoadFiles merges the existing files among paths, later files winning.
func LoadFiles(paths ...string) (*Config, error) {
	k := koanf.New(".")

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, fmt.Errorf("load %s: %w", path, err)
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	if cfg.State.Path != "" {
		cfg.State.Path = expandPath(cfg.State.Path)
	}

	return cfg, nil
}

func getConfigPaths() []string {
	return []string{
		// 1. $XDG_CONFIG_HOME/unitplayer/config.toml
		filepath.Join(xdg.ConfigHome, appName, "config.toml"),
		// 2. ./config.toml (pwd)
		"config.toml",
	}
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// GetEngineConfig returns the engine configuration with defaults applied.
func (c *Config) GetEngineConfig() EngineConfig {
	cfg := c.Engine

	if cfg.SampleRate < 8000 || cfg.SampleRate > 384000 {
		cfg.SampleRate = 44100
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = 100 * time.Millisecond
	}
	if cfg.MaxChannels <= 0 {
		cfg.MaxChannels = 32
	}
	if cfg.ResampleQuality <= 0 || cfg.ResampleQuality > 64 {
		cfg.ResampleQuality = 4
	}

	return cfg
}

// GetPlayerConfig returns the player configuration with defaults applied.
// Volume and pan are always set and clamped to their ranges.
func (c *Config) GetPlayerConfig() PlayerConfig {
	cfg := c.Player

	if cfg.ReadAhead <= 0 {
		cfg.ReadAhead = 2 * time.Second
	}
	if cfg.BlockFrames <= 0 {
		cfg.BlockFrames = 1024
	}
	if cfg.RefillInterval <= 0 {
		cfg.RefillInterval = 10 * time.Millisecond
	}
	vol, pan := 1.0, 0.0
	if cfg.Volume != nil {
		vol = min(max(*cfg.Volume, 0), 1)
	}
	if cfg.Pan != nil {
		pan = min(max(*cfg.Pan, -1), 1)
	}
	cfg.Volume, cfg.Pan = &vol, &pan

	return cfg
}

// GetStateConfig returns the state configuration with defaults applied.
func (c *Config) GetStateConfig() StateConfig {
	cfg := c.State

	if cfg.Enabled == nil {
		cfg.Enabled = boolPtr(true)
	}
	if cfg.Resume == nil {
		cfg.Resume = boolPtr(true)
	}

	return cfg
}

// GetLogConfig returns the logging configuration with defaults applied.
func (c *Config) GetLogConfig() LogConfig {
	cfg := c.Log

	if cfg.Level == "" {
		cfg.Level = "info"
	}
	if cfg.Format != "json" {
		cfg.Format = "text"
	}

	return cfg
}

// Resolved returns a copy with every section's defaults applied.
func (c *Config) Resolved() *Config {
	return &Config{
		Engine: c.GetEngineConfig(),
		Player: c.GetPlayerConfig(),
		State:  c.GetStateConfig(),
		Log:    c.GetLogConfig(),
	}
}

func boolPtr(b bool) *bool { return &b }

// MarshalTOML encodes the resolved configuration as TOML.
func (c *Config) MarshalTOML() ([]byte, error) {
	r := c.Resolved()
	return toml.Parser().Marshal(map[string]any{
		"engine": map[string]any{
			"sample_rate":      r.Engine.SampleRate,
			"buffer":           r.Engine.Buffer.String(),
			"max_channels":     r.Engine.MaxChannels,
			"resample_quality": r.Engine.ResampleQuality,
		},
		"player": map[string]any{
			"read_ahead":      r.Player.ReadAhead.String(),
			"block_frames":    r.Player.BlockFrames,
			"refill_interval": r.Player.RefillInterval.String(),
			"volume":          *r.Player.Volume,
			"pan":             *r.Player.Pan,
		},
		"state": map[string]any{
			"enabled": *r.State.Enabled,
			"path":    r.State.Path,
			"resume":  *r.State.Resume,
		},
		"log": map[string]any{
			"level":  r.Log.Level,
			"format": r.Log.Format,
		},
	})
}
