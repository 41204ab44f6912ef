// Package config loads the simulator's configuration inputs: geometry,
// clock rate, controller granularity flags, force_sync, netscheme, and
// the result file path.
//
// Loading configuration is a concrete concern the simulator core never
// touches directly; this package is the loader that makes the repo
// runnable end to end from a YAML file or built-in defaults.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config mirrors the simulator's construction-time inputs.
type Config struct {
	NChips  int `yaml:"nchips"`
	NTiles  int `yaml:"ntiles"`
	NBlocks int `yaml:"nblocks"`
	NRows   int `yaml:"nrows"`
	NCols   int `yaml:"ncols"`

	ClockRate float64 `yaml:"clock_rate"`

	BlockCtrl bool `yaml:"blockctrl"`
	TileCtrl  bool `yaml:"tilectrl"`
	ChipCtrl  bool `yaml:"chipctrl"`

	ForceSync bool `yaml:"force_sync"`

	NetScheme string `yaml:"netscheme"`
	RstFile   string `yaml:"rstfile"`
}

// Default returns a small, valid geometry suitable for smoke-testing
// the simulator without a config file.
func Default() Config {
	return Config{
		NChips:    1,
		NTiles:    16,
		NBlocks:   256,
		NRows:     1024,
		NCols:     1024,
		ClockRate: 1e9,
		BlockCtrl: true,
		NetScheme: "ideal",
		RstFile:   "result.txt",
	}
}

// Load reads and parses a YAML config file, then normalizes it.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Normalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Normalize defaults blockctrl to true when none of the three
// granularity flags (blockctrl, tilectrl, chipctrl) are set, and
// validates the geometry fields are positive. It does not enforce
// that only one of the three flags is set; that combination is left
// to the caller.
func (c *Config) Normalize() error {
	if c.NChips <= 0 || c.NTiles <= 0 || c.NBlocks <= 0 || c.NRows <= 0 || c.NCols <= 0 {
		return fmt.Errorf("config: nchips, ntiles, nblocks, nrows, ncols must all be positive, got %+v", *c)
	}
	if c.ClockRate <= 0 {
		return fmt.Errorf("config: clock_rate must be positive, got %v", c.ClockRate)
	}
	if !c.BlockCtrl && !c.TileCtrl && !c.ChipCtrl {
		c.BlockCtrl = true
	}
	if c.RstFile == "" {
		c.RstFile = "result.txt"
	}
	return nil
}
