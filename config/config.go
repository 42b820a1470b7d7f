// Package config reads and writes the gpuframe TOML configuration file.
//
// A file only needs the keys it changes; everything else keeps the value
// from Default:
//
//	[profile]
//	width = 1280
//	height = 720
//	colorspace = 709
//
//	[rescale]
//	interp = "bicubic"
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the default configuration file name.
const FileName = "gpuframe.toml"

// ErrInvalid is returned by Validate and Load for out-of-range settings.
var ErrInvalid = errors.New("config: invalid setting")

// Config is the decoded configuration file.
type Config struct {
	Profile Profile `toml:"profile"`
	Pool    Pool    `toml:"pool"`
	Rescale Rescale `toml:"rescale"`
	Backend Backend `toml:"backend"`
	Log     Log     `toml:"log"`
}

// Profile is the default frame geometry used when a conversion does not
// name a size.
type Profile struct {
	Width       int  `toml:"width"`
	Height      int  `toml:"height"`
	Colorspace  int  `toml:"colorspace"`
	Progressive bool `toml:"progressive"`
}

// Pool limits the resource pool.
type Pool struct {
	MaxEntries int `toml:"max_entries"`
}

// Rescale holds the default interpolation mode.
type Rescale struct {
	Interp string `toml:"interp"`
}

// Backend selects the graphics backend. An empty name picks the best
// available one.
type Backend struct {
	Name    string `toml:"name"`
	Workers int    `toml:"workers"`
}

// Log configures diagnostics output.
type Log struct {
	Level string `toml:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Profile: Profile{Width: 1920, Height: 1080, Colorspace: 709},
		Pool:    Pool{MaxEntries: 1024},
		Rescale: Rescale{Interp: "bilinear"},
		Log:     Log{Level: "warn"},
	}
}

var interps = map[string]bool{
	"none": true, "nearest": true, "bilinear": true,
	"bicubic": true, "hyper": true, "tiles": true,
}

var levels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true,
}

// Validate checks every setting.
func (c *Config) Validate() error {
	if c.Profile.Width <= 0 || c.Profile.Height <= 0 {
		return fmt.Errorf("%w: profile size %dx%d", ErrInvalid, c.Profile.Width, c.Profile.Height)
	}
	switch c.Profile.Colorspace {
	case 601, 709, 240:
	default:
		return fmt.Errorf("%w: colorspace %d", ErrInvalid, c.Profile.Colorspace)
	}
	if c.Pool.MaxEntries < 0 {
		return fmt.Errorf("%w: pool.max_entries %d", ErrInvalid, c.Pool.MaxEntries)
	}
	if !interps[c.Rescale.Interp] {
		return fmt.Errorf("%w: rescale.interp %q", ErrInvalid, c.Rescale.Interp)
	}
	if c.Backend.Workers < 0 {
		return fmt.Errorf("%w: backend.workers %d", ErrInvalid, c.Backend.Workers)
	}
	if !levels[c.Log.Level] {
		return fmt.Errorf("%w: log.level %q", ErrInvalid, c.Log.Level)
	}
	return nil
}

// Load decodes path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	c := Default()
	if _, err := toml.DecodeFile(path, c); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return c, nil
}

// Save writes c to path, creating the parent directory.
func Save(path string, c *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// Dir returns the per-user configuration directory, honoring
// XDG_CONFIG_HOME.
func Dir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "gpuframe")
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "gpuframe")
}
