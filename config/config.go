// Package config holds the assembler's TOML-backed configuration, adapted
// from the teacher's config/config.go: a grouped struct with toml tags, a
// Default that fills in the zero-config values, and a Load that overlays a
// file on top of those defaults, treating a missing file as "use defaults"
// rather than an error.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config is the assembler's full configuration surface.
type Config struct {
	Listing struct {
		Enabled     bool   `toml:"enabled"`
		Path        string `toml:"path"`
		BytesPerRow int    `toml:"bytes_per_row"`
	} `toml:"listing"`

	Output struct {
		Path         string `toml:"path"`
		SrecordWidth int    `toml:"srecord_width"`
	} `toml:"output"`

	Diagnostics struct {
		ContextLines     int  `toml:"context_lines"`
		TabWidth         int  `toml:"tab_width"`
		WarningsAsErrors bool `toml:"warnings_as_errors"`
	} `toml:"diagnostics"`
}

// Default returns a Config populated with the assembler's built-in defaults.
func Default() *Config {
	cfg := &Config{}

	cfg.Listing.Enabled = false
	cfg.Listing.Path = ""
	cfg.Listing.BytesPerRow = 4

	cfg.Output.Path = "out.h68"
	cfg.Output.SrecordWidth = 32

	cfg.Diagnostics.ContextLines = 1
	cfg.Diagnostics.TabWidth = 4
	cfg.Diagnostics.WarningsAsErrors = false

	return cfg
}

// Load reads path and overlays it on top of Default. A missing file is not
// an error: it simply means the built-in defaults apply, mirroring the
// teacher's LoadFrom.
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}
