package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Listing.BytesPerRow != 4 {
		t.Fatalf("Listing.BytesPerRow = %d, want 4", cfg.Listing.BytesPerRow)
	}
	if cfg.Output.Path != "out.h68" {
		t.Fatalf("Output.Path = %q, want out.h68", cfg.Output.Path)
	}
	if cfg.Output.SrecordWidth != 32 {
		t.Fatalf("Output.SrecordWidth = %d, want 32", cfg.Output.SrecordWidth)
	}
	if cfg.Diagnostics.ContextLines != 1 || cfg.Diagnostics.TabWidth != 4 {
		t.Fatalf("Diagnostics defaults = %+v, want {1, 4, false}", cfg.Diagnostics)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Output.Path != "out.h68" {
		t.Fatalf("Output.Path = %q, want out.h68", cfg.Output.Path)
	}
}

func TestLoadOverlaysFileOnDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "m68kasm.toml")
	contents := `
[listing]
enabled = true
bytes_per_row = 8

[output]
path = "rom.h68"
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Listing.Enabled || cfg.Listing.BytesPerRow != 8 {
		t.Fatalf("Listing = %+v, want enabled=true bytes_per_row=8", cfg.Listing)
	}
	if cfg.Output.Path != "rom.h68" {
		t.Fatalf("Output.Path = %q, want rom.h68", cfg.Output.Path)
	}
	// Diagnostics wasn't in the file, so it keeps its defaults.
	if cfg.Diagnostics.ContextLines != 1 || cfg.Diagnostics.TabWidth != 4 {
		t.Fatalf("Diagnostics = %+v, want untouched defaults", cfg.Diagnostics)
	}
	if cfg.Output.SrecordWidth != 32 {
		t.Fatalf("Output.SrecordWidth = %d, want untouched default 32", cfg.Output.SrecordWidth)
	}
}
