package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero width", func(c *Config) { c.Profile.Width = 0 }},
		{"negative height", func(c *Config) { c.Profile.Height = -1 }},
		{"colorspace", func(c *Config) { c.Profile.Colorspace = 2020 }},
		{"pool", func(c *Config) { c.Pool.MaxEntries = -5 }},
		{"interp", func(c *Config) { c.Rescale.Interp = "lanczos" }},
		{"workers", func(c *Config) { c.Backend.Workers = -1 }},
		{"level", func(c *Config) { c.Log.Level = "verbose" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.modify(c)
			if err := c.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("Validate() = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestLoadPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	data := "[profile]\nwidth = 720\nheight = 576\ncolorspace = 601\n\n[rescale]\ninterp = \"bicubic\"\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Profile.Width != 720 || c.Profile.Height != 576 || c.Profile.Colorspace != 601 {
		t.Errorf("Profile = %+v", c.Profile)
	}
	if c.Rescale.Interp != "bicubic" {
		t.Errorf("Interp = %q, want bicubic", c.Rescale.Interp)
	}
	if c.Pool.MaxEntries != 1024 {
		t.Errorf("MaxEntries = %d, want default 1024", c.Pool.MaxEntries)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte("[log]\nlevel = \"loud\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !errors.Is(err, ErrInvalid) {
		t.Fatalf("Load = %v, want ErrInvalid", err)
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("Load of a missing file should fail")
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", FileName)
	want := Default()
	want.Backend.Name = "software"
	want.Backend.Workers = 3
	want.Profile.Progressive = true

	if err := Save(path, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *got != *want {
		t.Errorf("Load = %+v, want %+v", got, want)
	}
}

func TestDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	if got := Dir(); got != filepath.Join("/tmp/xdg", "gpuframe") {
		t.Errorf("Dir() = %q", got)
	}
}
