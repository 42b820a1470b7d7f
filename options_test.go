package gpuframe

import (
	"testing"

	"github.com/gogpu/gpuframe/config"
)

func TestDefaultEnvOptions(t *testing.T) {
	o := defaultEnvOptions()
	if o.maxEntries != 1024 {
		t.Errorf("maxEntries = %d, want 1024", o.maxEntries)
	}
	if o.profile != DefaultProfile() {
		t.Errorf("profile = %+v", o.profile)
	}
	if o.interp != InterpBilinear {
		t.Errorf("interp = %q", o.interp)
	}
}

func TestWithMaxEntriesIgnoresNonPositive(t *testing.T) {
	o := defaultEnvOptions()
	WithMaxEntries(0)(&o)
	WithMaxEntries(-3)(&o)
	if o.maxEntries != 1024 {
		t.Errorf("maxEntries = %d, want default", o.maxEntries)
	}
	WithMaxEntries(16)(&o)
	if o.maxEntries != 16 {
		t.Errorf("maxEntries = %d, want 16", o.maxEntries)
	}
}

func TestWithConfig(t *testing.T) {
	c := config.Default()
	c.Profile = config.Profile{Width: 720, Height: 576, Colorspace: 601, Progressive: true}
	c.Pool.MaxEntries = 64
	c.Rescale.Interp = "bicubic"

	o := defaultEnvOptions()
	WithConfig(c)(&o)

	want := Profile{Width: 720, Height: 576, Colorspace: Colorspace601}
	if o.profile != want {
		t.Errorf("profile = %+v, want %+v", o.profile, want)
	}
	if o.maxEntries != 64 {
		t.Errorf("maxEntries = %d, want 64", o.maxEntries)
	}
	if o.interp != InterpBicubic {
		t.Errorf("interp = %q", o.interp)
	}
}

func TestWithConfigNilAndEmpty(t *testing.T) {
	o := defaultEnvOptions()
	WithConfig(nil)(&o)
	WithConfig(&config.Config{})(&o)
	if o != defaultEnvOptions() {
		t.Errorf("empty config changed options: %+v", o)
	}
}
