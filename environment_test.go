package gpuframe

import (
	"errors"
	"testing"

	"github.com/gogpu/gpuframe/backend"
	"github.com/gogpu/gpuframe/backend/software"
)

// newTestEnv returns an Environment on the software backend, closed when
// the test ends.
func newTestEnv(t *testing.T, opts ...EnvOption) (*Environment, *software.Backend) {
	t.Helper()
	return newTestEnvWith(t, software.New(software.WithWorkers(2)), opts...)
}

func newTestEnvWith(t *testing.T, b *software.Backend, opts ...EnvOption) (*Environment, *software.Backend) {
	t.Helper()
	env, err := NewEnvironment(b, opts...)
	if err != nil {
		t.Fatalf("NewEnvironment: %v", err)
	}
	t.Cleanup(func() { env.Close() })
	return env, b
}

// do runs fn inside env.Do and fails the test on error.
func do(t *testing.T, env *Environment, fn func(c *Context) error) {
	t.Helper()
	if err := env.Do(fn); err != nil {
		t.Fatalf("Do: %v", err)
	}
}

func TestNewEnvironmentNilBackend(t *testing.T) {
	if _, err := NewEnvironment(nil); err == nil {
		t.Fatal("NewEnvironment(nil) should fail")
	}
}

func TestEnvironmentCapabilities(t *testing.T) {
	env, _ := newTestEnv(t)
	if env.Accelerated() {
		t.Error("software backend reported as accelerated")
	}
	if !env.TextureFloat() {
		t.Error("software backend should support float textures by default")
	}
	if env.BackendName() != backend.NameSoftware {
		t.Errorf("BackendName() = %q", env.BackendName())
	}

	env2, _ := newTestEnvWith(t, software.New(software.WithTextureFloat(false)))
	if env2.TextureFloat() {
		t.Error("TextureFloat() should follow the backend")
	}
}

func TestEnvironmentOptions(t *testing.T) {
	p := Profile{Width: 720, Height: 576, Colorspace: Colorspace601}
	env, _ := newTestEnv(t, WithProfile(p), WithInterp(InterpBicubic), WithMaxEntries(4))
	if env.Profile() != p {
		t.Errorf("Profile() = %+v, want %+v", env.Profile(), p)
	}
	if env.Interp() != InterpBicubic {
		t.Errorf("Interp() = %q", env.Interp())
	}

	err := env.Do(func(c *Context) error {
		for range 4 {
			if _, err := c.GetTexture(2, 2, backend.FormatRGBA8); err != nil {
				return err
			}
		}
		_, err := c.GetTexture(2, 2, backend.FormatRGBA8)
		return err
	})
	if !errors.Is(err, ErrPoolExhausted) {
		t.Fatalf("fifth texture: %v, want ErrPoolExhausted", err)
	}
}

func TestOpenFromRegistry(t *testing.T) {
	env, err := Open(backend.NameSoftware)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer env.Close()
	if env.BackendName() != backend.NameSoftware {
		t.Errorf("BackendName() = %q", env.BackendName())
	}

	if _, err := Open("no-such-backend"); !errors.Is(err, backend.ErrBackendNotAvailable) {
		t.Errorf("Open(unknown) = %v", err)
	}
}

func TestContextUsedAfterDo(t *testing.T) {
	env, _ := newTestEnv(t)
	var leaked *Context
	do(t, env, func(c *Context) error {
		leaked = c
		return nil
	})

	if _, err := leaked.GetTexture(4, 4, backend.FormatRGBA8); !errors.Is(err, ErrContextDone) {
		t.Errorf("GetTexture after Do = %v, want ErrContextDone", err)
	}
	if _, err := leaked.GetFBO(4, 4); !errors.Is(err, ErrContextDone) {
		t.Errorf("GetFBO after Do = %v, want ErrContextDone", err)
	}
	if _, err := leaked.GetShader("x", copySource); !errors.Is(err, ErrContextDone) {
		t.Errorf("GetShader after Do = %v, want ErrContextDone", err)
	}
}

func TestDoReturnsCallbackError(t *testing.T) {
	env, _ := newTestEnv(t)
	want := errors.New("boom")
	if err := env.Do(func(*Context) error { return want }); !errors.Is(err, want) {
		t.Fatalf("Do = %v, want %v", err, want)
	}
}

func TestCloseReleasesEverything(t *testing.T) {
	b := software.New()
	env, err := NewEnvironment(b)
	if err != nil {
		t.Fatal(err)
	}
	do(t, env, func(c *Context) error {
		if _, err := c.UploadImage(make([]byte, 4*4*4), FormatRGBA, 4, 4, Colorspace709); err != nil {
			return err
		}
		src, err := c.UploadImage(make([]byte, 8*8*4), FormatRGBA, 8, 8, Colorspace709)
		if err != nil {
			return err
		}
		_, err = c.RescaleBicubic(src, 8, 8, 12, 12, SplineCatmullRom)
		return err
	})

	before := b.Stats()
	if before.Textures == 0 || before.Programs == 0 || before.Buffers == 0 {
		t.Fatalf("expected live objects before Close, got %+v", before)
	}
	if !env.Stats().LUT {
		t.Error("spline table should exist after a bicubic rescale")
	}

	if err := env.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	after := b.Stats()
	if after.Textures != 0 || after.Framebuffers != 0 || after.Programs != 0 || after.Buffers != 0 {
		t.Errorf("objects left after Close: %+v", after)
	}
	if err := env.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
	if err := env.Do(func(*Context) error { return nil }); !errors.Is(err, ErrClosed) {
		t.Errorf("Do after Close = %v, want ErrClosed", err)
	}
}

func softwareNoFloat() *software.Backend {
	return software.New(software.WithWorkers(2), software.WithTextureFloat(false))
}
