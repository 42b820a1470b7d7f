package gpuframe

import (
	"errors"
	"testing"

	"github.com/gogpu/gpuframe/backend"
)

// solidProgram fills the target with one color.
func solidProgram(c [4]float32) *backend.ProgramSource {
	return backend.NewProgram(nil, nil, `
@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    return vec4<f32>(0.0);
}
`, func(backend.Uniforms, []backend.Sampler) backend.Shade {
		return func(float32, float32) [4]float32 { return c }
	})
}

func TestGetShaderCachesByName(t *testing.T) {
	env, b := newTestEnv(t)
	red := solidProgram([4]float32{1, 0, 0, 1})
	blue := solidProgram([4]float32{0, 0, 1, 1})

	do(t, env, func(c *Context) error {
		s1, err := c.GetShader("solid", red)
		if err != nil {
			return err
		}
		s2, err := c.GetShader("solid", blue)
		if err != nil {
			return err
		}
		if s1 != s2 {
			t.Error("same name compiled twice")
		}
		if s2.Source() != red {
			t.Error("cached program should keep its first source")
		}

		out, err := c.Render(Pass{Shader: s2, Width: 2, Height: 2})
		if err != nil {
			return err
		}
		px, err := c.read(out)
		if err != nil {
			return err
		}
		if px[0] != 255 || px[2] != 0 {
			t.Errorf("pixel = %v, want red", px[:4])
		}
		return nil
	})

	if got := b.Stats().Compiles; got != 1 {
		t.Errorf("Compiles = %d, want 1", got)
	}
	if got := env.Stats().Shaders; got != 1 {
		t.Errorf("Stats().Shaders = %d, want 1", got)
	}
}

func TestGetShaderFailureNotCached(t *testing.T) {
	env, b := newTestEnv(t)
	broken := &backend.ProgramSource{WGSL: "not wgsl"}

	err := env.Do(func(c *Context) error {
		_, err := c.GetShader("flaky", broken)
		return err
	})
	if !errors.Is(err, ErrShaderCompile) {
		t.Fatalf("GetShader(broken) = %v, want ErrShaderCompile", err)
	}
	if !errors.Is(err, backend.ErrCompile) {
		t.Errorf("backend diagnostic not wrapped: %v", err)
	}

	do(t, env, func(c *Context) error {
		_, err := c.GetShader("flaky", solidProgram([4]float32{1, 1, 1, 1}))
		return err
	})
	if got := b.Stats().Compiles; got != 2 {
		t.Errorf("Compiles = %d, want 2", got)
	}
}

func TestRenderCopyNeedsInput(t *testing.T) {
	env, _ := newTestEnv(t)
	err := env.Do(func(c *Context) error {
		_, err := c.Render(Pass{Width: 4, Height: 4})
		return err
	})
	if err == nil {
		t.Fatal("copy pass without input should fail")
	}
	if s := env.Stats().Textures; s.InUse != 0 {
		t.Errorf("failed pass left %d textures in use", s.InUse)
	}
}

func TestRenderIntoExplicitTarget(t *testing.T) {
	env, _ := newTestEnv(t)
	do(t, env, func(c *Context) error {
		white, err := c.GetShader("white", solidProgram([4]float32{1, 1, 1, 1}))
		if err != nil {
			return err
		}
		dst, err := c.Render(Pass{Shader: white, Width: 4, Height: 1})
		if err != nil {
			return err
		}
		black, err := c.GetShader("black", solidProgram([4]float32{0, 0, 0, 1}))
		if err != nil {
			return err
		}
		// Without Clear only the quad is overwritten.
		got, err := c.Render(Pass{
			Shader: black,
			Target: dst,
			Quad:   backend.Rect{X0: 1, Y0: 0, X1: 3, Y1: 1},
		})
		if err != nil {
			return err
		}
		if got != dst {
			t.Error("Render returned a different texture than Target")
		}
		px, err := c.read(dst)
		if err != nil {
			return err
		}
		want := []byte{255, 0, 0, 255}
		for i, w := range want {
			if px[i*4] != w {
				t.Errorf("pixel %d red = %d, want %d", i, px[i*4], w)
			}
		}
		return nil
	})
}
