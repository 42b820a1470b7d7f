package gpuframe

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/gogpu/gpuframe/backend"
)

func TestGetTextureReusesReleased(t *testing.T) {
	env, b := newTestEnv(t)
	do(t, env, func(c *Context) error {
		a, err := c.GetTexture(16, 8, backend.FormatRGBA8)
		if err != nil {
			return err
		}
		c.ReleaseTexture(a)

		again, err := c.GetTexture(16, 8, backend.FormatRGBA8)
		if err != nil {
			return err
		}
		if again != a {
			t.Error("released texture of the same key was not reused")
		}

		other, err := c.GetTexture(16, 8, backend.FormatR8)
		if err != nil {
			return err
		}
		if other == a {
			t.Error("texture reused across formats")
		}
		return nil
	})
	if got := b.Stats().Textures; got != 2 {
		t.Errorf("backend textures = %d, want 2", got)
	}
	s := env.Stats().Textures
	if s.Allocations != 2 || s.Reuses != 1 || s.InUse != 2 {
		t.Errorf("pool stats = %+v", s)
	}
}

func TestGetTextureReusesOldestFirst(t *testing.T) {
	env, _ := newTestEnv(t)
	do(t, env, func(c *Context) error {
		a, err := c.GetTexture(8, 8, backend.FormatRGBA8)
		if err != nil {
			return err
		}
		b, err := c.GetTexture(8, 8, backend.FormatRGBA8)
		if err != nil {
			return err
		}
		c.ReleaseTexture(b)
		c.ReleaseTexture(a)

		got, err := c.GetTexture(8, 8, backend.FormatRGBA8)
		if err != nil {
			return err
		}
		if got != a {
			t.Errorf("GetTexture returned %s, want the first created %s", got, a)
		}
		return nil
	})
}

func TestReuseResetsFilter(t *testing.T) {
	env, _ := newTestEnv(t)
	do(t, env, func(c *Context) error {
		// Sampling 0.9 texels into a black|white pair reads black with
		// nearest filtering and 40% white with linear.
		src, err := c.UploadImage([]byte{0, 0, 0, 255, 255, 255, 255, 255}, FormatRGBA, 2, 1, Colorspace601)
		if err != nil {
			return err
		}
		if err := c.setFilter(src, backend.FilterLinear); err != nil {
			return err
		}
		c.ReleaseTexture(src)

		again, err := c.GetTexture(2, 1, backend.FormatRGBA8)
		if err != nil {
			return err
		}
		if again != src {
			t.Fatal("expected the released texture back")
		}
		out, err := c.Render(Pass{
			Inputs:    []*Texture{again},
			Width:     1,
			Height:    1,
			TexCoords: backend.Rect{X0: 0.4, Y0: 0, X1: 1.4, Y1: 1},
		})
		if err != nil {
			return err
		}
		px, err := c.read(out)
		if err != nil {
			return err
		}
		if px[0] != 0 {
			t.Errorf("sampled %d at the left texel, want nearest 0", px[0])
		}
		return nil
	})
}

func TestReleaseTextureIdempotent(t *testing.T) {
	env, _ := newTestEnv(t)
	do(t, env, func(c *Context) error {
		tex, err := c.GetTexture(4, 4, backend.FormatRGBA8)
		if err != nil {
			return err
		}
		c.ReleaseTexture(tex)
		c.ReleaseTexture(tex)
		c.ReleaseTexture(nil)
		if tex.InUse() {
			t.Error("texture still in use after release")
		}

		a, _ := c.GetTexture(4, 4, backend.FormatRGBA8)
		b, err := c.GetTexture(4, 4, backend.FormatRGBA8)
		if err != nil {
			return err
		}
		if a == b {
			t.Error("double release handed one texture out twice")
		}
		return nil
	})
}

func TestReleaseForeignTextureIgnored(t *testing.T) {
	env1, _ := newTestEnv(t)
	env2, _ := newTestEnv(t)
	var foreign *Texture
	do(t, env1, func(c *Context) error {
		var err error
		foreign, err = c.GetTexture(4, 4, backend.FormatRGBA8)
		return err
	})
	do(t, env2, func(c *Context) error {
		c.ReleaseTexture(foreign)
		return nil
	})
	if !foreign.InUse() {
		t.Error("another environment released the texture")
	}
}

func TestReleaseForeignFBOIgnored(t *testing.T) {
	env1, _ := newTestEnv(t)
	env2, b2 := newTestEnv(t)
	var foreign *Framebuffer
	do(t, env1, func(c *Context) error {
		var err error
		foreign, err = c.GetFBO(4, 4)
		return err
	})
	do(t, env2, func(c *Context) error {
		c.ReleaseFBO(foreign)
		own, err := c.GetFBO(4, 4)
		if err != nil {
			return err
		}
		if own == foreign {
			t.Error("pool handed out a framebuffer of another environment")
		}
		return nil
	})
	if got := b2.Stats().Framebuffers; got != 1 {
		t.Errorf("second backend framebuffers = %d, want 1", got)
	}
}

// TestPoolHighWater checks that allocations per key never exceed the peak
// number of textures of that key in use at once.
func TestPoolHighWater(t *testing.T) {
	env, b := newTestEnv(t)
	keys := []struct {
		w, h   int
		format backend.TextureFormat
	}{
		{8, 8, backend.FormatRGBA8},
		{8, 8, backend.FormatR8},
		{4, 2, backend.FormatRGBA8},
	}
	rng := rand.New(rand.NewSource(7))
	held := make([][]*Texture, len(keys))
	peak := make([]int, len(keys))

	do(t, env, func(c *Context) error {
		for range 500 {
			k := rng.Intn(len(keys))
			if len(held[k]) > 0 && rng.Intn(2) == 0 {
				i := rng.Intn(len(held[k]))
				c.ReleaseTexture(held[k][i])
				held[k] = append(held[k][:i], held[k][i+1:]...)
				continue
			}
			tex, err := c.GetTexture(keys[k].w, keys[k].h, keys[k].format)
			if err != nil {
				return err
			}
			held[k] = append(held[k], tex)
			peak[k] = max(peak[k], len(held[k]))
		}
		return nil
	})

	total := 0
	for _, p := range peak {
		total += p
	}
	s := env.Stats().Textures
	if s.Entries > total {
		t.Errorf("pool holds %d textures, high-water total is %d", s.Entries, total)
	}
	if got := b.Stats().Textures; got != s.Entries {
		t.Errorf("backend textures = %d, pool entries = %d", got, s.Entries)
	}
}

func TestFBOPool(t *testing.T) {
	env, b := newTestEnv(t)
	do(t, env, func(c *Context) error {
		f1, err := c.GetFBO(8, 8)
		if err != nil {
			return err
		}
		f2, err := c.GetFBO(8, 8)
		if err != nil {
			return err
		}
		if f1 == f2 {
			t.Error("in-use framebuffer handed out twice")
		}
		c.ReleaseFBO(f2)
		c.ReleaseFBO(f1)

		// The first created comes back first, whatever the release order.
		got, err := c.GetFBO(8, 8)
		if err != nil {
			return err
		}
		if got != f1 {
			t.Error("framebuffer reuse did not pick the oldest entry")
		}
		return nil
	})
	if got := b.Stats().Framebuffers; got != 2 {
		t.Errorf("backend framebuffers = %d, want 2", got)
	}
}

func TestGetPBOGrowsOnly(t *testing.T) {
	env, b := newTestEnv(t)
	do(t, env, func(c *Context) error {
		p1, err := c.GetPBO(100)
		if err != nil {
			return err
		}
		p2, err := c.GetPBO(50)
		if err != nil {
			return err
		}
		if p2 != p1 {
			t.Error("smaller request replaced the staging buffer")
		}
		p3, err := c.GetPBO(400)
		if err != nil {
			return err
		}
		if p3.Size() != 400 {
			t.Errorf("Size() = %d, want 400", p3.Size())
		}
		return nil
	})
	if got := b.Stats().Buffers; got != 1 {
		t.Errorf("backend buffers = %d, want 1 after growth", got)
	}
	if got := env.Stats().StagingBytes; got != 400 {
		t.Errorf("StagingBytes = %d, want 400", got)
	}
}

func TestGetTextureBackendError(t *testing.T) {
	env, _ := newTestEnv(t)
	err := env.Do(func(c *Context) error {
		_, err := c.GetTexture(0, 4, backend.FormatRGBA8)
		return err
	})
	if !errors.Is(err, backend.ErrInvalidSize) {
		t.Fatalf("GetTexture(0, 4) = %v, want wrapped ErrInvalidSize", err)
	}
	if s := env.Stats().Textures; s.Entries != 0 {
		t.Errorf("failed creation left %d pool entries", s.Entries)
	}
}
