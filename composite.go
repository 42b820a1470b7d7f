package gpuframe

import (
	"math"

	"github.com/gogpu/gpuframe/backend"
	"github.com/gogpu/gpuframe/luma"
)

// Dissolve renders a·(1−mix) + b·mix into a new width×height texture.
// Alpha is taken from a.
func (c *Context) Dissolve(a, b *Texture, mix float32, width, height int) (*Texture, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	sh, err := c.GetShader(ProgramDissolve, dissolveSource)
	if err != nil {
		return nil, err
	}
	return c.Render(Pass{
		Shader:    sh,
		Inputs:    []*Texture{a, b},
		Uniforms:  backend.UniformValues{backend.Float("mix", mix)},
		Width:     width,
		Height:    height,
		TexCoords: backend.RectWH(width, height),
	})
}

// Transition mixes two frames, either by a luma wipe or, without a map,
// by a dissolve.
type Transition struct {
	// Luma is the wipe map. Nil dissolves.
	Luma *luma.Map

	// Softness widens the wipe edge.
	Softness float64

	// Reverse runs the transition backwards. Invert swaps the roles of the
	// two frames.
	Reverse bool
	Invert  bool

	// Progressive composites both fields at once.
	Progressive bool

	// Fixed, when set, overrides the position passed to Apply.
	Fixed *float64
}

// Apply mixes b into a at position mix, advancing by delta per frame. The
// result replaces a's image; b is left in the format the transition needed.
// On error neither frame changes.
//
// Positions of 1 or more wrap to their fractional part.
func (t *Transition) Apply(e *Environment, a, b *Frame, mix, delta float64) error {
	return e.Do(func(c *Context) error {
		return c.Transition(t, a, b, mix, delta)
	})
}

// Transition is Transition.Apply for use inside Do.
func (c *Context) Transition(t *Transition, a, b *Frame, mix, delta float64) error {
	if err := c.check(); err != nil {
		return err
	}
	if mix >= 1 {
		mix -= math.Floor(mix)
	}
	if t.Fixed != nil {
		mix = *t.Fixed
	}
	width, height := a.size(c.env)

	if t.Luma.Valid() {
		reverse := t.Reverse
		if t.Invert {
			reverse = !reverse
		}
		if reverse {
			mix = 1 - mix
			delta = -delta
		}
		fieldOrder := 0
		if b.TopFieldFirst {
			fieldOrder = 1
		}
		if a.ConsumerDeinterlace || t.Progressive || b.Progressive {
			fieldOrder = -1
		}
		return c.lumaWipe(t, a, b, width, height, luma.Params{
			Pos:        mix,
			Delta:      delta,
			Softness:   t.Softness,
			FieldOrder: fieldOrder,
		})
	}

	if t.Reverse || t.Invert {
		mix = 1 - mix
	}
	tx := c.begin(a, b)
	if err := tx.convert(a, FormatGPU, width, height); err != nil {
		return tx.finish(err)
	}
	if err := tx.convert(b, FormatGPU, 0, 0); err != nil {
		return tx.finish(err)
	}
	dst, err := c.Dissolve(a.Texture, b.Texture, float32(mix), width, height)
	if err != nil {
		return tx.finish(err)
	}
	c.replaceTexture(a, dst, width, height)
	return tx.finish(nil)
}

// lumaWipe composites on packed 4:2:2 host images. With Invert the wipe is
// drawn over b, and the result is copied back into a.
func (c *Context) lumaWipe(t *Transition, a, b *Frame, width, height int, p luma.Params) error {
	tx := c.begin(a, b)
	if err := tx.convert(a, FormatYUV422, width, height); err != nil {
		return tx.finish(err)
	}
	if err := tx.convert(b, FormatYUV422, 0, 0); err != nil {
		return tx.finish(err)
	}

	dst, src := a, b
	if t.Invert {
		dst, src = b, a
	}
	if err := luma.Composite(dst.Image, dst.Width, dst.Height, src.Image, src.Width, src.Height, t.Luma, p); err != nil {
		return tx.finish(err)
	}
	tx.finish(nil)
	if t.Invert {
		a.Image = append(a.Image[:0], b.Image...)
		a.Width, a.Height = b.Width, b.Height
	}
	return nil
}
