package gpuframe

import (
	"fmt"

	"github.com/gogpu/gpuframe/backend"
)

// Deinterlace methods.
const (
	DeinterlaceLinearBlend = "linearblend"
	DeinterlaceOneField    = "onefield"
)

// DeinterlaceLinearBlend blends each line with its neighbours as
// (2·line + above + below) / 4.
func (c *Context) DeinterlaceLinearBlend(src *Texture, width, height int) (*Texture, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	sh, err := c.GetShader(ProgramLinearBlend, linearBlendSource)
	if err != nil {
		return nil, err
	}
	return c.Render(Pass{
		Shader: sh,
		Inputs: []*Texture{src},
		Width:  width,
		Height: height,
	})
}

// DeinterlaceOneField keeps one field: it renders at half height, taking
// one line in two, then scales back to full height.
func (c *Context) DeinterlaceOneField(src *Texture, width, height int) (*Texture, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	half, err := c.Render(Pass{
		Inputs:    []*Texture{src},
		Width:     width,
		Height:    height / 2,
		TexCoords: backend.RectWH(width, height),
	})
	if err != nil {
		return nil, err
	}
	defer c.ReleaseTexture(half)
	return c.RescaleBilinear(half, width, height/2, width, height)
}

// Deinterlace deinterlaces a frame that is flagged for it and is not
// progressive. method is DeinterlaceOneField (the default when empty) or
// DeinterlaceLinearBlend.
func (e *Environment) Deinterlace(f *Frame, method string) error {
	return e.Do(func(c *Context) error {
		return c.DeinterlaceFrame(f, method)
	})
}

// DeinterlaceFrame is Environment.Deinterlace for use inside Do.
func (c *Context) DeinterlaceFrame(f *Frame, method string) error {
	if err := c.check(); err != nil {
		return err
	}
	if f.Progressive || !f.ConsumerDeinterlace {
		return nil
	}
	var run func(*Texture, int, int) (*Texture, error)
	switch method {
	case DeinterlaceOneField, "":
		run = c.DeinterlaceOneField
	case DeinterlaceLinearBlend:
		run = c.DeinterlaceLinearBlend
	default:
		return fmt.Errorf("gpuframe: unknown deinterlace method %q", method)
	}
	tx := c.begin(f)
	if err := tx.convert(f, FormatGPU, 0, 0); err != nil {
		return tx.finish(err)
	}
	dst, err := run(f.Texture, f.Width, f.Height)
	if err != nil {
		return tx.finish(err)
	}
	c.replaceTexture(f, dst, f.Width, f.Height)
	f.Progressive = true
	return tx.finish(nil)
}
