package gpuframe

import (
	"fmt"
)

// Frame is one video image in either host or GPU representation. Exactly
// one of Image and Texture is set, as named by Format.
//
// A GPU frame holds a pooled texture until Close.
type Frame struct {
	Image   []byte
	Texture *Texture
	Format  Format

	Width, Height int
	Colorspace    Colorspace

	// Interp names the interpolation mode for Rescale; empty uses the
	// Environment default.
	Interp string

	// ConsumerDeinterlace asks the consumer to deinterlace the frame.
	ConsumerDeinterlace bool

	// Progressive marks a progressive source. TopFieldFirst gives the field
	// order of an interlaced one.
	Progressive   bool
	TopFieldFirst bool
}

// NewFrame wraps a host image.
func NewFrame(img []byte, format Format, width, height int, cs Colorspace) *Frame {
	return &Frame{Image: img, Format: format, Width: width, Height: height, Colorspace: cs}
}

// Close releases a GPU frame's texture back to its pool. It takes the
// Environment lock, so inside Do use Context.ReleaseFrame instead.
func (f *Frame) Close() error {
	if f.Texture == nil {
		return nil
	}
	env := f.Texture.env
	return env.Do(func(c *Context) error {
		c.ReleaseFrame(f)
		return nil
	})
}

// ReleaseFrame releases a GPU frame's texture. The frame is left without
// an image.
func (c *Context) ReleaseFrame(f *Frame) {
	if f.Texture == nil {
		return
	}
	c.ReleaseTexture(f.Texture)
	f.Texture = nil
	if f.Format == FormatGPU {
		f.Format = FormatNone
	}
}

// size returns the frame size, or the profile size when unset.
func (f *Frame) size(e *Environment) (int, int) {
	w, h := f.Width, f.Height
	if w <= 0 || h <= 0 {
		w, h = e.opts.profile.Width, e.opts.profile.Height
	}
	return w, h
}

// ConvertImage converts f to format. A zero width or height takes the
// frame size, then the profile size. On error f is unchanged.
func (e *Environment) ConvertImage(f *Frame, format Format, width, height int) error {
	return e.Do(func(c *Context) error {
		return c.ConvertImage(f, format, width, height)
	})
}

// ConvertImage is Environment.ConvertImage for use inside Do.
//
// Host to GPU uploads the image; GPU to host reads it back and releases
// the texture. Conversions between host formats go through a temporary
// texture.
func (c *Context) ConvertImage(f *Frame, format Format, width, height int) error {
	if err := c.check(); err != nil {
		return err
	}
	old, err := c.convert(f, format, width, height)
	if err != nil {
		return err
	}
	c.ReleaseTexture(old)
	return nil
}

// convert does the work of ConvertImage but leaves the texture a GPU to
// host conversion replaced checked out, returning it to the caller.
func (c *Context) convert(f *Frame, format Format, width, height int) (*Texture, error) {
	if f.Format == format {
		return nil, nil
	}
	if f.Format == FormatNone || format == FormatNone {
		return nil, fmt.Errorf("%w: %s to %s", ErrUnsupportedFormat, f.Format, format)
	}
	if width <= 0 || height <= 0 {
		width, height = f.size(c.env)
	}
	cs := f.Colorspace
	if cs == 0 {
		cs = c.env.opts.profile.Colorspace
	}

	var old *Texture
	switch {
	case format == FormatGPU:
		t, err := c.UploadImage(f.Image, f.Format, width, height, cs)
		if err != nil {
			return nil, err
		}
		f.Texture, f.Image = t, nil

	case f.Format == FormatGPU:
		if f.Texture == nil {
			return nil, ErrNoImage
		}
		img, err := c.DownloadImage(f.Texture, format, cs)
		if err != nil {
			return nil, err
		}
		old = f.Texture
		width, height = old.width, old.height
		f.Image, f.Texture = img, nil

	default:
		t, err := c.UploadImage(f.Image, f.Format, width, height, cs)
		if err != nil {
			return nil, err
		}
		img, err := c.DownloadImage(t, format, cs)
		c.ReleaseTexture(t)
		if err != nil {
			return nil, err
		}
		f.Image = img
	}
	f.Format = format
	f.Width, f.Height = width, height
	return old, nil
}

// frameState is the part of a Frame a transform may change.
type frameState struct {
	image         []byte
	texture       *Texture
	format        Format
	width, height int

	consumerDeinterlace bool
	progressive         bool
	topFieldFirst       bool
}

// frameTx makes a multi-step transform all-or-nothing: on failure every
// frame it covers is put back as it was and the textures its conversions
// created are released.
type frameTx struct {
	c       *Context
	frames  []*Frame
	saved   []frameState
	retired []*Texture
}

func (c *Context) begin(frames ...*Frame) *frameTx {
	tx := &frameTx{c: c, frames: frames, saved: make([]frameState, len(frames))}
	for i, f := range frames {
		tx.saved[i] = frameState{
			image:               f.Image,
			texture:             f.Texture,
			format:              f.Format,
			width:               f.Width,
			height:              f.Height,
			consumerDeinterlace: f.ConsumerDeinterlace,
			progressive:         f.Progressive,
			topFieldFirst:       f.TopFieldFirst,
		}
	}
	return tx
}

// convert converts f, holding back the release of a replaced texture until
// the transform commits.
func (tx *frameTx) convert(f *Frame, format Format, width, height int) error {
	old, err := tx.c.convert(f, format, width, height)
	if old != nil {
		tx.retired = append(tx.retired, old)
	}
	return err
}

// finish commits when err is nil and rolls back otherwise. It returns err.
func (tx *frameTx) finish(err error) error {
	if err == nil {
		for _, t := range tx.retired {
			tx.c.ReleaseTexture(t)
		}
		return nil
	}
	for i, f := range tx.frames {
		s := tx.saved[i]
		if f.Texture != nil && f.Texture != s.texture {
			tx.c.ReleaseTexture(f.Texture)
		}
		f.Image, f.Texture, f.Format = s.image, s.texture, s.format
		f.Width, f.Height = s.width, s.height
		f.ConsumerDeinterlace = s.consumerDeinterlace
		f.Progressive = s.progressive
		f.TopFieldFirst = s.topFieldFirst
	}
	return err
}

// replaceTexture publishes dst as the frame's image, releasing the
// previous texture when it differs.
func (c *Context) replaceTexture(f *Frame, dst *Texture, width, height int) {
	if f.Texture != nil && f.Texture != dst {
		c.ReleaseTexture(f.Texture)
	}
	f.Texture = dst
	f.Image = nil
	f.Format = FormatGPU
	f.Width, f.Height = width, height
}

// Apply converts f to a texture and replaces it with the result of fn. fn
// may return its input unchanged. When fn fails the frame keeps its
// previous representation.
func (e *Environment) Apply(f *Frame, fn func(c *Context, src *Texture) (*Texture, error)) error {
	return e.Do(func(c *Context) error {
		return c.Apply(f, fn)
	})
}

// Apply is Environment.Apply for use inside Do.
func (c *Context) Apply(f *Frame, fn func(c *Context, src *Texture) (*Texture, error)) error {
	if err := c.check(); err != nil {
		return err
	}
	tx := c.begin(f)
	if err := tx.convert(f, FormatGPU, 0, 0); err != nil {
		return tx.finish(err)
	}
	dst, err := fn(c, f.Texture)
	if err != nil {
		return tx.finish(err)
	}
	c.replaceTexture(f, dst, dst.width, dst.height)
	return tx.finish(nil)
}
