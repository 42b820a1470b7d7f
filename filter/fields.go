package filter

import (
	"github.com/gogpu/gpuframe"
	"github.com/gogpu/gpuframe/backend"
)

// FieldOrder corrects interlaced frames whose field order differs from the
// consumer's, optionally swapping misreported fields first. Progressive
// frames pass through.
type FieldOrder struct {
	// TopFieldFirst is the consumer's field order.
	TopFieldFirst bool

	// SwapFields exchanges each pair of lines before any shift.
	SwapFields bool
}

// Process implements Filter.
func (o FieldOrder) Process(c *gpuframe.Context, f *gpuframe.Frame) error {
	if f.Progressive {
		return nil
	}
	shift := f.TopFieldFirst != o.TopFieldFirst
	if !o.SwapFields && !shift {
		return nil
	}
	if o.SwapFields {
		if err := shade(c, f, swapFieldsProgram); err != nil {
			return err
		}
	}
	if shift {
		if err := c.Apply(f, ShiftField); err != nil {
			return err
		}
		f.TopFieldFirst = o.TopFieldFirst
	}
	return nil
}

// ShiftField moves the image down one line, repeating the first line, which
// reverses the temporal order of the two fields.
func ShiftField(c *gpuframe.Context, src *gpuframe.Texture) (*gpuframe.Texture, error) {
	w, h := src.Width(), src.Height()
	dst, err := c.Render(gpuframe.Pass{
		Inputs:    []*gpuframe.Texture{src},
		Width:     w,
		Height:    h,
		Quad:      backend.Rect{X1: float32(w), Y1: 1},
		TexCoords: backend.Rect{X1: float32(w), Y1: 1},
	})
	if err != nil {
		return nil, err
	}
	_, err = c.Render(gpuframe.Pass{
		Inputs:    []*gpuframe.Texture{src},
		Target:    dst,
		Quad:      backend.Rect{Y0: 1, X1: float32(w), Y1: float32(h)},
		TexCoords: backend.Rect{X1: float32(w), Y1: float32(h - 1)},
	})
	if err != nil {
		c.ReleaseTexture(dst)
		return nil, err
	}
	return dst, nil
}
