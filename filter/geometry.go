package filter

import (
	"math"

	"github.com/gogpu/gpuframe"
	"github.com/gogpu/gpuframe/backend"
)

// Crop removes the given number of pixels from each edge. Cropping an odd
// number of lines from the top flips the field order.
type Crop struct {
	Left, Right, Top, Bottom int
}

// Process implements Filter. A crop that leaves nothing is ignored.
func (cr Crop) Process(c *gpuframe.Context, f *gpuframe.Frame) error {
	if cr.Left == 0 && cr.Right == 0 && cr.Top == 0 && cr.Bottom == 0 {
		return nil
	}
	return c.Apply(f, func(c *gpuframe.Context, src *gpuframe.Texture) (*gpuframe.Texture, error) {
		w, h := src.Width(), src.Height()
		ow := max(w-cr.Left-cr.Right, 0)
		oh := max(h-cr.Top-cr.Bottom, 0)
		if ow == 0 || oh == 0 || (ow == w && oh == h) {
			return src, nil
		}
		dst, err := c.Render(gpuframe.Pass{
			Inputs: []*gpuframe.Texture{src},
			Width:  ow,
			Height: oh,
			TexCoords: backend.Rect{
				X0: float32(cr.Left), Y0: float32(cr.Top),
				X1: float32(w - cr.Right), Y1: float32(h - cr.Bottom),
			},
		})
		if err != nil {
			return nil, err
		}
		if cr.Top%2 != 0 {
			f.TopFieldFirst = !f.TopFieldFirst
		}
		return dst, nil
	})
}

// Letterbox centers the frame in a Width×Height canvas cleared to
// transparent black. Frames at least as large in both dimensions pass
// through.
type Letterbox struct {
	Width, Height int
}

// Process implements Filter.
func (l Letterbox) Process(c *gpuframe.Context, f *gpuframe.Frame) error {
	return c.Apply(f, func(c *gpuframe.Context, src *gpuframe.Texture) (*gpuframe.Texture, error) {
		iw, ih := src.Width(), src.Height()
		if l.Width <= iw && l.Height <= ih {
			return src, nil
		}
		left := float32((l.Width - iw) / 2)
		top := float32((l.Height - ih) / 2)
		return c.Render(gpuframe.Pass{
			Inputs: []*gpuframe.Texture{src},
			Width:  l.Width,
			Height: l.Height,
			Quad: backend.Rect{
				X0: left, Y0: top,
				X1: left + float32(iw), Y1: top + float32(ih),
			},
			TexCoords: src.Rect(),
		})
	})
}

// FitAspect returns the largest size with display aspect inAspect that fits
// a normW×normH frame of display aspect outAspect.
func FitAspect(inAspect, outAspect float64, normW, normH int) (int, int) {
	w := int(math.RoundToEven(inAspect * float64(normW) / outAspect))
	h := normH
	if w > normW {
		w = normW
		h = int(math.RoundToEven(outAspect * float64(normH) / inAspect))
	}
	return w, h
}

// Resize scales a frame to fit Width×Height while keeping its display
// aspect ratio, then letterboxes it to the full size.
type Resize struct {
	Width, Height int

	// ProfileWidth and ProfileHeight are the normalised frame size the
	// aspect fit is computed in. Zero uses Width and Height.
	ProfileWidth, ProfileHeight int

	// SourceAspect is the sample aspect ratio of the input. Zero uses
	// ConsumerAspect.
	SourceAspect float64

	// ConsumerAspect is the sample aspect ratio of the output. Zero means
	// square pixels.
	ConsumerAspect float64

	// Distort stretches to Width×Height without keeping the aspect.
	Distort bool
}

// Size returns the scaled image size for an input of width×height.
func (r Resize) Size(width, height int) (int, int) {
	if r.Distort || width <= 0 || height <= 0 {
		return r.Width, r.Height
	}
	nw, nh := r.ProfileWidth, r.ProfileHeight
	if nw <= 0 || nh <= 0 {
		nw, nh = r.Width, r.Height
	}
	consumer := r.ConsumerAspect
	if consumer == 0 {
		consumer = 1
	}
	source := r.SourceAspect
	if source == 0 {
		source = consumer
	}
	inAR := source * float64(width) / float64(height)
	outAR := consumer * float64(r.Width) / float64(r.Height)
	sw, sh := FitAspect(inAR, outAR, nw, nh)
	return sw * r.Width / nw, sh * r.Height / nh
}

// Process implements Filter. Frames with interpolation "none" are left
// alone.
func (r Resize) Process(c *gpuframe.Context, f *gpuframe.Frame) error {
	if f.Interp == gpuframe.InterpNone {
		return nil
	}
	ow, oh := r.Size(f.Width, f.Height)
	if err := c.RescaleFrame(f, ow, oh); err != nil {
		return err
	}
	return Letterbox{Width: r.Width, Height: r.Height}.Process(c, f)
}
