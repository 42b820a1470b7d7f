package gpuframe

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gpuframe/backend"
	"github.com/gogpu/gpuframe/internal/spline"
)

// Interpolation mode names. Any other name selects bicubic.
const (
	InterpNone     = "none"
	InterpNearest  = "nearest"
	InterpBilinear = "bilinear"
	InterpBicubic  = "bicubic"
)

// minRescaleSize is the smallest output edge the rescaler produces.
// Requests for smaller images pass through unchanged.
const minRescaleSize = 6

// Spline selects the bicubic kernel.
type Spline int

const (
	// SplineCatmullRom is used when enlarging.
	SplineCatmullRom = Spline(spline.CatmullRom)

	// SplineCosine is used when shrinking in either dimension.
	SplineCosine = Spline(spline.Cosine)
)

// String returns the kernel name.
func (s Spline) String() string { return spline.Kind(s).String() }

// ScaleMethod is the algorithm chosen for a rescale.
type ScaleMethod int

const (
	ScaleNone ScaleMethod = iota
	ScaleBilinear
	ScaleBicubic
)

func (m ScaleMethod) String() string {
	switch m {
	case ScaleBilinear:
		return "bilinear"
	case ScaleBicubic:
		return "bicubic"
	default:
		return "none"
	}
}

// ScalePlan is the outcome of SelectInterp.
type ScalePlan struct {
	Method ScaleMethod
	Spline Spline

	// Deinterlace is set when the height changes in a way that would mix
	// fields, so the consumer should deinterlace first.
	Deinterlace bool
}

// SelectInterp chooses how to scale iw×ih to ow×oh for the interpolation
// mode name.
func SelectInterp(mode string, iw, ih, ow, oh int) ScalePlan {
	var p ScalePlan
	if iw <= 0 || ih <= 0 || ow < minRescaleSize || oh < minRescaleSize {
		return p
	}
	// Nearest with an integral ratio keeps whole lines, so fields survive.
	if ih != oh && (mode != InterpNearest || ih%oh != 0) {
		p.Deinterlace = true
	}
	if mode == InterpNone || (iw == ow && ih == oh) {
		return p
	}
	switch mode {
	case InterpNearest, InterpBilinear:
		p.Method = ScaleBilinear
	default:
		p.Method = ScaleBicubic
		p.Spline = SplineCatmullRom
		if ow < iw || oh < ih {
			p.Spline = SplineCosine
		}
	}
	return p
}

// RescaleBilinear scales the iw×ih area of src to a new ow×oh texture in
// one linearly filtered pass.
func (c *Context) RescaleBilinear(src *Texture, iw, ih, ow, oh int) (*Texture, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	if err := c.setFilter(src, backend.FilterLinear); err != nil {
		return nil, err
	}
	return c.Render(Pass{
		Inputs:    []*Texture{src},
		Width:     ow,
		Height:    oh,
		TexCoords: backend.RectWH(iw, ih),
	})
}

// RescaleBicubic scales in two passes, horizontal then vertical, using the
// spline lookup table. Without float textures it falls back to bilinear.
func (c *Context) RescaleBicubic(src *Texture, iw, ih, ow, oh int, s Spline) (*Texture, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	if !c.env.caps.TextureFloat {
		Logger().Warn("gpuframe: bicubic needs float textures, using bilinear",
			"from", fmt.Sprintf("%dx%d", iw, ih), "to", fmt.Sprintf("%dx%d", ow, oh))
		return c.RescaleBilinear(src, iw, ih, ow, oh)
	}
	lut, err := c.splineLUT()
	if err != nil {
		return nil, err
	}
	pass1, err := c.GetShader(ProgramBicubicPass1, bicubicPass1Source)
	if err != nil {
		return nil, err
	}
	pass2, err := c.GetShader(ProgramBicubicPass2, bicubicPass2Source)
	if err != nil {
		return nil, err
	}
	if err := c.setFilter(src, backend.FilterNearest); err != nil {
		return nil, err
	}

	uniforms := backend.UniformValues{backend.Float("spline", float32(s))}
	horizontal, err := c.Render(Pass{
		Shader:    pass1,
		Inputs:    []*Texture{src, lut},
		Uniforms:  uniforms,
		Width:     ow,
		Height:    ih,
		TexCoords: backend.RectWH(iw, ih),
	})
	if err != nil {
		return nil, err
	}
	defer c.ReleaseTexture(horizontal)

	return c.Render(Pass{
		Shader:    pass2,
		Inputs:    []*Texture{horizontal, lut},
		Uniforms:  uniforms,
		Width:     ow,
		Height:    oh,
		TexCoords: backend.RectWH(ow, ih),
	})
}

// splineLUT returns the kernel table texture, creating it on first use. It
// stays checked out of the pool until the Environment closes.
func (c *Context) splineLUT() (*Texture, error) {
	e := c.env
	if e.lut != nil {
		return e.lut, nil
	}
	values := spline.LUT()
	data := make([]byte, len(values)*4)
	for i, v := range values {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(v))
	}
	t, err := c.upload(data, spline.LUTWidth, spline.NumKinds, backend.FormatRGBA32F)
	if err != nil {
		return nil, fmt.Errorf("gpuframe: spline table: %w", err)
	}
	e.lut = t
	Logger().Debug("gpuframe: spline table created", "width", spline.LUTWidth, "rows", spline.NumKinds)
	return t, nil
}

// Rescale scales src from iw×ih to ow×oh according to plan. ScaleNone
// returns src itself.
func (c *Context) Rescale(src *Texture, iw, ih, ow, oh int, plan ScalePlan) (*Texture, error) {
	switch plan.Method {
	case ScaleBilinear:
		return c.RescaleBilinear(src, iw, ih, ow, oh)
	case ScaleBicubic:
		return c.RescaleBicubic(src, iw, ih, ow, oh, plan.Spline)
	default:
		return src, nil
	}
}

// Rescale scales a frame to ow×oh. The frame's Interp, or the
// Environment's default, selects the method. A height change that mixes
// fields sets ConsumerDeinterlace. On error the frame is unchanged.
func (e *Environment) Rescale(f *Frame, ow, oh int) error {
	return e.Do(func(c *Context) error {
		return c.RescaleFrame(f, ow, oh)
	})
}

// RescaleFrame is Environment.Rescale for use inside Do.
func (c *Context) RescaleFrame(f *Frame, ow, oh int) error {
	if err := c.check(); err != nil {
		return err
	}
	mode := f.Interp
	if mode == "" {
		mode = c.env.opts.interp
	}
	iw, ih := f.size(c.env)
	plan := SelectInterp(mode, iw, ih, ow, oh)
	if plan.Method != ScaleNone {
		tx := c.begin(f)
		if err := tx.convert(f, FormatGPU, iw, ih); err != nil {
			return tx.finish(err)
		}
		dst, err := c.Rescale(f.Texture, iw, ih, ow, oh, plan)
		if err != nil {
			return tx.finish(err)
		}
		c.replaceTexture(f, dst, ow, oh)
		tx.finish(nil)
	}
	if plan.Deinterlace {
		f.ConsumerDeinterlace = true
	}
	return nil
}
