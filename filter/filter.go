// Package filter provides per-frame image filters built on gpuframe render
// passes: color adjustments, cropping, letterboxing, aspect-correct
// resizing and field order correction.
//
// Filters run inside an Environment's Do callback. Run converts the frame
// to a texture once and applies a chain of filters under a single lock:
//
//	err := filter.Run(env, f,
//	    filter.Crop{Top: 8, Bottom: 8},
//	    filter.Brightness{Level: 0.1},
//	    filter.Gamma{Gamma: 1.2},
//	)
package filter

import (
	"github.com/gogpu/gpuframe"
)

// Filter transforms one frame.
type Filter interface {
	Process(c *gpuframe.Context, f *gpuframe.Frame) error
}

// Func adapts a function to Filter.
type Func func(c *gpuframe.Context, f *gpuframe.Frame) error

// Process calls fn.
func (fn Func) Process(c *gpuframe.Context, f *gpuframe.Frame) error { return fn(c, f) }

// Run applies filters to f in order within one Do call. It stops at the
// first error.
func Run(env *gpuframe.Environment, f *gpuframe.Frame, filters ...Filter) error {
	return env.Do(func(c *gpuframe.Context) error {
		for _, flt := range filters {
			if err := flt.Process(c, f); err != nil {
				return err
			}
		}
		return nil
	})
}

// shade replaces the frame with the output of a single full-frame pass of
// the named program.
func shade(c *gpuframe.Context, f *gpuframe.Frame, p program, uniforms ...float32) error {
	return c.Apply(f, func(c *gpuframe.Context, src *gpuframe.Texture) (*gpuframe.Texture, error) {
		sh, err := c.GetShader(p.name, p.source)
		if err != nil {
			return nil, err
		}
		return c.Render(gpuframe.Pass{
			Shader:   sh,
			Inputs:   []*gpuframe.Texture{src},
			Uniforms: p.uniforms(uniforms...),
			Width:    src.Width(),
			Height:   src.Height(),
		})
	})
}
