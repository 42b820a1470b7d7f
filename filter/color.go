package filter

import "github.com/gogpu/gpuframe"

// Brightness scales color toward black for negative levels and toward
// white for positive ones. Level is in [-1, 1]; alpha is kept.
type Brightness struct {
	Level float64
}

// Process implements Filter.
func (b Brightness) Process(c *gpuframe.Context, f *gpuframe.Frame) error {
	return shade(c, f, brightnessProgram, float32(b.Level))
}

// Gamma applies pow(rgb, 1/Gamma). Values outside [0, 5] are treated as 1.
type Gamma struct {
	Gamma float64
}

// Process implements Filter.
func (g Gamma) Process(c *gpuframe.Context, f *gpuframe.Frame) error {
	gamma := g.Gamma
	if gamma < 0 || gamma > 5 {
		gamma = 1
	}
	return shade(c, f, gammaProgram, float32(gamma))
}

// Greyscale replaces color with its Rec.709 luma.
type Greyscale struct{}

// Process implements Filter.
func (Greyscale) Process(c *gpuframe.Context, f *gpuframe.Frame) error {
	return shade(c, f, greyscaleProgram)
}
