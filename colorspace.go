package gpuframe

import "fmt"

// Colorspace selects the YUV <-> RGB coefficient set.
type Colorspace int

// Supported colorspace tags. Any other tag converts as BT.601.
const (
	Colorspace601 Colorspace = 601
	Colorspace709 Colorspace = 709
	Colorspace240 Colorspace = 240
)

// String returns the colorspace tag.
func (c Colorspace) String() string {
	return fmt.Sprintf("bt%d", int(c.normalize()))
}

func (c Colorspace) normalize() Colorspace {
	switch c {
	case Colorspace709, Colorspace240:
		return c
	default:
		return Colorspace601
	}
}

// Matrix is a 3x4 conversion matrix. Row i computes output channel i as
// the dot product with (c0, c1, c2, 1) of the normalized input channels.
type Matrix [3][4]float32

// Apply transforms one normalized color.
func (m Matrix) Apply(c0, c1, c2 float32) [3]float32 {
	var out [3]float32
	for i := range out {
		out[i] = m[i][0]*c0 + m[i][1]*c1 + m[i][2]*c2 + m[i][3]
	}
	return out
}

// Row returns row i as a vec4 uniform value.
func (m Matrix) Row(i int) [4]float32 { return m[i] }

var (
	fromYUV601 = Matrix{
		{1.16438, 0.00000, 1.59603, -0.87420},
		{1.16438, -0.39176, -0.81297, 0.53167},
		{1.16438, 2.01723, 0.00000, -1.08563},
	}
	fromYUV709 = Matrix{
		{1.16438, 0.00000, 1.79274, -0.97295},
		{1.16438, -0.21325, -0.53291, 0.30148},
		{1.16438, 2.11240, 0.00000, -1.13340},
	}
	fromYUV240 = Matrix{
		{1.16438, 0.00000, 1.79411, -0.97363},
		{1.16438, -0.25798, -0.54258, 0.32879},
		{1.16438, 2.07871, 0.00000, -1.11649},
	}

	toYUV601 = Matrix{
		{0.25679, 0.50413, 0.09791, 0.06275},
		{-0.14822, -0.29099, 0.43922, 0.50196},
		{0.43922, -0.36779, -0.07143, 0.50196},
	}
	toYUV709 = Matrix{
		{0.18259, 0.61423, 0.06201, 0.06275},
		{-0.10064, -0.33857, 0.43922, 0.50196},
		{0.43922, -0.39894, -0.04027, 0.50196},
	}
	toYUV240 = Matrix{
		{0.18207, 0.60204, 0.07472, 0.06275},
		{-0.10199, -0.33723, 0.43922, 0.50196},
		{0.43922, -0.39072, -0.04849, 0.50196},
	}
)

// FromYUV returns the Y'CbCr to R'G'B' matrix for c.
func FromYUV(c Colorspace) Matrix {
	switch c.normalize() {
	case Colorspace709:
		return fromYUV709
	case Colorspace240:
		return fromYUV240
	default:
		return fromYUV601
	}
}

// ToYUV returns the R'G'B' to Y'CbCr matrix for c.
func ToYUV(c Colorspace) Matrix {
	switch c.normalize() {
	case Colorspace709:
		return toYUV709
	case Colorspace240:
		return toYUV240
	default:
		return toYUV601
	}
}
