// Package spline computes the interpolation kernels used by the bicubic
// rescaler and lays them out as a lookup table.
//
// The table has one row per Kind and LUTWidth columns. Column i holds the four
// tap weights for fractional offset t = i/LUTWidth, ordered for source texels
// at distances t+1, t, t-1 and t-2 from the sample point.
package spline

import (
	"fmt"
	"math"
)

// LUTWidth is the number of fractional steps per kernel row.
const LUTWidth = 1000

// pi matches the constant the existing lookup tables were generated with.
const pi = 3.14159265359

// Kind selects an interpolation kernel. Its value is the LUT row.
type Kind int

const (
	// CatmullRom is the default bicubic kernel.
	CatmullRom Kind = iota

	// Cosine is a softer kernel used when downscaling.
	Cosine

	// NumKinds is the number of rows in the lookup table.
	NumKinds int = iota
)

// String returns the kernel name.
func (k Kind) String() string {
	switch k {
	case CatmullRom:
		return "catmull-rom"
	case Cosine:
		return "cosine"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Weight evaluates the kernel at distance x.
func (k Kind) Weight(x float64) float64 {
	if k == Cosine {
		return CosineWeight(x)
	}
	return CatmullRomWeight(x)
}

// CatmullRomWeight evaluates the Catmull-Rom kernel. It is zero beyond |x| = 2.
func CatmullRomWeight(x float64) float64 {
	x = math.Abs(x)
	switch {
	case x < 1:
		return (9*x*x*x - 15*x*x + 6) / 6
	case x <= 2:
		return (-3*x*x*x + 15*x*x - 24*x + 12) / 6
	default:
		return 0
	}
}

// CosineWeight evaluates the raised cosine kernel. It is evaluated without a
// cutoff: the 4-tap window never asks for |x| > 2.
func CosineWeight(x float64) float64 {
	x = math.Abs(x)
	return 0.5*math.Cos(pi*x/2) + 0.5
}

// Taps returns the four tap weights for fractional offset t in [0, 1).
func Taps(k Kind, t float64) [4]float32 {
	return [4]float32{
		float32(k.Weight(t + 1)),
		float32(k.Weight(t)),
		float32(k.Weight(t - 1)),
		float32(k.Weight(t - 2)),
	}
}

// LUT returns the full table as RGBA float texels, row-major, one row per Kind.
func LUT() []float32 {
	lut := make([]float32, LUTWidth*4*NumKinds)
	for row := range NumKinds {
		for i := range LUTWidth {
			taps := Taps(Kind(row), float64(i)/LUTWidth)
			copy(lut[(row*LUTWidth+i)*4:], taps[:])
		}
	}
	return lut
}

// Index returns the LUT column for fractional offset frac, matching a
// nearest-filtered fetch at frac*LUTWidth.
func Index(frac float32) int {
	i := int(frac * LUTWidth)
	if i < 0 {
		return 0
	}
	if i >= LUTWidth {
		return LUTWidth - 1
	}
	return i
}
