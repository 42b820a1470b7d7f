// Package luma implements luma-wipe transitions on packed 4:2:2 images.
//
// A luma map is a grayscale bitmap of 16-bit thresholds. As a transition
// progresses from 0 to 1 each pixel switches from the first image to the
// second once the position passes the pixel's threshold, with a soft edge
// of configurable width.
package luma

import (
	"errors"
	"fmt"
)

// ErrFormat is returned for malformed luma map data.
var ErrFormat = errors.New("luma: invalid map data")

// Map is a luma map: one 16-bit threshold per pixel, row-major.
type Map struct {
	Width  int
	Height int
	Values []uint16
}

// New returns a zeroed width×height map.
func New(width, height int) *Map {
	return &Map{Width: width, Height: height, Values: make([]uint16, width*height)}
}

// At returns the threshold at (x, y).
func (m *Map) At(x, y int) uint16 { return m.Values[y*m.Width+x] }

// Valid reports whether the map has a positive size and enough values.
func (m *Map) Valid() bool {
	return m != nil && m.Width > 0 && m.Height > 0 && len(m.Values) >= m.Width*m.Height
}

// FromYUV422 builds a map from the luma bytes of a packed Y0 U Y1 V image.
// Studio-range luma 16..235 maps onto 0..65535; values outside that range
// are clamped.
func FromYUV422(img []byte, width, height int) (*Map, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: size %dx%d", ErrFormat, width, height)
	}
	if len(img) < width*height*2 {
		return nil, fmt.Errorf("%w: %d bytes for %dx%d yuv422", ErrFormat, len(img), width, height)
	}
	m := New(width, height)
	for i := range m.Values {
		v := (int(img[2*i]) - 16) * 299
		m.Values[i] = uint16(max(0, min(v, 0xffff)))
	}
	return m, nil
}

// Smoothstep is a 16.16 fixed-point cubic Hermite step: 0 below edge1,
// 0x10000 at or above edge2 and 3t²−2t³ in between. The comparisons are
// unsigned, so a position that wrapped negative counts as past edge2.
//
// All arithmetic is unsigned 32-bit and wraps. With edges more than 0x10000
// apart (softness above 1) the shifted offset overflows.
func Smoothstep(edge1, edge2 int32, a uint32) int32 {
	if a < uint32(edge1) {
		return 0
	}
	if a >= uint32(edge2) {
		return 0x10000
	}
	t := ((a - uint32(edge1)) << 16) / uint32(edge2-edge1)
	return int32((((t * t) >> 16) * ((3 << 16) - 2*t)) >> 16)
}

// Params controls one composite.
type Params struct {
	// Pos is the transition position, 0 to 1.
	Pos float64

	// Delta is the position change per frame. Interlaced composites
	// advance the second field by half of it.
	Delta float64

	// Softness is the width of the blended edge as a fraction of the
	// luma range.
	Softness float64

	// FieldOrder is -1 for progressive, 0 for bottom field first and 1 for
	// top field first.
	FieldOrder int
}

// Composite blends src into dst in place, both packed 4:2:2 images. The
// luma map is stretched over the width×height output with 16.16 nearest
// neighbour stepping. Only the area the two images share is touched.
func Composite(dst []byte, dstWidth, dstHeight int, src []byte, srcWidth, srcHeight int, m *Map, p Params) error {
	if !m.Valid() {
		return fmt.Errorf("%w: empty map", ErrFormat)
	}
	if dstWidth <= 0 || dstHeight <= 0 || srcWidth <= 0 || srcHeight <= 0 {
		return fmt.Errorf("%w: size %dx%d over %dx%d", ErrFormat, srcWidth, srcHeight, dstWidth, dstHeight)
	}
	if len(dst) < dstWidth*dstHeight*2 || len(src) < srcWidth*srcHeight*2 {
		return fmt.Errorf("%w: short image buffer", ErrFormat)
	}

	width := min(srcWidth, dstWidth)
	height := min(srcHeight, dstHeight)
	srcStride := srcWidth * 2
	dstStride := dstWidth * 2

	var fieldPos [2]int32
	lower, upper := 0.0, 1.0
	if p.FieldOrder == 0 {
		lower, upper = 1, 0
	}
	fieldPos[0] = int32((p.Pos + lower*p.Delta*0.5) * (1 << 16) * (1 + p.Softness))
	fieldPos[1] = int32((p.Pos + upper*p.Delta*0.5) * (1 << 16) * (1 + p.Softness))

	xDiff := int32((m.Width << 16) / dstWidth)
	yDiff := int32((m.Height << 16) / dstHeight)
	softness := int32(p.Softness * (1 << 16))

	fieldCount := 2
	if p.FieldOrder < 0 {
		fieldCount = 1
	}

	for field := range fieldCount {
		yOffset := int32(field) << 16
		for i := field; i < height; i += fieldCount {
			row := min(int(yOffset>>16)*fieldCount, m.Height-1)
			l := m.Values[row*m.Width : (row+1)*m.Width]
			s := src[i*srcStride:]
			d := dst[i*dstStride:]

			var xOffset int32
			for j := range width {
				weight := int32(l[min(int(xOffset>>16), m.Width-1)])
				v := uint32(Smoothstep(weight, softness+weight, uint32(fieldPos[field])))
				k := 2 * j
				d[k] = byte((uint32(s[k])*v + uint32(d[k])*(0x10000-v)) >> 16)
				d[k+1] = byte((uint32(s[k+1])*v + uint32(d[k+1])*(0x10000-v)) >> 16)
				xOffset += xDiff
			}
			yOffset += yDiff
		}
	}
	return nil
}
