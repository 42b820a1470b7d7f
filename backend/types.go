package backend

import "fmt"

// Resource handles
//
// Handles are opaque to callers. Each backend maps them to its own objects.
// The zero value is never a valid handle.

// TextureHandle identifies a texture.
type TextureHandle uint64

// FramebufferHandle identifies a framebuffer (render target wrapper).
type FramebufferHandle uint64

// BufferHandle identifies a staging buffer.
type BufferHandle uint64

// ProgramHandle identifies a compiled program.
type ProgramHandle uint64

// InvalidHandle is the zero value shared by all handle types.
const InvalidHandle = 0

// TextureFormat is the internal storage format of a texture.
type TextureFormat uint8

// Texture formats.
const (
	// FormatInvalid is the zero value.
	FormatInvalid TextureFormat = iota

	// FormatR8 is one 8-bit normalized channel (a luminance or chroma plane).
	// It samples as (r, 0, 0, 1).
	FormatR8

	// FormatRG8 is two 8-bit normalized channels (luminance + alpha pairs of
	// packed 4:2:2). It samples as (r, g, 0, 1).
	FormatRG8

	// FormatRGBA8 is four 8-bit normalized channels.
	FormatRGBA8

	// FormatRGBA32F is four 32-bit float channels, little endian.
	FormatRGBA32F
)

// String returns the format name.
func (f TextureFormat) String() string {
	switch f {
	case FormatR8:
		return "R8"
	case FormatRG8:
		return "RG8"
	case FormatRGBA8:
		return "RGBA8"
	case FormatRGBA32F:
		return "RGBA32F"
	default:
		return fmt.Sprintf("TextureFormat(%d)", uint8(f))
	}
}

// BytesPerPixel returns the packed size of one texel.
func (f TextureFormat) BytesPerPixel() int {
	switch f {
	case FormatR8:
		return 1
	case FormatRG8:
		return 2
	case FormatRGBA8:
		return 4
	case FormatRGBA32F:
		return 16
	default:
		return 0
	}
}

// Channels returns the number of stored channels.
func (f TextureFormat) Channels() int {
	switch f {
	case FormatR8:
		return 1
	case FormatRG8:
		return 2
	case FormatRGBA8, FormatRGBA32F:
		return 4
	default:
		return 0
	}
}

// IsFloat reports whether the format stores unclamped floats.
func (f TextureFormat) IsFloat() bool { return f == FormatRGBA32F }

// Valid reports whether f is a known format.
func (f TextureFormat) Valid() bool { return f >= FormatR8 && f <= FormatRGBA32F }

// Size returns the packed byte size of a width×height texture.
func (f TextureFormat) Size(width, height int) int {
	return width * height * f.BytesPerPixel()
}

// Filter is a texture minification/magnification filter.
type Filter uint8

const (
	// FilterNearest selects the texel containing the sample point.
	FilterNearest Filter = iota

	// FilterLinear interpolates the four nearest texel centers.
	FilterLinear
)

// String returns the filter name.
func (f Filter) String() string {
	if f == FilterLinear {
		return "linear"
	}
	return "nearest"
}

// Rect is an axis-aligned rectangle given by its corners.
type Rect struct {
	X0, Y0, X1, Y1 float32
}

// RectWH returns the rectangle [0, w]×[0, h].
func RectWH(w, h int) Rect {
	return Rect{X1: float32(w), Y1: float32(h)}
}

// Empty reports whether the rectangle covers no area.
func (r Rect) Empty() bool { return r.X1 <= r.X0 || r.Y1 <= r.Y0 }
