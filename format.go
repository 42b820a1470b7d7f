package gpuframe

import "fmt"

// Format identifies how a frame's image is represented.
type Format int

const (
	// FormatNone means the frame carries no image.
	FormatNone Format = iota

	// FormatRGB24 is packed 8-bit R, G, B.
	FormatRGB24

	// FormatRGBA is packed 8-bit R, G, B, A.
	FormatRGBA

	// FormatYUV422 is packed 4:2:2 in Y0 U Y1 V order (YUYV).
	FormatYUV422

	// FormatYUV420P is planar 4:2:0: the Y plane followed by quarter-size
	// U and V planes (I420).
	FormatYUV420P

	// FormatGPU is an RGBA texture owned by an Environment's pool.
	FormatGPU
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatNone:
		return "none"
	case FormatRGB24:
		return "rgb24"
	case FormatRGBA:
		return "rgba"
	case FormatYUV422:
		return "yuv422"
	case FormatYUV420P:
		return "yuv420p"
	case FormatGPU:
		return "gpu"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// ParseFormat returns the format with the given name.
func ParseFormat(name string) (Format, error) {
	for f := FormatNone; f <= FormatGPU; f++ {
		if f.String() == name {
			return f, nil
		}
	}
	return FormatNone, fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
}

// IsNative reports whether images of this format live in host memory.
func (f Format) IsNative() bool {
	return f >= FormatRGB24 && f <= FormatYUV420P
}

// BufferSize returns the number of bytes of a width x height image.
// FormatGPU and FormatNone have no host buffer and return 0.
func (f Format) BufferSize(width, height int) int {
	switch f {
	case FormatRGB24:
		return width * height * 3
	case FormatRGBA:
		return width * height * 4
	case FormatYUV422:
		return width * height * 2
	case FormatYUV420P:
		return width*height + 2*(width/2)*(height/2)
	default:
		return 0
	}
}

// checkSize validates dimensions for a conversion to or from f. The YUV
// formats share chroma between horizontal pixel pairs, and 4:2:0 between
// row pairs too, so those dimensions must be even.
func (f Format) checkSize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	switch f {
	case FormatYUV422:
		if width%2 != 0 {
			return fmt.Errorf("%w: %s needs an even width, got %d", ErrInvalidSize, f, width)
		}
	case FormatYUV420P:
		if width%2 != 0 || height%2 != 0 {
			return fmt.Errorf("%w: %s needs even dimensions, got %dx%d", ErrInvalidSize, f, width, height)
		}
	}
	return nil
}
