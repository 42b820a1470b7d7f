package gpuframe

import "errors"

var (
	// ErrPoolExhausted is returned when a pool list is at capacity.
	ErrPoolExhausted = errors.New("gpuframe: resource pool exhausted")

	// ErrShaderCompile is returned when a program fails to compile. The
	// backend diagnostic is wrapped.
	ErrShaderCompile = errors.New("gpuframe: shader compile failed")

	// ErrContextDone is returned when a Context is used after its Do call
	// has returned.
	ErrContextDone = errors.New("gpuframe: context used outside Do")

	// ErrClosed is returned by operations on a closed Environment.
	ErrClosed = errors.New("gpuframe: environment closed")

	// ErrInvalidSize is returned for zero, negative or unsupported image
	// dimensions.
	ErrInvalidSize = errors.New("gpuframe: invalid image size")

	// ErrShortBuffer is returned when an image buffer is smaller than its
	// format and size require.
	ErrShortBuffer = errors.New("gpuframe: image buffer too small")

	// ErrUnsupportedFormat is returned for conversions between formats the
	// converter does not handle.
	ErrUnsupportedFormat = errors.New("gpuframe: unsupported image format")

	// ErrNoImage is returned when a frame holds neither bytes nor a texture.
	ErrNoImage = errors.New("gpuframe: frame has no image")
)
