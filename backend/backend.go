package backend

import "errors"

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not registered
	// or cannot open a device.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrNotCurrent is returned when a GPU call is made outside MakeCurrent/DoneCurrent.
	ErrNotCurrent = errors.New("backend: context not current")

	// ErrClosed is returned by any call after Close.
	ErrClosed = errors.New("backend: closed")

	// ErrInvalidHandle is returned for unknown or destroyed handles.
	ErrInvalidHandle = errors.New("backend: invalid handle")

	// ErrInvalidSize is returned for zero or negative dimensions and short buffers.
	ErrInvalidSize = errors.New("backend: invalid size")

	// ErrUnsupportedFormat is returned for texture formats the backend cannot create.
	ErrUnsupportedFormat = errors.New("backend: unsupported texture format")

	// ErrCompile is returned when a program fails to compile or link.
	ErrCompile = errors.New("backend: program compile failed")
)

// Capabilities describes what a backend detected when it was opened.
type Capabilities struct {
	// Accelerated is true when passes execute on a GPU.
	Accelerated bool

	// TextureFloat is true when RGBA32F textures can be created and sampled.
	TextureFloat bool

	// MaxTextureSize is the largest texture edge in texels (0 if unknown).
	MaxTextureSize int

	// Adapter is a human-readable description of the device.
	Adapter string
}

// GraphicsBackend executes render passes for the frame pipeline.
//
// Implementations are not safe for concurrent use. Every method except Name,
// Capabilities and Close must be called between MakeCurrent and DoneCurrent.
type GraphicsBackend interface {
	// Name returns the backend identifier (e.g. "software", "native").
	Name() string

	// Capabilities reports the features detected at open time.
	Capabilities() Capabilities

	// MakeCurrent binds the graphics context to the calling goroutine.
	MakeCurrent() error

	// DoneCurrent unbinds the graphics context.
	DoneCurrent()

	// CreateTexture allocates a width×height texture with clamp-to-edge
	// addressing and nearest filtering.
	CreateTexture(width, height int, format TextureFormat) (TextureHandle, error)

	// SetTextureFilter sets the minification and magnification filter.
	SetTextureFilter(tex TextureHandle, filter Filter) error

	// DestroyTexture frees a texture. Unknown handles are ignored.
	DestroyTexture(tex TextureHandle)

	// CreateFramebuffer allocates a render target wrapper of the given size.
	CreateFramebuffer(width, height int) (FramebufferHandle, error)

	// DestroyFramebuffer frees a framebuffer. Unknown handles are ignored.
	DestroyFramebuffer(fb FramebufferHandle)

	// CreateStagingBuffer allocates a CPU-writable transfer buffer.
	CreateStagingBuffer(size int) (BufferHandle, error)

	// DestroyStagingBuffer frees a staging buffer. Unknown handles are ignored.
	DestroyStagingBuffer(buf BufferHandle)

	// WriteStaging copies data into the staging buffer at offset.
	WriteStaging(buf BufferHandle, offset int, data []byte) error

	// UploadTexture replaces the whole texture with tightly packed texels read
	// from the staging buffer starting at offset.
	UploadTexture(tex TextureHandle, buf BufferHandle, offset int) error

	// ReadTexture copies the whole texture into dst as tightly packed texels.
	// It returns after the GPU has finished writing the texture.
	ReadTexture(tex TextureHandle, dst []byte) error

	// CompileProgram compiles and links a program. Diagnostics are returned
	// wrapped in ErrCompile.
	CompileProgram(name string, src *ProgramSource) (ProgramHandle, error)

	// DestroyProgram frees a program. Unknown handles are ignored.
	DestroyProgram(prog ProgramHandle)

	// Draw executes one render pass.
	Draw(pass *Pass) error

	// Close releases the device. Handles become invalid.
	Close() error
}
