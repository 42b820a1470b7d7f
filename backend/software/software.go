// Package software implements backend.GraphicsBackend on the CPU.
//
// Textures live in host memory as float RGBA texels. Draw runs the program's
// Kernel for every covered pixel, splitting the target into row bands across a
// worker pool. Results are quantized to the target format on store, so an
// RGBA8 target holds exactly what an 8-bit GPU render target would.
package software

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"

	"github.com/gogpu/gpuframe/backend"
	"github.com/gogpu/gpuframe/internal/parallel"
)

func init() {
	backend.Register(backend.NameSoftware, func() (backend.GraphicsBackend, error) {
		return New(), nil
	})
}

// defaultMaxTextureSize mirrors a common GPU limit so oversize requests fail
// the same way on both backends.
const defaultMaxTextureSize = 16384

type texture struct {
	width, height int
	format        backend.TextureFormat
	filter        backend.Filter
	texels        []float32 // 4 floats per texel
}

type framebuffer struct {
	width, height int
}

type program struct {
	name string
	src  *backend.ProgramSource
}

// Stats counts objects and work done by the backend.
type Stats struct {
	Textures     int
	Framebuffers int
	Buffers      int
	Programs     int
	Compiles     uint64
	Draws        uint64
	Uploads      uint64
	Readbacks    uint64
}

// Option configures a Backend.
type Option func(*Backend)

// WithWorkers sets the number of goroutines used by Draw.
// Zero or negative uses GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(b *Backend) { b.workers = n }
}

// WithTextureFloat controls whether RGBA32F textures are reported and allowed.
func WithTextureFloat(enabled bool) Option {
	return func(b *Backend) { b.textureFloat = enabled }
}

// WithMaxTextureSize sets the largest texture edge accepted by CreateTexture.
func WithMaxTextureSize(n int) Option {
	return func(b *Backend) { b.maxTextureSize = n }
}

// Backend is the CPU reference backend.
type Backend struct {
	workers        int
	textureFloat   bool
	maxTextureSize int

	pool    *parallel.WorkerPool
	current bool
	closed  bool
	nextID  uint64

	textures     map[backend.TextureHandle]*texture
	framebuffers map[backend.FramebufferHandle]*framebuffer
	buffers      map[backend.BufferHandle][]byte
	programs     map[backend.ProgramHandle]*program

	stats Stats
	log   atomic.Pointer[slog.Logger]
}

var _ backend.GraphicsBackend = (*Backend)(nil)

// New creates a software backend.
func New(opts ...Option) *Backend {
	b := &Backend{
		textureFloat:   true,
		maxTextureSize: defaultMaxTextureSize,
		textures:       make(map[backend.TextureHandle]*texture),
		framebuffers:   make(map[backend.FramebufferHandle]*framebuffer),
		buffers:        make(map[backend.BufferHandle][]byte),
		programs:       make(map[backend.ProgramHandle]*program),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.pool = parallel.NewWorkerPool(b.workers)
	b.log.Store(slog.New(nopHandler{}))
	return b
}

// nopHandler silently discards all log records.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// SetLogger sets the logger for backend diagnostics. Nil disables logging.
func (b *Backend) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	b.log.Store(l)
}

func (b *Backend) logger() *slog.Logger { return b.log.Load() }

// Name returns "software".
func (b *Backend) Name() string { return backend.NameSoftware }

// Capabilities reports a CPU device.
func (b *Backend) Capabilities() backend.Capabilities {
	return backend.Capabilities{
		Accelerated:    false,
		TextureFloat:   b.textureFloat,
		MaxTextureSize: b.maxTextureSize,
		Adapter:        fmt.Sprintf("software (%d workers)", b.pool.Workers()),
	}
}

// Stats returns object counts and work counters.
func (b *Backend) Stats() Stats {
	s := b.stats
	s.Textures = len(b.textures)
	s.Framebuffers = len(b.framebuffers)
	s.Buffers = len(b.buffers)
	s.Programs = len(b.programs)
	return s
}

// MakeCurrent marks the context current.
func (b *Backend) MakeCurrent() error {
	if b.closed {
		return backend.ErrClosed
	}
	b.current = true
	return nil
}

// DoneCurrent marks the context not current.
func (b *Backend) DoneCurrent() { b.current = false }

func (b *Backend) check() error {
	if b.closed {
		return backend.ErrClosed
	}
	if !b.current {
		return backend.ErrNotCurrent
	}
	return nil
}

func (b *Backend) newID() uint64 {
	b.nextID++
	return b.nextID
}

// CreateTexture allocates a zeroed texture.
func (b *Backend) CreateTexture(width, height int, format backend.TextureFormat) (backend.TextureHandle, error) {
	if err := b.check(); err != nil {
		return backend.InvalidHandle, err
	}
	if !format.Valid() || (format.IsFloat() && !b.textureFloat) {
		return backend.InvalidHandle, fmt.Errorf("%w: %s", backend.ErrUnsupportedFormat, format)
	}
	if width <= 0 || height <= 0 || width > b.maxTextureSize || height > b.maxTextureSize {
		return backend.InvalidHandle, fmt.Errorf("%w: texture %dx%d", backend.ErrInvalidSize, width, height)
	}
	h := backend.TextureHandle(b.newID())
	b.textures[h] = &texture{
		width:  width,
		height: height,
		format: format,
		filter: backend.FilterNearest,
		texels: make([]float32, width*height*4),
	}
	return h, nil
}

// SetTextureFilter sets the filter used when the texture is sampled.
func (b *Backend) SetTextureFilter(tex backend.TextureHandle, filter backend.Filter) error {
	if err := b.check(); err != nil {
		return err
	}
	t, ok := b.textures[tex]
	if !ok {
		return fmt.Errorf("%w: texture %d", backend.ErrInvalidHandle, tex)
	}
	t.filter = filter
	return nil
}

// DestroyTexture frees a texture.
func (b *Backend) DestroyTexture(tex backend.TextureHandle) { delete(b.textures, tex) }

// CreateFramebuffer allocates a framebuffer record.
func (b *Backend) CreateFramebuffer(width, height int) (backend.FramebufferHandle, error) {
	if err := b.check(); err != nil {
		return backend.InvalidHandle, err
	}
	if width <= 0 || height <= 0 {
		return backend.InvalidHandle, fmt.Errorf("%w: framebuffer %dx%d", backend.ErrInvalidSize, width, height)
	}
	h := backend.FramebufferHandle(b.newID())
	b.framebuffers[h] = &framebuffer{width: width, height: height}
	return h, nil
}

// DestroyFramebuffer frees a framebuffer.
func (b *Backend) DestroyFramebuffer(fb backend.FramebufferHandle) { delete(b.framebuffers, fb) }

// CreateStagingBuffer allocates a host buffer.
func (b *Backend) CreateStagingBuffer(size int) (backend.BufferHandle, error) {
	if err := b.check(); err != nil {
		return backend.InvalidHandle, err
	}
	if size <= 0 {
		return backend.InvalidHandle, fmt.Errorf("%w: staging buffer of %d bytes", backend.ErrInvalidSize, size)
	}
	h := backend.BufferHandle(b.newID())
	b.buffers[h] = make([]byte, size)
	return h, nil
}

// DestroyStagingBuffer frees a staging buffer.
func (b *Backend) DestroyStagingBuffer(buf backend.BufferHandle) { delete(b.buffers, buf) }

// WriteStaging copies data into the buffer.
func (b *Backend) WriteStaging(buf backend.BufferHandle, offset int, data []byte) error {
	if err := b.check(); err != nil {
		return err
	}
	mem, ok := b.buffers[buf]
	if !ok {
		return fmt.Errorf("%w: buffer %d", backend.ErrInvalidHandle, buf)
	}
	if offset < 0 || offset+len(data) > len(mem) {
		return fmt.Errorf("%w: write of %d bytes at %d into %d-byte buffer",
			backend.ErrInvalidSize, len(data), offset, len(mem))
	}
	copy(mem[offset:], data)
	return nil
}

// UploadTexture decodes packed texels from the staging buffer.
func (b *Backend) UploadTexture(tex backend.TextureHandle, buf backend.BufferHandle, offset int) error {
	if err := b.check(); err != nil {
		return err
	}
	t, ok := b.textures[tex]
	if !ok {
		return fmt.Errorf("%w: texture %d", backend.ErrInvalidHandle, tex)
	}
	mem, ok := b.buffers[buf]
	if !ok {
		return fmt.Errorf("%w: buffer %d", backend.ErrInvalidHandle, buf)
	}
	size := t.format.Size(t.width, t.height)
	if offset < 0 || offset+size > len(mem) {
		return fmt.Errorf("%w: upload of %d bytes at %d from %d-byte buffer",
			backend.ErrInvalidSize, size, offset, len(mem))
	}
	decode(t, mem[offset:offset+size])
	b.stats.Uploads++
	return nil
}

// ReadTexture encodes the texture as packed texels.
func (b *Backend) ReadTexture(tex backend.TextureHandle, dst []byte) error {
	if err := b.check(); err != nil {
		return err
	}
	t, ok := b.textures[tex]
	if !ok {
		return fmt.Errorf("%w: texture %d", backend.ErrInvalidHandle, tex)
	}
	if size := t.format.Size(t.width, t.height); len(dst) < size {
		return fmt.Errorf("%w: readback needs %d bytes, got %d", backend.ErrInvalidSize, size, len(dst))
	}
	encode(t, dst)
	b.stats.Readbacks++
	return nil
}

// CompileProgram checks that the program carries a CPU kernel.
func (b *Backend) CompileProgram(name string, src *backend.ProgramSource) (backend.ProgramHandle, error) {
	if err := b.check(); err != nil {
		return backend.InvalidHandle, err
	}
	b.stats.Compiles++
	if src == nil || src.Kernel == nil {
		b.logger().Warn("software: program has no CPU kernel", "program", name)
		return backend.InvalidHandle, fmt.Errorf("%w: %s: no CPU kernel", backend.ErrCompile, name)
	}
	h := backend.ProgramHandle(b.newID())
	b.programs[h] = &program{name: name, src: src}
	b.logger().Debug("software: program compiled", "program", name, "textures", len(src.Textures))
	return h, nil
}

// DestroyProgram frees a program.
func (b *Backend) DestroyProgram(prog backend.ProgramHandle) { delete(b.programs, prog) }

// Close releases every object and stops the workers.
func (b *Backend) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	b.current = false
	b.pool.Close()
	clear(b.textures)
	clear(b.framebuffers)
	clear(b.buffers)
	clear(b.programs)
	return nil
}

// decode fills t from packed bytes.
func decode(t *texture, src []byte) {
	n := t.width * t.height
	switch t.format {
	case backend.FormatR8:
		for i := range n {
			t.texels[i*4] = unorm(src[i])
			t.texels[i*4+1] = 0
			t.texels[i*4+2] = 0
			t.texels[i*4+3] = 1
		}
	case backend.FormatRG8:
		for i := range n {
			t.texels[i*4] = unorm(src[i*2])
			t.texels[i*4+1] = unorm(src[i*2+1])
			t.texels[i*4+2] = 0
			t.texels[i*4+3] = 1
		}
	case backend.FormatRGBA8:
		for i := range n * 4 {
			t.texels[i] = unorm(src[i])
		}
	case backend.FormatRGBA32F:
		for i := range n * 4 {
			t.texels[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[i*4:]))
		}
	}
}

// encode writes t as packed bytes.
func encode(t *texture, dst []byte) {
	n := t.width * t.height
	switch t.format {
	case backend.FormatR8:
		for i := range n {
			dst[i] = toByte(t.texels[i*4])
		}
	case backend.FormatRG8:
		for i := range n {
			dst[i*2] = toByte(t.texels[i*4])
			dst[i*2+1] = toByte(t.texels[i*4+1])
		}
	case backend.FormatRGBA8:
		for i := range n * 4 {
			dst[i] = toByte(t.texels[i])
		}
	case backend.FormatRGBA32F:
		for i := range n * 4 {
			binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(t.texels[i]))
		}
	}
}

func unorm(v uint8) float32 { return float32(v) / 255 }

// toByte converts a normalized float to 8 bits, rounding to nearest.
func toByte(v float32) uint8 {
	switch {
	case !(v > 0): // also catches NaN
		return 0
	case v >= 1:
		return 255
	default:
		return uint8(v*255 + 0.5)
	}
}
