//go:build !nogpu

// Package native implements backend.GraphicsBackend on a wgpu HAL device.
//
// Programs are compiled from WGSL to SPIR-V with naga. Every program shares
// one vertex stage that expands a single quad from the vertex index; the
// fragment stage comes from the program source. Work is submitted per draw and
// the backend waits for the device to go idle, so a pass has finished when
// Draw returns, like a finished GL draw call.
package native

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/gpuframe/backend"
	"github.com/gogpu/wgpu/hal"

	// Vulkan HAL backend registration.
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

func init() {
	backend.Register(backend.NameNative, func() (backend.GraphicsBackend, error) {
		return Open()
	})
}

// ErrNoAdapter is returned when no GPU adapter can be opened.
var ErrNoAdapter = errors.New("native: no GPU adapter available")

// Option configures a Backend.
type Option func(*Backend)

// WithLabel sets the prefix used for GPU object labels.
func WithLabel(label string) Option {
	return func(b *Backend) { b.label = label }
}

// Backend draws through a HAL device and queue.
type Backend struct {
	label    string
	device   hal.Device
	queue    hal.Queue
	instance hal.Instance // nil when the device is borrowed
	owned    bool
	adapter  string
	limits   gputypes.Limits

	current bool
	closed  bool
	nextID  uint64

	textures     map[backend.TextureHandle]*texture
	framebuffers map[backend.FramebufferHandle]*framebuffer
	buffers      map[backend.BufferHandle]*stagingBuffer
	programs     map[backend.ProgramHandle]*program

	nearest hal.Sampler
	linear  hal.Sampler

	log atomic.Pointer[slog.Logger]
}

var _ backend.GraphicsBackend = (*Backend)(nil)

// Open creates a Backend on the first discrete or integrated Vulkan adapter,
// falling back to any adapter the instance reports.
func Open(opts ...Option) (*Backend, error) {
	vk, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("%w: vulkan backend not registered", ErrNoAdapter)
	}
	instance, err := vk.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("native: create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoAdapter
	}
	selected := &adapters[0]
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	limits := gputypes.DefaultLimits()
	openDev, err := selected.Adapter.Open(gputypes.Features(0), limits)
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("native: open device: %w", err)
	}

	b, err := newBackend(openDev.Device, openDev.Queue, selected.Info.Name, limits, opts)
	if err != nil {
		openDev.Device.Destroy()
		instance.Destroy()
		return nil, err
	}
	b.instance = instance
	b.owned = true
	b.logger().Info("native: device opened", "adapter", selected.Info.Name)
	return b, nil
}

// NewFromDevice wraps an existing device and queue. Close does not destroy
// the device.
func NewFromDevice(device hal.Device, queue hal.Queue, opts ...Option) (*Backend, error) {
	if device == nil || queue == nil {
		return nil, fmt.Errorf("%w: nil device or queue", ErrNoAdapter)
	}
	return newBackend(device, queue, "external", gputypes.DefaultLimits(), opts)
}

// NewFromProvider borrows the HAL device of a gpucontext.DeviceProvider.
// The provider must also expose HalDevice() any and HalQueue() any.
func NewFromProvider(provider gpucontext.DeviceProvider, opts ...Option) (*Backend, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("native: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("native: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("native: provider HalQueue is not hal.Queue")
	}
	return newBackend(device, queue, provider.AdapterInfo().Name, gputypes.DefaultLimits(), opts)
}

func newBackend(device hal.Device, queue hal.Queue, adapter string, limits gputypes.Limits, opts []Option) (*Backend, error) {
	b := &Backend{
		label:        "gpuframe",
		device:       device,
		queue:        queue,
		adapter:      adapter,
		limits:       limits,
		textures:     make(map[backend.TextureHandle]*texture),
		framebuffers: make(map[backend.FramebufferHandle]*framebuffer),
		buffers:      make(map[backend.BufferHandle]*stagingBuffer),
		programs:     make(map[backend.ProgramHandle]*program),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.log.Store(slog.New(nopHandler{}))

	var err error
	if b.nearest, err = b.createSampler(gputypes.FilterModeNearest); err != nil {
		return nil, err
	}
	if b.linear, err = b.createSampler(gputypes.FilterModeLinear); err != nil {
		device.DestroySampler(b.nearest)
		return nil, err
	}
	return b, nil
}

func (b *Backend) createSampler(filter gputypes.FilterMode) (hal.Sampler, error) {
	s, err := b.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        b.label + "_sampler_" + filterName(filter),
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    filter,
		MinFilter:    filter,
		MipmapFilter: gputypes.FilterModeNearest,
		LodMinClamp:  0,
		LodMaxClamp:  32,
	})
	if err != nil {
		return nil, fmt.Errorf("native: create sampler: %w", err)
	}
	return s, nil
}

func filterName(f gputypes.FilterMode) string {
	if f == gputypes.FilterModeLinear {
		return "linear"
	}
	return "nearest"
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

// Name returns "native".
func (b *Backend) Name() string { return backend.NameNative }

// Capabilities reports a hardware device. RGBA32Float is a core WebGPU
// format for sampling and rendering, so float textures are always available.
func (b *Backend) Capabilities() backend.Capabilities {
	return backend.Capabilities{
		Accelerated:    true,
		TextureFloat:   true,
		MaxTextureSize: int(b.limits.MaxTextureDimension2D),
		Adapter:        b.adapter,
	}
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

// Close destroys every GPU object. An owned device is destroyed too.
func (b *Backend) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	b.current = false

	if err := b.device.WaitIdle(); err != nil {
		b.logger().Warn("native: wait idle on close", "err", err)
	}
	for h := range b.programs {
		b.DestroyProgram(h)
	}
	for h := range b.textures {
		b.DestroyTexture(h)
	}
	for h := range b.buffers {
		b.DestroyStagingBuffer(h)
	}
	clear(b.framebuffers)
	b.device.DestroySampler(b.nearest)
	b.device.DestroySampler(b.linear)

	if b.owned {
		b.device.Destroy()
		if b.instance != nil {
			b.instance.Destroy()
		}
	}
	return nil
}
