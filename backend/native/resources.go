//go:build !nogpu

package native

import (
	"fmt"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/gpuframe/backend"
	"github.com/gogpu/wgpu/hal"
)

// copyPitchAlignment is the required BytesPerRow alignment for
// buffer-texture copies.
const copyPitchAlignment = 256

type texture struct {
	width, height int
	format        backend.TextureFormat
	filter        backend.Filter
	raw           hal.Texture
	view          hal.TextureView
}

type framebuffer struct {
	width, height int
}

type stagingBuffer struct {
	size int
	raw  hal.Buffer
}

func halFormat(f backend.TextureFormat) (gputypes.TextureFormat, bool) {
	switch f {
	case backend.FormatR8:
		return gputypes.TextureFormatR8Unorm, true
	case backend.FormatRG8:
		return gputypes.TextureFormatRG8Unorm, true
	case backend.FormatRGBA8:
		return gputypes.TextureFormatRGBA8Unorm, true
	case backend.FormatRGBA32F:
		return gputypes.TextureFormatRGBA32Float, true
	default:
		return 0, false
	}
}

func alignedRow(bytesPerRow int) int {
	return (bytesPerRow + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
}

// CreateTexture allocates a texture usable as sampler input, render target
// and copy source or destination.
func (b *Backend) CreateTexture(width, height int, format backend.TextureFormat) (backend.TextureHandle, error) {
	if err := b.check(); err != nil {
		return backend.InvalidHandle, err
	}
	hf, ok := halFormat(format)
	if !ok {
		return backend.InvalidHandle, fmt.Errorf("%w: %s", backend.ErrUnsupportedFormat, format)
	}
	limit := int(b.limits.MaxTextureDimension2D)
	if width <= 0 || height <= 0 || width > limit || height > limit {
		return backend.InvalidHandle, fmt.Errorf("%w: texture %dx%d", backend.ErrInvalidSize, width, height)
	}

	id := b.newID()
	label := fmt.Sprintf("%s_tex_%d", b.label, id)
	raw, err := b.device.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          hal.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        hf,
		Usage: gputypes.TextureUsageTextureBinding | gputypes.TextureUsageRenderAttachment |
			gputypes.TextureUsageCopySrc | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return backend.InvalidHandle, fmt.Errorf("native: create texture: %w", err)
	}
	view, err := b.device.CreateTextureView(raw, &hal.TextureViewDescriptor{
		Label:         label + "_view",
		Format:        hf,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		b.device.DestroyTexture(raw)
		return backend.InvalidHandle, fmt.Errorf("native: create texture view: %w", err)
	}

	h := backend.TextureHandle(id)
	b.textures[h] = &texture{
		width:  width,
		height: height,
		format: format,
		filter: backend.FilterNearest,
		raw:    raw,
		view:   view,
	}
	return h, nil
}

// SetTextureFilter selects the sampler bound with the texture.
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

// DestroyTexture frees a texture and its view.
func (b *Backend) DestroyTexture(tex backend.TextureHandle) {
	t, ok := b.textures[tex]
	if !ok {
		return
	}
	delete(b.textures, tex)
	b.device.DestroyTextureView(t.view)
	b.device.DestroyTexture(t.raw)
}

// CreateFramebuffer records a render target size. The attachment is bound
// per draw, so no GPU object backs it.
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

// DestroyFramebuffer forgets a framebuffer.
func (b *Backend) DestroyFramebuffer(fb backend.FramebufferHandle) { delete(b.framebuffers, fb) }

// CreateStagingBuffer allocates a host-writable buffer.
func (b *Backend) CreateStagingBuffer(size int) (backend.BufferHandle, error) {
	if err := b.check(); err != nil {
		return backend.InvalidHandle, err
	}
	if size <= 0 {
		return backend.InvalidHandle, fmt.Errorf("%w: staging buffer of %d bytes", backend.ErrInvalidSize, size)
	}
	id := b.newID()
	raw, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: fmt.Sprintf("%s_staging_%d", b.label, id),
		Size:  uint64(size),
		Usage: gputypes.BufferUsageMapWrite | gputypes.BufferUsageCopySrc,
	})
	if err != nil {
		return backend.InvalidHandle, fmt.Errorf("native: create staging buffer: %w", err)
	}
	h := backend.BufferHandle(id)
	b.buffers[h] = &stagingBuffer{size: size, raw: raw}
	return h, nil
}

// DestroyStagingBuffer frees a staging buffer.
func (b *Backend) DestroyStagingBuffer(buf backend.BufferHandle) {
	sb, ok := b.buffers[buf]
	if !ok {
		return
	}
	delete(b.buffers, buf)
	b.device.DestroyBuffer(sb.raw)
}

// mapped calls fn with the host view of size bytes at offset.
func (b *Backend) mapped(raw hal.Buffer, offset, size int, fn func([]byte)) error {
	m, err := b.device.MapBuffer(raw, uint64(offset), uint64(size))
	if err != nil {
		return fmt.Errorf("native: map buffer: %w", err)
	}
	fn(unsafe.Slice((*byte)(m.Ptr), size))
	if err := b.device.UnmapBuffer(raw); err != nil {
		return fmt.Errorf("native: unmap buffer: %w", err)
	}
	return nil
}

// WriteStaging copies data into the buffer through a host mapping.
func (b *Backend) WriteStaging(buf backend.BufferHandle, offset int, data []byte) error {
	if err := b.check(); err != nil {
		return err
	}
	sb, ok := b.buffers[buf]
	if !ok {
		return fmt.Errorf("%w: buffer %d", backend.ErrInvalidHandle, buf)
	}
	if offset < 0 || offset+len(data) > sb.size {
		return fmt.Errorf("%w: write of %d bytes at %d into %d-byte buffer",
			backend.ErrInvalidSize, len(data), offset, sb.size)
	}
	if len(data) == 0 {
		return nil
	}
	return b.mapped(sb.raw, offset, len(data), func(dst []byte) { copy(dst, data) })
}

// UploadTexture writes packed texels from the staging buffer into the
// texture. Queue writes take tightly packed rows, so no pitch padding is
// needed on this path.
func (b *Backend) UploadTexture(tex backend.TextureHandle, buf backend.BufferHandle, offset int) error {
	if err := b.check(); err != nil {
		return err
	}
	t, ok := b.textures[tex]
	if !ok {
		return fmt.Errorf("%w: texture %d", backend.ErrInvalidHandle, tex)
	}
	sb, ok := b.buffers[buf]
	if !ok {
		return fmt.Errorf("%w: buffer %d", backend.ErrInvalidHandle, buf)
	}
	size := t.format.Size(t.width, t.height)
	if offset < 0 || offset+size > sb.size {
		return fmt.Errorf("%w: upload of %d bytes at %d from %d-byte buffer",
			backend.ErrInvalidSize, size, offset, sb.size)
	}

	var writeErr error
	err := b.mapped(sb.raw, offset, size, func(src []byte) {
		writeErr = b.queue.WriteTexture(
			&hal.ImageCopyTexture{Texture: t.raw, MipLevel: 0, Aspect: gputypes.TextureAspectAll},
			src,
			&hal.ImageDataLayout{
				Offset:       0,
				BytesPerRow:  uint32(t.width * t.format.BytesPerPixel()),
				RowsPerImage: uint32(t.height),
			},
			&hal.Extent3D{Width: uint32(t.width), Height: uint32(t.height), DepthOrArrayLayers: 1},
		)
	})
	if err != nil {
		return err
	}
	if writeErr != nil {
		return fmt.Errorf("native: write texture: %w", writeErr)
	}
	return nil
}

// ReadTexture copies the texture into a readback buffer, waits for the
// device and strips the row padding into dst.
func (b *Backend) ReadTexture(tex backend.TextureHandle, dst []byte) error {
	if err := b.check(); err != nil {
		return err
	}
	t, ok := b.textures[tex]
	if !ok {
		return fmt.Errorf("%w: texture %d", backend.ErrInvalidHandle, tex)
	}
	rowBytes := t.width * t.format.BytesPerPixel()
	if size := rowBytes * t.height; len(dst) < size {
		return fmt.Errorf("%w: readback needs %d bytes, got %d", backend.ErrInvalidSize, size, len(dst))
	}
	pitch := alignedRow(rowBytes)
	bufSize := pitch * t.height

	readback, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: b.label + "_readback",
		Size:  uint64(bufSize),
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("native: create readback buffer: %w", err)
	}
	defer b.device.DestroyBuffer(readback)

	err = b.submit("readback", func(encoder hal.CommandEncoder) {
		encoder.TransitionTextures([]hal.TextureBarrier{{
			Texture: t.raw,
			Range:   hal.TextureRange{Aspect: gputypes.TextureAspectAll},
			Usage: hal.TextureUsageTransition{
				OldUsage: t.raw.CurrentUsage(),
				NewUsage: gputypes.TextureUsageCopySrc,
			},
		}})
		encoder.CopyTextureToBuffer(t.raw, readback, []hal.BufferTextureCopy{{
			BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: uint32(pitch), RowsPerImage: uint32(t.height)},
			TextureBase:  hal.ImageCopyTexture{Texture: t.raw, MipLevel: 0, Aspect: gputypes.TextureAspectAll},
			Size:         hal.Extent3D{Width: uint32(t.width), Height: uint32(t.height), DepthOrArrayLayers: 1},
		}})
		encoder.TransitionTextures([]hal.TextureBarrier{{
			Texture: t.raw,
			Range:   hal.TextureRange{Aspect: gputypes.TextureAspectAll},
			Usage: hal.TextureUsageTransition{
				OldUsage: gputypes.TextureUsageCopySrc,
				NewUsage: gputypes.TextureUsageRenderAttachment,
			},
		}})
	})
	if err != nil {
		return err
	}

	return b.mapped(readback, 0, bufSize, func(src []byte) {
		if pitch == rowBytes {
			copy(dst, src[:rowBytes*t.height])
			return
		}
		for row := range t.height {
			copy(dst[row*rowBytes:(row+1)*rowBytes], src[row*pitch:row*pitch+rowBytes])
		}
	})
}

// submit records commands with a fresh encoder, submits them and waits for
// the device to go idle.
func (b *Backend) submit(label string, record func(hal.CommandEncoder)) error {
	encoder, err := b.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: b.label + "_" + label})
	if err != nil {
		return fmt.Errorf("native: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(label); err != nil {
		return fmt.Errorf("native: begin encoding: %w", err)
	}
	record(encoder)
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("native: end encoding: %w", err)
	}
	defer b.device.FreeCommandBuffer(cmdBuf)

	if _, err := b.queue.Submit([]hal.CommandBuffer{cmdBuf}); err != nil {
		return fmt.Errorf("native: submit %s: %w", label, err)
	}
	if err := b.device.WaitIdle(); err != nil {
		return fmt.Errorf("native: wait for %s: %w", label, err)
	}
	return nil
}
