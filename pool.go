package gpuframe

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpuframe/backend"
	"github.com/gogpu/gpuframe/internal/freelist"
)

type textureKey struct {
	width, height int
	format        backend.TextureFormat
}

type fboKey struct {
	width, height int
}

// Texture is a pooled texture. Its handle stays valid until the owning
// Environment closes; after ReleaseTexture it may be handed to another
// caller.
type Texture struct {
	env    *Environment
	entry  *freelist.Entry[textureKey, *Texture]
	handle backend.TextureHandle
	width  int
	height int
	format backend.TextureFormat
}

// Handle returns the backend handle.
func (t *Texture) Handle() backend.TextureHandle { return t.handle }

// Width returns the texture width in texels.
func (t *Texture) Width() int { return t.width }

// Height returns the texture height in texels.
func (t *Texture) Height() int { return t.height }

// Format returns the storage format.
func (t *Texture) Format() backend.TextureFormat { return t.format }

// InUse reports whether the texture is checked out of its pool.
func (t *Texture) InUse() bool { return t.entry != nil && t.entry.InUse() }

// Rect returns [0, width]×[0, height].
func (t *Texture) Rect() backend.Rect { return backend.RectWH(t.width, t.height) }

func (t *Texture) String() string {
	return fmt.Sprintf("Texture[%d %dx%d %s]", t.handle, t.width, t.height, t.format)
}

// Framebuffer is a pooled render target wrapper.
type Framebuffer struct {
	env    *Environment
	entry  *freelist.Entry[fboKey, *Framebuffer]
	handle backend.FramebufferHandle
	width  int
	height int
}

// Handle returns the backend handle.
func (f *Framebuffer) Handle() backend.FramebufferHandle { return f.handle }

// Width returns the framebuffer width.
func (f *Framebuffer) Width() int { return f.width }

// Height returns the framebuffer height.
func (f *Framebuffer) Height() int { return f.height }

// StagingBuffer is the Environment's single transfer buffer.
type StagingBuffer struct {
	handle backend.BufferHandle
	size   int
}

// Handle returns the backend handle.
func (s *StagingBuffer) Handle() backend.BufferHandle { return s.handle }

// Size returns the capacity in bytes.
func (s *StagingBuffer) Size() int { return s.size }

// GetTexture returns an unused pooled texture of exactly width×height and
// format, creating one if none is free. Among free textures the one created
// first wins. A reused texture has its filter
// reset to nearest; its contents are undefined.
func (c *Context) GetTexture(width, height int, format backend.TextureFormat) (*Texture, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	e := c.env
	key := textureKey{width: width, height: height, format: format}

	if en, ok := e.textures.Acquire(key); ok {
		t := en.Value
		if err := e.backend.SetTextureFilter(t.handle, backend.FilterNearest); err != nil {
			e.textures.Release(en)
			return nil, fmt.Errorf("gpuframe: reset filter: %w", err)
		}
		return t, nil
	}

	if e.textures.Full() {
		return nil, fmt.Errorf("%w: %d textures", ErrPoolExhausted, e.textures.Len())
	}
	h, err := e.backend.CreateTexture(width, height, format)
	if err != nil {
		return nil, fmt.Errorf("gpuframe: create texture %dx%d %s: %w", width, height, format, err)
	}
	t := &Texture{env: e, handle: h, width: width, height: height, format: format}
	en, err := e.textures.Insert(key, t)
	if err != nil {
		e.backend.DestroyTexture(h)
		return nil, errors.Join(ErrPoolExhausted, err)
	}
	t.entry = en

	Logger().Debug("gpuframe: texture allocated",
		"handle", h, "width", width, "height", height, "format", format.String(),
		"pool", e.textures.Len())
	return t, nil
}

// ReleaseTexture returns t to the pool. Releasing twice, releasing nil or
// releasing a texture of another Environment does nothing.
func (c *Context) ReleaseTexture(t *Texture) {
	if t == nil || c.check() != nil || t.env != c.env {
		return
	}
	c.env.textures.Release(t.entry)
}

// GetFBO returns an unused pooled framebuffer of width×height.
func (c *Context) GetFBO(width, height int) (*Framebuffer, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	e := c.env
	key := fboKey{width: width, height: height}

	if en, ok := e.fbos.Acquire(key); ok {
		return en.Value, nil
	}
	if e.fbos.Full() {
		return nil, fmt.Errorf("%w: %d framebuffers", ErrPoolExhausted, e.fbos.Len())
	}
	h, err := e.backend.CreateFramebuffer(width, height)
	if err != nil {
		return nil, fmt.Errorf("gpuframe: create framebuffer %dx%d: %w", width, height, err)
	}
	f := &Framebuffer{env: e, handle: h, width: width, height: height}
	en, err := e.fbos.Insert(key, f)
	if err != nil {
		e.backend.DestroyFramebuffer(h)
		return nil, errors.Join(ErrPoolExhausted, err)
	}
	f.entry = en

	Logger().Debug("gpuframe: framebuffer allocated", "handle", h, "width", width, "height", height)
	return f, nil
}

// ReleaseFBO returns f to the pool. Like ReleaseTexture it ignores nil,
// repeated releases and framebuffers of another Environment.
func (c *Context) ReleaseFBO(f *Framebuffer) {
	if f == nil || c.check() != nil || f.env != c.env {
		return
	}
	c.env.fbos.Release(f.entry)
}

// GetPBO returns the staging buffer, replacing it with a larger one when it
// holds fewer than size bytes. The buffer never shrinks and its contents
// are not preserved across growth.
func (c *Context) GetPBO(size int) (*StagingBuffer, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	e := c.env
	if e.pbo != nil && e.pbo.size >= size {
		return e.pbo, nil
	}
	h, err := e.backend.CreateStagingBuffer(size)
	if err != nil {
		return nil, fmt.Errorf("gpuframe: create staging buffer (%d bytes): %w", size, err)
	}
	if e.pbo != nil {
		e.backend.DestroyStagingBuffer(e.pbo.handle)
	}
	e.pbo = &StagingBuffer{handle: h, size: size}
	Logger().Debug("gpuframe: staging buffer grown", "size", size)
	return e.pbo, nil
}

// upload stages data and copies it into a new pooled texture.
func (c *Context) upload(data []byte, width, height int, format backend.TextureFormat) (*Texture, error) {
	size := format.Size(width, height)
	if len(data) < size {
		return nil, fmt.Errorf("%w: %d bytes for %dx%d %s", ErrShortBuffer, len(data), width, height, format)
	}
	pbo, err := c.GetPBO(size)
	if err != nil {
		return nil, err
	}
	b := c.env.backend
	if err := b.WriteStaging(pbo.handle, 0, data[:size]); err != nil {
		return nil, fmt.Errorf("gpuframe: stage: %w", err)
	}
	t, err := c.GetTexture(width, height, format)
	if err != nil {
		return nil, err
	}
	if err := b.UploadTexture(t.handle, pbo.handle, 0); err != nil {
		c.ReleaseTexture(t)
		return nil, fmt.Errorf("gpuframe: upload: %w", err)
	}
	return t, nil
}

// read copies the whole texture into a new buffer.
func (c *Context) read(t *Texture) ([]byte, error) {
	buf := make([]byte, t.format.Size(t.width, t.height))
	if err := c.env.backend.ReadTexture(t.handle, buf); err != nil {
		return nil, fmt.Errorf("gpuframe: read back %s: %w", t, err)
	}
	return buf, nil
}
