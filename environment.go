package gpuframe

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gpuframe/backend"
	"github.com/gogpu/gpuframe/internal/freelist"
)

// Environment owns one graphics backend together with everything allocated
// on it: the texture and framebuffer pools, the staging buffer, the shader
// cache and the bicubic lookup table.
//
// Create one per graphics device with NewEnvironment and tear it down with
// Close. All GPU work goes through Do, which serializes callers because a
// graphics context can be current on one goroutine at a time.
//
// Thread safety: Environment is safe for concurrent use. Context is not.
type Environment struct {
	mu sync.Mutex

	backend backend.GraphicsBackend
	caps    backend.Capabilities
	opts    envOptions

	textures *freelist.List[textureKey, *Texture]
	fbos     *freelist.List[fboKey, *Framebuffer]
	pbo      *StagingBuffer
	shaders  map[string]*Shader
	lut      *Texture

	closed bool
}

// NewEnvironment wraps b. The Environment takes ownership of b and closes
// it in Close. Capabilities are read once here.
func NewEnvironment(b backend.GraphicsBackend, opts ...EnvOption) (*Environment, error) {
	if b == nil {
		return nil, errors.New("gpuframe: nil backend")
	}
	o := defaultEnvOptions()
	for _, opt := range opts {
		opt(&o)
	}

	e := &Environment{
		backend:  b,
		caps:     b.Capabilities(),
		opts:     o,
		textures: freelist.New[textureKey, *Texture](o.maxEntries),
		fbos:     freelist.New[fboKey, *Framebuffer](o.maxEntries),
		shaders:  make(map[string]*Shader),
	}
	track(e)

	Logger().Info("gpuframe: environment created",
		"backend", b.Name(),
		"adapter", e.caps.Adapter,
		"accelerated", e.caps.Accelerated,
		"textureFloat", e.caps.TextureFloat,
		"profile", fmt.Sprintf("%dx%d %s", o.profile.Width, o.profile.Height, o.profile.Colorspace))
	return e, nil
}

// Open opens the named backend from the registry and wraps it. An empty
// name opens the best available backend.
func Open(name string, opts ...EnvOption) (*Environment, error) {
	var (
		b   backend.GraphicsBackend
		err error
	)
	if name == "" {
		b, err = backend.OpenDefault()
	} else {
		b, err = backend.Open(name)
	}
	if err != nil {
		return nil, err
	}
	return NewEnvironment(b, opts...)
}

// Accelerated reports whether passes run on a GPU.
func (e *Environment) Accelerated() bool { return e.caps.Accelerated }

// TextureFloat reports whether float textures are available. Without them
// bicubic rescaling falls back to bilinear.
func (e *Environment) TextureFloat() bool { return e.caps.TextureFloat }

// Capabilities returns what the backend detected at construction.
func (e *Environment) Capabilities() backend.Capabilities { return e.caps }

// Profile returns the default frame geometry.
func (e *Environment) Profile() Profile { return e.opts.profile }

// Interp returns the default interpolation mode.
func (e *Environment) Interp() string { return e.opts.interp }

// BackendName returns the name of the wrapped backend.
func (e *Environment) BackendName() string { return e.backend.Name() }

// Do takes the context lock, makes the backend current and runs fn with a
// Context that is valid until Do returns.
func (e *Environment) Do(fn func(*Context) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}
	if err := e.backend.MakeCurrent(); err != nil {
		return fmt.Errorf("gpuframe: make current: %w", err)
	}
	defer e.backend.DoneCurrent()

	c := &Context{env: e}
	defer func() { c.done = true }()
	return fn(c)
}

// PoolStats reports usage of one pool list.
type PoolStats struct {
	// Entries is the number of allocations held by the pool.
	Entries int
	// InUse is the number of entries currently checked out.
	InUse int
	// Allocations counts backend allocations.
	Allocations uint64
	// Reuses counts requests served from released entries.
	Reuses uint64
}

func poolStats(s freelist.Stats) PoolStats {
	return PoolStats{Entries: s.Entries, InUse: s.InUse, Allocations: s.Allocations, Reuses: s.Reuses}
}

// Stats is a snapshot of an Environment's resources.
type Stats struct {
	Textures     PoolStats
	Framebuffers PoolStats
	Shaders      int
	StagingBytes int
	LUT          bool
}

// Stats returns current resource counters.
func (e *Environment) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := Stats{
		Textures:     poolStats(e.textures.Stats()),
		Framebuffers: poolStats(e.fbos.Stats()),
		Shaders:      len(e.shaders),
		LUT:          e.lut != nil,
	}
	if e.pbo != nil {
		s.StagingBytes = e.pbo.size
	}
	return s
}

// Close frees every pooled resource and closes the backend. Textures still
// checked out become invalid. Close is idempotent.
func (e *Environment) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	untrack(e)

	if err := e.backend.MakeCurrent(); err == nil {
		e.destroyResources()
		e.backend.DoneCurrent()
	} else {
		Logger().Warn("gpuframe: close without current context", "err", err)
	}

	stats := e.textures.Stats()
	Logger().Info("gpuframe: environment closed",
		"textures", stats.Entries,
		"framebuffers", e.fbos.Len(),
		"shaders", len(e.shaders))

	e.textures.Reset()
	e.fbos.Reset()
	e.shaders = nil
	e.pbo = nil
	e.lut = nil

	if err := e.backend.Close(); err != nil {
		return fmt.Errorf("gpuframe: close backend: %w", err)
	}
	return nil
}

// destroyResources frees GPU objects. The LUT is a pooled texture and is
// freed with the texture list.
func (e *Environment) destroyResources() {
	e.textures.Each(func(en *freelist.Entry[textureKey, *Texture]) {
		e.backend.DestroyTexture(en.Value.handle)
	})
	e.fbos.Each(func(en *freelist.Entry[fboKey, *Framebuffer]) {
		e.backend.DestroyFramebuffer(en.Value.handle)
	})
	for _, sh := range e.shaders {
		e.backend.DestroyProgram(sh.handle)
	}
	if e.pbo != nil {
		e.backend.DestroyStagingBuffer(e.pbo.handle)
	}
}

// Context is the handle passed to Do. Pool, shader and render operations
// live here so they cannot run without the context lock.
type Context struct {
	env  *Environment
	done bool
}

func (c *Context) check() error {
	if c == nil || c.done {
		return ErrContextDone
	}
	return nil
}

// Environment returns the owning Environment.
func (c *Context) Environment() *Environment { return c.env }

// Backend returns the wrapped backend for direct calls. It must not be
// retained after Do returns.
func (c *Context) Backend() backend.GraphicsBackend { return c.env.backend }
