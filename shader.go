package gpuframe

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpuframe/backend"
)

// Shader is a compiled program held by the shader cache.
type Shader struct {
	name   string
	handle backend.ProgramHandle
	source *backend.ProgramSource
}

// Name returns the cache key.
func (s *Shader) Name() string { return s.name }

// Handle returns the backend program handle.
func (s *Shader) Handle() backend.ProgramHandle { return s.handle }

// Source returns the source the program was compiled from.
func (s *Shader) Source() *backend.ProgramSource { return s.source }

// GetShader returns the program cached under name, compiling src on the
// first request. The name is the only key: a later call with different
// source returns the program compiled from the first one.
//
// Compile failures are not cached and wrap ErrShaderCompile.
func (c *Context) GetShader(name string, src *backend.ProgramSource) (*Shader, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	e := c.env
	if sh, ok := e.shaders[name]; ok {
		return sh, nil
	}
	if src == nil {
		return nil, fmt.Errorf("%w: %s: no source", ErrShaderCompile, name)
	}

	h, err := e.backend.CompileProgram(name, src)
	if err != nil {
		Logger().Warn("gpuframe: shader compile failed", "name", name, "err", err)
		return nil, fmt.Errorf("%w: %s: %w", ErrShaderCompile, name, err)
	}
	sh := &Shader{name: name, handle: h, source: src}
	e.shaders[name] = sh
	Logger().Debug("gpuframe: shader compiled", "name", name, "handle", h)
	return sh, nil
}

// Pass describes one render into a pooled texture.
type Pass struct {
	// Shader is the program to run. A nil Shader copies Inputs[0].
	Shader *Shader

	// Inputs are bound to texture units in order.
	Inputs []*Texture

	// Uniforms are the program's uniform values.
	Uniforms backend.UniformValues

	// Target receives the output. When nil a pooled texture of
	// Width×Height and Format (RGBA8 when zero) is taken from the pool,
	// and the pass always clears it first.
	Target        *Texture
	Width, Height int
	Format        backend.TextureFormat

	// Quad is the destination rectangle; empty means the whole target.
	Quad backend.Rect

	// TexCoords are the texel-space coordinates at the Quad corners.
	// Empty means the full extent of Inputs[0], or of the target when
	// there are no inputs.
	TexCoords backend.Rect

	// Clear clears an explicit Target before drawing.
	Clear bool
}

// Render runs p and returns the texture it drew into. A texture taken from
// the pool for the pass is released again if the draw fails.
func (c *Context) Render(p Pass) (*Texture, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	sh := p.Shader
	if sh == nil {
		if len(p.Inputs) == 0 {
			return nil, errors.New("gpuframe: copy pass without input")
		}
		var err error
		if sh, err = c.GetShader(ProgramCopy, copySource); err != nil {
			return nil, err
		}
	}

	target := p.Target
	clearTarget := p.Clear
	owned := false
	if target == nil {
		format := p.Format
		if format == backend.FormatInvalid {
			format = backend.FormatRGBA8
		}
		var err error
		if target, err = c.GetTexture(p.Width, p.Height, format); err != nil {
			return nil, err
		}
		owned = true
		clearTarget = true
	}

	fbo, err := c.GetFBO(target.width, target.height)
	if err != nil {
		if owned {
			c.ReleaseTexture(target)
		}
		return nil, err
	}
	defer c.ReleaseFBO(fbo)

	texcoords := p.TexCoords
	if texcoords.Empty() {
		if len(p.Inputs) > 0 {
			texcoords = p.Inputs[0].Rect()
		} else {
			texcoords = target.Rect()
		}
	}
	handles := make([]backend.TextureHandle, len(p.Inputs))
	for i, t := range p.Inputs {
		handles[i] = t.handle
	}

	err = c.env.backend.Draw(&backend.Pass{
		Label:       sh.name,
		Program:     sh.handle,
		Framebuffer: fbo.handle,
		Target:      target.handle,
		Quad:        p.Quad,
		TexCoords:   texcoords,
		Textures:    handles,
		Uniforms:    p.Uniforms,
		Clear:       clearTarget,
	})
	if err != nil {
		if owned {
			c.ReleaseTexture(target)
		}
		return nil, fmt.Errorf("gpuframe: %s pass: %w", sh.name, err)
	}
	return target, nil
}

// setFilter sets the sampling filter of t for the next pass.
func (c *Context) setFilter(t *Texture, f backend.Filter) error {
	if err := c.env.backend.SetTextureFilter(t.handle, f); err != nil {
		return fmt.Errorf("gpuframe: set %s filter: %w", f, err)
	}
	return nil
}
