package backend

// SampleType describes how a program samples a texture unit.
type SampleType uint8

const (
	// SampleFilterable units may be bound with nearest or linear filtering.
	SampleFilterable SampleType = iota

	// SampleUnfilterable units hold float textures read with nearest filtering.
	SampleUnfilterable
)

// UniformDecl declares one uniform of a program. Each uniform occupies a
// vec4<f32> slot in declaration order; scalars use the x component.
type UniformDecl struct {
	Name string
}

// ProgramSource is the source of a fragment program.
type ProgramSource struct {
	// WGSL is the fragment stage. It must define
	//
	//	@fragment fn fs_main(in: VertexOutput) -> @location(0) vec4<f32>
	//
	// and may declare `@group(0) @binding(1) var<uniform> params: Params;`
	// with one vec4<f32> field per entry of Uniforms, and texture/sampler
	// pairs tex{i}/samp{i} at bindings 2+2i and 3+2i.
	WGSL string

	// Uniforms lists the program's uniforms in declaration order.
	Uniforms []UniformDecl

	// Textures lists the texture units the program reads.
	Textures []SampleType

	// Kernel is the CPU rendition of the fragment stage.
	Kernel Kernel
}

// Sampler reads one bound texture unit.
type Sampler interface {
	// Size returns the texture dimensions in texels.
	Size() (width, height int)

	// Sample reads at texel-space coordinates (x, y) using the texture's
	// filter and clamp-to-edge addressing. Texel centers lie at i+0.5.
	Sample(x, y float32) [4]float32
}

// Uniforms resolves uniform values by name. Unknown names read as zero.
type Uniforms interface {
	Float(name string) float32
	Vec4(name string) [4]float32
}

// Shade computes the output color at interpolated texture coordinates.
type Shade func(x, y float32) [4]float32

// Kernel binds uniforms and textures for one draw and returns the per-fragment
// function. It is called once per pass, so uniform lookups happen per draw.
type Kernel func(u Uniforms, tex []Sampler) Shade

// Uniform is a named uniform value for one pass.
type Uniform struct {
	Name  string
	Value [4]float32
}

// Float returns a scalar uniform.
func Float(name string, v float32) Uniform {
	return Uniform{Name: name, Value: [4]float32{v}}
}

// Vec4 returns a vector uniform.
func Vec4(name string, v [4]float32) Uniform {
	return Uniform{Name: name, Value: v}
}

// UniformValues is a list of uniforms searched by name.
type UniformValues []Uniform

// Float returns the x component of the named uniform.
func (u UniformValues) Float(name string) float32 {
	return u.Vec4(name)[0]
}

// Vec4 returns the named uniform.
func (u UniformValues) Vec4(name string) [4]float32 {
	for i := range u {
		if u[i].Name == name {
			return u[i].Value
		}
	}
	return [4]float32{}
}

// Pass describes one draw of a textured quad into a framebuffer.
type Pass struct {
	// Label names the pass in diagnostics.
	Label string

	// Program is the compiled program to run.
	Program ProgramHandle

	// Framebuffer is the render target wrapper; Target is the texture
	// attached to it as color attachment 0. They must have the same size.
	Framebuffer FramebufferHandle
	Target      TextureHandle

	// Quad is the destination rectangle in target pixels. An empty Quad
	// covers the whole target.
	Quad Rect

	// TexCoords are the texture coordinates at the Quad corners, in texel
	// units. They are interpolated across the quad.
	TexCoords Rect

	// Textures are bound to units 0..n-1 in order.
	Textures []TextureHandle

	// Uniforms are the program's uniform values.
	Uniforms UniformValues

	// Clear clears the target to transparent black before drawing.
	// Otherwise pixels outside Quad keep their contents.
	Clear bool
}
