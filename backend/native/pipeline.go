//go:build !nogpu

package native

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/gpuframe/backend"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

type program struct {
	name      string
	src       *backend.ProgramSource
	module    hal.ShaderModule
	bindings  hal.BindGroupLayout
	layout    hal.PipelineLayout
	pipelines map[gputypes.TextureFormat]hal.RenderPipeline
}

// compileSPIRV compiles WGSL to SPIR-V words.
func compileSPIRV(source string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(source)
	if err != nil {
		return nil, err
	}
	// SPIR-V is little-endian 32-bit words
	code := make([]uint32, len(spirvBytes)/4)
	for i := range code {
		code[i] = binary.LittleEndian.Uint32(spirvBytes[i*4:])
	}
	return code, nil
}

// bindingLayout describes binding 0 (quad), binding 1 (params, when the
// program has uniforms) and one texture/sampler pair per texture unit.
func bindingLayout(src *backend.ProgramSource) []gputypes.BindGroupLayoutEntry {
	entries := []gputypes.BindGroupLayoutEntry{{
		Binding:    0,
		Visibility: gputypes.ShaderStageVertex,
		Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
	}}
	if len(src.Uniforms) > 0 {
		entries = append(entries, gputypes.BindGroupLayoutEntry{
			Binding:    1,
			Visibility: gputypes.ShaderStageFragment,
			Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
		})
	}
	for i, st := range src.Textures {
		sampleType := gputypes.TextureSampleTypeFloat
		samplerType := gputypes.SamplerBindingTypeFiltering
		if st == backend.SampleUnfilterable {
			sampleType = gputypes.TextureSampleTypeUnfilterableFloat
			samplerType = gputypes.SamplerBindingTypeNonFiltering
		}
		entries = append(entries,
			gputypes.BindGroupLayoutEntry{
				Binding:    uint32(2 + 2*i),
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    sampleType,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			gputypes.BindGroupLayoutEntry{
				Binding:    uint32(3 + 2*i),
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: samplerType},
			},
		)
	}
	return entries
}

// CompileProgram compiles the program's fragment source together with the
// shared vertex stage. Pipelines are created on first draw per target format.
func (b *Backend) CompileProgram(name string, src *backend.ProgramSource) (backend.ProgramHandle, error) {
	if err := b.check(); err != nil {
		return backend.InvalidHandle, err
	}
	if src == nil || src.WGSL == "" {
		return backend.InvalidHandle, fmt.Errorf("%w: %s: no WGSL source", backend.ErrCompile, name)
	}
	code, err := compileSPIRV(vertexPrelude + src.WGSL)
	if err != nil {
		b.logger().Warn("native: shader compile failed", "program", name, "err", err)
		return backend.InvalidHandle, fmt.Errorf("%w: %s: %w", backend.ErrCompile, name, err)
	}

	p := &program{name: name, src: src, pipelines: make(map[gputypes.TextureFormat]hal.RenderPipeline)}
	p.module, err = b.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  name,
		Source: hal.ShaderSource{SPIRV: code},
	})
	if err != nil {
		return backend.InvalidHandle, fmt.Errorf("%w: %s: create module: %w", backend.ErrCompile, name, err)
	}
	p.bindings, err = b.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   name + "_bind_layout",
		Entries: bindingLayout(src),
	})
	if err != nil {
		b.destroyProgram(p)
		return backend.InvalidHandle, fmt.Errorf("native: %s: bind group layout: %w", name, err)
	}
	p.layout, err = b.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            name + "_pipeline_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.bindings},
	})
	if err != nil {
		b.destroyProgram(p)
		return backend.InvalidHandle, fmt.Errorf("native: %s: pipeline layout: %w", name, err)
	}

	h := backend.ProgramHandle(b.newID())
	b.programs[h] = p
	b.logger().Debug("native: program compiled", "program", name, "spirv_words", len(code))
	return h, nil
}

func (b *Backend) pipeline(p *program, format gputypes.TextureFormat) (hal.RenderPipeline, error) {
	if rp, ok := p.pipelines[format]; ok {
		return rp, nil
	}
	rp, err := b.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:       p.name,
		Layout:      p.layout,
		Vertex:      hal.VertexState{Module: p.module, EntryPoint: "vs_main"},
		Primitive:   gputypes.PrimitiveState{Topology: gputypes.PrimitiveTopologyTriangleList},
		Multisample: gputypes.DefaultMultisampleState(),
		Fragment: &hal.FragmentState{
			Module:     p.module,
			EntryPoint: "fs_main",
			Targets:    []gputypes.ColorTargetState{{Format: format, WriteMask: gputypes.ColorWriteMaskAll}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("native: %s: create pipeline: %w", p.name, err)
	}
	p.pipelines[format] = rp
	return rp, nil
}

// DestroyProgram frees a program and its cached pipelines.
func (b *Backend) DestroyProgram(prog backend.ProgramHandle) {
	p, ok := b.programs[prog]
	if !ok {
		return
	}
	delete(b.programs, prog)
	b.destroyProgram(p)
}

func (b *Backend) destroyProgram(p *program) {
	for _, rp := range p.pipelines {
		b.device.DestroyRenderPipeline(rp)
	}
	if p.layout != nil {
		b.device.DestroyPipelineLayout(p.layout)
	}
	if p.bindings != nil {
		b.device.DestroyBindGroupLayout(p.bindings)
	}
	if p.module != nil {
		b.device.DestroyShaderModule(p.module)
	}
}

func putVec4(dst []byte, v [4]float32) {
	for i, f := range v {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(f))
	}
}

// uniformBuffer creates a uniform buffer holding data.
func (b *Backend) uniformBuffer(label string, data []byte) (hal.Buffer, error) {
	buf, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("native: create uniform buffer: %w", err)
	}
	if err := b.queue.WriteBuffer(buf, 0, data); err != nil {
		b.device.DestroyBuffer(buf)
		return nil, fmt.Errorf("native: write uniform buffer: %w", err)
	}
	return buf, nil
}

// Draw renders one quad and waits for it to complete.
func (b *Backend) Draw(pass *backend.Pass) error {
	if err := b.check(); err != nil {
		return err
	}
	p, ok := b.programs[pass.Program]
	if !ok {
		return fmt.Errorf("%w: program %d", backend.ErrInvalidHandle, pass.Program)
	}
	fb, ok := b.framebuffers[pass.Framebuffer]
	if !ok {
		return fmt.Errorf("%w: framebuffer %d", backend.ErrInvalidHandle, pass.Framebuffer)
	}
	target, ok := b.textures[pass.Target]
	if !ok {
		return fmt.Errorf("%w: target texture %d", backend.ErrInvalidHandle, pass.Target)
	}
	if fb.width != target.width || fb.height != target.height {
		return fmt.Errorf("%w: framebuffer %dx%d with %dx%d target",
			backend.ErrInvalidSize, fb.width, fb.height, target.width, target.height)
	}
	if len(pass.Textures) < len(p.src.Textures) {
		return fmt.Errorf("%w: %s needs %d textures, got %d",
			backend.ErrInvalidHandle, p.name, len(p.src.Textures), len(pass.Textures))
	}
	inputs := make([]*texture, len(p.src.Textures))
	for i := range inputs {
		t, ok := b.textures[pass.Textures[i]]
		if !ok {
			return fmt.Errorf("%w: texture %d bound to unit %d", backend.ErrInvalidHandle, pass.Textures[i], i)
		}
		inputs[i] = t
	}

	format, _ := halFormat(target.format)
	rp, err := b.pipeline(p, format)
	if err != nil {
		return err
	}

	quad := pass.Quad
	if quad.Empty() {
		quad = backend.RectWH(target.width, target.height)
	}
	quadData := make([]byte, quadUniformSize)
	putVec4(quadData[0:], [4]float32{quad.X0, quad.Y0, quad.X1, quad.Y1})
	tc := pass.TexCoords
	putVec4(quadData[16:], [4]float32{tc.X0, tc.Y0, tc.X1, tc.Y1})
	putVec4(quadData[32:], [4]float32{float32(target.width), float32(target.height), 0, 0})

	quadBuf, err := b.uniformBuffer(p.name+"_quad", quadData)
	if err != nil {
		return err
	}
	defer b.device.DestroyBuffer(quadBuf)

	entries := []gputypes.BindGroupEntry{{
		Binding:  0,
		Resource: gputypes.BufferBinding{Buffer: quadBuf.NativeHandle(), Offset: 0, Size: quadUniformSize},
	}}
	if n := len(p.src.Uniforms); n > 0 {
		params := make([]byte, 16*n)
		for i, decl := range p.src.Uniforms {
			putVec4(params[16*i:], pass.Uniforms.Vec4(decl.Name))
		}
		paramBuf, err := b.uniformBuffer(p.name+"_params", params)
		if err != nil {
			return err
		}
		defer b.device.DestroyBuffer(paramBuf)
		entries = append(entries, gputypes.BindGroupEntry{
			Binding:  1,
			Resource: gputypes.BufferBinding{Buffer: paramBuf.NativeHandle(), Offset: 0, Size: uint64(len(params))},
		})
	}
	for i, t := range inputs {
		s := b.nearest
		if t.filter == backend.FilterLinear && !t.format.IsFloat() && p.src.Textures[i] == backend.SampleFilterable {
			s = b.linear
		}
		entries = append(entries,
			gputypes.BindGroupEntry{
				Binding:  uint32(2 + 2*i),
				Resource: gputypes.TextureViewBinding{TextureView: t.view.NativeHandle()},
			},
			gputypes.BindGroupEntry{
				Binding:  uint32(3 + 2*i),
				Resource: gputypes.SamplerBinding{Sampler: s.NativeHandle()},
			},
		)
	}

	group, err := b.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   p.name + "_bind_group",
		Layout:  p.bindings,
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("native: %s: create bind group: %w", p.name, err)
	}
	defer b.device.DestroyBindGroup(group)

	loadOp := gputypes.LoadOpLoad
	if pass.Clear {
		loadOp = gputypes.LoadOpClear
	}
	label := pass.Label
	if label == "" {
		label = p.name
	}
	return b.submit(label, func(encoder hal.CommandEncoder) {
		rpass := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
			Label: label,
			ColorAttachments: []hal.RenderPassColorAttachment{{
				View:       target.view,
				LoadOp:     loadOp,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: gputypes.Color{R: 0, G: 0, B: 0, A: 0},
			}},
		})
		rpass.SetPipeline(rp)
		rpass.SetBindGroup(0, group, nil)
		rpass.SetViewport(0, 0, float32(target.width), float32(target.height), 0, 1)
		rpass.Draw(6, 1, 0, 0)
		rpass.End()
	})
}
