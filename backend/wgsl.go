package backend

import (
	"fmt"
	"strings"
)

// NewProgram builds a ProgramSource whose WGSL declares the params struct
// for uniforms and the texture/sampler pairs for textures, followed by body.
//
// For each texture unit i the generated source also defines
//
//	fn fetch{i}(coord: vec2<f32>) -> vec4<f32>
//
// which samples tex{i} at texel-space coordinates, the same addressing as
// Sampler.Sample. body must define fs_main.
func NewProgram(uniforms []string, textures []SampleType, body string, kernel Kernel) *ProgramSource {
	decls := make([]UniformDecl, len(uniforms))
	for i, name := range uniforms {
		decls[i] = UniformDecl{Name: name}
	}
	return &ProgramSource{
		WGSL:     BuildWGSL(decls, textures, body),
		Uniforms: decls,
		Textures: textures,
		Kernel:   kernel,
	}
}

// BuildWGSL assembles fragment source following the binding layout described
// on ProgramSource.
func BuildWGSL(uniforms []UniformDecl, textures []SampleType, body string) string {
	var sb strings.Builder
	if len(uniforms) > 0 {
		sb.WriteString("struct Params {\n")
		for _, u := range uniforms {
			fmt.Fprintf(&sb, "    %s: vec4<f32>,\n", u.Name)
		}
		sb.WriteString("}\n\n@group(0) @binding(1) var<uniform> params: Params;\n\n")
	}
	for i := range textures {
		fmt.Fprintf(&sb, "@group(0) @binding(%d) var tex%d: texture_2d<f32>;\n", 2+2*i, i)
		fmt.Fprintf(&sb, "@group(0) @binding(%d) var samp%d: sampler;\n\n", 3+2*i, i)
		fmt.Fprintf(&sb, "fn fetch%d(coord: vec2<f32>) -> vec4<f32> {\n", i)
		fmt.Fprintf(&sb, "    return textureSampleLevel(tex%d, samp%d, coord / vec2<f32>(textureDimensions(tex%d)), 0.0);\n", i, i, i)
		sb.WriteString("}\n\n")
	}
	sb.WriteString(body)
	return sb.String()
}
