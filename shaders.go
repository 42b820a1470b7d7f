package gpuframe

import (
	"math"

	"github.com/gogpu/gpuframe/backend"
	"github.com/gogpu/gpuframe/internal/spline"
)

// Program names. They are the shader cache keys.
const (
	ProgramCopy          = "glsl_copy_frag"
	ProgramYUV420PToRGBA = "yuv420p_to_glsl_frag"
	ProgramYUV422ToRGBA  = "yuv422_to_glsl_frag"
	ProgramRGBAToYUV422  = "glsl_to_yuv422_frag"
	ProgramBicubicPass1  = "filter_bicubic_pass1_frag"
	ProgramBicubicPass2  = "filter_bicubic_pass2_frag"
	ProgramDissolve      = "transition_glsl_dissolve_frag"
	ProgramLinearBlend   = "filter_glsl_linearblend_frag"
)

var (
	filterable   = backend.SampleFilterable
	unfilterable = backend.SampleUnfilterable
)

var copySource = backend.NewProgram(nil, []backend.SampleType{filterable}, `
@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    return fetch0(in.coord);
}
`, func(_ backend.Uniforms, tex []backend.Sampler) backend.Shade {
	return tex[0].Sample
})

// yuv420pSource reads full-size Y and quarter-size U and V planes.
var yuv420pSource = backend.NewProgram(
	[]string{"r_coefs", "g_coefs", "b_coefs"},
	[]backend.SampleType{filterable, filterable, filterable}, `
@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    let yuv = vec4<f32>(
        fetch0(in.coord).r,
        fetch1(in.coord * 0.5).r,
        fetch2(in.coord * 0.5).r,
        1.0);
    return vec4<f32>(dot(yuv, params.r_coefs), dot(yuv, params.g_coefs), dot(yuv, params.b_coefs), 1.0);
}
`, func(u backend.Uniforms, tex []backend.Sampler) backend.Shade {
	r, g, b := u.Vec4("r_coefs"), u.Vec4("g_coefs"), u.Vec4("b_coefs")
	return func(x, y float32) [4]float32 {
		yv := tex[0].Sample(x, y)[0]
		uv := tex[1].Sample(x/2, y/2)[0]
		vv := tex[2].Sample(x/2, y/2)[0]
		return [4]float32{dot3(yv, uv, vv, r), dot3(yv, uv, vv, g), dot3(yv, uv, vv, b), 1}
	}
})

// yuv422Source reads a packed 4:2:2 texture uploaded as RG8: luma in .r,
// alternating U and V in .g starting with U at even columns.
var yuv422Source = backend.NewProgram(
	[]string{"r_coefs", "g_coefs", "b_coefs"},
	[]backend.SampleType{filterable}, `
@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    let odd = step(1.0, in.coord.x - 2.0 * floor(in.coord.x * 0.5));
    let cu = vec2<f32>(in.coord.x - odd, in.coord.y);
    let cv = vec2<f32>(cu.x + 1.0, in.coord.y);
    let yuv = vec4<f32>(fetch0(in.coord).r, fetch0(cu).g, fetch0(cv).g, 1.0);
    return vec4<f32>(dot(yuv, params.r_coefs), dot(yuv, params.g_coefs), dot(yuv, params.b_coefs), 1.0);
}
`, func(u backend.Uniforms, tex []backend.Sampler) backend.Shade {
	r, g, b := u.Vec4("r_coefs"), u.Vec4("g_coefs"), u.Vec4("b_coefs")
	return func(x, y float32) [4]float32 {
		ux := x - step(1, x-2*floor(x/2))
		yv := tex[0].Sample(x, y)[0]
		uv := tex[0].Sample(ux, y)[1]
		vv := tex[0].Sample(ux+1, y)[1]
		return [4]float32{dot3(yv, uv, vv, r), dot3(yv, uv, vv, g), dot3(yv, uv, vv, b), 1}
	}
})

// toYUV422Source renders half-width output where each texel packs the
// pixel pair (2x, 2x+1) as Y0 U Y1 V. Texture coordinates span the full
// source width so in.coord.x lands between the pair.
var toYUV422Source = backend.NewProgram(
	[]string{"y_coefs", "u_coefs", "v_coefs"},
	[]backend.SampleType{filterable}, `
@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    let rgb1 = vec4<f32>(fetch0(vec2<f32>(in.coord.x - 0.5, in.coord.y)).rgb, 1.0);
    let rgb2 = vec4<f32>(fetch0(vec2<f32>(in.coord.x + 0.5, in.coord.y)).rgb, 1.0);
    let u = (dot(rgb1, params.u_coefs) + dot(rgb2, params.u_coefs)) / 2.0;
    let v = (dot(rgb1, params.v_coefs) + dot(rgb2, params.v_coefs)) / 2.0;
    return vec4<f32>(dot(rgb1, params.y_coefs), u, dot(rgb2, params.y_coefs), v);
}
`, func(u backend.Uniforms, tex []backend.Sampler) backend.Shade {
	ym, um, vm := u.Vec4("y_coefs"), u.Vec4("u_coefs"), u.Vec4("v_coefs")
	return func(x, y float32) [4]float32 {
		c1 := tex[0].Sample(x-0.5, y)
		c2 := tex[0].Sample(x+0.5, y)
		return [4]float32{
			dot3(c1[0], c1[1], c1[2], ym),
			(dot3(c1[0], c1[1], c1[2], um) + dot3(c2[0], c2[1], c2[2], um)) / 2,
			dot3(c2[0], c2[1], c2[2], ym),
			(dot3(c1[0], c1[1], c1[2], vm) + dot3(c2[0], c2[1], c2[2], vm)) / 2,
		}
	}
})

// The bicubic passes filter along one axis each. tex1 is the spline LUT,
// one row per kernel, selected by the spline uniform.
var bicubicPass1Source = backend.NewProgram(
	[]string{"spline"},
	[]backend.SampleType{filterable, unfilterable}, `
@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    let tc = vec2<f32>(floor(in.coord.x - 0.5) + 0.5, in.coord.y);
    let w = fetch1(vec2<f32>(abs(in.coord.x - tc.x) * 1000.0, params.spline.x + 0.5));
    var sum = vec4<f32>(0.0);
    for (var i = 0; i < 4; i++) {
        sum += fetch0(tc + vec2<f32>(f32(i - 1), 0.0)) * w[i];
    }
    return sum / (w.x + w.y + w.z + w.w);
}
`, bicubicKernel(true))

var bicubicPass2Source = backend.NewProgram(
	[]string{"spline"},
	[]backend.SampleType{filterable, unfilterable}, `
@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    let tc = vec2<f32>(in.coord.x, floor(in.coord.y - 0.5) + 0.5);
    let w = fetch1(vec2<f32>(abs(in.coord.y - tc.y) * 1000.0, params.spline.x + 0.5));
    var sum = vec4<f32>(0.0);
    for (var i = 0; i < 4; i++) {
        sum += fetch0(tc + vec2<f32>(0.0, f32(i - 1))) * w[i];
    }
    return sum / (w.x + w.y + w.z + w.w);
}
`, bicubicKernel(false))

func bicubicKernel(horizontal bool) backend.Kernel {
	return func(u backend.Uniforms, tex []backend.Sampler) backend.Shade {
		row := u.Float("spline") + 0.5
		return func(x, y float32) [4]float32 {
			pos := y
			if horizontal {
				pos = x
			}
			tc := floor(pos-0.5) + 0.5
			frac := pos - tc
			if frac < 0 {
				frac = -frac
			}
			w := tex[1].Sample(float32(spline.Index(frac))+0.5, row)

			var sum [4]float32
			for i := range 4 {
				var c [4]float32
				if horizontal {
					c = tex[0].Sample(tc+float32(i-1), y)
				} else {
					c = tex[0].Sample(x, tc+float32(i-1))
				}
				for k := range sum {
					sum[k] += c[k] * w[i]
				}
			}
			total := w[0] + w[1] + w[2] + w[3]
			for k := range sum {
				sum[k] /= total
			}
			return sum
		}
	}
}

var dissolveSource = backend.NewProgram(
	[]string{"mix"},
	[]backend.SampleType{filterable, filterable}, `
@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    let a = fetch0(in.coord);
    let b = fetch1(in.coord);
    return vec4<f32>(mix(a.rgb, b.rgb, params.mix.x), a.a);
}
`, func(u backend.Uniforms, tex []backend.Sampler) backend.Shade {
	m := u.Float("mix")
	return func(x, y float32) [4]float32 {
		a := tex[0].Sample(x, y)
		b := tex[1].Sample(x, y)
		return [4]float32{
			a[0]*(1-m) + b[0]*m,
			a[1]*(1-m) + b[1]*m,
			a[2]*(1-m) + b[2]*m,
			a[3],
		}
	}
})

var linearBlendSource = backend.NewProgram(nil, []backend.SampleType{filterable}, `
@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    var blend = 2.0 * fetch0(in.coord);
    blend += fetch0(vec2<f32>(in.coord.x, in.coord.y - 1.0));
    blend += fetch0(vec2<f32>(in.coord.x, in.coord.y + 1.0));
    return blend / 4.0;
}
`, func(_ backend.Uniforms, tex []backend.Sampler) backend.Shade {
	return func(x, y float32) [4]float32 {
		c := tex[0].Sample(x, y)
		up := tex[0].Sample(x, y-1)
		down := tex[0].Sample(x, y+1)
		var out [4]float32
		for k := range out {
			out[k] = (2*c[k] + up[k] + down[k]) / 4
		}
		return out
	}
})

func dot3(a, b, c float32, m [4]float32) float32 {
	return a*m[0] + b*m[1] + c*m[2] + m[3]
}

func floor(x float32) float32 { return float32(math.Floor(float64(x))) }

func step(edge, x float32) float32 {
	if x < edge {
		return 0
	}
	return 1
}

func matrixUniforms(m Matrix, names ...string) backend.UniformValues {
	u := make(backend.UniformValues, len(names))
	for i, name := range names {
		u[i] = backend.Vec4(name, m.Row(i))
	}
	return u
}
