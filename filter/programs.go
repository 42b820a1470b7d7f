package filter

import (
	"math"

	"github.com/gogpu/gpuframe/backend"
)

type program struct {
	name   string
	params []string
	source *backend.ProgramSource
}

func (p program) uniforms(values ...float32) backend.UniformValues {
	u := make(backend.UniformValues, 0, len(values))
	for i, v := range values {
		u = append(u, backend.Float(p.params[i], v))
	}
	return u
}

func newProgram(name string, params []string, body string, kernel func(u backend.Uniforms) func(c [4]float32, x, y float32, s backend.Sampler) [4]float32) program {
	src := backend.NewProgram(params, []backend.SampleType{backend.SampleFilterable}, body,
		func(u backend.Uniforms, tex []backend.Sampler) backend.Shade {
			fn := kernel(u)
			return func(x, y float32) [4]float32 {
				return fn(tex[0].Sample(x, y), x, y, tex[0])
			}
		})
	return program{name: name, params: params, source: src}
}

var brightnessProgram = newProgram("filter_glsl_brightness_frag", []string{"brightness"}, `
@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    let col = fetch0(in.coord);
    let b = params.brightness.x;
    var rgb: vec3<f32>;
    if (b < 0.0) {
        rgb = col.rgb * (1.0 + b);
    } else {
        rgb = col.rgb + (1.0 - col.rgb) * b;
    }
    return vec4<f32>(rgb, col.a);
}
`, func(u backend.Uniforms) func([4]float32, float32, float32, backend.Sampler) [4]float32 {
	b := u.Float("brightness")
	return func(c [4]float32, _, _ float32, _ backend.Sampler) [4]float32 {
		for i := range 3 {
			if b < 0 {
				c[i] *= 1 + b
			} else {
				c[i] += (1 - c[i]) * b
			}
		}
		return c
	}
})

var gammaProgram = newProgram("filter_glsl_gamma_frag", []string{"gamma"}, `
@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    let col = fetch0(in.coord);
    return vec4<f32>(pow(col.rgb, vec3<f32>(1.0 / params.gamma.x)), col.a);
}
`, func(u backend.Uniforms) func([4]float32, float32, float32, backend.Sampler) [4]float32 {
	exp := 1 / float64(u.Float("gamma"))
	return func(c [4]float32, _, _ float32, _ backend.Sampler) [4]float32 {
		for i := range 3 {
			c[i] = float32(math.Pow(float64(c[i]), exp))
		}
		return c
	}
})

// Rec.709 luma weights.
var greyscaleProgram = newProgram("filter_glsl_greyscale_frag", nil, `
@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    let col = fetch0(in.coord);
    let luma = dot(col.rgb, vec3<f32>(0.212671, 0.71516, 0.072169));
    return vec4<f32>(vec3<f32>(luma), col.a);
}
`, func(backend.Uniforms) func([4]float32, float32, float32, backend.Sampler) [4]float32 {
	return func(c [4]float32, _, _ float32, _ backend.Sampler) [4]float32 {
		l := c[0]*0.212671 + c[1]*0.71516 + c[2]*0.072169
		return [4]float32{l, l, l, c[3]}
	}
})

// swapFieldsProgram exchanges each even line with the odd line below it.
var swapFieldsProgram = newProgram("filter_glsl_swap_fields_frag", nil, `
@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    let odd = step(1.0, in.coord.y - 2.0 * floor(in.coord.y * 0.5));
    return fetch0(vec2<f32>(in.coord.x, in.coord.y + 1.0 - 2.0 * odd));
}
`, func(backend.Uniforms) func([4]float32, float32, float32, backend.Sampler) [4]float32 {
	return func(_ [4]float32, x, y float32, s backend.Sampler) [4]float32 {
		odd := float32(0)
		if y-2*float32(math.Floor(float64(y/2))) >= 1 {
			odd = 1
		}
		return s.Sample(x, y+1-2*odd)
	}
})
