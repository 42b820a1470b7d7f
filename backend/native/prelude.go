//go:build !nogpu

package native

// vertexPrelude is prepended to every program's fragment source. It expands
// one quad from the vertex index, mapping quad.dst (target pixels, y down)
// to clip space and interpolating quad.src as texel coordinates.
const vertexPrelude = `
struct Quad {
    dst: vec4<f32>,
    src: vec4<f32>,
    size: vec4<f32>,
}

@group(0) @binding(0) var<uniform> quad: Quad;

struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) coord: vec2<f32>,
}

@vertex
fn vs_main(@builtin(vertex_index) vi: u32) -> VertexOutput {
    let cx = select(0.0, 1.0, vi == 1u || vi == 4u || vi == 5u);
    let cy = select(0.0, 1.0, vi == 2u || vi == 3u || vi == 5u);
    let c = vec2<f32>(cx, cy);
    let p = mix(quad.dst.xy, quad.dst.zw, c);
    var out: VertexOutput;
    out.position = vec4<f32>(p.x / quad.size.x * 2.0 - 1.0, 1.0 - p.y / quad.size.y * 2.0, 0.0, 1.0);
    out.coord = mix(quad.src.xy, quad.src.zw, c);
    return out;
}
`

// quadUniformSize is the byte size of the Quad struct above.
const quadUniformSize = 48
