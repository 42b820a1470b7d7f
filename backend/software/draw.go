package software

import (
	"fmt"
	"math"

	"github.com/gogpu/gpuframe/backend"
)

// sampler reads a texture with clamp-to-edge addressing in texel units.
type sampler struct {
	t *texture
}

func (s sampler) Size() (int, int) { return s.t.width, s.t.height }

func (s sampler) Sample(x, y float32) [4]float32 {
	if s.t.filter == backend.FilterLinear {
		return s.linear(x, y)
	}
	return s.texel(int(math.Floor(float64(x))), int(math.Floor(float64(y))))
}

func (s sampler) texel(x, y int) [4]float32 {
	x = clampInt(x, 0, s.t.width-1)
	y = clampInt(y, 0, s.t.height-1)
	i := (y*s.t.width + x) * 4
	p := s.t.texels[i : i+4 : i+4]
	return [4]float32{p[0], p[1], p[2], p[3]}
}

// linear interpolates between the four texel centers around (x, y).
func (s sampler) linear(x, y float32) [4]float32 {
	fx := float64(x) - 0.5
	fy := float64(y) - 0.5
	x0 := math.Floor(fx)
	y0 := math.Floor(fy)
	ax := float32(fx - x0)
	ay := float32(fy - y0)
	ix, iy := int(x0), int(y0)

	c00 := s.texel(ix, iy)
	c10 := s.texel(ix+1, iy)
	c01 := s.texel(ix, iy+1)
	c11 := s.texel(ix+1, iy+1)

	var out [4]float32
	for c := range out {
		top := c00[c] + (c10[c]-c00[c])*ax
		bottom := c01[c] + (c11[c]-c01[c])*ax
		out[c] = top + (bottom-top)*ay
	}
	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Draw rasterizes the pass quad. Pixel centers inside the quad are shaded;
// a new texel array replaces the target's so a texture may be both bound and
// rendered to within one pass.
func (b *Backend) Draw(pass *backend.Pass) error {
	if err := b.check(); err != nil {
		return err
	}
	prog, ok := b.programs[pass.Program]
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
	if len(pass.Textures) < len(prog.src.Textures) {
		return fmt.Errorf("%w: %s needs %d textures, got %d",
			backend.ErrInvalidHandle, prog.name, len(prog.src.Textures), len(pass.Textures))
	}

	samplers := make([]backend.Sampler, len(pass.Textures))
	for i, h := range pass.Textures {
		t, ok := b.textures[h]
		if !ok {
			return fmt.Errorf("%w: texture %d bound to unit %d", backend.ErrInvalidHandle, h, i)
		}
		samplers[i] = sampler{t: t}
	}

	quad := pass.Quad
	if quad.Empty() {
		quad = backend.RectWH(target.width, target.height)
	}
	px0 := clampInt(pixelStart(quad.X0), 0, target.width)
	px1 := clampInt(pixelStart(quad.X1), 0, target.width)
	py0 := clampInt(pixelStart(quad.Y0), 0, target.height)
	py1 := clampInt(pixelStart(quad.Y1), 0, target.height)

	out := make([]float32, len(target.texels))
	if !pass.Clear {
		copy(out, target.texels)
	}

	if px1 > px0 && py1 > py0 {
		shade := prog.src.Kernel(pass.Uniforms, samplers)
		tc := pass.TexCoords
		sx := (tc.X1 - tc.X0) / (quad.X1 - quad.X0)
		sy := (tc.Y1 - tc.Y0) / (quad.Y1 - quad.Y0)
		format := target.format
		width := target.width

		b.pool.Rows(py1-py0, func(r0, r1 int) {
			for py := py0 + r0; py < py0+r1; py++ {
				cy := tc.Y0 + (float32(py)+0.5-quad.Y0)*sy
				row := out[py*width*4:]
				for px := px0; px < px1; px++ {
					cx := tc.X0 + (float32(px)+0.5-quad.X0)*sx
					store(row[px*4:px*4+4], shade(cx, cy), format)
				}
			}
		})
	}

	target.texels = out
	b.stats.Draws++
	return nil
}

// pixelStart returns the first pixel whose center is at or after edge.
func pixelStart(edge float32) int {
	return int(math.Ceil(float64(edge) - 0.5))
}

// store writes c into dst as the target format would hold it.
func store(dst []float32, c [4]float32, format backend.TextureFormat) {
	switch format {
	case backend.FormatR8:
		dst[0], dst[1], dst[2], dst[3] = quantize(c[0]), 0, 0, 1
	case backend.FormatRG8:
		dst[0], dst[1], dst[2], dst[3] = quantize(c[0]), quantize(c[1]), 0, 1
	case backend.FormatRGBA8:
		for i := range 4 {
			dst[i] = quantize(c[i])
		}
	default:
		copy(dst, c[:])
	}
}

func quantize(v float32) float32 { return float32(toByte(v)) / 255 }
