package gpuframe

import (
	"fmt"

	"github.com/gogpu/gpuframe/backend"
)

// UploadImage copies a host image into a pooled RGBA texture. Packed RGB
// is widened to RGBA on the way; YUV images are uploaded as planes and
// converted with the matrix for cs.
func (c *Context) UploadImage(img []byte, format Format, width, height int, cs Colorspace) (*Texture, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	if !format.IsNative() {
		return nil, fmt.Errorf("%w: upload from %s", ErrUnsupportedFormat, format)
	}
	if err := format.checkSize(width, height); err != nil {
		return nil, err
	}
	if n := format.BufferSize(width, height); len(img) < n {
		return nil, fmt.Errorf("%w: %d bytes for %dx%d %s, need %d", ErrShortBuffer, len(img), width, height, format, n)
	}

	switch format {
	case FormatRGBA:
		return c.upload(img, width, height, backend.FormatRGBA8)
	case FormatRGB24:
		return c.upload(widenRGB(img, width, height), width, height, backend.FormatRGBA8)
	case FormatYUV422:
		return c.uploadYUV422(img, width, height, cs)
	default:
		return c.uploadYUV420P(img, width, height, cs)
	}
}

func (c *Context) uploadYUV422(img []byte, width, height int, cs Colorspace) (*Texture, error) {
	src, err := c.upload(img, width, height, backend.FormatRG8)
	if err != nil {
		return nil, err
	}
	defer c.ReleaseTexture(src)

	sh, err := c.GetShader(ProgramYUV422ToRGBA, yuv422Source)
	if err != nil {
		return nil, err
	}
	return c.Render(Pass{
		Shader:   sh,
		Inputs:   []*Texture{src},
		Uniforms: matrixUniforms(FromYUV(cs), "r_coefs", "g_coefs", "b_coefs"),
		Width:    width,
		Height:   height,
	})
}

// uploadYUV420P stages all three planes at once and uploads each from its
// offset in the staging buffer.
func (c *Context) uploadYUV420P(img []byte, width, height int, cs Colorspace) (*Texture, error) {
	size := FormatYUV420P.BufferSize(width, height)
	pbo, err := c.GetPBO(size)
	if err != nil {
		return nil, err
	}
	b := c.env.backend
	if err := b.WriteStaging(pbo.handle, 0, img[:size]); err != nil {
		return nil, fmt.Errorf("gpuframe: stage: %w", err)
	}

	cw, ch := width/2, height/2
	planes := []struct {
		w, h, offset int
	}{
		{width, height, 0},
		{cw, ch, width * height},
		{cw, ch, width*height + cw*ch},
	}
	textures := make([]*Texture, 0, len(planes))
	defer func() {
		for _, t := range textures {
			c.ReleaseTexture(t)
		}
	}()
	for _, p := range planes {
		t, err := c.GetTexture(p.w, p.h, backend.FormatR8)
		if err != nil {
			return nil, err
		}
		textures = append(textures, t)
		if err := b.UploadTexture(t.handle, pbo.handle, p.offset); err != nil {
			return nil, fmt.Errorf("gpuframe: upload plane: %w", err)
		}
	}

	sh, err := c.GetShader(ProgramYUV420PToRGBA, yuv420pSource)
	if err != nil {
		return nil, err
	}
	return c.Render(Pass{
		Shader:    sh,
		Inputs:    textures,
		Uniforms:  matrixUniforms(FromYUV(cs), "r_coefs", "g_coefs", "b_coefs"),
		Width:     width,
		Height:    height,
		TexCoords: backend.RectWH(width, height),
	})
}

// DownloadImage reads an RGBA texture back into a host image of format.
// The texture is left untouched.
func (c *Context) DownloadImage(t *Texture, format Format, cs Colorspace) ([]byte, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrNoImage
	}
	if !format.IsNative() {
		return nil, fmt.Errorf("%w: download to %s", ErrUnsupportedFormat, format)
	}
	if err := format.checkSize(t.width, t.height); err != nil {
		return nil, err
	}

	switch format {
	case FormatRGBA:
		return c.read(t)
	case FormatRGB24:
		rgba, err := c.read(t)
		if err != nil {
			return nil, err
		}
		return narrowRGBA(rgba, t.width, t.height), nil
	case FormatYUV422:
		return c.downloadYUV422(t, cs)
	default:
		packed, err := c.downloadYUV422(t, cs)
		if err != nil {
			return nil, err
		}
		out := make([]byte, FormatYUV420P.BufferSize(t.width, t.height))
		yuv422To420P(out, packed, t.width, t.height)
		return out, nil
	}
}

// downloadYUV422 renders half-width RGBA where each texel holds one
// Y0 U Y1 V group, so the readback bytes are already packed 4:2:2.
func (c *Context) downloadYUV422(t *Texture, cs Colorspace) ([]byte, error) {
	sh, err := c.GetShader(ProgramRGBAToYUV422, toYUV422Source)
	if err != nil {
		return nil, err
	}
	packed, err := c.Render(Pass{
		Shader:    sh,
		Inputs:    []*Texture{t},
		Uniforms:  matrixUniforms(ToYUV(cs), "y_coefs", "u_coefs", "v_coefs"),
		Width:     t.width / 2,
		Height:    t.height,
		TexCoords: t.Rect(),
	})
	if err != nil {
		return nil, err
	}
	defer c.ReleaseTexture(packed)
	return c.read(packed)
}

// widenRGB expands packed RGB to RGBA with opaque alpha.
func widenRGB(src []byte, width, height int) []byte {
	n := width * height
	dst := make([]byte, n*4)
	for i := range n {
		copy(dst[i*4:i*4+3], src[i*3:i*3+3])
		dst[i*4+3] = 0xff
	}
	return dst
}

// narrowRGBA drops the alpha channel.
func narrowRGBA(src []byte, width, height int) []byte {
	n := width * height
	dst := make([]byte, n*3)
	for i := range n {
		copy(dst[i*3:i*3+3], src[i*4:i*4+3])
	}
	return dst
}

// yuv422To420P derives planar 4:2:0 from packed 4:2:2. Luma is copied;
// each chroma sample is the truncated mean of the two vertically adjacent
// 4:2:2 samples. Width and height must be even.
func yuv422To420P(dst, src []byte, width, height int) {
	stride := width * 2
	cw := width / 2
	yp := dst[:width*height]
	up := dst[width*height : width*height+cw*(height/2)]
	vp := dst[width*height+cw*(height/2):]

	for y := 0; y < height; y += 2 {
		r0 := src[y*stride : (y+1)*stride]
		r1 := src[(y+1)*stride : (y+2)*stride]
		for x := range width {
			yp[y*width+x] = r0[2*x]
			yp[(y+1)*width+x] = r1[2*x]
		}
		row := (y / 2) * cw
		for x := range cw {
			up[row+x] = byte((int(r0[4*x+1]) + int(r1[4*x+1])) >> 1)
			vp[row+x] = byte((int(r0[4*x+3]) + int(r1[4*x+3])) >> 1)
		}
	}
}
