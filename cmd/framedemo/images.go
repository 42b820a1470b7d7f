package main

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/gogpu/gpuframe"
	"github.com/gogpu/gpuframe/config"
	"github.com/gogpu/gpuframe/filter"
)

// loadFrame decodes an image file into an RGBA frame tagged with the
// configured profile.
func loadFrame(path string, cfg *config.Config) (*gpuframe.Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	f := frameFromImage(img)
	f.Colorspace = gpuframe.Colorspace(cfg.Profile.Colorspace)
	f.Progressive = cfg.Profile.Progressive
	return f, nil
}

func frameFromImage(img image.Image) *gpuframe.Frame {
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return gpuframe.NewFrame(rgba.Pix, gpuframe.FormatRGBA, b.Dx(), b.Dy(), gpuframe.Colorspace709)
}

// saveFrame reads f back as RGBA and encodes it by file extension.
func saveFrame(env *gpuframe.Environment, f *gpuframe.Frame, path string) error {
	if err := env.ConvertImage(f, gpuframe.FormatRGBA, 0, 0); err != nil {
		return err
	}
	img := &image.RGBA{Pix: f.Image, Stride: f.Width * 4, Rect: image.Rect(0, 0, f.Width, f.Height)}

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		err = jpeg.Encode(out, img, &jpeg.Options{Quality: 90})
	case ".bmp":
		err = bmp.Encode(out, img)
	case ".tif", ".tiff":
		err = tiff.Encode(out, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		err = png.Encode(out, img)
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}

// parseCrop reads "left,right,top,bottom".
func parseCrop(s string) (filter.Crop, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return filter.Crop{}, fmt.Errorf("crop %q: want left,right,top,bottom", s)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return filter.Crop{}, fmt.Errorf("crop %q: bad value %q", s, p)
		}
		v[i] = n
	}
	return filter.Crop{Left: v[0], Right: v[1], Top: v[2], Bottom: v[3]}, nil
}
