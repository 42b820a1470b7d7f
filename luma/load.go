package luma

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	// Registered decoders for map images.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// LoadPGM reads a binary PGM (P5) map. 8-bit samples are scaled to the
// 16-bit range by shifting; 16-bit samples are big endian.
func LoadPGM(r io.Reader) (*Map, error) {
	br := bufio.NewReader(r)

	magic, err := pgmToken(br)
	if err != nil {
		return nil, err
	}
	if magic != "P5" {
		return nil, fmt.Errorf("%w: pgm magic %q", ErrFormat, magic)
	}
	var dims [3]int
	for i, name := range []string{"width", "height", "maxval"} {
		tok, err := pgmToken(br)
		if err != nil {
			return nil, err
		}
		n, err := strconv.Atoi(tok)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("%w: pgm %s %q", ErrFormat, name, tok)
		}
		dims[i] = n
	}
	width, height, maxval := dims[0], dims[1], dims[2]
	if maxval > 0xffff {
		return nil, fmt.Errorf("%w: pgm maxval %d", ErrFormat, maxval)
	}

	bpp := 1
	if maxval > 255 {
		bpp = 2
	}
	data := make([]byte, width*height*bpp)
	if _, err := io.ReadFull(br, data); err != nil {
		return nil, fmt.Errorf("%w: pgm data: %w", ErrFormat, err)
	}

	m := New(width, height)
	for i := range m.Values {
		if bpp == 1 {
			m.Values[i] = uint16(data[i]) << 8
		} else {
			m.Values[i] = uint16(data[2*i])<<8 | uint16(data[2*i+1])
		}
	}
	return m, nil
}

// pgmToken returns the next header token. Comments run from '#' to the end
// of the line. The single whitespace byte that ends the token is consumed,
// so after maxval the reader sits on the first sample.
func pgmToken(br *bufio.Reader) (string, error) {
	var sb strings.Builder
	for {
		c, err := br.ReadByte()
		if err != nil {
			if sb.Len() > 0 && err == io.EOF {
				return sb.String(), nil
			}
			return "", fmt.Errorf("%w: pgm header: %w", ErrFormat, err)
		}
		switch {
		case c == '#' && sb.Len() == 0:
			if _, err := br.ReadString('\n'); err != nil {
				return "", fmt.Errorf("%w: pgm header: %w", ErrFormat, err)
			}
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f':
			if sb.Len() > 0 {
				return sb.String(), nil
			}
		default:
			sb.WriteByte(c)
		}
	}
}

// FromImage builds a map from the Rec.601 luma of img.
func FromImage(img image.Image) *Map {
	b := img.Bounds()
	m := New(b.Dx(), b.Dy())
	for y := range m.Height {
		for x := range m.Width {
			g := color.Gray16Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray16)
			m.Values[y*m.Width+x] = g.Y
		}
	}
	return m
}

// Decode reads any registered image format and converts it with FromImage.
// PNG, JPEG, GIF, BMP, TIFF and WebP are registered.
func Decode(r io.Reader) (*Map, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("luma: decode: %w", err)
	}
	return FromImage(img), nil
}

// Load reads a map file. Files ending in .pgm are parsed as PGM, anything
// else is decoded as an image.
func Load(path string) (*Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("luma: %w", err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".pgm") {
		m, err := LoadPGM(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return m, nil
	}
	m, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}
