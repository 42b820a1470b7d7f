package gpuframe

import (
	"errors"
	"testing"
)

func TestFormatBufferSize(t *testing.T) {
	tests := []struct {
		format Format
		w, h   int
		want   int
	}{
		{FormatRGB24, 4, 2, 24},
		{FormatRGBA, 4, 2, 32},
		{FormatYUV422, 4, 2, 16},
		{FormatYUV420P, 4, 2, 12},
		{FormatYUV420P, 1920, 1080, 1920 * 1080 * 3 / 2},
		{FormatGPU, 4, 2, 0},
		{FormatNone, 4, 2, 0},
	}
	for _, tt := range tests {
		if got := tt.format.BufferSize(tt.w, tt.h); got != tt.want {
			t.Errorf("%s.BufferSize(%d, %d) = %d, want %d", tt.format, tt.w, tt.h, got, tt.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	for f := FormatNone; f <= FormatGPU; f++ {
		got, err := ParseFormat(f.String())
		if err != nil || got != f {
			t.Errorf("ParseFormat(%q) = %v, %v", f.String(), got, err)
		}
	}
	if _, err := ParseFormat("nv12"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("ParseFormat(nv12) = %v", err)
	}
}

func TestFormatCheckSize(t *testing.T) {
	tests := []struct {
		format Format
		w, h   int
		ok     bool
	}{
		{FormatRGBA, 3, 3, true},
		{FormatRGBA, 0, 3, false},
		{FormatYUV422, 3, 2, false},
		{FormatYUV422, 4, 3, true},
		{FormatYUV420P, 4, 3, false},
		{FormatYUV420P, 4, 4, true},
	}
	for _, tt := range tests {
		err := tt.format.checkSize(tt.w, tt.h)
		if (err == nil) != tt.ok {
			t.Errorf("%s.checkSize(%d, %d) = %v", tt.format, tt.w, tt.h, err)
		}
		if err != nil && !errors.Is(err, ErrInvalidSize) {
			t.Errorf("error %v does not wrap ErrInvalidSize", err)
		}
	}
}

func TestColorspaceMatricesInvert(t *testing.T) {
	for _, cs := range []Colorspace{Colorspace601, Colorspace709, Colorspace240} {
		to, from := ToYUV(cs), FromYUV(cs)
		for _, rgb := range [][3]float32{{0, 0, 0}, {1, 1, 1}, {1, 0, 0}, {0.2, 0.6, 0.9}} {
			yuv := to.Apply(rgb[0], rgb[1], rgb[2])
			back := from.Apply(yuv[0], yuv[1], yuv[2])
			for i := range back {
				if d := back[i] - rgb[i]; d > 0.002 || d < -0.002 {
					t.Errorf("%s: %v -> %v -> %v", cs, rgb, yuv, back)
					break
				}
			}
		}
	}
}

func TestColorspaceUnknownIs601(t *testing.T) {
	if FromYUV(Colorspace(0)) != FromYUV(Colorspace601) {
		t.Error("unknown colorspace should convert as BT.601")
	}
	if got := Colorspace(2020).String(); got != "bt601" {
		t.Errorf("String() = %q", got)
	}
}
