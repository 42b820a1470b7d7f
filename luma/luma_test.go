package luma

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestSmoothstep(t *testing.T) {
	tests := []struct {
		name         string
		edge1, edge2 int32
		a            uint32
		want         int32
	}{
		{"below", 1000, 2000, 500, 0},
		{"at edge1", 1000, 2000, 1000, 0},
		{"midpoint", 1000, 2000, 1500, 32768},
		{"at edge2", 1000, 2000, 2000, 0x10000},
		{"above", 1000, 2000, 2500, 0x10000},
		{"zero width below", 5000, 5000, 4999, 0},
		{"zero width at", 5000, 5000, 5000, 0x10000},
		{"wrapped negative", 0, 1000, uint32(0xfffffff0), 0x10000},
		{"wide edge wraps", 0, 0x20000, 0x18000, 0x2800},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Smoothstep(tt.edge1, tt.edge2, tt.a); got != tt.want {
				t.Errorf("Smoothstep(%d, %d, %d) = %d, want %d", tt.edge1, tt.edge2, tt.a, got, tt.want)
			}
		})
	}
}

func TestSmoothstepMonotonic(t *testing.T) {
	prev := int32(-1)
	for a := uint32(0); a <= 70000; a += 97 {
		v := Smoothstep(0, 65536, a)
		if v < prev {
			t.Fatalf("Smoothstep decreased at %d: %d < %d", a, v, prev)
		}
		if v < 0 || v > 0x10000 {
			t.Fatalf("Smoothstep(%d) = %d out of range", a, v)
		}
		prev = v
	}
}

// yuv422 returns a packed image with every byte set to v.
func yuv422(width, height int, v byte) []byte {
	return bytes.Repeat([]byte{v}, width*height*2)
}

func TestCompositeHardEdge(t *testing.T) {
	const w, h = 4, 2
	m := New(w, h)
	for y := range h {
		m.Values[y*w+2] = 0xff00
		m.Values[y*w+3] = 0xff00
	}
	dst := yuv422(w, h, 10)
	src := yuv422(w, h, 200)

	err := Composite(dst, w, h, src, w, h, m, Params{Pos: 0.5, FieldOrder: -1})
	if err != nil {
		t.Fatalf("Composite: %v", err)
	}
	for y := range h {
		for x := range w {
			want := byte(200)
			if x >= 2 {
				want = 10
			}
			for k := range 2 {
				if got := dst[(y*w+x)*2+k]; got != want {
					t.Errorf("pixel (%d,%d) byte %d = %d, want %d", x, y, k, got, want)
				}
			}
		}
	}
}

func TestCompositeEndpoints(t *testing.T) {
	const w, h = 6, 4
	m := New(w, h)
	for i := range m.Values {
		m.Values[i] = uint16(i * 2000)
	}

	dst := yuv422(w, h, 40)
	if err := Composite(dst, w, h, yuv422(w, h, 220), w, h, m, Params{Pos: 0, FieldOrder: -1}); err != nil {
		t.Fatal(err)
	}
	for i, b := range dst[2:] {
		if b != 40 {
			t.Fatalf("pos 0: byte %d = %d, want untouched 40", i+2, b)
		}
	}

	if err := Composite(dst, w, h, yuv422(w, h, 220), w, h, m, Params{Pos: 1, FieldOrder: -1}); err != nil {
		t.Fatal(err)
	}
	for i, b := range dst {
		if b != 220 {
			t.Fatalf("pos 1: byte %d = %d, want 220", i, b)
		}
	}
}

func TestCompositeFields(t *testing.T) {
	const w, h = 2, 4
	m := New(w, h)
	for i := range m.Values {
		m.Values[i] = 0x8000
	}
	dst := yuv422(w, h, 0)
	src := yuv422(w, h, 255)

	// Top field first: the second field runs half a frame later.
	p := Params{Pos: 0.45, Delta: 0.2, FieldOrder: 1}
	if err := Composite(dst, w, h, src, w, h, m, p); err != nil {
		t.Fatal(err)
	}
	for y := range h {
		want := byte(0)
		if y%2 == 1 {
			want = 255
		}
		if got := dst[y*w*2]; got != want {
			t.Errorf("row %d = %d, want %d", y, got, want)
		}
	}
}

func TestCompositeSmallerSource(t *testing.T) {
	const w, h = 4, 4
	m := New(1, 1)
	dst := yuv422(w, h, 7)
	src := yuv422(2, 2, 99)

	if err := Composite(dst, w, h, src, 2, 2, m, Params{Pos: 0.5, FieldOrder: -1}); err != nil {
		t.Fatal(err)
	}
	if dst[0] != 99 {
		t.Errorf("shared area = %d, want 99", dst[0])
	}
	if dst[(0*w+2)*2] != 7 || dst[(3*w+3)*2] != 7 {
		t.Error("pixels outside the source were modified")
	}
}

func TestCompositeErrors(t *testing.T) {
	m := New(2, 2)
	if err := Composite(yuv422(2, 2, 0), 2, 2, yuv422(2, 2, 0), 2, 2, nil, Params{}); !errors.Is(err, ErrFormat) {
		t.Errorf("nil map: %v", err)
	}
	if err := Composite(make([]byte, 3), 2, 2, yuv422(2, 2, 0), 2, 2, m, Params{}); !errors.Is(err, ErrFormat) {
		t.Errorf("short dst: %v", err)
	}
}

func TestFromYUV422(t *testing.T) {
	img := []byte{16, 128, 235, 128, 0, 128, 255, 128}
	m, err := FromYUV422(img, 4, 1)
	if err != nil {
		t.Fatal(err)
	}
	want := []uint16{0, 219 * 299, 0, 0xffff}
	for i, v := range want {
		if m.Values[i] != v {
			t.Errorf("value %d = %d, want %d", i, m.Values[i], v)
		}
	}
	if _, err := FromYUV422(img, 8, 1); !errors.Is(err, ErrFormat) {
		t.Errorf("short input: %v", err)
	}
}

func TestLoadPGM(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want []uint16
	}{
		{
			name: "8 bit with comment",
			data: append([]byte("P5\n# made by hand\n2 2\n255\n"), 0, 1, 128, 255),
			want: []uint16{0, 256, 0x8000, 0xff00},
		},
		{
			name: "16 bit",
			data: append([]byte("P5 2 1 65535\n"), 0x12, 0x34, 0xff, 0xfe),
			want: []uint16{0x1234, 0xfffe},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := LoadPGM(bytes.NewReader(tt.data))
			if err != nil {
				t.Fatalf("LoadPGM: %v", err)
			}
			if len(m.Values) != len(tt.want) {
				t.Fatalf("got %d values, want %d", len(m.Values), len(tt.want))
			}
			for i, v := range tt.want {
				if m.Values[i] != v {
					t.Errorf("value %d = %#x, want %#x", i, m.Values[i], v)
				}
			}
		})
	}
}

func TestLoadPGMErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"ascii pgm", "P2\n2 2\n255\n0 0 0 0\n"},
		{"bad width", "P5\nx 2\n255\n"},
		{"short data", "P5\n2 2\n255\n\x00\x01"},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadPGM(bytes.NewReader([]byte(tt.data))); !errors.Is(err, ErrFormat) {
				t.Errorf("LoadPGM = %v, want ErrFormat", err)
			}
		})
	}
}

func TestDecodeAndLoad(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 3, 2))
	img.SetGray(1, 0, color.Gray{Y: 128})
	img.SetGray(2, 1, color.Gray{Y: 255})

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "wipe.png")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Width != 3 || m.Height != 2 {
		t.Fatalf("size = %dx%d, want 3x2", m.Width, m.Height)
	}
	if got := m.At(1, 0); got != 128*257 {
		t.Errorf("At(1,0) = %d, want %d", got, 128*257)
	}
	if got := m.At(2, 1); got != 0xffff {
		t.Errorf("At(2,1) = %d, want 65535", got)
	}
	if got := m.At(0, 0); got != 0 {
		t.Errorf("At(0,0) = %d, want 0", got)
	}
}

func TestLoadPGMFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bars.PGM")
	if err := os.WriteFile(path, append([]byte("P5 1 1 255\n"), 3), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Values[0] != 3<<8 {
		t.Errorf("value = %d, want %d", m.Values[0], 3<<8)
	}
}
