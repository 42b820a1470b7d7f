package gpuframe

import (
	"bytes"
	"errors"
	"testing"
)

// fieldsRGBA is a 4x4 image with rows alternating between 0 and 200.
func fieldsRGBA() []byte {
	img := make([]byte, 4*4*4)
	for y := range 4 {
		v := byte(0)
		if y%2 == 1 {
			v = 200
		}
		for x := range 4 {
			i := (y*4 + x) * 4
			img[i], img[i+1], img[i+2], img[i+3] = v, v, v, 255
		}
	}
	return img
}

func interlacedFrame() *Frame {
	f := NewFrame(fieldsRGBA(), FormatRGBA, 4, 4, Colorspace709)
	f.ConsumerDeinterlace = true
	return f
}

func redColumn(t *testing.T, env *Environment, f *Frame) []byte {
	t.Helper()
	if err := env.ConvertImage(f, FormatRGBA, 0, 0); err != nil {
		t.Fatal(err)
	}
	col := make([]byte, f.Height)
	for y := range col {
		col[y] = f.Image[y*f.Width*4]
	}
	return col
}

func TestDeinterlaceMethods(t *testing.T) {
	tests := []struct {
		method string
		want   []byte
	}{
		{"", []byte{200, 200, 200, 200}},
		{DeinterlaceOneField, []byte{200, 200, 200, 200}},
		{DeinterlaceLinearBlend, []byte{50, 100, 100, 150}},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			env, _ := newTestEnv(t)
			f := interlacedFrame()
			if err := env.Deinterlace(f, tt.method); err != nil {
				t.Fatal(err)
			}
			if !f.Progressive {
				t.Error("frame not marked progressive")
			}
			got := redColumn(t, env, f)
			for i := range tt.want {
				if absDiff(got[i], tt.want[i]) > 1 {
					t.Fatalf("column = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestDeinterlaceSkips(t *testing.T) {
	env, _ := newTestEnv(t)

	progressive := interlacedFrame()
	progressive.Progressive = true
	unflagged := interlacedFrame()
	unflagged.ConsumerDeinterlace = false

	for _, f := range []*Frame{progressive, unflagged} {
		if err := env.Deinterlace(f, DeinterlaceLinearBlend); err != nil {
			t.Fatal(err)
		}
		if f.Format != FormatRGBA {
			t.Errorf("frame was processed: format %s", f.Format)
		}
	}
}

func TestDeinterlaceUnknownMethod(t *testing.T) {
	env, _ := newTestEnv(t)
	f := interlacedFrame()
	if err := env.Deinterlace(f, "yadif"); err == nil {
		t.Fatal("unknown method should fail")
	}
	if f.Format != FormatRGBA || f.Progressive {
		t.Error("frame changed by a failed deinterlace")
	}
}

func TestDeinterlaceFailureKeepsFrame(t *testing.T) {
	env, _ := newTestEnv(t, WithMaxEntries(1))
	f := interlacedFrame()
	for _, method := range []string{DeinterlaceOneField, DeinterlaceLinearBlend} {
		if err := env.Deinterlace(f, method); !errors.Is(err, ErrPoolExhausted) {
			t.Fatalf("Deinterlace(%s) = %v, want ErrPoolExhausted", method, err)
		}
		if f.Format != FormatRGBA || !bytes.Equal(f.Image, fieldsRGBA()) || f.Texture != nil {
			t.Errorf("%s: frame changed to %s", method, f.Format)
		}
		if f.Progressive || !f.ConsumerDeinterlace {
			t.Errorf("%s: flags changed: progressive=%v deinterlace=%v", method, f.Progressive, f.ConsumerDeinterlace)
		}
	}
	if s := env.Stats().Textures; s.InUse != 0 {
		t.Errorf("%d textures still in use", s.InUse)
	}
}
