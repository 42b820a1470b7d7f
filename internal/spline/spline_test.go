package spline

import (
	"math"
	"testing"
)

func TestCatmullRomWeight(t *testing.T) {
	tests := []struct {
		x    float64
		want float64
	}{
		{0, 1},
		{1, 0},
		{2, 0},
		{-1, 0},
		{2.5, 0},
		{0.5, 0.5625},
		{1.5, -0.0625},
		{-0.5, 0.5625},
	}

	for _, tt := range tests {
		if got := CatmullRomWeight(tt.x); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("CatmullRomWeight(%v) = %v, want %v", tt.x, got, tt.want)
		}
	}
}

func TestCosineWeight(t *testing.T) {
	tests := []struct {
		x    float64
		want float64
	}{
		{0, 1},
		{1, 0.5},
		{-1, 0.5},
		{2, 0},
	}

	for _, tt := range tests {
		if got := CosineWeight(tt.x); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("CosineWeight(%v) = %v, want %v", tt.x, got, tt.want)
		}
	}
}

func TestLUTLayout(t *testing.T) {
	lut := LUT()
	if len(lut) != LUTWidth*4*NumKinds {
		t.Fatalf("len(LUT) = %d, want %d", len(lut), LUTWidth*4*NumKinds)
	}

	// Column 0 is t = 0: taps at distances 1, 0, 1, 2.
	cr := lut[0:4]
	want := [4]float32{0, 1, 0, 0}
	for i := range want {
		if cr[i] != want[i] {
			t.Errorf("catmull-rom col 0 tap %d = %v, want %v", i, cr[i], want[i])
		}
	}

	cos := lut[LUTWidth*4 : LUTWidth*4+4]
	if math.Abs(float64(cos[1])-1) > 1e-6 || math.Abs(float64(cos[0])-0.5) > 1e-6 {
		t.Errorf("cosine col 0 = %v, want [0.5 1 0.5 ~0]", cos)
	}
}

// The Catmull-Rom kernel is even, so the tap pattern at t mirrors the
// pattern at 1-t.
func TestLUTCatmullRomSymmetry(t *testing.T) {
	lut := LUT()
	for i := 1; i < LUTWidth; i++ {
		a := lut[i*4 : i*4+4]
		b := lut[(LUTWidth-i)*4 : (LUTWidth-i)*4+4]
		for k := range 4 {
			if d := math.Abs(float64(a[k] - b[3-k])); d > 1e-6 {
				t.Fatalf("col %d tap %d = %v, mirrored col %d tap %d = %v", i, k, a[k], LUTWidth-i, 3-k, b[3-k])
			}
		}
	}
}

func TestCatmullRomTapsSumToOne(t *testing.T) {
	for i := 0; i < LUTWidth; i += 37 {
		taps := Taps(CatmullRom, float64(i)/LUTWidth)
		var sum float64
		for _, w := range taps {
			sum += float64(w)
		}
		if math.Abs(sum-1) > 1e-5 {
			t.Errorf("t=%d/%d: sum of taps = %v, want 1", i, LUTWidth, sum)
		}
	}
}

func TestIndex(t *testing.T) {
	tests := []struct {
		frac float32
		want int
	}{
		{0, 0},
		{0.5, 500},
		{0.9999, 999},
		{1, LUTWidth - 1},
		{-0.1, 0},
	}
	for _, tt := range tests {
		if got := Index(tt.frac); got != tt.want {
			t.Errorf("Index(%v) = %d, want %d", tt.frac, got, tt.want)
		}
	}
}

func TestKindString(t *testing.T) {
	if CatmullRom.String() != "catmull-rom" || Cosine.String() != "cosine" {
		t.Errorf("unexpected names %q %q", CatmullRom, Cosine)
	}
	if Kind(7).String() != "Kind(7)" {
		t.Errorf("Kind(7).String() = %q", Kind(7).String())
	}
}
