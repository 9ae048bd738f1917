package imaging

import (
	"image"
	"image/color"
	"math"
	"testing"
)

func TestToolkit_Grayscale(t *testing.T) {
	tests := []struct {
		name string
		c    color.RGBA
		want uint8
	}{
		{"white", color.RGBA{255, 255, 255, 255}, 255},
		{"black", color.RGBA{0, 0, 0, 255}, 0},
		{"red", color.RGBA{255, 0, 0, 255}, 76},
		{"green", color.RGBA{0, 255, 0, 255}, 150},
		{"blue", color.RGBA{0, 0, 255, 255}, 29},
		{"mid gray", color.RGBA{128, 128, 128, 255}, 128},
		// Float weights round this to 155; 14-bit fixed point gives 154.
		{"fixed-point rounding", color.RGBA{2, 255, 37, 255}, 154},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gray := Toolkit{}.Grayscale(solidImage(4, 3, tt.c))
			if b := gray.Bounds(); b.Dx() != 4 || b.Dy() != 3 {
				t.Fatalf("dimensions: got %dx%d, want 4x3", b.Dx(), b.Dy())
			}
			if got := gray.GrayAt(2, 1).Y; got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestToolkit_GrayscaleNRGBA(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 3))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	img.SetNRGBA(1, 1, color.NRGBA{0, 0, 0, 255})

	gray := Toolkit{}.Grayscale(img)
	if gray.GrayAt(0, 0).Y != 255 || gray.GrayAt(1, 1).Y != 0 {
		t.Errorf("got %d and %d, want 255 and 0", gray.GrayAt(0, 0).Y, gray.GrayAt(1, 1).Y)
	}
}

func TestToolkit_GrayscaleSubImage(t *testing.T) {
	img := solidImage(6, 6, color.RGBA{255, 255, 255, 255})
	img.Set(3, 4, color.RGBA{0, 0, 0, 255})

	gray := Toolkit{}.Grayscale(img.SubImage(image.Rect(2, 2, 5, 6)))
	if b := gray.Bounds(); b != image.Rect(0, 0, 3, 4) {
		t.Fatalf("bounds: got %v, want (0,0)-(3,4)", b)
	}
	if gray.GrayAt(1, 2).Y != 0 || gray.GrayAt(0, 0).Y != 255 {
		t.Errorf("got %d and %d, want 0 and 255", gray.GrayAt(1, 2).Y, gray.GrayAt(0, 0).Y)
	}
}

func TestToolkit_Invert(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 3, 1))
	gray.Pix[0], gray.Pix[1], gray.Pix[2] = 0, 100, 255

	inv := Toolkit{}.Invert(gray)
	want := []uint8{255, 155, 0}
	for i, w := range want {
		if inv.Pix[i] != w {
			t.Errorf("pixel %d: got %d, want %d", i, inv.Pix[i], w)
		}
	}
	if gray.Pix[0] != 0 {
		t.Error("Invert modified its input")
	}
}

func TestToolkit_GaussianBlur(t *testing.T) {
	t.Run("uniform", func(t *testing.T) {
		gray := image.NewGray(image.Rect(0, 0, 8, 8))
		for i := range gray.Pix {
			gray.Pix[i] = 200
		}
		blurred := Toolkit{}.GaussianBlur(gray, 5)
		for i, v := range blurred.Pix {
			if v != 200 {
				t.Fatalf("pixel %d: got %d, want 200", i, v)
			}
		}
	})

	t.Run("spot", func(t *testing.T) {
		gray := image.NewGray(image.Rect(0, 0, 9, 9))
		gray.SetGray(4, 4, color.Gray{Y: 255})

		blurred := Toolkit{}.GaussianBlur(gray, 5)
		tests := []struct {
			x, y int
			want uint8
		}{
			{4, 4, 36}, // 255 * 0.375^2
			{2, 4, 6},  // 255 * 0.0625 * 0.375
			{2, 2, 1},  // 255 * 0.0625^2, rounded
			{0, 0, 0},
			{8, 4, 0},
		}
		for _, tt := range tests {
			if got := blurred.GrayAt(tt.x, tt.y).Y; got != tt.want {
				t.Errorf("pixel (%d,%d): got %d, want %d", tt.x, tt.y, got, tt.want)
			}
		}
	})

	t.Run("identity kernel", func(t *testing.T) {
		gray := grayStep(6, 6, 3, 10, 250)
		blurred := Toolkit{}.GaussianBlur(gray, 1)
		for i := range gray.Pix {
			if blurred.Pix[i] != gray.Pix[i] {
				t.Fatalf("pixel %d: got %d, want %d", i, blurred.Pix[i], gray.Pix[i])
			}
		}
	})
}

func TestGaussianKernel1D(t *testing.T) {
	for _, ksize := range []int{1, 3, 5, 7, 9, 11} {
		k := gaussianKernel1D(ksize)
		if len(k) != ksize {
			t.Fatalf("ksize %d: got %d weights", ksize, len(k))
		}
		var sum float64
		for i, w := range k {
			sum += w
			if w != k[ksize-1-i] {
				t.Errorf("ksize %d: kernel not symmetric at %d", ksize, i)
			}
		}
		if math.Abs(sum-1) > 1e-12 {
			t.Errorf("ksize %d: weights sum to %v", ksize, sum)
		}
	}
}

func TestScoreMap_Threshold(t *testing.T) {
	m := NewScoreMap(3, 2)
	copy(m.Scores, []float32{0.1, 0.3, 0.5, -1, 0.289, 1})

	if got := m.CountAbove(0.29); got != 3 {
		t.Errorf("CountAbove: got %d, want 3", got)
	}
	pts := m.Above(0.29)
	want := []image.Point{{1, 0}, {2, 0}, {2, 1}}
	if len(pts) != len(want) {
		t.Fatalf("Above: got %v, want %v", pts, want)
	}
	for i := range want {
		if pts[i] != want[i] {
			t.Errorf("Above[%d]: got %v, want %v", i, pts[i], want[i])
		}
	}
	if m.At(2, 1) != 1 {
		t.Errorf("At(2,1): got %v, want 1", m.At(2, 1))
	}

	var nilMap *ScoreMap
	if nilMap.CountAbove(0) != 0 || nilMap.Above(0) != nil {
		t.Error("nil score map should report no matches")
	}
}
