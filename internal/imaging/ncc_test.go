package imaging

import (
	"image"
	"math"
	"math/rand"
	"testing"
)

// naiveNCC scores one placement directly from the definition, with the same
// flat-window and overshoot rules as matchTemplateNCC.
func naiveNCC(img, tmpl *image.Gray, px, py int) float64 {
	tw, th := tmpl.Bounds().Dx(), tmpl.Bounds().Dy()
	n := float64(tw * th)

	var tSum, iSum, iSq float64
	for y := 0; y < th; y++ {
		for x := 0; x < tw; x++ {
			tSum += float64(tmpl.GrayAt(x, y).Y)
			v := float64(img.GrayAt(px+x, py+y).Y)
			iSum += v
			iSq += v * v
		}
	}
	tMean, iMean := tSum/n, iSum/n

	var num, tVar float64
	for y := 0; y < th; y++ {
		for x := 0; x < tw; x++ {
			td := float64(tmpl.GrayAt(x, y).Y) - tMean
			num += td * (float64(img.GrayAt(px+x, py+y).Y) - iMean)
			tVar += td * td
		}
	}
	diff2 := iSq - iSum*iSum/n
	if diff2 <= math.Min(0.5, flatWindowEps*iSq) {
		return 0
	}
	den := math.Sqrt(diff2 * tVar)
	switch {
	case math.Abs(num) < den:
		return num / den
	case math.Abs(num) < den*1.125:
		return math.Copysign(1, num)
	}
	return 0
}

func randomGray(rng *rand.Rand, w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = uint8(rng.Intn(256))
	}
	return img
}

// gridTemplate draws dark lines every step pixels, starting at offset 2, on
// a white square: the shape mosaic detection matches with.
func gridTemplate(side, step int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, side, side))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	for p := 2; p < side; p += step {
		for q := 0; q < side; q++ {
			img.Pix[q*side+p] = 0
			img.Pix[p*side+q] = 0
		}
	}
	return img
}

func TestMatchTemplateNCC_AgainstDefinition(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	img := randomGray(rng, 40, 33)

	tests := []struct {
		name string
		tmpl *image.Gray
	}{
		{"random", randomGray(rng, 7, 5)},
		{"grid", gridTemplate(11, 3)},
		{"single row", randomGray(rng, 9, 1)},
		{"single column", randomGray(rng, 1, 6)},
		{"two levels", grayStep(6, 6, 2, 10, 240)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := matchTemplateNCC(img, tt.tmpl)
			tb := tt.tmpl.Bounds()
			if got.Width != 40-tb.Dx()+1 || got.Height != 33-tb.Dy()+1 {
				t.Fatalf("score map %dx%d, want %dx%d", got.Width, got.Height, 40-tb.Dx()+1, 33-tb.Dy()+1)
			}
			for y := 0; y < got.Height; y++ {
				for x := 0; x < got.Width; x++ {
					want := naiveNCC(img, tt.tmpl, x, y)
					if math.Abs(float64(got.At(x, y))-want) > 1e-4 {
						t.Fatalf("placement (%d,%d): got %v, want %v", x, y, got.At(x, y), want)
					}
				}
			}
		})
	}
}

func TestMatchTemplateNCC_ExactCopy(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	img := randomGray(rng, 30, 30)
	tmpl := image.NewGray(image.Rect(0, 0, 8, 6))
	for y := 0; y < 6; y++ {
		for x := 0; x < 8; x++ {
			tmpl.SetGray(x, y, img.GrayAt(12+x, 5+y))
		}
	}

	scores := matchTemplateNCC(img, tmpl)
	if s := scores.At(12, 5); s < 0.9999 {
		t.Errorf("score at the copied position: got %v, want 1", s)
	}
	best := 0
	for i, s := range scores.Scores {
		if s > scores.Scores[best] {
			best = i
		}
	}
	if x, y := best%scores.Width, best/scores.Width; x != 12 || y != 5 {
		t.Errorf("best placement: got (%d,%d), want (12,5)", x, y)
	}
}

func TestMatchTemplateNCC_FlatInputs(t *testing.T) {
	rng := rand.New(rand.NewSource(3))

	flatTmpl := grayStep(5, 5, 0, 77, 77)
	scores := matchTemplateNCC(randomGray(rng, 12, 12), flatTmpl)
	for i, s := range scores.Scores {
		if s != 1 {
			t.Fatalf("flat template: score %d = %v, want 1", i, s)
		}
	}

	flatImg := grayStep(20, 20, 0, 255, 255)
	scores = matchTemplateNCC(flatImg, gridTemplate(11, 3))
	for i, s := range scores.Scores {
		if s != 0 {
			t.Fatalf("flat image: score %d = %v, want 0", i, s)
		}
	}
}

func TestMatchTemplateNCC_TooLarge(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 10, 10))
	if got := matchTemplateNCC(img, gridTemplate(11, 3)); got != nil {
		t.Errorf("expected nil for an oversized template, got %dx%d", got.Width, got.Height)
	}
	if got := (Toolkit{}).MatchTemplate(img, image.NewGray(image.Rect(0, 0, 11, 2))); got != nil {
		t.Error("expected nil when the template is wider than the image")
	}
}

func TestMatchTemplateNCC_SameSize(t *testing.T) {
	tmpl := gridTemplate(11, 3)
	scores := matchTemplateNCC(tmpl, tmpl)
	if scores.Width != 1 || scores.Height != 1 {
		t.Fatalf("score map %dx%d, want 1x1", scores.Width, scores.Height)
	}
	if scores.Scores[0] < 0.9999 {
		t.Errorf("self match: got %v, want 1", scores.Scores[0])
	}
}

func TestPrepareTemplate_Runs(t *testing.T) {
	const side = 13
	tp := prepareTemplate(gridTemplate(side, 4))
	if tp.bg != 255 {
		t.Fatalf("background: got %v, want 255", tp.bg)
	}

	// Rebuild the template from its runs and compare.
	got := make([]float64, side*side)
	for i := range got {
		got[i] = tp.bg
	}
	for _, r := range tp.runs {
		for k := 0; k < r.n; k++ {
			x, y := r.dx+k, r.dy
			if r.vertical {
				x, y = r.dx, r.dy+k
			}
			if got[y*side+x] != tp.bg {
				t.Fatalf("pixel (%d,%d) covered twice", x, y)
			}
			got[y*side+x] = tp.bg + r.weight
		}
	}
	want := gridTemplate(side, 4)
	for i, v := range want.Pix {
		if got[i] != float64(v) {
			t.Fatalf("pixel %d: got %v, want %d", i, got[i], v)
		}
	}

	// Three full rows plus three columns split into four segments each.
	if len(tp.runs) != 15 {
		t.Errorf("runs: got %d, want 15", len(tp.runs))
	}
}
