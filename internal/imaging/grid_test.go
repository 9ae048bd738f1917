package imaging

import (
	"image"
	"image/color"
	"testing"
)

func TestGridOverlay_GridLines(t *testing.T) {
	img := solidImage(100, 100, color.RGBA{0, 0, 0, 255})

	result, err := GridOverlay(img, GridOptions{Spacing: 25, Color: "#ff0000", Opacity: 1})
	if err != nil {
		t.Fatalf("GridOverlay failed: %v", err)
	}
	if b := result.Bounds(); b.Dx() != 100 || b.Dy() != 100 {
		t.Errorf("dimensions: got %dx%d, want 100x100", b.Dx(), b.Dy())
	}

	red := color.NRGBA{255, 0, 0, 255}
	black := color.NRGBA{0, 0, 0, 255}
	tests := []struct {
		x, y int
		want color.NRGBA
	}{
		{0, 50, red},
		{25, 50, red},
		{75, 10, red},
		{10, 50, red}, // horizontal line at y=50
		{15, 15, black},
		{99, 99, black},
	}
	for _, tt := range tests {
		if got := result.NRGBAAt(tt.x, tt.y); got != tt.want {
			t.Errorf("pixel (%d,%d): got %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}

	// Input must be left untouched.
	if r, _, _, _ := img.At(25, 50).RGBA(); r != 0 {
		t.Error("GridOverlay modified its input")
	}
}

func TestGridOverlay_Offset(t *testing.T) {
	img := solidImage(40, 40, color.RGBA{0, 0, 0, 255})

	result, err := GridOverlay(img, GridOptions{Spacing: 10, Offset: image.Pt(-7, 3), Opacity: 1})
	if err != nil {
		t.Fatalf("GridOverlay failed: %v", err)
	}
	// -7 mod 10 = 3, so vertical lines sit at x = 3, 13, 23, 33.
	for _, x := range []int{3, 13, 23, 33} {
		if got := result.NRGBAAt(x, 1); got.R != 255 {
			t.Errorf("expected vertical line at x=%d, got %v", x, got)
		}
	}
	if got := result.NRGBAAt(0, 1); got.R != 0 {
		t.Errorf("unexpected line at x=0: %v", got)
	}
	if got := result.NRGBAAt(1, 13); got.R != 255 {
		t.Errorf("expected horizontal line at y=13, got %v", got)
	}
}

func TestGridOverlay_Opacity(t *testing.T) {
	img := solidImage(20, 20, color.RGBA{0, 0, 0, 255})

	result, err := GridOverlay(img, GridOptions{Spacing: 5, Color: "#ffffff"})
	if err != nil {
		t.Fatalf("GridOverlay failed: %v", err)
	}
	got := result.NRGBAAt(5, 2)
	if got.R < 120 || got.R > 136 {
		t.Errorf("half-opacity white over black: got R=%d, want about 128", got.R)
	}
	if got.A != 255 {
		t.Errorf("alpha: got %d, want 255", got.A)
	}
}

func TestGridOverlay_Errors(t *testing.T) {
	img := solidImage(10, 10, color.White)
	for _, spacing := range []int{0, -5} {
		if _, err := GridOverlay(img, GridOptions{Spacing: spacing}); err == nil {
			t.Errorf("spacing %d should fail", spacing)
		}
	}
}

func TestParseGridColor(t *testing.T) {
	tests := []struct {
		name    string
		hex     string
		opacity float64
		want    color.NRGBA
	}{
		{"valid", "#00ff00", 1, color.NRGBA{0, 255, 0, 255}},
		{"half", "#0000ff", 0.5, color.NRGBA{0, 0, 255, 128}},
		{"default opacity", "#0000ff", 0, color.NRGBA{0, 0, 255, 128}},
		{"invalid hex falls back to red", "not-a-color", 1, color.NRGBA{255, 0, 0, 255}},
		{"empty falls back to red", "", 1, color.NRGBA{255, 0, 0, 255}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseGridColor(tt.hex, tt.opacity); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseColor(t *testing.T) {
	got, err := ParseColor("#102030", 1)
	if err != nil {
		t.Fatalf("ParseColor failed: %v", err)
	}
	if want := (color.NRGBA{0x10, 0x20, 0x30, 255}); got != want {
		t.Errorf("got %v, want %v", got, want)
	}

	for _, tt := range []struct {
		hex     string
		opacity float64
	}{
		{"#zzzzzz", 1},
		{"102030", 1},
		{"#102030", 0},
		{"#102030", 1.5},
	} {
		if _, err := ParseColor(tt.hex, tt.opacity); err == nil {
			t.Errorf("ParseColor(%q, %v) should fail", tt.hex, tt.opacity)
		}
	}
}

func TestDrawLabel(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 50, 20))
	fg := color.NRGBA{255, 255, 255, 255}
	bg := color.NRGBA{0, 0, 0, 255}

	drawLabel(img, 2, 2, "10,5", fg, bg)

	// Top row of '1' is "010": the middle pixel is foreground.
	if got := img.NRGBAAt(3, 2); got != fg {
		t.Errorf("glyph pixel: got %v, want %v", got, fg)
	}
	if got := img.NRGBAAt(2, 2); got != bg {
		t.Errorf("background pixel: got %v, want %v", got, bg)
	}
}

func TestDrawLabel_Clipping(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	fg := color.NRGBA{255, 255, 255, 255}
	bg := color.NRGBA{0, 0, 0, 255}

	// None of these may panic.
	drawLabel(img, 8, 8, "123,456", fg, bg)
	drawLabel(img, -20, -20, "9", fg, bg)
	drawLabel(img, 0, 0, "", fg, bg)
	drawLabel(img, 0, 0, "a?b", fg, bg)
}
