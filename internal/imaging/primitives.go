package imaging

import (
	"image"
)

// Primitives is the set of image operations mosaic detection is built on.
//
// All methods return new images and never modify their inputs. Grayscale
// images are expected to have a zero origin and a stride equal to their
// width, which every method here guarantees for its own output.
type Primitives interface {
	// Grayscale converts img to 8-bit luminance with ITU-R BT.601 weights.
	// Alpha is ignored.
	Grayscale(img image.Image) *image.Gray

	// Canny returns a binary edge map (255 = edge) using 3x3 Sobel
	// gradients, L1 magnitude and hysteresis between low and high.
	Canny(gray *image.Gray, low, high float64) *image.Gray

	// Invert maps every value v to 255-v.
	Invert(gray *image.Gray) *image.Gray

	// GaussianBlur smooths with a ksize x ksize Gaussian kernel. ksize must
	// be positive and odd.
	GaussianBlur(gray *image.Gray, ksize int) *image.Gray

	// MatchTemplate computes the normalized correlation-coefficient surface
	// of tmpl slid over img. The result has one score per placement, in
	// [-1, 1]. It returns nil when tmpl does not fit inside img.
	MatchTemplate(img, tmpl *image.Gray) *ScoreMap
}

// ScoreMap is a dense grid of template-matching scores. Scores[y*Width+x]
// is the score of the placement whose top-left corner is (x, y).
type ScoreMap struct {
	Width  int
	Height int
	Scores []float32
}

// NewScoreMap allocates a zeroed w x h score map.
func NewScoreMap(w, h int) *ScoreMap {
	return &ScoreMap{Width: w, Height: h, Scores: make([]float32, w*h)}
}

// At returns the score at placement (x, y).
func (m *ScoreMap) At(x, y int) float32 {
	return m.Scores[y*m.Width+x]
}

// Above lists the placements scoring at or above t in row-major order.
func (m *ScoreMap) Above(t float64) []image.Point {
	if m == nil {
		return nil
	}
	var pts []image.Point
	for i, s := range m.Scores {
		if float64(s) >= t {
			pts = append(pts, image.Point{X: i % m.Width, Y: i / m.Width})
		}
	}
	return pts
}

// CountAbove returns the number of placements scoring at or above t.
func (m *ScoreMap) CountAbove(t float64) int {
	if m == nil {
		return 0
	}
	n := 0
	for _, s := range m.Scores {
		if float64(s) >= t {
			n++
		}
	}
	return n
}
