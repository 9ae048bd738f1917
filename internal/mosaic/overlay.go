package mosaic

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
)

// DefaultOverlayColor fills matched regions: opaque black.
var DefaultOverlayColor color.Color = color.NRGBA{0, 0, 0, 255}

// BuildOverlay returns a fully transparent width x height image with an
// opaque rectangle drawn at every recorded match. A rectangle spans from the
// match corner to corner+(Width, Height) inclusive, so it covers
// (Width+1) x (Height+1) pixels, and is clipped to the image. Candidates
// come from a Report produced with CollectMatches set; the overlay has no
// influence on the detected resolution.
func BuildOverlay(width, height int, candidates []Candidate, c color.Color) *image.NRGBA {
	if c == nil {
		c = DefaultOverlayColor
	}
	card := imaging.New(width, height, color.NRGBA{})
	fill := image.NewUniform(c)

	for _, cand := range candidates {
		for _, pt := range cand.Matches {
			r := image.Rect(pt.X, pt.Y, pt.X+cand.Width+1, pt.Y+cand.Height+1)
			draw.Draw(card, r, fill, image.Point{}, draw.Src)
		}
	}
	return card
}
