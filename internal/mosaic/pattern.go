package mosaic

import (
	"image"
	"image/color"
	"log"

	"github.com/disintegration/imaging"
)

// Pattern is the synthetic grid template for one masksize.
type Pattern struct {
	MaskSize int
	Image    *image.NRGBA
}

// RenderPattern draws the grid template for masksize: a white square of side
// 2*masksize+3 crossed by black one-pixel lines every masksize-1 pixels,
// starting two pixels in from the top-left corner. It returns nil for
// masksize below 2.
//
// # Layout
//
// For masksize 5 the side is 13 and lines fall on 2, 6 and 10 in both
// directions. The spacing is LinePeriod(masksize). From masksize 4 up the
// last line sits two pixels in from the right and bottom borders.
func RenderPattern(masksize int) *image.NRGBA {
	if masksize < 2 {
		return nil
	}
	side := patternSide(masksize)
	img := imaging.New(side, side, color.White)
	black := color.NRGBA{0, 0, 0, 255}
	step := LinePeriod(masksize)

	for x := 2; x < side; x += step {
		for y := 0; y < side; y++ {
			img.SetNRGBA(x, y, black)
		}
	}
	for y := 2; y < side; y += step {
		for x := 0; x < side; x++ {
			img.SetNRGBA(x, y, black)
		}
	}
	return img
}

// generatePatterns builds every template that fits a width x height image.
// The table is indexed by patternIndexOf; slots for oversized templates are
// nil.
func generatePatterns(width, height int, p Params, logger *log.Logger) []*Pattern {
	patterns := make([]*Pattern, patternIndexOf(p.MaxMaskSize())+1)

	for masksize := p.MaxMaskSize(); masksize >= p.MinMaskSize(); masksize-- {
		side := patternSide(masksize)
		if side > width || side > height {
			if logger != nil {
				logger.Printf("mosaic: pattern %dx%d for masksize %d exceeds image %dx%d, skipping",
					side, side, masksize, width, height)
			}
			continue
		}
		patterns[patternIndexOf(masksize)] = &Pattern{
			MaskSize: masksize,
			Image:    RenderPattern(masksize),
		}
	}
	return patterns
}
