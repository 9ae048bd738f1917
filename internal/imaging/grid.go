package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

// GridOptions controls GridOverlay.
type GridOptions struct {
	// Spacing is the distance between grid lines in pixels. For checking a
	// detection, use the detected block size.
	Spacing int

	// Offset shifts the grid so lines fall on Offset.X + k*Spacing and
	// Offset.Y + k*Spacing.
	Offset image.Point

	// Color is a "#RRGGBB" hex string. Empty or unparsable falls back to red.
	Color string

	// Opacity of the lines in (0, 1]. Zero means 0.5.
	Opacity float64

	// ShowCoordinates labels every intersection with its x,y position.
	ShowCoordinates bool
}

// DefaultGridColor is used when GridOptions.Color is empty or invalid.
const DefaultGridColor = "#ff0000"

// GridOverlay draws a coordinate grid over a copy of img.
func GridOverlay(img image.Image, opts GridOptions) (*image.NRGBA, error) {
	if opts.Spacing <= 0 {
		return nil, fmt.Errorf("grid spacing must be positive, got %d", opts.Spacing)
	}
	lineColor := parseGridColor(opts.Color, opts.Opacity)

	result := imaging.Clone(img)
	bounds := result.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	fill := image.NewUniform(lineColor)

	first := func(offset int) int {
		offset %= opts.Spacing
		if offset < 0 {
			offset += opts.Spacing
		}
		return offset
	}
	x0, y0 := first(opts.Offset.X), first(opts.Offset.Y)

	for x := x0; x < width; x += opts.Spacing {
		draw.Draw(result, image.Rect(x, 0, x+1, height), fill, image.Point{}, draw.Over)
	}
	for y := y0; y < height; y += opts.Spacing {
		draw.Draw(result, image.Rect(0, y, width, y+1), fill, image.Point{}, draw.Over)
	}

	if opts.ShowCoordinates {
		labelColor := color.NRGBA{255, 255, 255, 255}
		bgColor := color.NRGBA{0, 0, 0, 180}

		for y := y0; y < height; y += opts.Spacing {
			for x := x0; x < width; x += opts.Spacing {
				drawLabel(result, x+2, y+2, fmt.Sprintf("%d,%d", x, y), labelColor, bgColor)
			}
		}
	}
	return result, nil
}

// ParseColor resolves a "#RRGGBB" (or "#RGB") hex colour and an opacity in
// (0, 1] into a straight-alpha colour.
func ParseColor(hex string, opacity float64) (color.NRGBA, error) {
	if opacity <= 0 || opacity > 1 {
		return color.NRGBA{}, fmt.Errorf("opacity %v outside (0, 1]", opacity)
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid colour %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: uint8(opacity*255 + 0.5)}, nil
}

// parseGridColor is ParseColor with the grid's fallbacks: opacity 0.5 and
// DefaultGridColor.
func parseGridColor(hex string, opacity float64) color.NRGBA {
	if opacity <= 0 || opacity > 1 {
		opacity = 0.5
	}
	c, err := ParseColor(hex, opacity)
	if err != nil {
		c, _ = ParseColor(DefaultGridColor, opacity)
	}
	return c
}

// glyphs is a 3x5 pixel font covering what coordinate labels need.
var glyphs = map[rune][5]string{
	'0': {"111", "101", "101", "101", "111"},
	'1': {"010", "110", "010", "010", "111"},
	'2': {"111", "001", "111", "100", "111"},
	'3': {"111", "001", "111", "001", "111"},
	'4': {"101", "101", "111", "001", "001"},
	'5': {"111", "100", "111", "001", "111"},
	'6': {"111", "100", "111", "101", "111"},
	'7': {"111", "001", "001", "001", "001"},
	'8': {"111", "101", "111", "101", "111"},
	'9': {"111", "101", "111", "001", "111"},
	',': {"000", "000", "000", "010", "010"},
}

// drawLabel writes text at (x, y) on a filled background box. Pixels
// outside img are clipped.
func drawLabel(img *image.NRGBA, x, y int, text string, fg, bg color.NRGBA) {
	const charWidth, labelHeight = 4, 7

	box := image.Rect(x-1, y-1, x+len(text)*charWidth, y+labelHeight)
	draw.Draw(img, box.Intersect(img.Bounds()), image.NewUniform(bg), image.Point{}, draw.Over)

	cx := x
	for _, ch := range text {
		glyph, ok := glyphs[ch]
		if ok {
			for row, line := range glyph {
				for col, pixel := range line {
					if pixel != '1' {
						continue
					}
					if p := image.Pt(cx+col, y+row); p.In(img.Bounds()) {
						img.SetNRGBA(p.X, p.Y, fg)
					}
				}
			}
		}
		cx += charWidth
	}
}
