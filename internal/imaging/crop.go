package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// CropRegion extracts the rectangle (x1,y1)-(x2,y2) from img. (x1,y1) is
// inclusive, (x2,y2) exclusive, both relative to the image's top-left
// corner. The result has a zero origin.
func CropRegion(img image.Image, x1, y1, x2, y2 int) (*image.NRGBA, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if x1 < 0 || y1 < 0 || x2 > w || y2 > h {
		return nil, fmt.Errorf("region (%d,%d)-(%d,%d) outside image bounds (0,0)-(%d,%d)",
			x1, y1, x2, y2, w, h)
	}
	if x1 >= x2 || y1 >= y2 {
		return nil, fmt.Errorf("invalid region: x1 must be < x2, y1 must be < y2")
	}

	r := image.Rect(x1, y1, x2, y2).Add(bounds.Min)
	return imaging.Crop(img, r), nil
}

// QuadrantBounds resolves a named region to coordinates for a w x h image.
//
// Supported names: top-left, top-right, bottom-left, bottom-right,
// top-half, bottom-half, left-half, right-half and center (the middle 50%).
func QuadrantBounds(region string, w, h int) (x1, y1, x2, y2 int, err error) {
	midX, midY := w/2, h/2

	switch region {
	case "top-left":
		return 0, 0, midX, midY, nil
	case "top-right":
		return midX, 0, w, midY, nil
	case "bottom-left":
		return 0, midY, midX, h, nil
	case "bottom-right":
		return midX, midY, w, h, nil
	case "top-half":
		return 0, 0, w, midY, nil
	case "bottom-half":
		return 0, midY, w, h, nil
	case "left-half":
		return 0, 0, midX, h, nil
	case "right-half":
		return midX, 0, w, h, nil
	case "center":
		qW, qH := w/4, h/4
		return qW, qH, w - qW, h - qH, nil
	}
	return 0, 0, 0, 0, fmt.Errorf("unknown region: %s", region)
}
