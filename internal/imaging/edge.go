package imaging

import (
	"image"
)

// Edge states used during non-maximum suppression and hysteresis.
const (
	edgeNone   = 0
	edgeWeak   = 1
	edgeStrong = 2
)

// tan(22.5°), splits gradient directions into horizontal, vertical and the
// two diagonals.
const tan22 = 0.4142135623730950488016887242097

// Canny performs Canny edge detection on a grayscale image.
//
// Parameters:
//   - gray: Source luminance. Any origin is accepted.
//   - low: Hysteresis low threshold. Weaker gradients are never edges.
//   - high: Hysteresis high threshold. Stronger gradients always are.
//
// Returns:
//   - *image.Gray: A binary image the size of gray with a zero origin, 255 on
//     edges and 0 elsewhere. A swapped low/high pair is reordered.
//
// # Algorithm
//
//  1. Gradients: 3x3 Sobel operators on the raw luminance values, borders
//     replicated. No pre-blur is applied; smooth beforehand if needed.
//
//  2. Magnitude: L1 norm |Gx| + |Gy|, so thresholds are on the same scale
//     as OpenCV's default cv::Canny.
//
//  3. Non-maximum suppression: a pixel survives if it is a local maximum
//     along its quantized gradient direction. Ties are resolved toward the
//     left/top neighbour so plateaus produce one-pixel-wide edges.
//
//  4. Hysteresis: survivors above high are strong edges. Survivors above
//     low become edges only when 8-connected to a strong edge.
//
// # Threshold Selection
//
// Values are gradient magnitudes in luminance units (0..2040 for L1 Sobel).
// Mosaic detection uses (8, 30), low enough to catch the faint steps between
// neighbouring blocks of similar colour.
func Canny(gray *image.Gray, low, high float64) *image.Gray {
	if low > high {
		low, high = high, low
	}
	bounds := gray.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	result := image.NewGray(image.Rect(0, 0, width, height))
	if width == 0 || height == 0 {
		return result
	}

	px := func(x, y int) int {
		x = clamp(x, 0, width-1)
		y = clamp(y, 0, height-1)
		return int(gray.Pix[gray.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)])
	}

	n := width * height
	gradX := make([]int, n)
	gradY := make([]int, n)
	magnitude := make([]int, n)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			gx := px(x+1, y-1) + 2*px(x+1, y) + px(x+1, y+1) -
				px(x-1, y-1) - 2*px(x-1, y) - px(x-1, y+1)
			gy := px(x-1, y+1) + 2*px(x, y+1) + px(x+1, y+1) -
				px(x-1, y-1) - 2*px(x, y-1) - px(x+1, y-1)
			i := y*width + x
			gradX[i] = gx
			gradY[i] = gy
			magnitude[i] = abs(gx) + abs(gy)
		}
	}

	// Magnitude outside the image counts as zero.
	mag := func(x, y int) int {
		if x < 0 || y < 0 || x >= width || y >= height {
			return 0
		}
		return magnitude[y*width+x]
	}

	state := make([]uint8, n)
	stack := make([]int, 0, n/8)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := y*width + x
			m := magnitude[i]
			if float64(m) <= low {
				continue
			}

			gx, gy := gradX[i], gradY[i]
			ax, ay := float64(abs(gx)), float64(abs(gy))
			tg22x := ax * tan22

			var isMax bool
			switch {
			case ay < tg22x:
				isMax = m > mag(x-1, y) && m >= mag(x+1, y)
			case ay > tg22x+2*ax:
				isMax = m > mag(x, y-1) && m >= mag(x, y+1)
			default:
				s := 1
				if (gx < 0) != (gy < 0) {
					s = -1
				}
				isMax = m > mag(x-s, y-1) && m > mag(x+s, y+1)
			}
			if !isMax {
				continue
			}

			if float64(m) > high {
				state[i] = edgeStrong
				stack = append(stack, i)
			} else {
				state[i] = edgeWeak
			}
		}
	}

	// Grow strong edges into connected weak ones.
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%width, i/width
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := x+dx, y+dy
				if nx < 0 || ny < 0 || nx >= width || ny >= height {
					continue
				}
				j := ny*width + nx
				if state[j] == edgeWeak {
					state[j] = edgeStrong
					stack = append(stack, j)
				}
			}
		}
	}

	for i, s := range state {
		if s == edgeStrong {
			result.Pix[i] = 255
		}
	}
	return result
}

// clamp constrains an integer value to the range [min, max].
// Used for boundary handling in convolution operations.
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
