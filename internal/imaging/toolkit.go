package imaging

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/clone"
	"github.com/anthonynsimon/bild/convolution"
	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/parallel"
)

// BT.601 luminance weights (0.299, 0.587, 0.114) in 14-bit fixed point,
// the form cv::cvtColor uses for 8-bit images.
const (
	lumaShift = 14
	lumaR     = 4899
	lumaG     = 9617
	lumaB     = 1868
	lumaHalf  = 1 << (lumaShift - 1)
)

// Toolkit implements Primitives in pure Go. Colour conversion, inversion and
// convolution go through bild; Canny and template matching are local.
type Toolkit struct{}

var _ Primitives = Toolkit{}

// Grayscale converts img to 8-bit luminance with the same rounding as
// OpenCV. img should be opaque: the conversion works on premultiplied RGBA,
// so translucent pixels come out darker.
func (Toolkit) Grayscale(img image.Image) *image.Gray {
	src := clone.AsRGBA(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))

	parallel.Line(h, func(start, end int) {
		for y := start; y < end; y++ {
			row := src.Pix[y*src.Stride:]
			out := dst.Pix[y*dst.Stride:]
			for x := 0; x < w; x++ {
				r, g, b := uint32(row[x*4]), uint32(row[x*4+1]), uint32(row[x*4+2])
				out[x] = uint8((r*lumaR + g*lumaG + b*lumaB + lumaHalf) >> lumaShift)
			}
		}
	})
	return dst
}

// Canny runs edge detection with hysteresis thresholds low and high.
func (Toolkit) Canny(gray *image.Gray, low, high float64) *image.Gray {
	return Canny(gray, low, high)
}

// Invert returns the photographic negative of gray.
func (Toolkit) Invert(gray *image.Gray) *image.Gray {
	return grayFromRGBA(effect.Invert(gray))
}

// GaussianBlur smooths gray with a separable ksize x ksize Gaussian.
// Borders are extended and results rounded to the nearest integer.
func (Toolkit) GaussianBlur(gray *image.Gray, ksize int) *image.Gray {
	k1 := gaussianKernel1D(ksize)
	k := convolution.NewKernel(ksize, ksize)
	for y := 0; y < ksize; y++ {
		for x := 0; x < ksize; x++ {
			k.Matrix[y*ksize+x] = k1[y] * k1[x]
		}
	}
	return grayFromRGBA(convolution.Convolve(gray, k, &convolution.Options{Bias: 0.5, KeepAlpha: true}))
}

// MatchTemplate computes the normalized correlation-coefficient surface.
func (Toolkit) MatchTemplate(img, tmpl *image.Gray) *ScoreMap {
	return matchTemplateNCC(img, tmpl)
}

// gaussianKernel1D returns normalized weights for an odd kernel size with
// sigma derived from the size. Sizes up to 7 use the fixed binomial tables
// OpenCV uses for that case, so results line up with cv::GaussianBlur.
func gaussianKernel1D(ksize int) []float64 {
	switch ksize {
	case 1:
		return []float64{1}
	case 3:
		return []float64{0.25, 0.5, 0.25}
	case 5:
		return []float64{0.0625, 0.25, 0.375, 0.25, 0.0625}
	case 7:
		return []float64{0.03125, 0.109375, 0.21875, 0.28125, 0.21875, 0.109375, 0.03125}
	}

	sigma := 0.3*(float64(ksize-1)*0.5-1) + 0.8
	k := make([]float64, ksize)
	var sum float64
	for i := range k {
		x := float64(i - ksize/2)
		k[i] = math.Exp(-x * x / (2 * sigma * sigma))
		sum += k[i]
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

// grayFromRGBA keeps the red channel of an RGBA whose channels are equal.
func grayFromRGBA(src *image.RGBA) *image.Gray {
	b := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		row := src.Pix[y*src.Stride:]
		out := dst.Pix[y*dst.Stride:]
		for x := 0; x < b.Dx(); x++ {
			out[x] = row[x*4]
		}
	}
	return dst
}
