//go:build gocv

package imaging

import (
	"image"

	"gocv.io/x/gocv"
)

// OpenCV implements Primitives on top of gocv. It needs OpenCV 4 installed
// and is only compiled with the gocv build tag.
type OpenCV struct{}

var _ Primitives = OpenCV{}

// DefaultToolkit returns the OpenCV-backed Primitives.
func DefaultToolkit() Primitives {
	return OpenCV{}
}

func (OpenCV) Grayscale(img image.Image) *image.Gray {
	src := toNRGBABytes(img)
	b := img.Bounds()
	in, err := gocv.NewMatFromBytes(b.Dy(), b.Dx(), gocv.MatTypeCV8UC4, src)
	if err != nil {
		return image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	}
	defer in.Close()

	out := gocv.NewMat()
	defer out.Close()
	gocv.CvtColor(in, &out, gocv.ColorRGBAToGray)
	return grayFromMat(out)
}

func (OpenCV) Canny(gray *image.Gray, low, high float64) *image.Gray {
	return grayOp(gray, func(in gocv.Mat, out *gocv.Mat) {
		gocv.Canny(in, out, float32(low), float32(high))
	})
}

func (OpenCV) Invert(gray *image.Gray) *image.Gray {
	return grayOp(gray, func(in gocv.Mat, out *gocv.Mat) {
		gocv.BitwiseNot(in, out)
	})
}

func (OpenCV) GaussianBlur(gray *image.Gray, ksize int) *image.Gray {
	return grayOp(gray, func(in gocv.Mat, out *gocv.Mat) {
		gocv.GaussianBlur(in, out, image.Pt(ksize, ksize), 0, 0, gocv.BorderDefault)
	})
}

func (OpenCV) MatchTemplate(img, tmpl *image.Gray) *ScoreMap {
	ib, tb := img.Bounds(), tmpl.Bounds()
	if tb.Dx() > ib.Dx() || tb.Dy() > ib.Dy() {
		return nil
	}
	in, err := matFromGray(img)
	if err != nil {
		return nil
	}
	defer in.Close()
	t, err := matFromGray(tmpl)
	if err != nil {
		return nil
	}
	defer t.Close()

	res := gocv.NewMat()
	defer res.Close()
	mask := gocv.NewMat()
	defer mask.Close()
	gocv.MatchTemplate(in, t, &res, gocv.TmCcoeffNormed, mask)

	out := NewScoreMap(res.Cols(), res.Rows())
	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			out.Scores[y*out.Width+x] = res.GetFloatAt(y, x)
		}
	}
	return out
}

func grayOp(gray *image.Gray, fn func(in gocv.Mat, out *gocv.Mat)) *image.Gray {
	in, err := matFromGray(gray)
	if err != nil {
		b := gray.Bounds()
		return image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	}
	defer in.Close()
	out := gocv.NewMat()
	defer out.Close()
	fn(in, &out)
	return grayFromMat(out)
}

func matFromGray(gray *image.Gray) (gocv.Mat, error) {
	b := gray.Bounds()
	buf := make([]byte, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := gray.PixOffset(b.Min.X, y)
		buf = append(buf, gray.Pix[off:off+b.Dx()]...)
	}
	return gocv.NewMatFromBytes(b.Dy(), b.Dx(), gocv.MatTypeCV8UC1, buf)
}

func grayFromMat(m gocv.Mat) *image.Gray {
	out := image.NewGray(image.Rect(0, 0, m.Cols(), m.Rows()))
	copy(out.Pix, m.ToBytes())
	return out
}

func toNRGBABytes(img image.Image) []byte {
	b := img.Bounds()
	buf := make([]byte, 0, 4*b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			buf = append(buf, byte(r>>8), byte(g>>8), byte(bl>>8), 255)
		}
	}
	return buf
}
