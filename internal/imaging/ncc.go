package imaging

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/parallel"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// flatWindowEps is the relative variance below which an image window counts
// as flat and scores zero. Matches 10*FLT_EPSILON.
const flatWindowEps = 10 * 1.1920928955078125e-07

// flatTemplateEps is the template variance below which every placement
// matches. Matches DBL_EPSILON.
const flatTemplateEps = 2.220446049250313e-16

// templateRun is a straight run of equal-valued template pixels that differ
// from the template background. Its contribution to the correlation is
// weight times the image sum under the run.
type templateRun struct {
	dx, dy   int
	n        int
	vertical bool
	weight   float64
}

// templatePrecomp describes a template as a background level plus runs.
// Synthetic and line-art templates decompose into a handful of runs, which
// keeps the correlation cost independent of template area.
type templatePrecomp struct {
	w, h int
	area float64
	mean float64
	norm float64 // sqrt(area * variance)
	bg   float64
	flat bool
	runs []templateRun
}

// grayPrecomp holds prefix sums of an image. All tables are float64; values
// are integer sums well below 2^53 so they are exact.
type grayPrecomp struct {
	w, h       int
	rowCum     []float64 // (w+1) per row: sum of the first x pixels
	colCum     []float64 // w per row, h+1 rows: sum of the first y pixels
	integral   []float64 // (w+1)*(h+1) summed-area table
	integralSq []float64 // summed-area table of squares
}

func prepareTemplate(tmpl *image.Gray) *templatePrecomp {
	b := tmpl.Bounds()
	w, h := b.Dx(), b.Dy()
	vals := make([]float64, w*h)
	var hist [256]int
	for y := 0; y < h; y++ {
		row := tmpl.Pix[tmpl.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < w; x++ {
			v := row[x]
			vals[y*w+x] = float64(v)
			hist[v]++
		}
	}

	mean, variance := stat.PopMeanVariance(vals, nil)
	tp := &templatePrecomp{
		w:    w,
		h:    h,
		area: float64(w * h),
		mean: mean,
	}
	if variance < flatTemplateEps {
		tp.flat = true
		return tp
	}
	tp.norm = math.Sqrt(variance * tp.area)

	mode := 0
	for v, n := range hist {
		if n > hist[mode] {
			mode = v
		}
	}
	tp.bg = float64(mode)

	covered := make([]bool, w*h)

	// Horizontal runs of two or more pixels first.
	for y := 0; y < h; y++ {
		for x := 0; x < w; {
			v := vals[y*w+x]
			if v == tp.bg {
				x++
				continue
			}
			end := x + 1
			for end < w && vals[y*w+end] == v {
				end++
			}
			if end-x >= 2 {
				tp.runs = append(tp.runs, templateRun{dx: x, dy: y, n: end - x, weight: v - tp.bg})
				for i := x; i < end; i++ {
					covered[y*w+i] = true
				}
			}
			x = end
		}
	}

	// Whatever is left goes into vertical runs, single pixels included.
	for x := 0; x < w; x++ {
		for y := 0; y < h; {
			i := y*w + x
			v := vals[i]
			if covered[i] || v == tp.bg {
				y++
				continue
			}
			end := y + 1
			for end < h && !covered[end*w+x] && vals[end*w+x] == v {
				end++
			}
			tp.runs = append(tp.runs, templateRun{dx: x, dy: y, n: end - y, vertical: true, weight: v - tp.bg})
			for j := y; j < end; j++ {
				covered[j*w+x] = true
			}
			y = end
		}
	}

	return tp
}

func prepareImage(img *image.Gray) *grayPrecomp {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	s := w + 1
	gp := &grayPrecomp{
		w:          w,
		h:          h,
		rowCum:     make([]float64, h*s),
		colCum:     make([]float64, (h+1)*w),
		integral:   make([]float64, (h+1)*s),
		integralSq: make([]float64, (h+1)*s),
	}

	row := make([]float64, w)
	for y := 0; y < h; y++ {
		src := img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):]
		var sq float64
		for x := 0; x < w; x++ {
			v := float64(src[x])
			row[x] = v
			gp.colCum[(y+1)*w+x] = gp.colCum[y*w+x] + v

			sq += v * v
			gp.integralSq[(y+1)*s+x+1] = gp.integralSq[y*s+x+1] + sq
		}
		cum := gp.rowCum[y*s : (y+1)*s]
		floats.CumSum(cum[1:], row)
		for x := 0; x <= w; x++ {
			gp.integral[(y+1)*s+x] = gp.integral[y*s+x] + cum[x]
		}
	}
	return gp
}

func (gp *grayPrecomp) windowSums(x, y, w, h int) (sum, sumSq float64) {
	s := gp.w + 1
	a, b := y*s+x, y*s+x+w
	c, d := (y+h)*s+x, (y+h)*s+x+w
	sum = gp.integral[d] - gp.integral[b] - gp.integral[c] + gp.integral[a]
	sumSq = gp.integralSq[d] - gp.integralSq[b] - gp.integralSq[c] + gp.integralSq[a]
	return sum, sumSq
}

func (gp *grayPrecomp) runSum(x, y int, r templateRun) float64 {
	if r.vertical {
		x += r.dx
		return gp.colCum[(y+r.dy+r.n)*gp.w+x] - gp.colCum[(y+r.dy)*gp.w+x]
	}
	i := (y+r.dy)*(gp.w+1) + x + r.dx
	return gp.rowCum[i+r.n] - gp.rowCum[i]
}

// matchTemplateNCC slides tmpl over img and scores every placement with the
// normalized correlation coefficient
//
//	sum((I - mean(I)) * (T - mean(T))) / sqrt(sum((I-mean(I))^2) * sum((T-mean(T))^2))
//
// Flat windows score 0. A flat template scores 1 everywhere. Scores that
// overshoot 1 through rounding are clamped, larger overshoots become 0.
func matchTemplateNCC(img, tmpl *image.Gray) *ScoreMap {
	ib, tb := img.Bounds(), tmpl.Bounds()
	if tb.Dx() == 0 || tb.Dy() == 0 || tb.Dx() > ib.Dx() || tb.Dy() > ib.Dy() {
		return nil
	}
	rw, rh := ib.Dx()-tb.Dx()+1, ib.Dy()-tb.Dy()+1
	out := NewScoreMap(rw, rh)

	tp := prepareTemplate(tmpl)
	if tp.flat {
		for i := range out.Scores {
			out.Scores[i] = 1
		}
		return out
	}

	gp := prepareImage(img)
	bgWeight := tp.bg - tp.mean

	parallel.Line(rh, func(start, end int) {
		for y := start; y < end; y++ {
			scores := out.Scores[y*rw : (y+1)*rw]
			for x := 0; x < rw; x++ {
				sum, sumSq := gp.windowSums(x, y, tp.w, tp.h)
				diff2 := sumSq - sum*sum/tp.area
				if diff2 <= math.Min(0.5, flatWindowEps*sumSq) {
					continue
				}

				num := bgWeight * sum
				for _, r := range tp.runs {
					num += r.weight * gp.runSum(x, y, r)
				}

				t := math.Sqrt(diff2) * tp.norm
				switch an := math.Abs(num); {
				case an < t:
					scores[x] = float32(num / t)
				case an < t*1.125:
					if num > 0 {
						scores[x] = 1
					} else {
						scores[x] = -1
					}
				}
			}
		}
	})
	return out
}
