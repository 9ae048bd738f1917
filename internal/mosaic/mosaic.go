package mosaic

import (
	"image"
	"log"
	"runtime"

	"github.com/disintegration/imaging"

	imgtools "github.com/ironsheep/mosaic-mcp/internal/imaging"
)

// Default tunables of the detector.
const (
	LowRange           = 2    // smallest block size tested
	HighRange          = 25   // largest block size tested
	CannyLow           = 8    // Canny hysteresis low threshold
	CannyHigh          = 30   // Canny hysteresis high threshold
	BlurKernelSize     = 5    // Gaussian smoothing kernel side, must be odd
	DetectionThreshold = 0.29 // minimum correlation for a match

	// Invalid is returned when the input cannot be processed.
	Invalid = -1
)

// Primitives is the image-processing capability set the detector depends on.
type Primitives = imgtools.Primitives

// Params holds the tunables of a Detector. DefaultParams returns the
// package defaults; other values are accepted for experimentation.
type Params struct {
	LowRange           int
	HighRange          int
	CannyLow           float64
	CannyHigh          float64
	BlurKernelSize     int
	DetectionThreshold float64

	// Workers bounds the number of candidates matched concurrently.
	// Zero or negative means GOMAXPROCS.
	Workers int
}

// DefaultParams returns the package default tunables.
func DefaultParams() Params {
	return Params{
		LowRange:           LowRange,
		HighRange:          HighRange,
		CannyLow:           CannyLow,
		CannyHigh:          CannyHigh,
		BlurKernelSize:     BlurKernelSize,
		DetectionThreshold: DetectionThreshold,
	}
}

// Inconclusive is the sentinel returned when no reliable grid was found.
func (p Params) Inconclusive() int {
	return p.HighRange + 1
}

// MinMaskSize is the smallest masksize tested.
func (p Params) MinMaskSize() int {
	return p.LowRange + 2
}

// MaxMaskSize is the largest masksize tested.
func (p Params) MaxMaskSize() int {
	return p.HighRange + 2
}

// countsLen is the length of the match-count array.
func (p Params) countsLen() int {
	return p.HighRange + 3
}

func (p Params) workers() int {
	if p.Workers > 0 {
		return p.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// patternIndexOf maps a masksize to its slot in the pattern table.
func patternIndexOf(masksize int) int {
	return masksize - 2
}

// resolutionIndexOf maps a masksize to its slot in the match-count array.
func resolutionIndexOf(masksize int) int {
	return masksize - 1
}

// LinePeriod is the distance between grid lines in the template for
// masksize.
func LinePeriod(masksize int) int {
	return masksize - 1
}

// patternSide is the side length of the synthetic template for masksize.
func patternSide(masksize int) int {
	return 2 + masksize + masksize - 1 + 2
}

// Image is an interleaved 8-bit pixel buffer borrowed for one call.
type Image struct {
	Pix      []byte
	Width    int
	Height   int
	Channels int // 3 (RGB) or 4 (RGBA)
}

// Status classifies a detection result.
type Status string

const (
	StatusDetected     Status = "detected"
	StatusInconclusive Status = "inconclusive"
	StatusInvalid      Status = "invalid"
)

// Report describes one detection in full.
type Report struct {
	// Resolution is the value Detect returns.
	Resolution int    `json:"resolution"`
	Status     Status `json:"status"`

	// Counts holds the match count per resolution index (masksize-1).
	Counts []int `json:"counts,omitempty"`

	// Extrema are the group boundaries used by the selector.
	Extrema []int `json:"extrema,omitempty"`

	// Candidates holds one entry per masksize whose template was matched,
	// largest masksize first.
	Candidates []Candidate `json:"candidates,omitempty"`

	// TotalMatches sums Counts; PeakMaskSize is the masksize with the single
	// highest count, which can differ from Resolution.
	TotalMatches int `json:"total_matches"`
	PeakMaskSize int `json:"peak_mask_size,omitempty"`

	// LinePeriod is the spacing of the grid lines in the winning template,
	// one less than Resolution. Zero unless Status is detected.
	LinePeriod int `json:"line_period,omitempty"`

	// Reason explains an invalid or inconclusive result.
	Reason string `json:"reason,omitempty"`
}

// CountFor returns the match count recorded for masksize, or 0 when it was
// not tested.
func (r *Report) CountFor(masksize int) int {
	i := resolutionIndexOf(masksize)
	if i < 0 || i >= len(r.Counts) {
		return 0
	}
	return r.Counts[i]
}

// Detector runs mosaic detection with a fixed set of parameters.
type Detector struct {
	Params Params

	// Primitives performs the image operations. Nil selects the build's
	// default toolkit.
	Primitives Primitives

	// Logger receives diagnostics. Nil selects the standard logger.
	Logger *log.Logger

	// Verbose enables per-candidate diagnostics.
	Verbose bool

	// CollectMatches records every matched position on the report so an
	// overlay can be drawn. Costs memory proportional to the match count.
	CollectMatches bool
}

// New returns a Detector with the default parameters.
func New() *Detector {
	return &Detector{Params: DefaultParams()}
}

var defaultDetector = New()

// Detect returns the mosaic block size of an interleaved RGB or RGBA buffer
// using the default parameters.
//
// Parameters:
//   - pixels: Row-major interleaved samples, at least width*height*channels
//     bytes. The buffer is only read and is not retained after the call.
//   - width, height: Image dimensions in pixels, both positive.
//   - channels: 3 for RGB or 4 for RGBA. Alpha is ignored.
//
// Returns the block size in 4..25, Inconclusive (26) when the match-count
// curve shows no usable grid, or Invalid (-1) when the input is rejected.
// Detect never panics on malformed input.
//
// Detect is safe for concurrent use.
func Detect(pixels []byte, width, height, channels int) int {
	return defaultDetector.Detect(pixels, width, height, channels)
}

// DetectImage runs Detect on a decoded image.
func DetectImage(img image.Image) int {
	return defaultDetector.DetectImage(img)
}

// Detect returns the mosaic block size of an interleaved RGB or RGBA buffer.
func (d *Detector) Detect(pixels []byte, width, height, channels int) int {
	return d.Analyze(Image{Pix: pixels, Width: width, Height: height, Channels: channels}).Resolution
}

// DetectImage runs Detect on a decoded image.
func (d *Detector) DetectImage(img image.Image) int {
	return d.Analyze(FromImage(img)).Resolution
}

// FromImage wraps a decoded image as a 4-channel buffer. Images that are
// already tightly packed NRGBA are borrowed, everything else is converted.
func FromImage(img image.Image) Image {
	nrgba, ok := img.(*image.NRGBA)
	if !ok || nrgba.Stride != 4*nrgba.Rect.Dx() {
		nrgba = imaging.Clone(img)
	}
	return Image{
		Pix:      nrgba.Pix,
		Width:    nrgba.Rect.Dx(),
		Height:   nrgba.Rect.Dy(),
		Channels: 4,
	}
}

// Analyze runs the full pipeline and returns a report.
//
// Returns:
//   - *Report: Never nil. Resolution carries the same value Detect returns
//     and Status says which of the three outcomes it is. Counts holds the
//     match-count curve even when the result is inconclusive.
//
// # Pipeline
//
//  1. Validation: dimensions, channel count and buffer length. Rejected
//     input yields StatusInvalid with Reason set.
//
//  2. Templates: one synthetic grid per masksize in MinMaskSize..MaxMaskSize
//     that fits inside the image. Larger ones are skipped and score 0.
//
//  3. Edge map: grayscale, Canny(CannyLow, CannyHigh), inversion and a
//     BlurKernelSize Gaussian, in that order.
//
//  4. Matching: normalized correlation of every template against the edge
//     map. Placements scoring at least DetectionThreshold are counted.
//
//  5. Selection: the count curve is split at its local minima and the
//     strongest group's peak gives the block size.
//
// Templates are matched concurrently on up to Params.Workers goroutines;
// the result does not depend on scheduling.
func (d *Detector) Analyze(src Image) *Report {
	p := d.Params
	logger := d.logger()

	if err := validate(src, p); err != nil {
		logger.Printf("mosaic: invalid input: %v", err)
		return &Report{Resolution: Invalid, Status: StatusInvalid, Reason: err.Error()}
	}

	if minSide := patternSide(p.MaxMaskSize()); src.Width < minSide || src.Height < minSide {
		logger.Printf("mosaic: image %dx%d smaller than %dx%d, testing partial range",
			src.Width, src.Height, minSide, minSide)
	}

	tk := d.toolkit()
	edges := preprocess(tk, src, p)

	patterns := generatePatterns(src.Width, src.Height, p, logger)
	counts, candidates := d.match(tk, edges, patterns)

	if d.Verbose {
		logger.Printf("mosaic: counts [%d..%d] = %v",
			resolutionIndexOf(p.MinMaskSize()), resolutionIndexOf(p.MaxMaskSize()),
			counts[resolutionIndexOf(p.MinMaskSize()):resolutionIndexOf(p.MaxMaskSize())+1])
	}

	sel := selectResolution(counts, p, logger)
	logger.Printf("mosaic: extrema %v", sel.extrema)

	total, peak := curveSummary(counts)
	report := &Report{
		Resolution:   sel.resolution,
		Counts:       counts,
		Extrema:      sel.extrema,
		Candidates:   candidates,
		TotalMatches: total,
		Status:       StatusDetected,
	}
	if total > 0 {
		report.PeakMaskSize = peak + 1
	}
	if !sel.found {
		report.Status = StatusInconclusive
		report.Reason = sel.reason
		logger.Printf("mosaic: inconclusive (%s), using %d", sel.reason, sel.resolution)
	} else {
		report.LinePeriod = LinePeriod(sel.resolution)
		logger.Printf("mosaic: detected block size %d", sel.resolution)
	}
	return report
}

func (d *Detector) logger() *log.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return log.Default()
}

// verboseLogger returns nil unless per-candidate output is enabled.
func (d *Detector) verboseLogger() *log.Logger {
	if !d.Verbose {
		return nil
	}
	return d.logger()
}

func (d *Detector) toolkit() Primitives {
	if d.Primitives != nil {
		return d.Primitives
	}
	return imgtools.DefaultToolkit()
}
