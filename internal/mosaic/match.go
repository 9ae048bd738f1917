package mosaic

import (
	"image"

	"golang.org/x/sync/errgroup"
)

// Candidate is the matching outcome for one masksize.
type Candidate struct {
	MaskSize int `json:"mask_size"`
	Count    int `json:"count"`

	// Width and Height are the template dimensions.
	Width  int `json:"width"`
	Height int `json:"height"`

	// Matches lists the top-left corner of every position scoring at or
	// above the detection threshold. Only filled when the detector collects
	// matches.
	Matches []image.Point `json:"-"`
}

// match scores every present pattern against the edge map and returns the
// match-count array (indexed by resolutionIndexOf) plus one Candidate per
// matched pattern, largest masksize first.
func (d *Detector) match(tk Primitives, edges *image.Gray, patterns []*Pattern) ([]int, []Candidate) {
	p := d.Params
	logger := d.logger()
	verbose := d.verboseLogger()

	counts := make([]int, p.countsLen())
	slots := make([]*Candidate, len(patterns))

	var g errgroup.Group
	g.SetLimit(p.workers())

	for masksize := p.MaxMaskSize(); masksize >= p.MinMaskSize(); masksize-- {
		pi, ri := patternIndexOf(masksize), resolutionIndexOf(masksize)
		if pi < 0 || pi >= len(patterns) || ri < 0 || ri >= len(counts) {
			logger.Printf("mosaic: index out of bounds for masksize %d (pattern %d, resolution %d), skipping",
				masksize, pi, ri)
			continue
		}
		pattern := patterns[pi]
		if pattern == nil {
			continue
		}

		g.Go(func() error {
			tmpl := tk.Grayscale(pattern.Image)
			tb, eb := tmpl.Bounds(), edges.Bounds()
			if tb.Dx() > eb.Dx() || tb.Dy() > eb.Dy() {
				return nil
			}

			scores := tk.MatchTemplate(edges, tmpl)
			c := &Candidate{MaskSize: pattern.MaskSize, Width: tb.Dx(), Height: tb.Dy()}
			if d.CollectMatches {
				c.Matches = scores.Above(p.DetectionThreshold)
				c.Count = len(c.Matches)
			} else {
				c.Count = scores.CountAbove(p.DetectionThreshold)
			}

			counts[ri] = c.Count
			slots[pi] = c
			if verbose != nil {
				verbose.Printf("mosaic: masksize %d (resolution index %d): %d matches", pattern.MaskSize, ri, c.Count)
			}
			return nil
		})
	}
	// Tasks never fail; Wait is the barrier before selection.
	_ = g.Wait()

	candidates := make([]Candidate, 0, len(slots))
	for i := len(slots) - 1; i >= 0; i-- {
		if slots[i] != nil {
			candidates = append(candidates, *slots[i])
		}
	}
	return counts, candidates
}
