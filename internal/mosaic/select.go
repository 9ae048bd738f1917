package mosaic

import (
	"log"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Score bonuses applied before groups are compared. Bonuses are truncated
// toward zero, never rounded.
const (
	sumBonus = 0.05
	maxBonus = 0.15
)

type selection struct {
	resolution int
	found      bool
	extrema    []int
	reason     string
}

// group is a closed span [start, end] of the match-count array.
type group struct {
	start, end int
	sum        int
	max        int
	pos        int // first index of max, scanning from start
}

func sumScore(sum int) int {
	return sum + int(float64(sum)*sumBonus)
}

func maxScore(max int) int {
	return max + int(float64(max)*maxBonus)
}

// localMinima returns every interior index i with
// counts[i] < counts[i-1] && counts[i] <= counts[i+1].
//
// The test is strict on the left and non-strict on the right, so a flat
// valley is reported once, at its leading edge. Making it symmetric moves
// group boundaries and changes results.
func localMinima(counts []int) []int {
	var minima []int
	for i := 1; i < len(counts)-1; i++ {
		if counts[i] < counts[i-1] && counts[i] <= counts[i+1] {
			minima = append(minima, i)
		}
	}
	return minima
}

// extremaIndices brackets the local minima with the range sentinels and
// returns them sorted and deduplicated.
func extremaIndices(counts []int, p Params) []int {
	idx := append([]int{p.LowRange}, localMinima(counts)...)
	idx = append(idx, p.HighRange+2)
	sort.Ints(idx)

	out := idx[:1]
	for _, v := range idx[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}

func summarize(counts []int, start, end int) group {
	g := group{start: start, end: end, max: -1, pos: -1}
	for i := start; i <= end; i++ {
		g.sum += counts[i]
		if counts[i] > g.max {
			g.max = counts[i]
			g.pos = i
		}
	}
	return g
}

// beats reports whether g should replace best: higher sum score, then higher
// max score, then the smaller peak position.
func (g group) beats(best group) bool {
	gs, bs := sumScore(g.sum), sumScore(best.sum)
	if gs != bs {
		return gs > bs
	}
	gm, bm := maxScore(g.max), maxScore(best.max)
	if gm != bm {
		return gm > bm
	}
	return g.pos < best.pos
}

// selectResolution folds the match-count curve into a single block size.
func selectResolution(counts []int, p Params, logger *log.Logger) selection {
	sel := selection{resolution: p.Inconclusive()}
	sel.extrema = extremaIndices(counts, p)

	if len(sel.extrema) < 2 {
		sel.reason = "not enough extrema to form groups"
		return sel
	}

	var best *group
	for i := 0; i+1 < len(sel.extrema); i++ {
		start, end := sel.extrema[i], sel.extrema[i+1]
		if start < 0 || end >= len(counts) || start > end {
			if logger != nil {
				logger.Printf("mosaic: invalid group [%d, %d] for %d counts, skipping", start, end, len(counts))
			}
			continue
		}
		g := summarize(counts, start, end)
		if g.max <= 0 {
			continue
		}
		if best == nil || g.beats(*best) {
			best = &g
		}
	}

	if best == nil {
		sel.reason = "no group with matches"
		return sel
	}
	if res := best.pos + 1; res != 0 {
		sel.resolution = res
		sel.found = true
		return sel
	}
	sel.reason = "peak resolved to zero"
	return sel
}

// curveSummary returns the total match count and the resolution index
// holding the most matches.
func curveSummary(counts []int) (total int, peak int) {
	if len(counts) == 0 {
		return 0, -1
	}
	f := make([]float64, len(counts))
	for i, c := range counts {
		f[i] = float64(c)
	}
	return int(floats.Sum(f)), floats.MaxIdx(f)
}
