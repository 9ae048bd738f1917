// Package mosaic estimates the block size of a pixelation (mosaic) pattern
// baked into a raster image.
//
// The detector answers one question per call: which grid spacing best
// explains the edges found in the image. It returns a single integer that a
// downstream upscaler uses to pick its inverse-pixelation strategy.
//
// # Pipeline
//
//  1. Validation: reject malformed buffers before any work is done.
//  2. Edge map: normalize to opaque RGBA, convert to grayscale, run Canny
//     with thresholds (8, 30), invert so edges are dark, smooth with a 5x5
//     Gaussian. Computed once per call.
//  3. Patterns: one synthetic grid-line template per masksize in [4, 27].
//     A template of side 2*masksize+3 is only built when it fits the image.
//  4. Matching: normalized cross-correlation of every template against the
//     edge map; positions scoring at or above 0.29 are counted.
//  5. Selection: the match-count curve is split at its local minima and the
//     strongest group wins. Its peak position is the answer.
//
// # Index Mapping
//
// Two offsets tie the pipeline together and are only ever computed through
// patternIndexOf and resolutionIndexOf:
//
//	pattern index    = masksize - 2
//	resolution index = masksize - 1
//
// The selector reports position+1, i.e. the masksize of the winning peak.
//
// # Results
//
//   - [4, 27]: detected block size
//   - 26 (HighRange+1): inconclusive, no reliable grid found
//   - -1: invalid input
//
// # Concurrency
//
// A Detector holds no per-call state and may be shared between goroutines.
// Inside a call, candidate templates are matched concurrently; each task owns
// its template and writes a distinct slot of the count array, and all tasks
// are joined before selection runs.
package mosaic
