package mosaic

import (
	"errors"
	"fmt"
)

var (
	errNoPixels      = errors.New("pixel buffer is empty")
	errBadDimensions = errors.New("width and height must be positive")
	errBadChannels   = errors.New("channel count must be 3 or 4")
	errShortBuffer   = errors.New("pixel buffer shorter than width*height*channels")
	errBadKernel     = errors.New("blur kernel size must be a positive odd number")
	errBadRange      = errors.New("candidate range is empty")
)

// validate gates entry to the pipeline. No work is done on failure.
func validate(src Image, p Params) error {
	if len(src.Pix) == 0 {
		return errNoPixels
	}
	if src.Width <= 0 || src.Height <= 0 {
		return fmt.Errorf("%w: got %dx%d", errBadDimensions, src.Width, src.Height)
	}
	if src.Channels != 3 && src.Channels != 4 {
		return fmt.Errorf("%w: got %d", errBadChannels, src.Channels)
	}
	// Compared by division: width*height*channels can overflow int.
	if src.Width > len(src.Pix)/src.Channels/src.Height {
		return fmt.Errorf("%w: have %d bytes for %dx%d with %d channels",
			errShortBuffer, len(src.Pix), src.Width, src.Height, src.Channels)
	}
	if p.BlurKernelSize <= 0 || p.BlurKernelSize%2 == 0 {
		return fmt.Errorf("%w: got %d", errBadKernel, p.BlurKernelSize)
	}
	if p.LowRange < 0 || p.HighRange < p.LowRange {
		return fmt.Errorf("%w: [%d, %d]", errBadRange, p.LowRange, p.HighRange)
	}
	return nil
}
