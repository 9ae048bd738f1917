//go:build !gocv

package imaging

// DefaultToolkit returns the Primitives used when a caller does not supply
// one. Builds without the gocv tag use the pure Go Toolkit.
func DefaultToolkit() Primitives {
	return Toolkit{}
}
