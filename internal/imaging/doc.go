// Package imaging provides the image operations behind mosaic detection and
// the MCP server's image tools.
//
// It has three parts:
//
//   - Primitives: grayscale conversion, Canny edge detection, inversion,
//     Gaussian smoothing and normalized cross-correlation template matching.
//     Toolkit implements them in pure Go (bild for per-pixel work, gonum for
//     statistics). Builds with the gocv tag use OpenCV instead; DefaultToolkit
//     returns whichever the build provides.
//   - Loading: a path-keyed ImageCache that decodes PNG, JPEG, GIF, BMP, TIFF
//     and WebP and applies EXIF orientation, plus metadata helpers.
//   - Rendering: region crops, grid overlays and PNG encoding for tool
//     responses.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based with (0,0) at the
// top-left corner. For regions, (x1,y1) is inclusive and (x2,y2) exclusive.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. Every other function is stateless
// and returns new images without modifying its inputs.
package imaging
