package mosaic

import "image"

// preprocess turns the input into the edge map every template is matched
// against: dark edges on a bright, lightly smoothed background.
func preprocess(tk Primitives, src Image, p Params) *image.Gray {
	rgba := normalize(src)
	gray := tk.Grayscale(rgba)
	edges := tk.Canny(gray, p.CannyLow, p.CannyHigh)
	return tk.GaussianBlur(tk.Invert(edges), p.BlurKernelSize)
}

// EdgeMap returns the preprocessed edge map of src, the image every
// template is matched against.
func (d *Detector) EdgeMap(src Image) (*image.Gray, error) {
	if err := validate(src, d.Params); err != nil {
		return nil, err
	}
	return preprocess(d.toolkit(), src, d.Params), nil
}

// normalize expands an RGB or RGBA buffer into opaque RGBA. Alpha is
// dropped so transparent pixels keep their colour in the grayscale pass.
func normalize(src Image) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, src.Width, src.Height))
	n := src.Width * src.Height
	ch := src.Channels
	for i := 0; i < n; i++ {
		s := src.Pix[i*ch : i*ch+3 : i*ch+3]
		d := dst.Pix[i*4 : i*4+4 : i*4+4]
		d[0], d[1], d[2], d[3] = s[0], s[1], s[2], 0xff
	}
	return dst
}
