package encode

import (
	"image"

	xdraw "golang.org/x/image/draw"
)

// Fit scales img down so it fits in maxWidth x maxHeight, keeping the aspect
// ratio. A zero bound is unconstrained. Images that already fit are
// returned unchanged.
func Fit(img image.Image, maxWidth, maxHeight int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return img
	}

	ratio := 1.0
	if maxWidth > 0 && w > maxWidth {
		ratio = float64(maxWidth) / float64(w)
	}
	if maxHeight > 0 && float64(h)*ratio > float64(maxHeight) {
		ratio = float64(maxHeight) / float64(h)
	}
	if ratio >= 1 {
		return img
	}

	nw := max(1, int(float64(w)*ratio+0.5))
	nh := max(1, int(float64(h)*ratio+0.5))
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}
