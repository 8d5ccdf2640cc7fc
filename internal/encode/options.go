package encode

import (
	"image"
	"image/draw"
	"io"
)

// Options are adjustments callers apply to a capture before encoding it
type Options struct {
	Format    Format
	MaxWidth  int
	MaxHeight int
	// Label is drawn in the top-left corner when non-empty
	Label string
}

// Apply scales img to the size bounds and draws the label. img is never
// modified.
func (o Options) Apply(img image.Image) image.Image {
	out := Fit(img, o.MaxWidth, o.MaxHeight)
	if o.Label == "" {
		return out
	}

	dst, ok := out.(*image.RGBA)
	if !ok || out == img {
		b := out.Bounds()
		dst = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(dst, dst.Bounds(), out, b.Min, draw.Src)
	}
	NewLabel(o.Label).Render(dst)
	return dst
}

// Write applies o to img and encodes the result
func (o Options) Write(w io.Writer, img image.Image) error {
	f := o.Format
	if f == "" {
		f = PNG
	}
	return Encode(w, o.Apply(img), f)
}
