package encode

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Label draws a caption box in the top-left corner of a capture
type Label struct {
	Text       string
	TextColor  color.RGBA
	Background color.RGBA
	Padding    int
	Opacity    float64 // 0.0 to 1.0
}

// NewLabel creates a white-on-black label
func NewLabel(text string) *Label {
	return &Label{
		Text:       text,
		TextColor:  color.RGBA{255, 255, 255, 255},
		Background: color.RGBA{0, 0, 0, 255},
		Padding:    5,
		Opacity:    0.75,
	}
}

// Render draws the label onto img
func (l *Label) Render(img *image.RGBA) {
	if l.Text == "" {
		return
	}

	face := basicfont.Face7x13
	lineHeight := face.Height

	d := &font.Drawer{Face: face}
	textWidth := d.MeasureString(l.Text).Ceil()

	boxWidth := textWidth + l.Padding*2
	boxHeight := lineHeight + l.Padding*2
	bg := image.NewRGBA(image.Rect(0, 0, boxWidth, boxHeight))
	draw.Draw(bg, bg.Bounds(), &image.Uniform{l.Background}, image.Point{}, draw.Src)

	textDrawer := &font.Drawer{
		Dst:  bg,
		Src:  image.NewUniform(l.TextColor),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(l.Padding), Y: fixed.I(l.Padding + face.Ascent)},
	}
	textDrawer.DrawString(l.Text)

	origin := img.Bounds().Min
	BlendImage(img, bg, origin.X, origin.Y, l.Opacity)
}

// BlendImage blends src onto dst at (x, y) with the given opacity, clipping
// to dst.
func BlendImage(dst *image.RGBA, src image.Image, x, y int, opacity float64) {
	srcBounds := src.Bounds()
	dstBounds := dst.Bounds()

	for sy := srcBounds.Min.Y; sy < srcBounds.Max.Y; sy++ {
		dy := y + (sy - srcBounds.Min.Y)
		if dy < dstBounds.Min.Y || dy >= dstBounds.Max.Y {
			continue
		}

		for sx := srcBounds.Min.X; sx < srcBounds.Max.X; sx++ {
			dx := x + (sx - srcBounds.Min.X)
			if dx < dstBounds.Min.X || dx >= dstBounds.Max.X {
				continue
			}

			sr, sg, sb, sa := src.At(sx, sy).RGBA()
			alpha := float64(sa) * opacity / 65535.0
			if alpha <= 0 {
				continue
			}

			// Premultiplied source-over
			dr, dg, db, da := dst.At(dx, dy).RGBA()
			outAlpha := alpha + float64(da)/65535.0*(1-alpha)
			blend := func(s, d uint32) uint8 {
				v := float64(s)/65535.0*opacity + float64(d)/65535.0*(1-alpha)
				return uint8(min(v, 1)*255 + 0.5)
			}
			dst.SetRGBA(dx, dy, color.RGBA{
				R: blend(sr, dr),
				G: blend(sg, dg),
				B: blend(sb, db),
				A: uint8(outAlpha*255 + 0.5),
			})
		}
	}
}
