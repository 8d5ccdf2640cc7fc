package pixel

import (
	"image"
	"image/color"
)

// Image is the canonical capture result: Width*Height pixels of Channels
// bytes each, in R,G,B[,A] order with no row padding.
type Image struct {
	Width    int
	Height   int
	Channels int
	Pix      []byte
}

var _ image.Image = (*Image)(nil)

func (m *Image) ColorModel() color.Model {
	return color.RGBAModel
}

func (m *Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.Width, m.Height)
}

func (m *Image) At(x, y int) color.Color {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return color.RGBA{}
	}
	i := (y*m.Width + x) * m.Channels
	a := uint8(0xFF)
	if m.Channels == 4 {
		a = m.Pix[i+3]
	}
	return color.RGBA{R: m.Pix[i], G: m.Pix[i+1], B: m.Pix[i+2], A: a}
}

// RGBA returns the image as an *image.RGBA. Four-channel images share Pix;
// three-channel images are expanded with opaque alpha.
func (m *Image) RGBA() *image.RGBA {
	if m.Channels == 4 {
		return &image.RGBA{
			Pix:    m.Pix,
			Stride: m.Width * 4,
			Rect:   m.Bounds(),
		}
	}

	img := image.NewRGBA(m.Bounds())
	for i, j := 0, 0; i+2 < len(m.Pix); i, j = i+3, j+4 {
		img.Pix[j] = m.Pix[i]
		img.Pix[j+1] = m.Pix[i+1]
		img.Pix[j+2] = m.Pix[i+2]
		img.Pix[j+3] = 0xFF
	}
	return img
}
