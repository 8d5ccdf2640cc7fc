// Package pixel turns raw native capture buffers into canonical RGB/RGBA
// images.
package pixel

import (
	"fmt"
	"math"
)

// Layout describes the byte order of one 4-byte source pixel.
type Layout int

const (
	// LayoutBGRA is blue, green, red, alpha (GDI DIBs, CoreGraphics, 32-bit X11 visuals).
	LayoutBGRA Layout = iota
	// LayoutBGRX is BGRA whose fourth byte is padding with no defined value.
	LayoutBGRX
	// LayoutRGBA is already in canonical order.
	LayoutRGBA
	// LayoutRGBX is RGBA whose fourth byte is padding.
	LayoutRGBX
)

// SourcePixelSize is the size in bytes of every supported source pixel.
const SourcePixelSize = 4

func (l Layout) String() string {
	switch l {
	case LayoutBGRA:
		return "BGRA"
	case LayoutBGRX:
		return "BGRX"
	case LayoutRGBA:
		return "RGBA"
	case LayoutRGBX:
		return "RGBX"
	default:
		return fmt.Sprintf("Layout(%d)", int(l))
	}
}

// swapsRedBlue reports whether bytes 0 and 2 hold blue and red.
func (l Layout) swapsRedBlue() bool {
	return l == LayoutBGRA || l == LayoutBGRX
}

// opaque reports whether the fourth byte carries no alpha.
func (l Layout) opaque() bool {
	return l == LayoutBGRX || l == LayoutRGBX
}

// Raw is an unprocessed capture buffer exactly as the native primitive
// returned it. Stride may exceed Width*SourcePixelSize when the platform pads
// rows.
type Raw struct {
	Data   []byte
	Width  int
	Height int
	Stride int
	Layout Layout
}

// RowBytes is the number of meaningful bytes in one row
func (r *Raw) RowBytes() int {
	return r.Width * SourcePixelSize
}

// Validate checks the declared geometry against the buffer length.
// The last row may omit its padding.
func (r *Raw) Validate() error {
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("invalid dimensions %dx%d", r.Width, r.Height)
	}
	if r.Width > math.MaxInt/SourcePixelSize {
		return fmt.Errorf("width %d overflows row size", r.Width)
	}
	if r.Stride < r.RowBytes() {
		return fmt.Errorf("stride %d smaller than row width %d", r.Stride, r.RowBytes())
	}
	if r.Height > 1 && r.Stride > (math.MaxInt-r.RowBytes())/(r.Height-1) {
		return fmt.Errorf("stride %d over %d rows overflows buffer size", r.Stride, r.Height)
	}
	need := r.Stride*(r.Height-1) + r.RowBytes()
	if len(r.Data) < need {
		return fmt.Errorf("buffer holds %d bytes, %dx%d at stride %d needs %d",
			len(r.Data), r.Width, r.Height, r.Stride, need)
	}
	return nil
}
