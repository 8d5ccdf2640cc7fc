package pixel

import (
	"fmt"

	"github.com/bryanchriswhite/surfacecap/internal/surface"
)

// Normalize converts raw into a canonical image with the requested channel
// count (3 for RGB, 4 for RGBA). Rows are de-strided, red and blue are
// swapped for BGR layouts and alpha is dropped for 3-channel output.
// Rotation is not handled here; descriptor geometry is already oriented.
func Normalize(raw *Raw, channels int) (*Image, error) {
	if raw == nil {
		return nil, surface.Wrap(surface.ErrDecodeFailed, "normalize", 0, fmt.Errorf("nil buffer"))
	}
	if channels != 3 && channels != 4 {
		return nil, surface.Wrap(surface.ErrDecodeFailed, "normalize", 0,
			fmt.Errorf("unsupported channel count %d", channels))
	}
	if err := raw.Validate(); err != nil {
		return nil, surface.Wrap(surface.ErrDecodeFailed, "normalize", 0, err)
	}

	packed := Destride(raw.Data, raw.Width, raw.Height, raw.Stride, SourcePixelSize)

	if raw.Layout.swapsRedBlue() {
		SwapRedBlue(packed)
	}
	if raw.Layout.opaque() {
		for i := 3; i < len(packed); i += 4 {
			packed[i] = 0xFF
		}
	}

	pix := packed
	if channels == 3 {
		pix = DropAlpha(packed)
	}

	if want := raw.Width * raw.Height * channels; len(pix) != want {
		panic(fmt.Sprintf("pixel: normalized %dx%d image has %d bytes, want %d",
			raw.Width, raw.Height, len(pix), want))
	}

	return &Image{
		Width:    raw.Width,
		Height:   raw.Height,
		Channels: channels,
		Pix:      pix,
	}, nil
}

// Destride copies exactly width*pixelSize bytes from the start of every row,
// discarding any padding up to stride. The result is a fresh buffer.
func Destride(data []byte, width, height, stride, pixelSize int) []byte {
	rowBytes := width * pixelSize
	out := make([]byte, 0, rowBytes*height)
	for r := 0; r < height; r++ {
		off := r * stride
		out = append(out, data[off:off+rowBytes]...)
	}
	return out
}

// SwapRedBlue exchanges bytes 0 and 2 of every 4-byte pixel in place.
// Applying it twice restores the input.
func SwapRedBlue(buf []byte) {
	for i := 0; i+3 < len(buf); i += 4 {
		buf[i], buf[i+2] = buf[i+2], buf[i]
	}
}

// DropAlpha packs 4-byte pixels into 3-byte R,G,B triplets.
func DropAlpha(rgba []byte) []byte {
	n := len(rgba) / 4
	out := make([]byte, n*3)
	for i := 0; i < n; i++ {
		copy(out[i*3:i*3+3], rgba[i*4:i*4+3])
	}
	return out
}
