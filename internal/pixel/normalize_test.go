package pixel

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/bryanchriswhite/surfacecap/internal/surface"
)

func TestNormalizePaddedBGRAExample(t *testing.T) {
	// 2x1 pixels, true row width 8 bytes, stride padded to 16
	raw := &Raw{
		Data: []byte{
			10, 20, 30, 255, 0, 0, 0, 0,
			200, 150, 100, 255, 0, 0, 0, 0,
		},
		Width:  2,
		Height: 1,
		Stride: 16,
		Layout: LayoutBGRA,
	}

	img, err := Normalize(raw, 4)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}

	// Only the first 8 bytes of the row are pixels; the 8 pad bytes are ignored.
	want := []byte{30, 20, 10, 255, 0, 0, 0, 0}
	if !bytes.Equal(img.Pix, want) {
		t.Fatalf("expected %v, got %v", want, img.Pix)
	}
}

func TestNormalizeTwoRowsPaddedBGRA(t *testing.T) {
	// Same pixels as the example but laid out over two padded rows
	raw := &Raw{
		Data: []byte{
			10, 20, 30, 255, 0xEE, 0xEE, 0xEE, 0xEE,
			200, 150, 100, 255, 0xEE, 0xEE, 0xEE, 0xEE,
		},
		Width:  1,
		Height: 2,
		Stride: 8,
		Layout: LayoutBGRA,
	}

	img, err := Normalize(raw, 4)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	want := []byte{30, 20, 10, 255, 100, 150, 200, 255}
	if !bytes.Equal(img.Pix, want) {
		t.Fatalf("expected %v, got %v", want, img.Pix)
	}
}

func TestDestrideDropsPadding(t *testing.T) {
	const pad = 0xAB
	for _, tc := range []struct {
		width, height, stride int
	}{
		{1, 1, 8},
		{3, 2, 16},
		{5, 4, 32},
		{7, 3, 29},
	} {
		data := make([]byte, tc.stride*tc.height)
		for i := range data {
			data[i] = pad
		}
		for r := 0; r < tc.height; r++ {
			for c := 0; c < tc.width*4; c++ {
				data[r*tc.stride+c] = byte(c%200 + 1)
			}
		}

		out := Destride(data, tc.width, tc.height, tc.stride, 4)
		if len(out) != tc.width*tc.height*4 {
			t.Fatalf("%+v: expected %d bytes, got %d", tc, tc.width*tc.height*4, len(out))
		}
		if bytes.IndexByte(out, pad) >= 0 {
			t.Fatalf("%+v: padding byte leaked into output", tc)
		}
	}
}

func TestNormalizeRGBDropsAlpha(t *testing.T) {
	const alpha = 77
	raw := &Raw{
		Data: []byte{
			1, 2, 3, alpha, 4, 5, 6, alpha, 9, 9, 9, 9,
			7, 8, 9, alpha, 10, 11, 12, alpha, 9, 9, 9, 9,
		},
		Width:  2,
		Height: 2,
		Stride: 12,
		Layout: LayoutBGRA,
	}

	img, err := Normalize(raw, 3)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(img.Pix) != 2*2*3 {
		t.Fatalf("expected %d bytes, got %d", 2*2*3, len(img.Pix))
	}
	if bytes.IndexByte(img.Pix, alpha) >= 0 {
		t.Fatalf("alpha byte present in RGB output: %v", img.Pix)
	}
	want := []byte{3, 2, 1, 6, 5, 4, 9, 8, 7, 12, 11, 10}
	if !bytes.Equal(img.Pix, want) {
		t.Fatalf("expected %v, got %v", want, img.Pix)
	}
}

func TestNormalizeOpaqueLayouts(t *testing.T) {
	raw := &Raw{
		Data:   []byte{10, 20, 30, 0, 40, 50, 60, 0x12},
		Width:  2,
		Height: 1,
		Stride: 8,
		Layout: LayoutBGRX,
	}
	img, err := Normalize(raw, 4)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	want := []byte{30, 20, 10, 255, 60, 50, 40, 255}
	if !bytes.Equal(img.Pix, want) {
		t.Fatalf("expected %v, got %v", want, img.Pix)
	}

	raw = &Raw{Data: []byte{1, 2, 3, 4}, Width: 1, Height: 1, Stride: 4, Layout: LayoutRGBA}
	img, err = Normalize(raw, 4)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if !bytes.Equal(img.Pix, []byte{1, 2, 3, 4}) {
		t.Fatalf("RGBA input should pass through, got %v", img.Pix)
	}
}

func TestSwapRedBlueIsInvolutive(t *testing.T) {
	orig := make([]byte, 4*37)
	for i := range orig {
		orig[i] = byte(i * 7)
	}
	buf := append([]byte(nil), orig...)

	SwapRedBlue(buf)
	if bytes.Equal(buf, orig) {
		t.Fatalf("single swap should change the buffer")
	}
	SwapRedBlue(buf)
	if !bytes.Equal(buf, orig) {
		t.Fatalf("double swap should restore the buffer")
	}
}

func TestNormalizeRejectsInconsistentGeometry(t *testing.T) {
	tests := []struct {
		name     string
		raw      *Raw
		channels int
	}{
		{"nil", nil, 4},
		{"zero width", &Raw{Data: make([]byte, 16), Width: 0, Height: 1, Stride: 16}, 4},
		{"stride too small", &Raw{Data: make([]byte, 16), Width: 4, Height: 1, Stride: 8}, 4},
		{"short buffer", &Raw{Data: make([]byte, 20), Width: 2, Height: 2, Stride: 16}, 4},
		{"overflowing stride", &Raw{Data: make([]byte, 64), Width: 1, Height: 2, Stride: math.MaxInt - 2}, 4},
		{"overflowing width", &Raw{Data: make([]byte, 64), Width: math.MaxInt/SourcePixelSize + 1, Height: 1, Stride: math.MaxInt}, 4},
		{"bad channels", &Raw{Data: make([]byte, 4), Width: 1, Height: 1, Stride: 4}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.raw, tt.channels)
			if !errors.Is(err, surface.ErrDecodeFailed) {
				t.Fatalf("expected ErrDecodeFailed, got %v", err)
			}
		})
	}
}

func TestImageRGBA(t *testing.T) {
	img := &Image{Width: 2, Height: 1, Channels: 3, Pix: []byte{1, 2, 3, 4, 5, 6}}
	rgba := img.RGBA()
	want := []byte{1, 2, 3, 255, 4, 5, 6, 255}
	if !bytes.Equal(rgba.Pix, want) {
		t.Fatalf("expected %v, got %v", want, rgba.Pix)
	}

	r, g, b, a := img.At(1, 0).RGBA()
	if r>>8 != 4 || g>>8 != 5 || b>>8 != 6 || a>>8 != 255 {
		t.Fatalf("unexpected At(1,0): %d %d %d %d", r>>8, g>>8, b>>8, a>>8)
	}
}
