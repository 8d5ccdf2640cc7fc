package encode

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/bryanchriswhite/surfacecap/internal/pixel"
)

func sample() *pixel.Image {
	return &pixel.Image{
		Width:    2,
		Height:   2,
		Channels: 3,
		Pix: []byte{
			255, 0, 0, 0, 255, 0,
			0, 0, 255, 10, 20, 30,
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
		ok   bool
	}{
		{"png", PNG, true},
		{"", PNG, true},
		{".BMP", BMP, true},
		{"tif", TIFF, true},
		{"TIFF", TIFF, true},
		{"jpeg", "", false},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestEncodeRoundTripsPixels(t *testing.T) {
	decoders := map[Format]func(*bytes.Reader) (image.Image, error){
		PNG:  func(r *bytes.Reader) (image.Image, error) { return png.Decode(r) },
		BMP:  func(r *bytes.Reader) (image.Image, error) { return bmp.Decode(r) },
		TIFF: func(r *bytes.Reader) (image.Image, error) { return tiff.Decode(r) },
	}

	src := sample()
	for _, f := range Formats {
		t.Run(string(f), func(t *testing.T) {
			var buf bytes.Buffer
			if err := Encode(&buf, src, f); err != nil {
				t.Fatalf("encode: %v", err)
			}
			img, err := decoders[f](bytes.NewReader(buf.Bytes()))
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if img.Bounds() != src.Bounds() {
				t.Fatalf("expected bounds %v, got %v", src.Bounds(), img.Bounds())
			}
			r, g, b, _ := img.At(1, 1).RGBA()
			if r>>8 != 10 || g>>8 != 20 || b>>8 != 30 {
				t.Fatalf("unexpected pixel (1,1): %d %d %d", r>>8, g>>8, b>>8)
			}
		})
	}
}

func TestFit(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 400, 200))

	if got := Fit(img, 0, 0); got != image.Image(img) {
		t.Fatalf("expected unconstrained fit to return the input")
	}
	if got := Fit(img, 800, 800); got != image.Image(img) {
		t.Fatalf("expected image that fits to be returned unchanged")
	}
	if got := Fit(img, 100, 0).Bounds(); got.Dx() != 100 || got.Dy() != 50 {
		t.Fatalf("expected 100x50, got %v", got)
	}
	if got := Fit(img, 300, 60).Bounds(); got.Dx() != 120 || got.Dy() != 60 {
		t.Fatalf("expected 120x60, got %v", got)
	}
}

func TestLabelRender(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 200, 40))
	for i := range img.Pix {
		img.Pix[i] = 0xFF
	}

	NewLabel("DP-1 1920x1080").Render(img)

	if c := img.RGBAAt(0, 0); c == (color.RGBA{255, 255, 255, 255}) {
		t.Fatalf("expected label background to darken the corner")
	}
	if c := img.RGBAAt(199, 39); c != (color.RGBA{255, 255, 255, 255}) {
		t.Fatalf("expected far corner untouched, got %v", c)
	}

	empty := image.NewRGBA(image.Rect(0, 0, 10, 10))
	NewLabel("").Render(empty)
	for _, v := range empty.Pix {
		if v != 0 {
			t.Fatalf("expected empty label to draw nothing")
		}
	}
}

func TestOptionsApplyLeavesSourceUntouched(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 120, 40))
	for i := range src.Pix {
		src.Pix[i] = 0xFF
	}

	out := Options{Label: "x"}.Apply(src)
	if out == image.Image(src) {
		t.Fatalf("expected a labelled copy")
	}
	if c := src.RGBAAt(0, 0); c != (color.RGBA{255, 255, 255, 255}) {
		t.Fatalf("expected source unchanged, got %v", c)
	}

	scaled := Options{MaxWidth: 60, Label: "x"}.Apply(src)
	if b := scaled.Bounds(); b.Dx() != 60 || b.Dy() != 20 {
		t.Fatalf("expected 60x20, got %v", b)
	}

	plain := Options{}.Apply(src)
	if plain != image.Image(src) {
		t.Fatalf("expected no-op options to return the input")
	}
}

func TestOptionsWriteDefaultsToPNG(t *testing.T) {
	var buf bytes.Buffer
	if err := (Options{}).Write(&buf, sample()); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := png.Decode(&buf); err != nil {
		t.Fatalf("expected png output: %v", err)
	}
}
