//go:build windows

package win32

import (
	"fmt"
	"unsafe"

	"github.com/lxn/win"

	"github.com/bryanchriswhite/surfacecap/internal/native"
	"github.com/bryanchriswhite/surfacecap/internal/pixel"
	"github.com/bryanchriswhite/surfacecap/internal/surface"
)

// HGDI_ERROR
const hgdiError = ^uintptr(0)

// CaptureRegion copies a rectangle of the screen DC with BitBlt
func (b *Backend) CaptureRegion(x, y, width, height int) (*pixel.Raw, error) {
	var scope native.Scope
	defer scope.Close()

	screen := win.GetDC(0)
	if err := scope.Acquire("GetDC", screen != 0, func() error {
		return boolErr("ReleaseDC", win.ReleaseDC(0, screen))
	}); err != nil {
		return nil, err
	}

	return drawToBitmap(&scope, screen, width, height, func(mem win.HDC) error {
		if !win.BitBlt(mem, 0, 0, int32(width), int32(height), screen, int32(x), int32(y), win.SRCCOPY|captureBlt) {
			return fmt.Errorf("BitBlt failed")
		}
		return nil
	})
}

// CaptureWindow renders a window into a bitmap with PrintWindow. With
// FullContent the window is asked to render content that is normally
// composed by the GPU.
func (b *Backend) CaptureWindow(h native.Handle, opts native.WindowCaptureOptions) (*pixel.Raw, error) {
	hwnd := win.HWND(h)

	var rect win.RECT
	if opts.ClientOnly {
		if !win.GetClientRect(hwnd, &rect) {
			return nil, fmt.Errorf("GetClientRect failed for window %#x", uintptr(h))
		}
	} else if !win.GetWindowRect(hwnd, &rect) {
		return nil, fmt.Errorf("GetWindowRect failed for window %#x", uintptr(h))
	}
	width := int(rect.Right - rect.Left)
	height := int(rect.Bottom - rect.Top)
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("window %#x has empty area %dx%d", uintptr(h), width, height)
	}

	var scope native.Scope
	defer scope.Close()

	hdc := win.GetDC(hwnd)
	if err := scope.Acquire("GetDC", hdc != 0, func() error {
		return boolErr("ReleaseDC", win.ReleaseDC(hwnd, hdc))
	}); err != nil {
		return nil, err
	}

	flags := printWindowFlags(opts.FullContent, opts.ClientOnly)
	return drawToBitmap(&scope, hdc, width, height, func(mem win.HDC) error {
		r, _, _ := procPrintWindow.Call(uintptr(hwnd), uintptr(mem), flags)
		if r == 0 {
			return fmt.Errorf("PrintWindow failed")
		}
		return nil
	})
}

// drawToBitmap creates a memory DC and a bitmap compatible with src, runs
// draw with the bitmap selected and reads the pixels back as a top-down
// 32bpp DIB. The bitmap is deselected before GetDIBits.
func drawToBitmap(scope *native.Scope, src win.HDC, width, height int, draw func(win.HDC) error) (*pixel.Raw, error) {
	mem := win.CreateCompatibleDC(src)
	if err := scope.Acquire("CreateCompatibleDC", mem != 0, func() error {
		return boolErr("DeleteDC", win.DeleteDC(mem))
	}); err != nil {
		return nil, err
	}

	bmp := win.CreateCompatibleBitmap(src, int32(width), int32(height))
	if err := scope.Acquire("CreateCompatibleBitmap", bmp != 0, func() error {
		return boolErr("DeleteObject", win.DeleteObject(win.HGDIOBJ(bmp)))
	}); err != nil {
		return nil, err
	}

	if err := drawSelected(mem, bmp, draw); err != nil {
		return nil, err
	}

	return readBitmap(mem, bmp, width, height)
}

func drawSelected(mem win.HDC, bmp win.HBITMAP, draw func(win.HDC) error) error {
	var scope native.Scope
	defer scope.Close()

	old := win.SelectObject(mem, win.HGDIOBJ(bmp))
	if err := scope.Acquire("SelectObject", old != 0 && uintptr(old) != hgdiError, func() error {
		win.SelectObject(mem, old)
		return nil
	}); err != nil {
		return err
	}
	return draw(mem)
}

// readBitmap copies a bitmap into a top-down BGRX buffer. 32bpp DIB rows are
// DWORD aligned, so the stride is exactly width*4.
func readBitmap(hdc win.HDC, bmp win.HBITMAP, width, height int) (*pixel.Raw, error) {
	var bi win.BITMAPINFO
	bi.BmiHeader = win.BITMAPINFOHEADER{
		BiSize:        uint32(unsafe.Sizeof(bi.BmiHeader)),
		BiWidth:       int32(width),
		BiHeight:      -int32(height),
		BiPlanes:      1,
		BiBitCount:    32,
		BiCompression: win.BI_RGB,
	}

	stride := width * pixel.SourcePixelSize
	data := make([]byte, stride*height)
	lines := win.GetDIBits(hdc, bmp, 0, uint32(height), &data[0], &bi, win.DIB_RGB_COLORS)
	if lines == 0 {
		return nil, fmt.Errorf("GetDIBits failed")
	}
	if int(lines) != height {
		return nil, surface.Wrap(surface.ErrDecodeFailed, "GetDIBits", 0,
			fmt.Errorf("copied %d of %d scan lines", lines, height))
	}

	return &pixel.Raw{
		Data:   data,
		Width:  width,
		Height: height,
		Stride: stride,
		Layout: pixel.LayoutBGRX,
	}, nil
}

func boolErr(name string, ok bool) error {
	if !ok {
		return fmt.Errorf("%s failed", name)
	}
	return nil
}
