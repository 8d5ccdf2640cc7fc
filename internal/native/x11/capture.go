package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/composite"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/bryanchriswhite/surfacecap/internal/logger"
	"github.com/bryanchriswhite/surfacecap/internal/native"
	"github.com/bryanchriswhite/surfacecap/internal/pixel"
	"github.com/bryanchriswhite/surfacecap/internal/surface"
)

// CaptureRegion reads a rectangle of the root window
func (b *Backend) CaptureRegion(x, y, width, height int) (*pixel.Raw, error) {
	return b.getImage(xproto.Drawable(b.root), x, y, width, height)
}

// CaptureWindow reads a window. With ClientOnly the client window itself is
// read; otherwise its window manager frame. With FullContent and the
// Composite extension the window is read from its off-screen pixmap so
// occluded regions are included.
func (b *Backend) CaptureWindow(h native.Handle, opts native.WindowCaptureOptions) (*pixel.Raw, error) {
	log := logger.WithComponent("x11-backend")
	win := xproto.Window(h)

	if !opts.ClientOnly {
		if frame, err := b.frameOf(win); err == nil {
			win = frame
		} else {
			log.Debug().Err(err).Uint32("window_id", uint32(h)).Msg("No frame window, capturing client")
		}
	}

	attrs, err := xproto.GetWindowAttributes(b.conn, win).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get window attributes: %w", err)
	}

	// If window is not suitable for capture, try to find a suitable child window
	if attrs.Class != xproto.WindowClassInputOutput || attrs.MapState != xproto.MapStateViewable {
		child, err := b.findCapturableChild(win)
		if err != nil {
			return nil, fmt.Errorf("no capturable window found: %w", err)
		}
		log.Debug().
			Uint32("window_id", uint32(win)).
			Uint32("child_window_id", uint32(child)).
			Msg("Window not directly capturable, using child")
		win = child
	}

	geom, err := xproto.GetGeometry(b.conn, xproto.Drawable(win)).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get window geometry: %w", err)
	}

	var scope native.Scope
	defer scope.Close()

	drawable := xproto.Drawable(win)
	if opts.FullContent && b.compositeEnabled {
		if pixmap, err := b.offscreenPixmap(&scope, win); err != nil {
			log.Warn().
				Err(err).
				Uint32("window_id", uint32(win)).
				Msg("Composite redirect failed, falling back to direct capture")
		} else {
			drawable = xproto.Drawable(pixmap)
		}
	}

	return b.getImage(drawable, 0, 0, int(geom.Width), int(geom.Height))
}

// offscreenPixmap redirects win and names its backing pixmap. The redirect
// and the pixmap are released when scope closes.
func (b *Backend) offscreenPixmap(scope *native.Scope, win xproto.Window) (xproto.Pixmap, error) {
	if err := composite.RedirectWindowChecked(b.conn, win, composite.RedirectAutomatic).Check(); err != nil {
		return 0, fmt.Errorf("redirect window: %w", err)
	}
	scope.Defer("composite redirect", func() error {
		return composite.UnredirectWindowChecked(b.conn, win, composite.RedirectAutomatic).Check()
	})

	pixmap, err := xproto.NewPixmapId(b.conn)
	if err != nil {
		return 0, surface.Wrap(surface.ErrResourceAcquisitionFailed, "pixmap id", uint32(win), err)
	}
	if err := composite.NameWindowPixmapChecked(b.conn, win, pixmap).Check(); err != nil {
		return 0, fmt.Errorf("name window pixmap: %w", err)
	}
	scope.Defer("pixmap", func() error {
		return xproto.FreePixmapChecked(b.conn, pixmap).Check()
	})
	return pixmap, nil
}

// frameOf walks up from a client window to the direct child of the root
func (b *Backend) frameOf(win xproto.Window) (xproto.Window, error) {
	cur := win
	for {
		tree, err := xproto.QueryTree(b.conn, cur).Reply()
		if err != nil {
			return 0, fmt.Errorf("failed to query tree: %w", err)
		}
		if tree.Parent == b.root || tree.Parent == 0 {
			return cur, nil
		}
		cur = tree.Parent
	}
}

// findCapturableChild recursively searches for a capturable child window
func (b *Backend) findCapturableChild(parent xproto.Window) (xproto.Window, error) {
	tree, err := xproto.QueryTree(b.conn, parent).Reply()
	if err != nil {
		return 0, fmt.Errorf("failed to query tree: %w", err)
	}

	for _, child := range tree.Children {
		attrs, err := xproto.GetWindowAttributes(b.conn, child).Reply()
		if err != nil {
			continue
		}
		geom, err := xproto.GetGeometry(b.conn, xproto.Drawable(child)).Reply()
		if err != nil {
			continue
		}
		if attrs.Class == xproto.WindowClassInputOutput && attrs.MapState == xproto.MapStateViewable {
			if geom.Width > 10 && geom.Height > 10 {
				return child, nil
			}
		}
		if grandchild, err := b.findCapturableChild(child); err == nil {
			return grandchild, nil
		}
	}

	return 0, fmt.Errorf("no capturable child found")
}

// getImage reads a ZPixmap image. Rows are padded to the scanline pad of
// the pixmap format for the image depth.
func (b *Backend) getImage(d xproto.Drawable, x, y, width, height int) (*pixel.Raw, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("empty capture area %dx%d", width, height)
	}
	if b.setup.ImageByteOrder != xproto.ImageOrderLSBFirst {
		return nil, fmt.Errorf("unsupported image byte order %d", b.setup.ImageByteOrder)
	}

	reply, err := xproto.GetImage(
		b.conn,
		xproto.ImageFormatZPixmap,
		d,
		int16(x), int16(y),
		uint16(width), uint16(height),
		0xffffffff,
	).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get image: %w", err)
	}

	layout, err := layoutForDepth(reply.Depth)
	if err != nil {
		return nil, err
	}
	format, ok := pixmapFormat(b.setup.PixmapFormats, reply.Depth)
	if !ok {
		return nil, fmt.Errorf("no pixmap format for depth %d", reply.Depth)
	}
	if format.BitsPerPixel != 32 {
		return nil, fmt.Errorf("unsupported %d bits per pixel at depth %d", format.BitsPerPixel, reply.Depth)
	}

	return &pixel.Raw{
		Data:   reply.Data,
		Width:  width,
		Height: height,
		Stride: stride(width, int(format.BitsPerPixel), int(format.ScanlinePad)),
		Layout: layout,
	}, nil
}

func pixmapFormat(formats []xproto.Format, depth byte) (xproto.Format, bool) {
	for _, f := range formats {
		if f.Depth == depth {
			return f, true
		}
	}
	return xproto.Format{}, false
}

// stride computes the padded row size in bytes
func stride(width, bitsPerPixel, scanlinePad int) int {
	unpadded := width * bitsPerPixel / 8
	padBytes := scanlinePad / 8
	if padBytes <= 0 {
		return unpadded
	}
	return ((unpadded + padBytes - 1) / padBytes) * padBytes
}

// layoutForDepth maps a visual depth to the byte layout of a 32bpp
// LSBFirst pixel. Depth 24 leaves the fourth byte undefined.
func layoutForDepth(depth byte) (pixel.Layout, error) {
	switch depth {
	case 24:
		return pixel.LayoutBGRX, nil
	case 32:
		return pixel.LayoutBGRA, nil
	default:
		return 0, fmt.Errorf("unsupported depth %d", depth)
	}
}
