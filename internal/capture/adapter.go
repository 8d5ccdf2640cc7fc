package capture

import (
	"fmt"

	"github.com/bryanchriswhite/surfacecap/internal/logger"
	"github.com/bryanchriswhite/surfacecap/internal/native"
	"github.com/bryanchriswhite/surfacecap/internal/pixel"
	"github.com/bryanchriswhite/surfacecap/internal/surface"
)

// Adapter invokes the native capture primitive that fits a descriptor and
// returns the raw buffer untouched.
type Adapter struct {
	capturer native.Capturer
	opts     native.WindowCaptureOptions
}

// NewAdapter creates an adapter over a native capturer. opts apply to every
// window capture.
func NewAdapter(capturer native.Capturer, opts native.WindowCaptureOptions) *Adapter {
	return &Adapter{capturer: capturer, opts: opts}
}

// Grab captures the current content of d. Monitors are read as a region of
// the shared desktop surface at the descriptor geometry; windows are read in
// full, including occluded parts where the platform allows it.
func (a *Adapter) Grab(d surface.Descriptor) (*pixel.Raw, error) {
	log := logger.WithComponent("capture")

	if d.Width <= 0 || d.Height <= 0 {
		return nil, surface.Wrap(surface.ErrCaptureFailed, "grab", d.ID,
			fmt.Errorf("zero-size surface %dx%d", d.Width, d.Height))
	}

	var (
		raw *pixel.Raw
		err error
	)
	switch d.Kind {
	case surface.KindMonitor:
		log.Debug().
			Uint32("id", d.ID).
			Int("x", d.X).
			Int("y", d.Y).
			Int("width", d.Width).
			Int("height", d.Height).
			Msg("Capturing monitor region")
		raw, err = a.capturer.CaptureRegion(d.X, d.Y, d.Width, d.Height)
	case surface.KindWindow:
		log.Debug().
			Uint32("id", d.ID).
			Bool("full_content", a.opts.FullContent).
			Bool("client_only", a.opts.ClientOnly).
			Msg("Capturing window")
		raw, err = a.capturer.CaptureWindow(native.Handle(d.ID), a.opts)
	default:
		return nil, surface.Wrap(surface.ErrCaptureFailed, "grab", d.ID,
			fmt.Errorf("unknown surface kind %q", d.Kind))
	}
	if err != nil {
		return nil, surface.Wrap(surface.ErrCaptureFailed, "grab", d.ID, err)
	}
	if raw == nil || len(raw.Data) == 0 {
		return nil, surface.Wrap(surface.ErrCaptureFailed, "grab", d.ID,
			fmt.Errorf("native capture returned no data"))
	}
	return raw, nil
}
