// Package capture turns a surface descriptor into a canonical image.
package capture

import (
	"github.com/bryanchriswhite/surfacecap/internal/logger"
	"github.com/bryanchriswhite/surfacecap/internal/pixel"
	"github.com/bryanchriswhite/surfacecap/internal/surface"
)

// Pipeline runs Adapter then Normalize for each request. It never retries.
type Pipeline struct {
	adapter  *Adapter
	channels int
}

// NewPipeline creates a pipeline producing images with the given channel
// count (3 or 4) by default.
func NewPipeline(adapter *Adapter, channels int) *Pipeline {
	return &Pipeline{adapter: adapter, channels: channels}
}

// Channels returns the default channel count
func (p *Pipeline) Channels() int {
	return p.channels
}

// Capture captures d with the default channel count.
func (p *Pipeline) Capture(d surface.Descriptor) (*pixel.Image, error) {
	return p.CaptureChannels(d, p.channels)
}

// CaptureChannels captures d and normalizes it to channels bytes per pixel.
// Adapter failures keep their kind; normalization failures are
// ErrDecodeFailed.
func (p *Pipeline) CaptureChannels(d surface.Descriptor, channels int) (*pixel.Image, error) {
	raw, err := p.adapter.Grab(d)
	if err != nil {
		return nil, err
	}

	img, err := pixel.Normalize(raw, channels)
	if err != nil {
		return nil, surface.Wrap(surface.ErrDecodeFailed, "normalize", d.ID, err)
	}

	logger.WithComponent("capture").Debug().
		Uint32("id", d.ID).
		Str("kind", string(d.Kind)).
		Str("layout", raw.Layout.String()).
		Int("stride", raw.Stride).
		Int("width", img.Width).
		Int("height", img.Height).
		Int("channels", img.Channels).
		Msg("Captured surface")

	return img, nil
}
