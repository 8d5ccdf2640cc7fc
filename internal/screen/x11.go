package screen

import (
	"github.com/bryanchriswhite/surfacecap/internal/logger"
	"github.com/bryanchriswhite/surfacecap/internal/native"
	"github.com/bryanchriswhite/surfacecap/internal/native/mutter"
	"github.com/bryanchriswhite/surfacecap/internal/native/x11"
)

// openX11 connects to X and, when asked, to Mutter for per-monitor scale
func openX11(opts Options) (native.Backend, []func() error, error) {
	var closers []func() error
	x11opts := x11.Options{DPIAware: opts.DPIAware}

	if opts.UseMutter {
		client, err := mutter.NewClient()
		if err != nil {
			logger.WithComponent("screen").Info().
				Err(err).
				Msg("Mutter display config unavailable, scale falls back to device caps")
		} else {
			x11opts.Scaler = client
			closers = append(closers, client.Close)
		}
	}

	b, err := x11.New(x11opts)
	if err != nil {
		for _, c := range closers {
			c()
		}
		return nil, nil, err
	}
	return b, closers, nil
}
