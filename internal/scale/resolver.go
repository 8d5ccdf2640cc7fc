// Package scale resolves the DPI scale factor of a monitor.
package scale

import (
	"errors"
	"fmt"
	"sync"

	"github.com/bryanchriswhite/surfacecap/internal/logger"
	"github.com/bryanchriswhite/surfacecap/internal/native"
	"github.com/bryanchriswhite/surfacecap/internal/surface"
)

// BaseDPI is the DPI that corresponds to a scale factor of 1.0
const BaseDPI = 96

var (
	errNotAware = errors.New("process is not DPI aware")
	errNoEntry  = errors.New("per-monitor DPI entry point not available")
)

// Resolver computes per-monitor scale factors. The primary path asks the
// platform for the monitor's effective DPI and is only trusted when the
// process is DPI aware. Otherwise the ratio of physical to logical
// horizontal resolution of the monitor's device context is used.
//
// The per-monitor entry point is probed once and cached for the lifetime of
// the Resolver.
type Resolver struct {
	src native.DPISource

	once  sync.Once
	probe native.MonitorDPIFunc
}

// NewResolver creates a resolver over src
func NewResolver(src native.DPISource) *Resolver {
	return &Resolver{src: src}
}

// Resolve returns the scale factor of monitor h. dc must be a device context
// for the same monitor. The result is always strictly positive; the only
// error is ErrQueryFailed for an unusable device context.
func (r *Resolver) Resolve(h native.Handle, dc native.DeviceContext) (float64, error) {
	factor, err := r.primary(h)
	if err == nil {
		return factor, nil
	}

	logger.WithComponent("scale").Info().
		Err(err).
		Uint64("monitor", uint64(h)).
		Msg("Per-monitor DPI unavailable, using device caps")

	return Fallback(dc)
}

func (r *Resolver) primary(h native.Handle) (float64, error) {
	aware, err := r.src.ProcessDPIAware()
	if err != nil {
		return 0, fmt.Errorf("query DPI awareness: %w", err)
	}
	if !aware {
		return 0, errNotAware
	}

	r.once.Do(func() {
		r.probe = r.src.ProbeMonitorDPI()
	})
	if r.probe == nil {
		return 0, errNoEntry
	}

	dpi, err := r.probe(h)
	if err != nil {
		return 0, fmt.Errorf("query monitor DPI: %w", err)
	}
	if dpi == 0 {
		return 0, fmt.Errorf("monitor reported DPI 0")
	}
	return float64(dpi) / BaseDPI, nil
}

// Fallback computes physical/logical from the device context caps.
func Fallback(dc native.DeviceContext) (float64, error) {
	if dc == nil {
		return 0, surface.Wrap(surface.ErrQueryFailed, "scale fallback", 0, errors.New("no device context"))
	}
	physical, logical := dc.Caps()
	if physical <= 0 || logical <= 0 {
		return 0, surface.Wrap(surface.ErrQueryFailed, "scale fallback", 0,
			fmt.Errorf("invalid device context: physical=%d logical=%d", physical, logical))
	}
	return float64(physical) / float64(logical), nil
}
