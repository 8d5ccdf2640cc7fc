// Package enumerate builds surface descriptors for the monitors and windows
// a native backend exposes.
package enumerate

import (
	"fmt"
	"math"

	"github.com/bryanchriswhite/surfacecap/internal/logger"
	"github.com/bryanchriswhite/surfacecap/internal/native"
	"github.com/bryanchriswhite/surfacecap/internal/scale"
	"github.com/bryanchriswhite/surfacecap/internal/surface"
)

// ProcessNamer resolves a process id to an executable name
type ProcessNamer interface {
	Name(pid int) (string, error)
}

// Enumerator turns native handles into descriptors. Every call does a fresh
// traversal; nothing is cached between calls.
type Enumerator struct {
	backend native.Backend
	scale   *scale.Resolver
	procs   ProcessNamer
}

// New creates an enumerator. procs may be nil.
func New(backend native.Backend, resolver *scale.Resolver, procs ProcessNamer) *Enumerator {
	if resolver == nil {
		resolver = scale.NewResolver(backend)
	}
	return &Enumerator{
		backend: backend,
		scale:   resolver,
		procs:   procs,
	}
}

// ListMonitors returns one descriptor per monitor, in native enumeration
// order. A monitor whose descriptor cannot be built is logged and skipped.
func (e *Enumerator) ListMonitors() ([]surface.Descriptor, error) {
	log := logger.WithComponent("enumerator")

	handles, err := collect(e.backend.EnumMonitors)
	if err != nil {
		return nil, surface.Wrap(surface.ErrQueryFailed, "enumerate monitors", 0, err)
	}

	monitors := make([]surface.Descriptor, 0, len(handles))
	for _, h := range handles {
		d, err := e.monitor(h)
		if err != nil {
			log.Error().Err(err).Uint64("handle", uint64(h)).Msg("Skipping monitor")
			continue
		}
		monitors = append(monitors, d)
	}

	log.Debug().Int("found", len(monitors)).Int("handles", len(handles)).Msg("ListMonitors: summary")
	return monitors, nil
}

// ListWindows returns one descriptor per top-level window. Each window takes
// rotation, scale and frequency from the monitor it is on.
func (e *Enumerator) ListWindows() ([]surface.Descriptor, error) {
	log := logger.WithComponent("enumerator")

	handles, err := collect(e.backend.EnumWindows)
	if err != nil {
		return nil, surface.Wrap(surface.ErrQueryFailed, "enumerate windows", 0, err)
	}

	mc := &monitorCache{e: e, byHandle: make(map[native.Handle]surface.Descriptor)}
	names := make(map[int]string)
	windows := make([]surface.Descriptor, 0, len(handles))
	for _, h := range handles {
		d, err := e.window(h, mc, names)
		if err != nil {
			log.Error().Err(err).Uint64("handle", uint64(h)).Msg("Skipping window")
			continue
		}
		windows = append(windows, d)
	}

	log.Debug().Int("found", len(windows)).Int("handles", len(handles)).Msg("ListWindows: summary")
	return windows, nil
}

// MonitorAtPoint returns the monitor containing the virtual desktop point
// (x, y). It fails with ErrNotFound when no monitor contains it.
func (e *Enumerator) MonitorAtPoint(x, y int) (surface.Descriptor, error) {
	h, err := e.backend.MonitorFromPoint(x, y)
	if err != nil {
		return surface.Descriptor{}, surface.Wrap(surface.ErrQueryFailed, "monitor from point", 0, err)
	}
	if h == 0 {
		return surface.Descriptor{}, &surface.Error{
			Kind: surface.ErrNotFound,
			Op:   "monitor at point",
			Err:  fmt.Errorf("no monitor at (%d, %d)", x, y),
		}
	}

	d, err := e.monitor(h)
	if err != nil {
		return surface.Descriptor{}, &surface.Error{
			Kind: surface.ErrQueryFailed,
			Op:   "monitor at point",
			ID:   uint32(h),
			Err:  err,
		}
	}
	return d, nil
}

// collect runs an enumeration with a visitor that appends to a slice local
// to this call.
func collect(enum func(func(native.Handle) bool) error) ([]native.Handle, error) {
	var handles []native.Handle
	err := enum(func(h native.Handle) bool {
		handles = append(handles, h)
		return true
	})
	if err != nil {
		return nil, err
	}
	return handles, nil
}

// monitor builds one monitor descriptor. The device context opened for the
// scale query is released before returning.
func (e *Enumerator) monitor(h native.Handle) (d surface.Descriptor, err error) {
	id := uint32(h)

	info, err := e.backend.MonitorInfo(h)
	if err != nil {
		return d, surface.Wrap(surface.ErrQueryFailed, "monitor info", id, err)
	}

	mode, err := e.backend.DisplayMode(h, info)
	if err != nil {
		return d, surface.Wrap(surface.ErrQueryFailed, "display settings", id, err)
	}

	dc, err := e.backend.OpenDeviceContext(h, info)
	if err != nil {
		return d, surface.Wrap(surface.ErrResourceAcquisitionFailed, "device context", id, err)
	}
	var scope native.Scope
	scope.Defer("device context", dc.Release)
	defer scope.Close()

	factor, err := e.scale.Resolve(h, dc)
	if err != nil {
		return d, err
	}

	return surface.Descriptor{
		ID:          id,
		Kind:        surface.KindMonitor,
		Name:        info.Name,
		X:           mode.X,
		Y:           mode.Y,
		Width:       mode.Width,
		Height:      mode.Height,
		Rotation:    e.backend.Orientations().Lookup(mode.Orientation),
		ScaleFactor: factor,
		Frequency:   mode.Frequency,
		IsPrimary:   info.IsPrimary,
	}, nil
}

// window builds one window descriptor. names memoizes process names for
// the current traversal only.
func (e *Enumerator) window(h native.Handle, mc *monitorCache, names map[int]string) (surface.Descriptor, error) {
	id := uint32(h)

	info, err := e.backend.WindowInfo(h)
	if err != nil {
		return surface.Descriptor{}, surface.Wrap(surface.ErrQueryFailed, "window info", id, err)
	}

	mon, err := mc.forWindow(info)
	if err != nil {
		return surface.Descriptor{}, err
	}

	appName := info.AppName
	if appName == "" && info.PID > 0 && e.procs != nil {
		if name, ok := names[info.PID]; ok {
			appName = name
		} else if name, err := e.procs.Name(info.PID); err == nil {
			names[info.PID] = name
			appName = name
		} else {
			logger.WithComponent("enumerator").Debug().
				Err(err).
				Int("pid", info.PID).
				Msg("Failed to resolve process name")
		}
	}

	return surface.Descriptor{
		ID:          id,
		Kind:        surface.KindWindow,
		Name:        info.Title,
		X:           info.X,
		Y:           info.Y,
		Width:       info.Width,
		Height:      info.Height,
		Rotation:    mon.Rotation,
		ScaleFactor: mon.ScaleFactor,
		Frequency:   mon.Frequency,
		IsPrimary:   mon.IsPrimary,
		AppName:     appName,
		PID:         info.PID,
		MonitorID:   mon.ID,
		IsMinimized: info.IsMinimized,
	}, nil
}

// monitorCache holds the monitor descriptors built during one ListWindows
// call.
type monitorCache struct {
	e        *Enumerator
	byHandle map[native.Handle]surface.Descriptor
	all      []surface.Descriptor
	listed   bool
}

// forWindow returns the monitor a window is on. When the backend cannot
// tell, the monitor containing the window center is used, then the nearest
// one.
func (mc *monitorCache) forWindow(info native.WindowInfo) (surface.Descriptor, error) {
	h := info.Monitor
	cx, cy := info.X+info.Width/2, info.Y+info.Height/2
	if h == 0 {
		var err error
		h, err = mc.e.backend.MonitorFromPoint(cx, cy)
		if err != nil {
			return surface.Descriptor{}, surface.Wrap(surface.ErrQueryFailed, "monitor from point", 0, err)
		}
	}
	if h != 0 {
		if d, ok := mc.byHandle[h]; ok {
			return d, nil
		}
		d, err := mc.e.monitor(h)
		if err != nil {
			return surface.Descriptor{}, err
		}
		mc.byHandle[h] = d
		return d, nil
	}

	if !mc.listed {
		all, err := mc.e.ListMonitors()
		if err != nil {
			return surface.Descriptor{}, err
		}
		mc.all, mc.listed = all, true
	}
	d, ok := Nearest(mc.all, cx, cy)
	if !ok {
		return surface.Descriptor{}, surface.Wrap(surface.ErrNotFound, "window monitor", 0,
			fmt.Errorf("no monitors"))
	}
	return d, nil
}

// Nearest returns the monitor whose geometry is closest to (x, y).
func Nearest(monitors []surface.Descriptor, x, y int) (surface.Descriptor, bool) {
	best := -1
	bestDist := math.MaxFloat64
	for i, m := range monitors {
		dx := axisDistance(x, m.X, m.X+m.Width)
		dy := axisDistance(y, m.Y, m.Y+m.Height)
		if dist := math.Hypot(float64(dx), float64(dy)); dist < bestDist {
			best, bestDist = i, dist
		}
	}
	if best < 0 {
		return surface.Descriptor{}, false
	}
	return monitors[best], true
}

func axisDistance(v, lo, hi int) int {
	switch {
	case v < lo:
		return lo - v
	case v >= hi:
		return v - hi + 1
	default:
		return 0
	}
}
