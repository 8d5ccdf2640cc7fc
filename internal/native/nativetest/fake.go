// Package nativetest provides an in-memory native.Backend for tests.
package nativetest

import (
	"fmt"

	"github.com/bryanchriswhite/surfacecap/internal/native"
	"github.com/bryanchriswhite/surfacecap/internal/pixel"
	"github.com/bryanchriswhite/surfacecap/internal/surface"
)

// Monitor is one fake monitor
type Monitor struct {
	Handle native.Handle
	Info   native.MonitorInfo
	Mode   native.DisplayMode

	// Physical and Logical are returned by the device context caps.
	Physical int
	Logical  int
	// DPI is returned by the per-monitor DPI function.
	DPI uint32

	InfoErr error
	ModeErr error
	DCErr   error
}

// Window is one fake window
type Window struct {
	Handle native.Handle
	Info   native.WindowInfo
	Err    error
}

// Backend is a scriptable native.Backend. Zero values are usable.
type Backend struct {
	Monitors []Monitor
	Windows  []Window

	Aware    bool
	AwareErr error
	// NoDPIEntry hides the per-monitor DPI entry point.
	NoDPIEntry bool
	DPIErr     error

	Table surface.OrientationTable

	// Frame is returned by both capture methods when set.
	Frame      *pixel.Raw
	CaptureErr error

	EnumErr error
	Closed  bool

	// Counters
	Probes         int
	Captures       int
	OpenContexts   int
	LastRegion     [4]int
	LastWindow     native.Handle
	LastWindowOpts native.WindowCaptureOptions
}

var _ native.Backend = (*Backend)(nil)

func (b *Backend) Name() string { return "fake" }

func (b *Backend) Close() error {
	b.Closed = true
	return nil
}

func (b *Backend) EnumMonitors(visit func(native.Handle) bool) error {
	if b.EnumErr != nil {
		return b.EnumErr
	}
	for _, m := range b.Monitors {
		if !visit(m.Handle) {
			break
		}
	}
	return nil
}

func (b *Backend) EnumWindows(visit func(native.Handle) bool) error {
	if b.EnumErr != nil {
		return b.EnumErr
	}
	for _, w := range b.Windows {
		if !visit(w.Handle) {
			break
		}
	}
	return nil
}

func (b *Backend) monitor(h native.Handle) (*Monitor, error) {
	for i := range b.Monitors {
		if b.Monitors[i].Handle == h {
			return &b.Monitors[i], nil
		}
	}
	return nil, fmt.Errorf("invalid monitor handle %#x", uintptr(h))
}

func (b *Backend) MonitorInfo(h native.Handle) (native.MonitorInfo, error) {
	m, err := b.monitor(h)
	if err != nil {
		return native.MonitorInfo{}, err
	}
	if m.InfoErr != nil {
		return native.MonitorInfo{}, m.InfoErr
	}
	return m.Info, nil
}

func (b *Backend) DisplayMode(h native.Handle, _ native.MonitorInfo) (native.DisplayMode, error) {
	m, err := b.monitor(h)
	if err != nil {
		return native.DisplayMode{}, err
	}
	if m.ModeErr != nil {
		return native.DisplayMode{}, m.ModeErr
	}
	return m.Mode, nil
}

func (b *Backend) WindowInfo(h native.Handle) (native.WindowInfo, error) {
	for _, w := range b.Windows {
		if w.Handle == h {
			if w.Err != nil {
				return native.WindowInfo{}, w.Err
			}
			return w.Info, nil
		}
	}
	return native.WindowInfo{}, fmt.Errorf("invalid window handle %#x", uintptr(h))
}

func (b *Backend) MonitorFromPoint(x, y int) (native.Handle, error) {
	for _, m := range b.Monitors {
		md := m.Mode
		if x >= md.X && x < md.X+md.Width && y >= md.Y && y < md.Y+md.Height {
			return m.Handle, nil
		}
	}
	return 0, nil
}

func (b *Backend) Orientations() surface.OrientationTable {
	if b.Table != nil {
		return b.Table
	}
	return surface.OrientationTable{0: surface.Rotate0, 1: surface.Rotate90, 2: surface.Rotate180, 3: surface.Rotate270}
}

func (b *Backend) OpenDeviceContext(h native.Handle, _ native.MonitorInfo) (native.DeviceContext, error) {
	m, err := b.monitor(h)
	if err != nil {
		return nil, err
	}
	if m.DCErr != nil {
		return nil, m.DCErr
	}
	b.OpenContexts++
	return &DeviceContext{Physical: m.Physical, Logical: m.Logical, owner: b}, nil
}

func (b *Backend) ProcessDPIAware() (bool, error) {
	return b.Aware, b.AwareErr
}

func (b *Backend) ProbeMonitorDPI() native.MonitorDPIFunc {
	b.Probes++
	if b.NoDPIEntry {
		return nil
	}
	return func(h native.Handle) (uint32, error) {
		if b.DPIErr != nil {
			return 0, b.DPIErr
		}
		m, err := b.monitor(h)
		if err != nil {
			return 0, err
		}
		return m.DPI, nil
	}
}

func (b *Backend) CaptureRegion(x, y, width, height int) (*pixel.Raw, error) {
	b.Captures++
	b.LastRegion = [4]int{x, y, width, height}
	return b.frame()
}

func (b *Backend) CaptureWindow(h native.Handle, opts native.WindowCaptureOptions) (*pixel.Raw, error) {
	b.Captures++
	b.LastWindow = h
	b.LastWindowOpts = opts
	return b.frame()
}

func (b *Backend) frame() (*pixel.Raw, error) {
	if b.CaptureErr != nil {
		return nil, b.CaptureErr
	}
	if b.Frame == nil {
		return nil, nil
	}
	cp := *b.Frame
	cp.Data = append([]byte(nil), b.Frame.Data...)
	return &cp, nil
}

// DeviceContext is a fake native.DeviceContext
type DeviceContext struct {
	Physical int
	Logical  int
	Released bool
	owner    *Backend
}

func (dc *DeviceContext) Caps() (int, int) {
	return dc.Physical, dc.Logical
}

func (dc *DeviceContext) Release() error {
	if !dc.Released && dc.owner != nil {
		dc.owner.OpenContexts--
	}
	dc.Released = true
	return nil
}
