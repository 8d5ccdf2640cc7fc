// Package native defines the boundary between the capture pipeline and a
// platform display API (X11, Win32). Backends live in sub-packages.
package native

import (
	"github.com/bryanchriswhite/surfacecap/internal/pixel"
	"github.com/bryanchriswhite/surfacecap/internal/surface"
)

// Handle is an opaque native monitor or window handle.
// The zero Handle means "no surface".
type Handle uintptr

// MonitorInfo is the native monitor info block
type MonitorInfo struct {
	Name       string
	DeviceName string
	IsPrimary  bool
}

// DisplayMode is the active display settings of a monitor. Width and Height
// are already corrected for the orientation.
type DisplayMode struct {
	X           int
	Y           int
	Width       int
	Height      int
	Orientation uint32
	Frequency   float64
}

// WindowInfo describes a top-level window
type WindowInfo struct {
	Title       string
	AppName     string
	PID         int
	X           int
	Y           int
	Width       int
	Height      int
	IsMinimized bool

	// Monitor is the monitor the window is on, or 0 when the backend
	// cannot tell.
	Monitor Handle
}

// WindowCaptureOptions selects how a window is read back
type WindowCaptureOptions struct {
	// FullContent asks for an off-screen render of the window so that
	// occluded or hardware-composed content is included.
	FullContent bool
	// ClientOnly excludes the window frame.
	ClientOnly bool
}

// MonitorDPIFunc returns the horizontal effective DPI of a monitor
type MonitorDPIFunc func(h Handle) (uint32, error)

// DPISource exposes the per-monitor DPI capability of a platform.
type DPISource interface {
	// ProcessDPIAware reports whether this process receives real per-monitor
	// DPI values rather than virtualized ones.
	ProcessDPIAware() (bool, error)

	// ProbeMonitorDPI locates the per-monitor DPI entry point. It returns nil
	// when the platform does not provide one.
	ProbeMonitorDPI() MonitorDPIFunc
}

// Capturer reads pixels back from the display server
type Capturer interface {
	// CaptureRegion copies a rectangle of the shared desktop surface.
	CaptureRegion(x, y, width, height int) (*pixel.Raw, error)

	// CaptureWindow copies the full content of a single window.
	CaptureWindow(h Handle, opts WindowCaptureOptions) (*pixel.Raw, error)
}

// DeviceContext is a queryable drawing context bound to one monitor.
type DeviceContext interface {
	// Caps returns the physical (desktop) and logical horizontal resolution.
	Caps() (physical, logical int)

	Release() error
}

// Backend is a platform display API.
//
// Enumeration visitors are called synchronously, once per handle, and stop
// the traversal by returning false.
type Backend interface {
	DPISource
	Capturer

	Name() string
	Close() error

	EnumMonitors(visit func(Handle) bool) error
	EnumWindows(visit func(Handle) bool) error

	MonitorInfo(h Handle) (MonitorInfo, error)
	DisplayMode(h Handle, info MonitorInfo) (DisplayMode, error)
	WindowInfo(h Handle) (WindowInfo, error)

	// MonitorFromPoint returns the monitor containing the virtual desktop
	// point, or 0 when no monitor does.
	MonitorFromPoint(x, y int) (Handle, error)

	// Orientations maps this backend's orientation codes to rotations.
	Orientations() surface.OrientationTable

	OpenDeviceContext(h Handle, info MonitorInfo) (DeviceContext, error)
}
