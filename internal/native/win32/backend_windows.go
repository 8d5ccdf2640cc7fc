//go:build windows

package win32

import (
	"fmt"
	"unsafe"

	"github.com/lxn/win"
	"golang.org/x/sys/windows"

	"github.com/bryanchriswhite/surfacecap/internal/logger"
	"github.com/bryanchriswhite/surfacecap/internal/native"
	"github.com/bryanchriswhite/surfacecap/internal/surface"
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")
	shcore = windows.NewLazySystemDLL("shcore.dll")

	procEnumDisplayMonitors  = user32.NewProc("EnumDisplayMonitors")
	procEnumDisplaySettingsW = user32.NewProc("EnumDisplaySettingsW")
	procMonitorFromPoint     = user32.NewProc("MonitorFromPoint")
	procEnumWindows          = user32.NewProc("EnumWindows")
	procPrintWindow          = user32.NewProc("PrintWindow")
	procGetWindowTextW       = user32.NewProc("GetWindowTextW")
	procGetWindowTextLengthW = user32.NewProc("GetWindowTextLengthW")
	procIsProcessDPIAware    = user32.NewProc("IsProcessDPIAware")

	procGetProcessDpiAwareness = shcore.NewProc("GetProcessDpiAwareness")
	procGetDpiForMonitor       = shcore.NewProc("GetDpiForMonitor")
)

var (
	monitorVisitors visitors
	windowVisitors  visitors

	// Callbacks are a finite resource; create each one once.
	enumMonitorCallback = windows.NewCallback(func(hmonitor, _ uintptr, _ *win.RECT, token uintptr) uintptr {
		return monitorVisitors.call(token, hmonitor)
	})
	enumWindowCallback = windows.NewCallback(func(hwnd, token uintptr) uintptr {
		return windowVisitors.call(token, hwnd)
	})
)

const (
	mdtEffectiveDPI      = 0
	enumCurrentSettings  = 0xFFFFFFFF
	monitorDefaultToNull = 0x0
	captureBlt           = 0x40000000
	desktopHorzRes       = 118
)

// Backend implements native.Backend on Windows
type Backend struct{}

var _ native.Backend = (*Backend)(nil)

// New creates the Windows backend
func New() (*Backend, error) {
	if err := user32.Load(); err != nil {
		return nil, fmt.Errorf("failed to load user32.dll: %w", err)
	}
	return &Backend{}, nil
}

// Name returns the backend name
func (b *Backend) Name() string {
	return "win32"
}

// Close is a no-op; the backend holds no handles between calls.
func (b *Backend) Close() error {
	return nil
}

// ProcessDPIAware asks shcore for the process DPI awareness, falling back
// to the system-aware flag on systems without shcore.
func (b *Backend) ProcessDPIAware() (bool, error) {
	if err := procGetProcessDpiAwareness.Find(); err != nil {
		r, _, _ := procIsProcessDPIAware.Call()
		return r != 0, nil
	}

	var awareness uint32
	hr, _, _ := procGetProcessDpiAwareness.Call(0, uintptr(unsafe.Pointer(&awareness)))
	if hr != 0 {
		return false, fmt.Errorf("GetProcessDpiAwareness failed: HRESULT %#x", hr)
	}
	return awareness != 0, nil
}

// ProbeMonitorDPI locates GetDpiForMonitor in shcore.dll
func (b *Backend) ProbeMonitorDPI() native.MonitorDPIFunc {
	if err := procGetDpiForMonitor.Find(); err != nil {
		logger.WithComponent("win32-backend").Debug().Err(err).Msg("GetDpiForMonitor not available")
		return nil
	}
	return func(h native.Handle) (uint32, error) {
		var dpiX, dpiY uint32
		hr, _, _ := procGetDpiForMonitor.Call(
			uintptr(h),
			mdtEffectiveDPI,
			uintptr(unsafe.Pointer(&dpiX)),
			uintptr(unsafe.Pointer(&dpiY)),
		)
		if hr != 0 {
			return 0, fmt.Errorf("GetDpiForMonitor failed: HRESULT %#x", hr)
		}
		return dpiX, nil
	}
}

// Orientations maps DEVMODE display orientations to rotations
func (b *Backend) Orientations() surface.OrientationTable {
	return orientations
}
