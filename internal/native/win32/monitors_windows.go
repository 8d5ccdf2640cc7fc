//go:build windows

package win32

import (
	"fmt"
	"unsafe"

	"github.com/lxn/win"
	"golang.org/x/sys/windows"

	"github.com/bryanchriswhite/surfacecap/internal/native"
)

// monitorInfoEx is MONITORINFOEXW
type monitorInfoEx struct {
	win.MONITORINFO
	Device [win.CCHDEVICENAME]uint16
}

// devMode is the display variant of DEVMODEW
type devMode struct {
	DeviceName         [32]uint16
	SpecVersion        uint16
	DriverVersion      uint16
	Size               uint16
	DriverExtra        uint16
	Fields             uint32
	PositionX          int32
	PositionY          int32
	DisplayOrientation uint32
	DisplayFixedOutput uint32
	Color              int16
	Duplex             int16
	YResolution        int16
	TTOption           int16
	Collate            int16
	FormName           [32]uint16
	LogPixels          uint16
	BitsPerPel         uint32
	PelsWidth          uint32
	PelsHeight         uint32
	DisplayFlags       uint32
	DisplayFrequency   uint32
	ICMMethod          uint32
	ICMIntent          uint32
	MediaType          uint32
	DitherType         uint32
	Reserved1          uint32
	Reserved2          uint32
	PanningWidth       uint32
	PanningHeight      uint32
}

// EnumMonitors visits every display monitor
func (b *Backend) EnumMonitors(visit func(native.Handle) bool) error {
	token := monitorVisitors.add(func(h uintptr) bool {
		return visit(native.Handle(h))
	})
	defer monitorVisitors.remove(token)

	r, _, err := procEnumDisplayMonitors.Call(0, 0, enumMonitorCallback, token)
	if r == 0 {
		return fmt.Errorf("EnumDisplayMonitors failed: %w", err)
	}
	return nil
}

// MonitorInfo calls GetMonitorInfoW with a MONITORINFOEXW
func (b *Backend) MonitorInfo(h native.Handle) (native.MonitorInfo, error) {
	var mi monitorInfoEx
	mi.CbSize = uint32(unsafe.Sizeof(mi))
	if !win.GetMonitorInfo(win.HMONITOR(h), &mi.MONITORINFO) {
		return native.MonitorInfo{}, fmt.Errorf("GetMonitorInfoW failed for monitor %#x", uintptr(h))
	}

	device := windows.UTF16ToString(mi.Device[:])
	return native.MonitorInfo{
		Name:       device,
		DeviceName: device,
		IsPrimary:  mi.DwFlags&win.MONITORINFOF_PRIMARY != 0,
	}, nil
}

// DisplayMode reads the current settings of the monitor's display device
func (b *Backend) DisplayMode(h native.Handle, info native.MonitorInfo) (native.DisplayMode, error) {
	name, err := windows.UTF16PtrFromString(info.DeviceName)
	if err != nil {
		return native.DisplayMode{}, err
	}

	var dm devMode
	dm.Size = uint16(unsafe.Sizeof(dm))
	r, _, _ := procEnumDisplaySettingsW.Call(
		uintptr(unsafe.Pointer(name)),
		enumCurrentSettings,
		uintptr(unsafe.Pointer(&dm)),
	)
	if r == 0 {
		return native.DisplayMode{}, fmt.Errorf("EnumDisplaySettingsW failed for %s", info.DeviceName)
	}

	return native.DisplayMode{
		X:           int(dm.PositionX),
		Y:           int(dm.PositionY),
		Width:       int(dm.PelsWidth),
		Height:      int(dm.PelsHeight),
		Orientation: dm.DisplayOrientation,
		Frequency:   float64(dm.DisplayFrequency),
	}, nil
}

// MonitorFromPoint returns 0 when the point is on no monitor
func (b *Backend) MonitorFromPoint(x, y int) (native.Handle, error) {
	r, _, _ := procMonitorFromPoint.Call(packPoint(x, y), monitorDefaultToNull)
	return native.Handle(r), nil
}

type deviceContext struct {
	hdc win.HDC
}

func (dc *deviceContext) Caps() (int, int) {
	return int(win.GetDeviceCaps(dc.hdc, desktopHorzRes)), int(win.GetDeviceCaps(dc.hdc, win.HORZRES))
}

func (dc *deviceContext) Release() error {
	if dc.hdc == 0 {
		return nil
	}
	ok := win.DeleteDC(dc.hdc)
	dc.hdc = 0
	if !ok {
		return fmt.Errorf("DeleteDC failed")
	}
	return nil
}

// OpenDeviceContext creates an information DC for the monitor's device
func (b *Backend) OpenDeviceContext(h native.Handle, info native.MonitorInfo) (native.DeviceContext, error) {
	name, err := windows.UTF16PtrFromString(info.DeviceName)
	if err != nil {
		return nil, err
	}
	hdc := win.CreateDC(name, name, nil, nil)
	if hdc == 0 {
		return nil, fmt.Errorf("CreateDCW failed for %s", info.DeviceName)
	}
	return &deviceContext{hdc: hdc}, nil
}
