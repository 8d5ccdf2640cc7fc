//go:build windows

package win32

import (
	"fmt"
	"unsafe"

	"github.com/lxn/win"

	"github.com/bryanchriswhite/surfacecap/internal/native"
)

// EnumWindows visits visible top-level windows that have a title and are
// not tool windows.
func (b *Backend) EnumWindows(visit func(native.Handle) bool) error {
	token := windowVisitors.add(func(h uintptr) bool {
		hwnd := win.HWND(h)
		if !win.IsWindowVisible(hwnd) {
			return true
		}
		if win.GetWindowLong(hwnd, win.GWL_EXSTYLE)&win.WS_EX_TOOLWINDOW != 0 {
			return true
		}
		if n, _, _ := procGetWindowTextLengthW.Call(h); n == 0 {
			return true
		}
		return visit(native.Handle(h))
	})
	defer windowVisitors.remove(token)

	r, _, err := procEnumWindows.Call(enumWindowCallback, token)
	if r == 0 {
		return fmt.Errorf("EnumWindows failed: %w", err)
	}
	return nil
}

// WindowInfo reads title, geometry, owning pid and monitor of a window
func (b *Backend) WindowInfo(h native.Handle) (native.WindowInfo, error) {
	hwnd := win.HWND(h)

	var rect win.RECT
	if !win.GetWindowRect(hwnd, &rect) {
		return native.WindowInfo{}, fmt.Errorf("GetWindowRect failed for window %#x", uintptr(h))
	}

	var pid uint32
	win.GetWindowThreadProcessId(hwnd, &pid)

	return native.WindowInfo{
		Title:       windowText(hwnd),
		PID:         int(pid),
		X:           int(rect.Left),
		Y:           int(rect.Top),
		Width:       int(rect.Right - rect.Left),
		Height:      int(rect.Bottom - rect.Top),
		IsMinimized: win.IsIconic(hwnd),
		Monitor:     native.Handle(win.MonitorFromWindow(hwnd, win.MONITOR_DEFAULTTONEAREST)),
	}, nil
}

func windowText(hwnd win.HWND) string {
	n, _, _ := procGetWindowTextLengthW.Call(uintptr(hwnd))
	if n == 0 {
		return ""
	}
	buf := make([]uint16, n+1)
	procGetWindowTextW.Call(uintptr(hwnd), uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	return win.UTF16PtrToString(&buf[0])
}
