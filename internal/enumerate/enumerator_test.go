package enumerate

import (
	"errors"
	"testing"

	"github.com/bryanchriswhite/surfacecap/internal/native"
	"github.com/bryanchriswhite/surfacecap/internal/native/nativetest"
	"github.com/bryanchriswhite/surfacecap/internal/surface"
)

func twoMonitors() *nativetest.Backend {
	return &nativetest.Backend{
		Monitors: []nativetest.Monitor{
			{
				Handle:   0x10001,
				Info:     native.MonitorInfo{Name: "DP-1", IsPrimary: true},
				Mode:     native.DisplayMode{X: 0, Y: 0, Width: 1920, Height: 1080, Frequency: 60},
				Physical: 1920, Logical: 1920,
			},
			{
				Handle:   0x10002,
				Info:     native.MonitorInfo{Name: "HDMI-1"},
				Mode:     native.DisplayMode{X: 1920, Y: 0, Width: 1080, Height: 1920, Orientation: 1, Frequency: 59.94},
				Physical: 2160, Logical: 1080,
			},
		},
	}
}

type fakeProcs map[int]string

func (p fakeProcs) Name(pid int) (string, error) {
	if name, ok := p[pid]; ok {
		return name, nil
	}
	return "", errors.New("no such process")
}

func TestListMonitors(t *testing.T) {
	b := twoMonitors()
	monitors, err := New(b, nil, nil).ListMonitors()
	if err != nil {
		t.Fatalf("list monitors: %v", err)
	}
	if len(monitors) != 2 {
		t.Fatalf("expected 2 monitors, got %d", len(monitors))
	}

	primary := monitors[0]
	if primary.ID != 0x10001 || primary.Name != "DP-1" || !primary.IsPrimary {
		t.Fatalf("unexpected primary: %+v", primary)
	}
	if primary.ScaleFactor != 1 || primary.Rotation != surface.Rotate0 || primary.Frequency != 60 {
		t.Fatalf("unexpected primary metadata: %+v", primary)
	}

	rotated := monitors[1]
	if rotated.Rotation != surface.Rotate90 || rotated.ScaleFactor != 2 {
		t.Fatalf("unexpected rotated monitor: %+v", rotated)
	}
	if rotated.Kind != surface.KindMonitor {
		t.Fatalf("expected monitor kind, got %q", rotated.Kind)
	}
	if b.OpenContexts != 0 {
		t.Fatalf("expected all device contexts released, %d still open", b.OpenContexts)
	}
}

func TestListMonitorsSkipsFailingHandle(t *testing.T) {
	tests := []struct {
		name string
		fail func(m *nativetest.Monitor)
	}{
		{"info", func(m *nativetest.Monitor) { m.InfoErr = errors.New("GetMonitorInfoW failed") }},
		{"display settings", func(m *nativetest.Monitor) { m.ModeErr = errors.New("EnumDisplaySettingsW failed") }},
		{"device context", func(m *nativetest.Monitor) { m.DCErr = errors.New("CreateDCW failed") }},
		{"caps", func(m *nativetest.Monitor) { m.Physical = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := twoMonitors()
			b.Monitors = append(b.Monitors, nativetest.Monitor{
				Handle:   0x10003,
				Info:     native.MonitorInfo{Name: "DP-2"},
				Mode:     native.DisplayMode{X: -1920, Width: 1920, Height: 1080},
				Physical: 1920, Logical: 1920,
			})
			tt.fail(&b.Monitors[1])

			monitors, err := New(b, nil, nil).ListMonitors()
			if err != nil {
				t.Fatalf("list monitors: %v", err)
			}
			if len(monitors) != 2 {
				t.Fatalf("expected 2 monitors, got %d", len(monitors))
			}
			if monitors[0].ID != 0x10001 || monitors[1].ID != 0x10003 {
				t.Fatalf("unexpected ids %d, %d", monitors[0].ID, monitors[1].ID)
			}
		})
	}
}

func TestListMonitorsEnumerationFailure(t *testing.T) {
	b := twoMonitors()
	b.EnumErr = errors.New("EnumDisplayMonitors failed")
	if _, err := New(b, nil, nil).ListMonitors(); !errors.Is(err, surface.ErrQueryFailed) {
		t.Fatalf("expected ErrQueryFailed, got %v", err)
	}
}

func TestUnknownOrientationDefaultsToZero(t *testing.T) {
	b := twoMonitors()
	b.Monitors[1].Mode.Orientation = 99
	monitors, err := New(b, nil, nil).ListMonitors()
	if err != nil {
		t.Fatalf("list monitors: %v", err)
	}
	if monitors[1].Rotation != surface.Rotate0 {
		t.Fatalf("expected rotation 0, got %d", monitors[1].Rotation)
	}
}

func TestMonitorAtPoint(t *testing.T) {
	b := twoMonitors()
	e := New(b, nil, nil)

	d, err := e.MonitorAtPoint(2000, 100)
	if err != nil {
		t.Fatalf("monitor at point: %v", err)
	}
	if d.Name != "HDMI-1" {
		t.Fatalf("expected HDMI-1, got %q", d.Name)
	}

	_, err = e.MonitorAtPoint(-5000, -5000)
	if !errors.Is(err, surface.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	b.Monitors[0].ModeErr = errors.New("EnumDisplaySettingsW failed")
	_, err = e.MonitorAtPoint(10, 10)
	if !errors.Is(err, surface.ErrQueryFailed) {
		t.Fatalf("expected ErrQueryFailed, got %v", err)
	}
}

func TestListWindows(t *testing.T) {
	b := twoMonitors()
	b.Windows = []nativetest.Window{
		{Handle: 0x400001, Info: native.WindowInfo{Title: "Terminal", PID: 42, X: 10, Y: 10, Width: 800, Height: 600, Monitor: 0x10001}},
		{Handle: 0x400002, Info: native.WindowInfo{Title: "Browser", AppName: "firefox", PID: 7, X: 2000, Y: 50, Width: 600, Height: 900}},
		{Handle: 0x400003, Err: errors.New("BadWindow")},
		{Handle: 0x400004, Info: native.WindowInfo{Title: "Offscreen", X: -9000, Y: 40, Width: 100, Height: 100, IsMinimized: true}},
	}

	windows, err := New(b, nil, fakeProcs{42: "alacritty"}).ListWindows()
	if err != nil {
		t.Fatalf("list windows: %v", err)
	}
	if len(windows) != 3 {
		t.Fatalf("expected 3 windows, got %d", len(windows))
	}

	term := windows[0]
	if term.AppName != "alacritty" || term.MonitorID != 0x10001 || term.Kind != surface.KindWindow {
		t.Fatalf("unexpected terminal window: %+v", term)
	}

	browser := windows[1]
	if browser.MonitorID != 0x10002 || browser.Rotation != surface.Rotate90 || browser.ScaleFactor != 2 {
		t.Fatalf("expected browser to inherit HDMI-1 metadata: %+v", browser)
	}
	if browser.AppName != "firefox" {
		t.Fatalf("expected native app name to win, got %q", browser.AppName)
	}

	off := windows[2]
	if off.MonitorID != 0x10001 || !off.IsMinimized {
		t.Fatalf("expected offscreen window on nearest monitor: %+v", off)
	}
	if b.OpenContexts != 0 {
		t.Fatalf("expected all device contexts released, %d still open", b.OpenContexts)
	}
}

type countingProcs struct {
	names map[int]string
	calls int
}

func (p *countingProcs) Name(pid int) (string, error) {
	p.calls++
	if name, ok := p.names[pid]; ok {
		return name, nil
	}
	return "", errors.New("no such process")
}

func TestListWindowsResolvesProcessNamesPerCall(t *testing.T) {
	b := twoMonitors()
	b.Windows = []nativetest.Window{
		{Handle: 0x400001, Info: native.WindowInfo{Title: "one", PID: 42, X: 10, Y: 10, Width: 100, Height: 100}},
		{Handle: 0x400002, Info: native.WindowInfo{Title: "two", PID: 42, X: 20, Y: 20, Width: 100, Height: 100}},
	}
	procs := &countingProcs{names: map[int]string{42: "alacritty"}}
	e := New(b, nil, procs)

	windows, err := e.ListWindows()
	if err != nil {
		t.Fatalf("list windows: %v", err)
	}
	if procs.calls != 1 {
		t.Fatalf("expected one lookup for a shared pid, got %d", procs.calls)
	}
	if windows[0].AppName != "alacritty" || windows[1].AppName != "alacritty" {
		t.Fatalf("unexpected app names: %q %q", windows[0].AppName, windows[1].AppName)
	}

	// pid 42 now belongs to another executable
	procs.names[42] = "kitty"
	windows, err = e.ListWindows()
	if err != nil {
		t.Fatalf("list windows: %v", err)
	}
	if windows[0].AppName != "kitty" {
		t.Fatalf("expected fresh name kitty, got %q", windows[0].AppName)
	}
	if procs.calls != 2 {
		t.Fatalf("expected a new lookup on the second call, got %d calls", procs.calls)
	}
}

func TestNearest(t *testing.T) {
	monitors := []surface.Descriptor{
		{ID: 1, X: 0, Y: 0, Width: 100, Height: 100},
		{ID: 2, X: 100, Y: 0, Width: 100, Height: 100},
	}
	for _, tt := range []struct {
		x, y int
		want uint32
	}{
		{50, 50, 1},
		{150, 50, 2},
		{-10, 50, 1},
		{500, 500, 2},
	} {
		d, ok := Nearest(monitors, tt.x, tt.y)
		if !ok || d.ID != tt.want {
			t.Fatalf("Nearest(%d, %d) = %d, want %d", tt.x, tt.y, d.ID, tt.want)
		}
	}
	if _, ok := Nearest(nil, 0, 0); ok {
		t.Fatalf("expected no monitor from empty list")
	}
}
