// Package surface holds the canonical description of a capturable monitor or
// window and the error kinds shared by the capture pipeline.
package surface

import "fmt"

// Kind distinguishes monitors from windows
type Kind string

const (
	KindMonitor Kind = "monitor"
	KindWindow  Kind = "window"
)

// Descriptor is a snapshot of one capturable surface taken at enumeration
// time. It is not kept live against the native handle: re-enumerate to see
// configuration changes.
//
// ID is derived from the native handle. It is unique only while that handle
// is alive and must not be persisted across reconnects or reboots.
type Descriptor struct {
	ID          uint32   `json:"id" yaml:"id"`
	Kind        Kind     `json:"kind" yaml:"kind"`
	Name        string   `json:"name" yaml:"name"`
	X           int      `json:"x" yaml:"x"`
	Y           int      `json:"y" yaml:"y"`
	Width       int      `json:"width" yaml:"width"`
	Height      int      `json:"height" yaml:"height"`
	Rotation    Rotation `json:"rotation" yaml:"rotation"`
	ScaleFactor float64  `json:"scale_factor" yaml:"scale_factor"`
	Frequency   float64  `json:"frequency" yaml:"frequency"`
	IsPrimary   bool     `json:"is_primary" yaml:"is_primary"`

	// Window-only fields
	AppName     string `json:"app_name,omitempty" yaml:"app_name,omitempty"`
	PID         int    `json:"pid,omitempty" yaml:"pid,omitempty"`
	MonitorID   uint32 `json:"monitor_id,omitempty" yaml:"monitor_id,omitempty"`
	IsMinimized bool   `json:"is_minimized,omitempty" yaml:"is_minimized,omitempty"`
}

// Contains reports whether the virtual desktop point (x, y) lies inside the
// surface geometry.
func (d Descriptor) Contains(x, y int) bool {
	return x >= d.X && x < d.X+d.Width && y >= d.Y && y < d.Y+d.Height
}

// PhysicalSize returns the size in device pixels
func (d Descriptor) PhysicalSize() (int, int) {
	return int(float64(d.Width)*d.ScaleFactor + 0.5), int(float64(d.Height)*d.ScaleFactor + 0.5)
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%s %d %q %dx%d+%d+%d", d.Kind, d.ID, d.Name, d.Width, d.Height, d.X, d.Y)
}
