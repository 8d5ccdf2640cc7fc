package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"

	"github.com/bryanchriswhite/surfacecap/internal/native"
	"github.com/bryanchriswhite/surfacecap/internal/surface"
)

// Monitor handles are RandR output ids. Only connected outputs driven by a
// CRTC are enumerated.

var orientations = surface.OrientationTable{
	randr.RotationRotate0:   surface.Rotate0,
	randr.RotationRotate90:  surface.Rotate90,
	randr.RotationRotate180: surface.Rotate180,
	randr.RotationRotate270: surface.Rotate270,
}

// Orientations maps RandR rotation bits to rotations
func (b *Backend) Orientations() surface.OrientationTable {
	return orientations
}

func (b *Backend) resources() (*randr.GetScreenResourcesCurrentReply, error) {
	res, err := randr.GetScreenResourcesCurrent(b.conn, b.root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}
	return res, nil
}

// EnumMonitors visits every active output
func (b *Backend) EnumMonitors(visit func(native.Handle) bool) error {
	res, err := b.resources()
	if err != nil {
		return err
	}

	for _, output := range res.Outputs {
		info, err := randr.GetOutputInfo(b.conn, output, res.ConfigTimestamp).Reply()
		if err != nil {
			return fmt.Errorf("failed to get output %d info: %w", output, err)
		}
		if info.Connection != randr.ConnectionConnected || info.Crtc == 0 {
			continue
		}
		if !visit(native.Handle(output)) {
			break
		}
	}
	return nil
}

// MonitorInfo returns the output name and primary flag
func (b *Backend) MonitorInfo(h native.Handle) (native.MonitorInfo, error) {
	res, err := b.resources()
	if err != nil {
		return native.MonitorInfo{}, err
	}

	output := randr.Output(h)
	info, err := randr.GetOutputInfo(b.conn, output, res.ConfigTimestamp).Reply()
	if err != nil {
		return native.MonitorInfo{}, fmt.Errorf("failed to get output info: %w", err)
	}

	primary, err := randr.GetOutputPrimary(b.conn, b.root).Reply()
	if err != nil {
		return native.MonitorInfo{}, fmt.Errorf("failed to get primary output: %w", err)
	}

	name := string(info.Name)
	return native.MonitorInfo{
		Name:       name,
		DeviceName: name,
		IsPrimary:  primary.Output == output,
	}, nil
}

// crtc returns the CRTC driving output h and the mode it runs
func (b *Backend) crtc(h native.Handle) (*randr.GetCrtcInfoReply, randr.ModeInfo, error) {
	res, err := b.resources()
	if err != nil {
		return nil, randr.ModeInfo{}, err
	}

	info, err := randr.GetOutputInfo(b.conn, randr.Output(h), res.ConfigTimestamp).Reply()
	if err != nil {
		return nil, randr.ModeInfo{}, fmt.Errorf("failed to get output info: %w", err)
	}
	if info.Crtc == 0 {
		return nil, randr.ModeInfo{}, fmt.Errorf("output %d is not active", h)
	}

	crtc, err := randr.GetCrtcInfo(b.conn, info.Crtc, res.ConfigTimestamp).Reply()
	if err != nil {
		return nil, randr.ModeInfo{}, fmt.Errorf("failed to get crtc %d info: %w", info.Crtc, err)
	}

	mode, ok := findMode(res.Modes, crtc.Mode)
	if !ok {
		return nil, randr.ModeInfo{}, fmt.Errorf("crtc %d runs unknown mode %d", info.Crtc, crtc.Mode)
	}
	return crtc, mode, nil
}

// DisplayMode returns the CRTC geometry, rotation and refresh rate.
// CRTC width and height already account for rotation.
func (b *Backend) DisplayMode(h native.Handle, _ native.MonitorInfo) (native.DisplayMode, error) {
	crtc, mode, err := b.crtc(h)
	if err != nil {
		return native.DisplayMode{}, err
	}
	return native.DisplayMode{
		X:           int(crtc.X),
		Y:           int(crtc.Y),
		Width:       int(crtc.Width),
		Height:      int(crtc.Height),
		Orientation: uint32(crtc.Rotation & 0xf),
		Frequency:   refreshRate(mode),
	}, nil
}

// MonitorFromPoint returns the active output whose CRTC contains the point.
// Outputs whose CRTC cannot be read are skipped; their error is returned only
// when no other output contains the point.
func (b *Backend) MonitorFromPoint(x, y int) (native.Handle, error) {
	return monitorFromPoint(b.EnumMonitors, func(h native.Handle) (*randr.GetCrtcInfoReply, error) {
		crtc, _, err := b.crtc(h)
		return crtc, err
	}, x, y)
}

func monitorFromPoint(
	enum func(func(native.Handle) bool) error,
	lookup func(native.Handle) (*randr.GetCrtcInfoReply, error),
	x, y int,
) (native.Handle, error) {
	var (
		found  native.Handle
		errOut error
	)
	err := enum(func(h native.Handle) bool {
		crtc, err := lookup(h)
		if err != nil {
			if errOut == nil {
				errOut = err
			}
			return true
		}
		if crtcContains(crtc, x, y) {
			found = h
			return false
		}
		return true
	})
	if err != nil {
		return 0, err
	}
	if found == 0 && errOut != nil {
		return 0, errOut
	}
	return found, nil
}

// deviceContext holds the resolutions a RandR output reports. It owns no
// server resources.
type deviceContext struct {
	physical int
	logical  int
}

func (dc *deviceContext) Caps() (int, int) { return dc.physical, dc.logical }

func (dc *deviceContext) Release() error { return nil }

// OpenDeviceContext reports the mode width as the physical resolution and
// the CRTC extent along the same panel axis as the logical one. They differ
// when the output is scaled with a RandR transform.
func (b *Backend) OpenDeviceContext(h native.Handle, _ native.MonitorInfo) (native.DeviceContext, error) {
	crtc, mode, err := b.crtc(h)
	if err != nil {
		return nil, err
	}
	return &deviceContext{
		physical: int(mode.Width),
		logical:  logicalWidth(crtc),
	}, nil
}

func logicalWidth(crtc *randr.GetCrtcInfoReply) int {
	if orientations.Lookup(uint32(crtc.Rotation & 0xf)).Swapped() {
		return int(crtc.Height)
	}
	return int(crtc.Width)
}

func findMode(modes []randr.ModeInfo, id randr.Mode) (randr.ModeInfo, bool) {
	for _, m := range modes {
		if randr.Mode(m.Id) == id {
			return m, true
		}
	}
	return randr.ModeInfo{}, false
}

// refreshRate computes the vertical refresh of a mode in Hz
func refreshRate(m randr.ModeInfo) float64 {
	vtotal := float64(m.Vtotal)
	if m.ModeFlags&randr.ModeFlagDoubleScan != 0 {
		vtotal *= 2
	}
	if m.ModeFlags&randr.ModeFlagInterlace != 0 {
		vtotal /= 2
	}
	if m.Htotal == 0 || vtotal == 0 {
		return 0
	}
	return float64(m.DotClock) / (float64(m.Htotal) * vtotal)
}

func crtcContains(c *randr.GetCrtcInfoReply, x, y int) bool {
	return x >= int(c.X) && x < int(c.X)+int(c.Width) &&
		y >= int(c.Y) && y < int(c.Y)+int(c.Height)
}
