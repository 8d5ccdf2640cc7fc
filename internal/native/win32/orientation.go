// Package win32 implements native.Backend with GDI and the Win32 display
// APIs.
package win32

import (
	"sync"

	"github.com/bryanchriswhite/surfacecap/internal/surface"
)

// DEVMODE dmDisplayOrientation values
const (
	dmdoDefault = 0
	dmdo90      = 1
	dmdo180     = 2
	dmdo270     = 3
)

var orientations = surface.OrientationTable{
	dmdoDefault: surface.Rotate0,
	dmdo90:      surface.Rotate90,
	dmdo180:     surface.Rotate180,
	dmdo270:     surface.Rotate270,
}

// PrintWindow flags
const (
	pwClientOnly        = 0x1
	pwRenderFullContent = 0x2
)

func printWindowFlags(fullContent, clientOnly bool) uintptr {
	var flags uintptr
	if clientOnly {
		flags |= pwClientOnly
	}
	if fullContent {
		flags |= pwRenderFullContent
	}
	return flags
}

// packPoint packs a POINT into one register for calls that take the
// struct by value on x64.
func packPoint(x, y int) uintptr {
	return uintptr(uint64(uint32(int32(x))) | uint64(uint32(int32(y)))<<32)
}

// visitors holds the enumeration visitor of each in-flight EnumXxx call,
// keyed by the token passed as the callback's LPARAM. Each call registers
// its own visitor so no enumeration shares state with another.
type visitors struct {
	mu   sync.Mutex
	next uintptr
	m    map[uintptr]func(uintptr) bool
}

func (v *visitors) add(fn func(uintptr) bool) uintptr {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.m == nil {
		v.m = make(map[uintptr]func(uintptr) bool)
	}
	v.next++
	v.m[v.next] = fn
	return v.next
}

func (v *visitors) remove(token uintptr) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.m, token)
}

// call runs the visitor for token and returns the BOOL the enumeration
// expects: 1 to continue, 0 to stop.
func (v *visitors) call(token, h uintptr) uintptr {
	v.mu.Lock()
	fn := v.m[token]
	v.mu.Unlock()
	if fn == nil || !fn(h) {
		return 0
	}
	return 1
}
