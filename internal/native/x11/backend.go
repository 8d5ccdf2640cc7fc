// Package x11 implements native.Backend on an X11 display using RandR for
// monitors, EWMH for windows and the Composite extension for off-screen
// window capture.
package x11

import (
	"fmt"
	"sync"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/composite"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/bryanchriswhite/surfacecap/internal/logger"
	"github.com/bryanchriswhite/surfacecap/internal/native"
)

// MonitorScaler reports the compositor scale of the monitor on a connector
type MonitorScaler interface {
	MonitorScale(connector string) (float64, error)
}

// Options configures the backend
type Options struct {
	// DPIAware marks the process as able to use per-monitor scale values.
	// X11 has no process-level awareness, so this comes from configuration.
	DPIAware bool

	// Scaler is consulted for per-monitor scale. May be nil.
	Scaler MonitorScaler
}

// Backend implements native.Backend using X11
type Backend struct {
	conn   *xgb.Conn
	root   xproto.Window
	screen *xproto.ScreenInfo
	setup  *xproto.SetupInfo
	opts   Options

	compositeEnabled bool

	atomMu sync.Mutex
	atoms  map[string]xproto.Atom
}

var _ native.Backend = (*Backend)(nil)

// New connects to the X server named by $DISPLAY
func New(opts Options) (*Backend, error) {
	log := logger.WithComponent("x11-backend")

	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X server: %w", err)
	}

	if err := randr.Init(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("RandR extension not available: %w", err)
	}

	setup := xproto.Setup(conn)
	screen := setup.DefaultScreen(conn)

	b := &Backend{
		conn:   conn,
		root:   screen.Root,
		screen: screen,
		setup:  setup,
		opts:   opts,
		atoms:  make(map[string]xproto.Atom),
	}

	if err := composite.Init(conn); err != nil {
		log.Warn().
			Err(err).
			Msg("Composite extension not available - window captures may miss obscured content")
	} else {
		b.compositeEnabled = true
		log.Debug().Msg("Composite extension initialized")
	}

	return b, nil
}

// Name returns the backend name
func (b *Backend) Name() string {
	return "x11"
}

// Close closes the X11 connection
func (b *Backend) Close() error {
	b.conn.Close()
	return nil
}

// ProcessDPIAware returns the configured awareness
func (b *Backend) ProcessDPIAware() (bool, error) {
	return b.opts.DPIAware, nil
}

// ProbeMonitorDPI returns a per-monitor DPI function backed by the
// configured scaler, or nil when there is none.
func (b *Backend) ProbeMonitorDPI() native.MonitorDPIFunc {
	if b.opts.Scaler == nil {
		return nil
	}
	return func(h native.Handle) (uint32, error) {
		info, err := b.MonitorInfo(h)
		if err != nil {
			return 0, err
		}
		s, err := b.opts.Scaler.MonitorScale(info.Name)
		if err != nil {
			return 0, err
		}
		return scaleToDPI(s), nil
	}
}

// scaleToDPI converts a compositor scale to the equivalent DPI
func scaleToDPI(scale float64) uint32 {
	if scale <= 0 {
		return 0
	}
	return uint32(scale*96 + 0.5)
}

// atom interns name once per connection
func (b *Backend) atom(name string) (xproto.Atom, error) {
	b.atomMu.Lock()
	defer b.atomMu.Unlock()

	if a, ok := b.atoms[name]; ok {
		return a, nil
	}
	reply, err := xproto.InternAtom(b.conn, false, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, err
	}
	b.atoms[name] = reply.Atom
	return reply.Atom, nil
}

// property reads a whole property of any type
func (b *Backend) property(win xproto.Window, name string) (*xproto.GetPropertyReply, error) {
	a, err := b.atom(name)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s atom: %w", name, err)
	}
	reply, err := xproto.GetProperty(
		b.conn,
		false,
		win,
		a,
		xproto.GetPropertyTypeAny,
		0,
		(1<<32)-1,
	).Reply()
	if err != nil {
		return nil, err
	}
	if reply.ValueLen == 0 {
		return nil, fmt.Errorf("empty property %s", name)
	}
	return reply, nil
}
