package x11

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"golang.org/x/text/encoding/charmap"

	"github.com/bryanchriswhite/surfacecap/internal/logger"
	"github.com/bryanchriswhite/surfacecap/internal/native"
)

// EnumWindows visits top-level client windows using EWMH _NET_CLIENT_LIST,
// falling back to the children of the root window.
func (b *Backend) EnumWindows(visit func(native.Handle) bool) error {
	log := logger.WithComponent("x11-backend")

	windows, err := b.clientListEWMH()
	if err == nil && len(windows) > 0 {
		log.Debug().Int("count", len(windows)).Msg("EnumWindows: using EWMH _NET_CLIENT_LIST")
	} else {
		if err != nil {
			log.Debug().Err(err).Msg("EnumWindows: EWMH failed, falling back to QueryTree")
		}
		tree, err := xproto.QueryTree(b.conn, b.root).Reply()
		if err != nil {
			return fmt.Errorf("failed to query root window tree: %w", err)
		}
		windows = b.viewable(tree.Children)
		log.Debug().Int("count", len(windows)).Msg("EnumWindows: using QueryTree fallback")
	}

	for _, w := range windows {
		if !visit(native.Handle(w)) {
			break
		}
	}
	return nil
}

func (b *Backend) clientListEWMH() ([]xproto.Window, error) {
	reply, err := b.property(b.root, "_NET_CLIENT_LIST")
	if err != nil {
		return nil, fmt.Errorf("failed to get _NET_CLIENT_LIST property: %w", err)
	}
	return windowIDs(reply.Value), nil
}

// viewable filters QueryTree children down to mapped input/output windows
func (b *Backend) viewable(children []xproto.Window) []xproto.Window {
	out := make([]xproto.Window, 0, len(children))
	for _, child := range children {
		attrs, err := xproto.GetWindowAttributes(b.conn, child).Reply()
		if err != nil {
			continue
		}
		if attrs.Class != xproto.WindowClassInputOutput || attrs.MapState != xproto.MapStateViewable || attrs.OverrideRedirect {
			continue
		}
		out = append(out, child)
	}
	return out
}

// WindowInfo reads title, class, pid, root-relative geometry and the hidden
// state of a window. Windows without a title or class are rejected.
func (b *Backend) WindowInfo(h native.Handle) (native.WindowInfo, error) {
	win := xproto.Window(h)

	geom, err := xproto.GetGeometry(b.conn, xproto.Drawable(win)).Reply()
	if err != nil {
		return native.WindowInfo{}, fmt.Errorf("failed to get window geometry: %w", err)
	}
	pos, err := xproto.TranslateCoordinates(b.conn, win, b.root, 0, 0).Reply()
	if err != nil {
		return native.WindowInfo{}, fmt.Errorf("failed to translate window coordinates: %w", err)
	}

	info := native.WindowInfo{
		X:      int(pos.DstX),
		Y:      int(pos.DstY),
		Width:  int(geom.Width),
		Height: int(geom.Height),
	}

	info.Title = b.text(win, "_NET_WM_NAME")
	if info.Title == "" {
		info.Title = b.text(win, "WM_NAME")
	}

	// WM_CLASS format is: instance\0class\0
	if reply, err := b.property(win, "WM_CLASS"); err == nil {
		info.AppName = parseWMClass(reply.Value)
	}

	if reply, err := b.property(win, "_NET_WM_PID"); err == nil && len(reply.Value) >= 4 {
		info.PID = int(le32(reply.Value))
	}

	info.IsMinimized = b.hasState(win, "_NET_WM_STATE_HIDDEN")

	if info.Title == "" && info.AppName == "" {
		return native.WindowInfo{}, fmt.Errorf("window %d has no title or class", win)
	}
	return info, nil
}

// text reads a string property, decoding STRING values as Latin-1
func (b *Backend) text(win xproto.Window, name string) string {
	reply, err := b.property(win, name)
	if err != nil {
		return ""
	}
	return decodeText(reply.Value, reply.Type == xproto.AtomString)
}

func (b *Backend) hasState(win xproto.Window, state string) bool {
	want, err := b.atom(state)
	if err != nil {
		return false
	}
	reply, err := b.property(win, "_NET_WM_STATE")
	if err != nil {
		return false
	}
	for i := 0; i+4 <= len(reply.Value); i += 4 {
		if xproto.Atom(le32(reply.Value[i:])) == want {
			return true
		}
	}
	return false
}

// decodeText converts a text property value to UTF-8. latin1 marks ICCCM
// STRING values; everything else is taken as UTF-8.
func decodeText(value []byte, latin1 bool) string {
	value = []byte(strings.TrimRight(string(value), "\x00"))
	if !latin1 {
		return string(value)
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(value)
	if err != nil {
		return string(value)
	}
	return string(out)
}

func parseWMClass(value []byte) string {
	parts := strings.Split(string(value), "\x00")
	if len(parts) >= 2 && parts[1] != "" {
		return parts[1]
	}
	if len(parts) >= 1 {
		return parts[0]
	}
	return ""
}

// windowIDs parses an array of 32-bit little-endian ids
func windowIDs(value []byte) []xproto.Window {
	ids := make([]xproto.Window, 0, len(value)/4)
	for i := 0; i+4 <= len(value); i += 4 {
		ids = append(ids, xproto.Window(le32(value[i:])))
	}
	return ids
}

func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
