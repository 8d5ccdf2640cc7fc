// Package mutter reads monitor layout and scale from GNOME Mutter over D-Bus.
package mutter

import (
	"fmt"
	"math"

	"github.com/godbus/dbus/v5"

	"github.com/bryanchriswhite/surfacecap/internal/logger"
)

// Mutter D-Bus constants
const (
	displayConfigService   = "org.gnome.Mutter.DisplayConfig"
	displayConfigPath      = "/org/gnome/Mutter/DisplayConfig"
	displayConfigInterface = "org.gnome.Mutter.DisplayConfig"
)

// MonitorSpec identifies a physical monitor: (ssss)
type MonitorSpec struct {
	Connector string
	Vendor    string
	Product   string
	Serial    string
}

// MonitorMode is one mode of a physical monitor: (siiddada{sv})
type MonitorMode struct {
	ID              string
	Width           int32
	Height          int32
	Refresh         float64
	PreferredScale  float64
	SupportedScales []float64
	Properties      map[string]dbus.Variant
}

// PhysicalMonitor is ((ssss)a(siiddada{sv})a{sv})
type PhysicalMonitor struct {
	Spec       MonitorSpec
	Modes      []MonitorMode
	Properties map[string]dbus.Variant
}

// LogicalMonitor is (iiduba(ssss)a{sv})
type LogicalMonitor struct {
	X          int32
	Y          int32
	Scale      float64
	Transform  uint32
	Primary    bool
	Monitors   []MonitorSpec
	Properties map[string]dbus.Variant
}

// State is the reply of GetCurrentState
type State struct {
	Serial          uint32
	Monitors        []PhysicalMonitor
	LogicalMonitors []LogicalMonitor
	Properties      map[string]dbus.Variant
}

// ScaleFor returns the scale of the logical monitor driving connector.
func (s *State) ScaleFor(connector string) (float64, bool) {
	for _, lm := range s.LogicalMonitors {
		for _, spec := range lm.Monitors {
			if spec.Connector == connector && lm.Scale > 0 && !math.IsNaN(lm.Scale) {
				return lm.Scale, true
			}
		}
	}
	return 0, false
}

// Client talks to org.gnome.Mutter.DisplayConfig on the session bus.
type Client struct {
	conn *dbus.Conn
}

// NewClient connects to the session bus and checks that Mutter's display
// config service is present.
func NewClient() (*Client, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}

	var hasOwner bool
	if err := conn.BusObject().Call("org.freedesktop.DBus.NameHasOwner", 0, displayConfigService).Store(&hasOwner); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to query D-Bus name owner: %w", err)
	}
	if !hasOwner {
		conn.Close()
		return nil, fmt.Errorf("%s not found on D-Bus", displayConfigService)
	}

	logger.WithComponent("mutter").Debug().Msg("Connected to Mutter DisplayConfig")
	return &Client{conn: conn}, nil
}

// Close closes the bus connection
func (c *Client) Close() error {
	return c.conn.Close()
}

// CurrentState calls GetCurrentState
func (c *Client) CurrentState() (*State, error) {
	obj := c.conn.Object(displayConfigService, dbus.ObjectPath(displayConfigPath))

	var st State
	err := obj.Call(displayConfigInterface+".GetCurrentState", 0).
		Store(&st.Serial, &st.Monitors, &st.LogicalMonitors, &st.Properties)
	if err != nil {
		return nil, fmt.Errorf("failed to call GetCurrentState: %w", err)
	}
	return &st, nil
}

// MonitorScale returns the scale Mutter applies to the monitor on connector.
func (c *Client) MonitorScale(connector string) (float64, error) {
	st, err := c.CurrentState()
	if err != nil {
		return 0, err
	}
	s, ok := st.ScaleFor(connector)
	if !ok {
		return 0, fmt.Errorf("connector %q not in any logical monitor", connector)
	}
	return s, nil
}
