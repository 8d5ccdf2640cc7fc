package mutter

import "testing"

func TestScaleFor(t *testing.T) {
	st := &State{
		LogicalMonitors: []LogicalMonitor{
			{X: 0, Y: 0, Scale: 2, Primary: true, Monitors: []MonitorSpec{{Connector: "eDP-1"}}},
			{X: 1920, Y: 0, Scale: 1, Monitors: []MonitorSpec{{Connector: "DP-1"}, {Connector: "DP-2"}}},
			{X: 3840, Y: 0, Scale: 0, Monitors: []MonitorSpec{{Connector: "HDMI-1"}}},
		},
	}

	tests := []struct {
		connector string
		want      float64
		ok        bool
	}{
		{"eDP-1", 2, true},
		{"DP-2", 1, true},
		{"HDMI-1", 0, false},
		{"VGA-1", 0, false},
	}
	for _, tt := range tests {
		got, ok := st.ScaleFor(tt.connector)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ScaleFor(%q) = %v, %v; want %v, %v", tt.connector, got, ok, tt.want, tt.ok)
		}
	}
}
