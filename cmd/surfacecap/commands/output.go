package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/bryanchriswhite/surfacecap/internal/surface"
	"gopkg.in/yaml.v3"
)

// writeDescriptors prints descriptors as a table, JSON or YAML
func writeDescriptors(out io.Writer, format string, list []surface.Descriptor, table func(io.Writer, []surface.Descriptor)) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(list)
	case "yaml":
		encoder := yaml.NewEncoder(out)
		encoder.SetIndent(2)
		return encoder.Encode(list)
	case "table":
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		table(w, list)
		return w.Flush()
	default:
		return fmt.Errorf("unsupported format: %s (use 'table', 'json' or 'yaml')", format)
	}
}

func printMonitorsTable(w io.Writer, monitors []surface.Descriptor) {
	fmt.Fprintln(w, "ID\tNAME\tPOSITION\tSIZE\tPHYSICAL\tROTATION\tSCALE\tHZ\tPRIMARY")
	fmt.Fprintln(w, "--\t----\t--------\t----\t--------\t--------\t-----\t--\t-------")

	for _, m := range monitors {
		pw, ph := m.PhysicalSize()
		primary := "No"
		if m.IsPrimary {
			primary = "Yes"
		}
		fmt.Fprintf(w, "%d\t%s\t%d,%d\t%dx%d\t%dx%d\t%d\t%.2f\t%.2f\t%s\n",
			m.ID, m.Name, m.X, m.Y, m.Width, m.Height, pw, ph,
			m.Rotation, m.ScaleFactor, m.Frequency, primary)
	}
}

func printWindowsTable(w io.Writer, windows []surface.Descriptor) {
	fmt.Fprintln(w, "ID\tAPP\tPID\tMONITOR\tPOSITION\tSIZE\tMINIMIZED\tTITLE")
	fmt.Fprintln(w, "--\t---\t---\t-------\t--------\t----\t---------\t-----")

	for _, win := range windows {
		minimized := "No"
		if win.IsMinimized {
			minimized = "Yes"
		}
		fmt.Fprintf(w, "%#x\t%s\t%d\t%d\t%d,%d\t%dx%d\t%s\t%s\n",
			win.ID, win.AppName, win.PID, win.MonitorID,
			win.X, win.Y, win.Width, win.Height, minimized, truncate(win.Name, 60))
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
