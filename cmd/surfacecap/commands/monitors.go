package commands

import (
	"os"

	"github.com/bryanchriswhite/surfacecap/internal/surface"
	"github.com/spf13/cobra"
)

var monitorsCmd = &cobra.Command{
	Use:   "monitors",
	Short: "List monitors",
	Long: `List the monitors of the virtual desktop with their position, logical and
physical size, rotation, DPI scale and refresh rate.

IDs are derived from native handles and are only valid until the display
configuration changes.`,
	Example: `  # List monitors in table format (default)
  surfacecap monitors

  # List monitors in JSON format
  surfacecap monitors --format json

  # Show the monitor under a desktop point
  surfacecap monitors --at 2500,300`,
	RunE: runMonitors,
}

var (
	monitorsFormat string
	monitorsAt     string
)

func init() {
	rootCmd.AddCommand(monitorsCmd)

	monitorsCmd.Flags().StringVarP(&monitorsFormat, "format", "f", "table", "output format (table, json or yaml)")
	monitorsCmd.Flags().StringVar(&monitorsAt, "at", "", "only the monitor containing the point X,Y")
}

func runMonitors(cmd *cobra.Command, args []string) error {
	s, _, err := openScreen()
	if err != nil {
		return err
	}
	defer s.Close()

	var monitors []surface.Descriptor
	if monitorsAt != "" {
		x, y, err := parsePoint(monitorsAt)
		if err != nil {
			return err
		}
		m, err := s.MonitorAtPoint(x, y)
		if err != nil {
			return err
		}
		monitors = []surface.Descriptor{m}
	} else {
		monitors, err = s.ListMonitors()
		if err != nil {
			return err
		}
	}

	return writeDescriptors(os.Stdout, monitorsFormat, monitors, printMonitorsTable)
}
