package commands

import (
	"os"

	"github.com/spf13/cobra"
)

var windowsCmd = &cobra.Command{
	Use:   "windows",
	Short: "List top-level windows",
	Long: `List visible top-level windows with their owning application, the monitor
they are on and their geometry.`,
	Example: `  # List windows in table format (default)
  surfacecap windows

  # List windows in JSON format
  surfacecap windows --format json`,
	RunE: runWindows,
}

var windowsFormat string

func init() {
	rootCmd.AddCommand(windowsCmd)

	windowsCmd.Flags().StringVarP(&windowsFormat, "format", "f", "table", "output format (table, json or yaml)")
}

func runWindows(cmd *cobra.Command, args []string) error {
	s, _, err := openScreen()
	if err != nil {
		return err
	}
	defer s.Close()

	windows, err := s.ListWindows()
	if err != nil {
		return err
	}
	return writeDescriptors(os.Stdout, windowsFormat, windows, printWindowsTable)
}
