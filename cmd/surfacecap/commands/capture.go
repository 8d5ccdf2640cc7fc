package commands

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/bryanchriswhite/surfacecap/internal/encode"
	"github.com/bryanchriswhite/surfacecap/internal/logger"
	"github.com/bryanchriswhite/surfacecap/internal/screen"
	"github.com/bryanchriswhite/surfacecap/internal/surface"
	"github.com/spf13/cobra"
)

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Capture a monitor or window to an image file",
	Long: `Capture the current contents of a monitor or window and write it as PNG,
BMP or TIFF.

Each invocation captures exactly one image. Use "surfacecap monitors" and
"surfacecap windows" to find ids.`,
}

var captureMonitorCmd = &cobra.Command{
	Use:   "monitor [ID]",
	Short: "Capture a monitor (the primary monitor when ID is omitted)",
	Example: `  # Capture the primary monitor to ./monitor-<id>-<time>.png
  surfacecap capture monitor

  # Capture monitor 66 as RGB TIFF
  surfacecap capture monitor 66 --channels 3 --image-format tiff -o shot.tiff

  # Capture the monitor under a point
  surfacecap capture monitor --at 2500,300`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCaptureMonitor,
}

var captureWindowCmd = &cobra.Command{
	Use:   "window ID",
	Short: "Capture a window",
	Example: `  # Capture a window, scaled to at most 800 pixels wide, with a caption
  surfacecap capture window 0x3a00007 --max-width 800 --label

  # Write PNG to stdout
  surfacecap capture window 0x3a00007 -o - > window.png`,
	Args: cobra.ExactArgs(1),
	RunE: runCaptureWindow,
}

var (
	captureOutput    string
	captureAt        string
	captureMaxWidth  int
	captureMaxHeight int
	captureLabel     bool
)

func init() {
	rootCmd.AddCommand(captureCmd)
	captureCmd.AddCommand(captureMonitorCmd)
	captureCmd.AddCommand(captureWindowCmd)

	flags := captureCmd.PersistentFlags()
	flags.StringVarP(&captureOutput, "output", "o", "", "output file, - for stdout (default is <output_dir>/<kind>-<id>-<time>.<ext>)")
	flags.Int("channels", 0, "3 for RGB, 4 for RGBA (default from config)")
	flags.String("image-format", "", "png, bmp or tiff (default from config or the output extension)")
	flags.IntVar(&captureMaxWidth, "max-width", 0, "scale down to at most this width")
	flags.IntVar(&captureMaxHeight, "max-height", 0, "scale down to at most this height")
	flags.BoolVar(&captureLabel, "label", false, "draw the surface id, name and geometry in the corner")

	captureMonitorCmd.Flags().StringVar(&captureAt, "at", "", "capture the monitor containing the point X,Y")

	overrides.BindPFlag("capture.channels", flags.Lookup("channels"))
	overrides.BindPFlag("capture.format", flags.Lookup("image-format"))
}

func runCaptureMonitor(cmd *cobra.Command, args []string) error {
	return runCapture(cmd, func(s *screen.Screen) (surface.Descriptor, error) {
		switch {
		case len(args) == 1:
			id, err := parseID(args[0])
			if err != nil {
				return surface.Descriptor{}, err
			}
			return s.Monitor(id)
		case captureAt != "":
			x, y, err := parsePoint(captureAt)
			if err != nil {
				return surface.Descriptor{}, err
			}
			return s.MonitorAtPoint(x, y)
		default:
			return s.Primary()
		}
	})
}

func runCaptureWindow(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return runCapture(cmd, func(s *screen.Screen) (surface.Descriptor, error) {
		return s.Window(id)
	})
}

func runCapture(cmd *cobra.Command, pick func(*screen.Screen) (surface.Descriptor, error)) error {
	s, configMgr, err := openScreen()
	if err != nil {
		return err
	}
	defer s.Close()
	cfg := configMgr.Get()

	format, err := encode.ParseFormat(cfg.Capture.Format)
	if err != nil {
		return err
	}
	if ext := filepath.Ext(captureOutput); ext != "" && !cmd.Flags().Changed("image-format") {
		if f, err := encode.ParseFormat(ext); err == nil {
			format = f
		}
	}

	d, err := pick(s)
	if err != nil {
		return err
	}

	img, err := s.Capture(d)
	if err != nil {
		return err
	}

	opts := encode.Options{Format: format, MaxWidth: captureMaxWidth, MaxHeight: captureMaxHeight}
	if captureLabel {
		opts.Label = d.String()
	}

	path := captureOutput
	if path == "" {
		name := fmt.Sprintf("%s-%d-%s%s", d.Kind, d.ID, time.Now().Format("20060102-150405"), format.Extension())
		path = filepath.Join(cfg.Capture.OutputDir, name)
	}

	if err := writeImage(path, opts, img); err != nil {
		return err
	}

	logger.WithComponent("cli").Info().
		Str("surface", d.String()).
		Int("channels", img.Channels).
		Str("format", string(format)).
		Str("path", path).
		Msg("Capture written")

	if path != "-" {
		fmt.Println(path)
	}
	return nil
}

// writeImage encodes img to path, or to stdout when path is "-". A file
// whose encoding fails is removed.
func writeImage(path string, opts encode.Options, img image.Image) error {
	if path == "-" {
		return opts.Write(os.Stdout, img)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := opts.Write(f, img); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
