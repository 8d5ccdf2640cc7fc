package commands

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/bryanchriswhite/surfacecap/internal/config"
	"github.com/bryanchriswhite/surfacecap/internal/logger"
	"github.com/bryanchriswhite/surfacecap/internal/screen"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	// overrides collects flags and SURFACECAP_* environment variables that
	// take precedence over the config file
	overrides = config.NewOverrides()
	rootCmd   = &cobra.Command{
		Use:   "surfacecap",
		Short: "surfacecap - enumerate and capture monitors and windows",
		Long: `surfacecap enumerates the monitors and top-level windows of the desktop and
captures their contents as PNG, BMP or TIFF images.

Features:
  • Monitor geometry, rotation, DPI scale and refresh rate
  • Window owner, monitor membership and minimized state
  • X11 (RandR, Composite, Mutter scale) and Windows (GDI) backends
  • RGB or RGBA captures with optional scaling and caption
  • REST and WebSocket API for integration`,
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/surfacecap/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-pretty", false, "human readable logs on stderr")
	rootCmd.PersistentFlags().String("backend", "", "native backend (auto, x11, win32)")

	overrides.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	overrides.BindPFlag("log_pretty", rootCmd.PersistentFlags().Lookup("log-pretty"))
	overrides.BindPFlag("backend", rootCmd.PersistentFlags().Lookup("backend"))
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}

// loadConfig reads the config file, applies flag and environment overrides
// and configures logging from the result.
func loadConfig() (*config.Manager, error) {
	configMgr, err := config.NewManager(GetConfigFile())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := configMgr.ApplyOverrides(overrides); err != nil {
		return nil, err
	}

	cfg := configMgr.Get()
	logger.Init(cfg.LogLevel, cfg.LogPretty)
	return configMgr, nil
}

// openScreen loads the configuration and opens the configured backend
func openScreen() (*screen.Screen, *config.Manager, error) {
	configMgr, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	s, err := screen.Open(screen.OptionsFromConfig(configMgr.Get()))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open display: %w", err)
	}
	return s, configMgr, nil
}

// parseID accepts decimal or 0x-prefixed hexadecimal surface ids
func parseID(s string) (uint32, error) {
	id, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return uint32(id), nil
}

// parsePoint parses "X,Y"
func parsePoint(s string) (int, int, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, fmt.Errorf("invalid point %q (use X,Y)", s)
	}
	x, errX := strconv.Atoi(strings.TrimSpace(xs))
	y, errY := strconv.Atoi(strings.TrimSpace(ys))
	if errX != nil || errY != nil {
		return 0, 0, fmt.Errorf("invalid point %q (use X,Y)", s)
	}
	return x, y, nil
}
