package commands

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/bryanchriswhite/surfacecap/internal/api"
	"github.com/bryanchriswhite/surfacecap/internal/logger"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the surfacecap HTTP server",
	Long: `Start the HTTP server. It lists monitors and windows as JSON and serves
captures as images over REST and WebSocket.

Routes:
  GET /api/health
  GET /api/monitors
  GET /api/monitors/at?x=X&y=Y
  GET /api/windows
  GET /api/monitors/{id}/capture?format=png&channels=4&max_width=0&label=false
  GET /api/windows/{id}/capture
  GET /api/ws   (send {"kind":"monitor","id":66}, receive one binary image)
  GET /api/config

Browser requests from other origins are refused with 403 unless listed in
server.allowed_origins.`,
	Example: `  # Start server on default port (8080)
  surfacecap serve

  # Start server on custom port
  surfacecap serve --port 9090

  # Listen on every interface
  surfacecap serve --host 0.0.0.0

  # Start with debug logging
  surfacecap serve --log-level debug`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "server port (default is 8080)")
	serveCmd.Flags().String("host", "", "listen address (default is 127.0.0.1)")
	overrides.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	overrides.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
}

func runServe(cmd *cobra.Command, args []string) error {
	s, configMgr, err := openScreen()
	if err != nil {
		return err
	}
	defer s.Close()

	cfg := configMgr.Get()
	log := logger.Get()
	log.Info().
		Str("config", configMgr.GetConfigPath()).
		Str("backend", s.BackendName()).
		Str("log_level", cfg.LogLevel).
		Msg("Configuration loaded")

	server := api.NewServer(s, configMgr)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start(cfg.Server.Host, cfg.Server.Port)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	host := cfg.Server.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	log.Info().
		Str("api", fmt.Sprintf("http://%s/api", net.JoinHostPort(host, strconv.Itoa(cfg.Server.Port)))).
		Msg("surfacecap is running, press Ctrl+C to stop")

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-sigChan:
	}

	log.Info().Msg("Shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
