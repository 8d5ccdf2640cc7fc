package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bryanchriswhite/surfacecap/internal/config"
	"github.com/bryanchriswhite/surfacecap/internal/encode"
	"github.com/bryanchriswhite/surfacecap/internal/logger"
	"github.com/bryanchriswhite/surfacecap/internal/pixel"
	"github.com/bryanchriswhite/surfacecap/internal/surface"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// Screen is the part of screen.Screen the server uses
type Screen interface {
	BackendName() string
	Channels() int
	ListMonitors() ([]surface.Descriptor, error)
	ListWindows() ([]surface.Descriptor, error)
	MonitorAtPoint(x, y int) (surface.Descriptor, error)
	Monitor(id uint32) (surface.Descriptor, error)
	Window(id uint32) (surface.Descriptor, error)
	CaptureChannels(d surface.Descriptor, channels int) (*pixel.Image, error)
}

// Server represents the HTTP API server
type Server struct {
	router    *mux.Router
	screen    Screen
	configMgr *config.Manager
	upgrader  websocket.Upgrader
	origins   map[string]bool

	mu   sync.Mutex
	http *http.Server
}

// NewServer creates a new API server. Browser origins other than the
// server's own are refused unless listed in server.allowed_origins.
func NewServer(screen Screen, configMgr *config.Manager) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		screen:    screen,
		configMgr: configMgr,
		origins:   make(map[string]bool),
	}
	if configMgr != nil {
		for _, o := range configMgr.Get().Server.AllowedOrigins {
			s.origins[strings.ToLower(strings.TrimRight(o, "/"))] = true
		}
	}
	s.upgrader = websocket.Upgrader{CheckOrigin: s.originAllowed}

	s.setupRoutes()
	return s
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Enumeration
	api.HandleFunc("/monitors", s.handleGetMonitors).Methods("GET")
	api.HandleFunc("/monitors/at", s.handleMonitorAt).Methods("GET")
	api.HandleFunc("/windows", s.handleGetWindows).Methods("GET")

	// Capture
	api.HandleFunc("/monitors/{id}/capture", s.handleCapture(surface.KindMonitor)).Methods("GET")
	api.HandleFunc("/windows/{id}/capture", s.handleCapture(surface.KindWindow)).Methods("GET")
	api.HandleFunc("/ws", s.handleCaptureSocket)

	// Configuration
	api.HandleFunc("/config", s.handleGetConfig).Methods("GET")

	// Health check
	api.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Handler returns the router wrapped with the origin check and CORS headers
func (s *Server) Handler() http.Handler {
	return s.enableCORS(s.router)
}

// Start listens on host:port and blocks until the server stops. An empty
// host listens on every interface.
func (s *Server) Start(host string, port int) error {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.http = srv
	s.mu.Unlock()
	logger.WithComponent("api").Info().Str("addr", addr).Msg("Starting HTTP server")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops a server started with Start
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.http
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// originAllowed accepts requests without an Origin header, same-origin
// requests and configured origins.
func (s *Server) originAllowed(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if s.origins[strings.ToLower(strings.TrimRight(origin, "/"))] {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

// enableCORS refuses foreign origins and adds CORS headers for allowed ones
func (s *Server) enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.originAllowed(r) {
			logger.WithComponent("api").Warn().
				Str("origin", r.Header.Get("Origin")).
				Str("path", r.URL.Path).
				Msg("Refused request from foreign origin")
			http.Error(w, "origin not allowed", http.StatusForbidden)
			return
		}

		if origin := r.Header.Get("Origin"); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Add("Vary", "Origin")
		}

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// statusFor maps an error kind onto an HTTP status
func statusFor(err error) int {
	switch surface.KindOf(err) {
	case surface.ErrNotFound:
		return http.StatusNotFound
	case surface.ErrDecodeFailed:
		return http.StatusInternalServerError
	case surface.ErrCaptureFailed, surface.ErrQueryFailed:
		return http.StatusBadGateway
	case surface.ErrResourceAcquisitionFailed:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// HTTP Handlers

func (s *Server) handleGetMonitors(w http.ResponseWriter, r *http.Request) {
	monitors, err := s.screen.ListMonitors()
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, monitors)
}

func (s *Server) handleMonitorAt(w http.ResponseWriter, r *http.Request) {
	x, errX := strconv.Atoi(r.URL.Query().Get("x"))
	y, errY := strconv.Atoi(r.URL.Query().Get("y"))
	if errX != nil || errY != nil {
		http.Error(w, "x and y must be integers", http.StatusBadRequest)
		return
	}

	d, err := s.screen.MonitorAtPoint(x, y)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, d)
}

func (s *Server) handleGetWindows(w http.ResponseWriter, r *http.Request) {
	windows, err := s.screen.ListWindows()
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, windows)
}

// CaptureRequest selects a surface and how to encode it. It is the query
// of the capture routes and the JSON message of the capture socket.
type CaptureRequest struct {
	Kind      surface.Kind `json:"kind"`
	ID        uint32       `json:"id"`
	Format    string       `json:"format,omitempty"`
	Channels  int          `json:"channels,omitempty"`
	MaxWidth  int          `json:"max_width,omitempty"`
	MaxHeight int          `json:"max_height,omitempty"`
	Label     bool         `json:"label,omitempty"`
}

// captureError carries the HTTP status of a failed capture request
type captureError struct {
	status int
	err    error
}

func (e *captureError) Error() string { return e.err.Error() }
func (e *captureError) Unwrap() error { return e.err }

func badRequest(format string, args ...interface{}) error {
	return &captureError{status: http.StatusBadRequest, err: fmt.Errorf(format, args...)}
}

func errorStatus(err error) int {
	var ce *captureError
	if errors.As(err, &ce) {
		return ce.status
	}
	return statusFor(err)
}

// capture runs req and returns the encoded image
func (s *Server) capture(req CaptureRequest) ([]byte, encode.Format, error) {
	formatName := req.Format
	if formatName == "" && s.configMgr != nil {
		formatName = s.configMgr.Get().Capture.Format
	}
	format, err := encode.ParseFormat(formatName)
	if err != nil {
		return nil, "", badRequest("%v", err)
	}

	channels := req.Channels
	if channels == 0 {
		channels = s.screen.Channels()
	}
	if channels != 3 && channels != 4 {
		return nil, "", badRequest("channels must be 3 or 4")
	}
	if req.MaxWidth < 0 || req.MaxHeight < 0 {
		return nil, "", badRequest("max_width and max_height must not be negative")
	}

	var d surface.Descriptor
	switch req.Kind {
	case surface.KindMonitor:
		d, err = s.screen.Monitor(req.ID)
	case surface.KindWindow:
		d, err = s.screen.Window(req.ID)
	default:
		return nil, "", badRequest("unknown surface kind %q", req.Kind)
	}
	if err != nil {
		return nil, "", err
	}

	img, err := s.screen.CaptureChannels(d, channels)
	if err != nil {
		return nil, "", err
	}

	opts := encode.Options{Format: format, MaxWidth: req.MaxWidth, MaxHeight: req.MaxHeight}
	if req.Label {
		opts.Label = d.String()
	}
	var buf bytes.Buffer
	if err := opts.Write(&buf, img); err != nil {
		return nil, "", err
	}

	logger.WithComponent("api").Debug().
		Str("kind", string(d.Kind)).
		Uint32("id", d.ID).
		Str("format", string(format)).
		Int("bytes", buf.Len()).
		Msg("Served capture")
	return buf.Bytes(), format, nil
}

// parseCaptureQuery reads a CaptureRequest from the route and query string
func parseCaptureQuery(kind surface.Kind, r *http.Request) (CaptureRequest, error) {
	req := CaptureRequest{Kind: kind}

	id, err := strconv.ParseUint(mux.Vars(r)["id"], 0, 32)
	if err != nil {
		return req, badRequest("invalid id %q", mux.Vars(r)["id"])
	}
	req.ID = uint32(id)

	q := r.URL.Query()
	req.Format = q.Get("format")
	for name, dst := range map[string]*int{
		"channels":   &req.Channels,
		"max_width":  &req.MaxWidth,
		"max_height": &req.MaxHeight,
	} {
		if v := q.Get(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return req, badRequest("invalid %s %q", name, v)
			}
			*dst = n
		}
	}
	if v := q.Get("label"); v != "" {
		req.Label, err = strconv.ParseBool(v)
		if err != nil {
			return req, badRequest("invalid label %q", v)
		}
	}
	return req, nil
}

func (s *Server) handleCapture(kind surface.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := parseCaptureQuery(kind, r)
		if err != nil {
			http.Error(w, err.Error(), errorStatus(err))
			return
		}

		data, format, err := s.capture(req)
		if err != nil {
			logger.WithComponent("api").Warn().
				Err(err).
				Str("kind", string(kind)).
				Uint32("id", req.ID).
				Msg("Capture request failed")
			http.Error(w, err.Error(), errorStatus(err))
			return
		}

		w.Header().Set("Content-Type", format.ContentType())
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.Write(data)
	}
}

// socketError is sent as a text message when a socket request fails
type socketError struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

// handleCaptureSocket answers each JSON CaptureRequest with one binary
// message holding the encoded image.
func (s *Server) handleCaptureSocket(w http.ResponseWriter, r *http.Request) {
	log := logger.WithComponent("api")

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("WebSocket upgrade error")
		return
	}
	defer conn.Close()

	for {
		var req CaptureRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug().Err(err).Msg("WebSocket read error")
			}
			return
		}

		data, _, err := s.capture(req)
		if err != nil {
			if werr := conn.WriteJSON(socketError{Error: err.Error(), Status: errorStatus(err)}); werr != nil {
				log.Debug().Err(werr).Msg("WebSocket write error")
				return
			}
			continue
		}
		if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
			log.Debug().Err(err).Msg("WebSocket write error")
			return
		}
	}
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	if s.configMgr == nil {
		http.Error(w, "no configuration loaded", http.StatusNotFound)
		return
	}
	writeJSON(w, s.configMgr.Get())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{
		"status":  "healthy",
		"backend": s.screen.BackendName(),
	})
}
