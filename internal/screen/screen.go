// Package screen is the caller-facing entry point. It opens the native
// backend for the platform and serializes every call into it.
package screen

import (
	"fmt"
	"sync"

	"github.com/bryanchriswhite/surfacecap/internal/capture"
	"github.com/bryanchriswhite/surfacecap/internal/config"
	"github.com/bryanchriswhite/surfacecap/internal/enumerate"
	"github.com/bryanchriswhite/surfacecap/internal/logger"
	"github.com/bryanchriswhite/surfacecap/internal/native"
	"github.com/bryanchriswhite/surfacecap/internal/pixel"
	"github.com/bryanchriswhite/surfacecap/internal/procinfo"
	"github.com/bryanchriswhite/surfacecap/internal/scale"
	"github.com/bryanchriswhite/surfacecap/internal/surface"
)

// Options selects and configures the backend
type Options struct {
	// Backend is auto, x11 or win32
	Backend   string
	Channels  int
	Window    native.WindowCaptureOptions
	DPIAware  bool
	UseMutter bool
}

// OptionsFromConfig maps the config file onto Options
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Backend:  cfg.Backend,
		Channels: cfg.Capture.Channels,
		Window: native.WindowCaptureOptions{
			FullContent: cfg.Capture.FullContent,
			ClientOnly:  cfg.Capture.ClientOnly,
		},
		DPIAware:  cfg.Scale.DPIAware,
		UseMutter: cfg.Scale.UseMutter,
	}
}

// Screen enumerates and captures monitors and windows
type Screen struct {
	mu       sync.Mutex
	backend  native.Backend
	enum     *enumerate.Enumerator
	pipeline *capture.Pipeline
	closers  []func() error
}

// Open opens the backend named in opts
func Open(opts Options) (*Screen, error) {
	backend, closers, err := openBackend(opts)
	if err != nil {
		return nil, err
	}
	s := New(backend, procinfo.NewNamer(), opts)
	s.closers = append(s.closers, closers...)

	logger.WithComponent("screen").Info().
		Str("backend", backend.Name()).
		Int("channels", s.pipeline.Channels()).
		Msg("Screen opened")
	return s, nil
}

// New wraps an already opened backend. procs may be nil.
func New(backend native.Backend, procs enumerate.ProcessNamer, opts Options) *Screen {
	channels := opts.Channels
	if channels == 0 {
		channels = 4
	}
	return &Screen{
		backend:  backend,
		enum:     enumerate.New(backend, scale.NewResolver(backend), procs),
		pipeline: capture.NewPipeline(capture.NewAdapter(backend, opts.Window), channels),
	}
}

// BackendName returns the name of the native backend in use
func (s *Screen) BackendName() string {
	return s.backend.Name()
}

// Channels returns the default channel count of captures
func (s *Screen) Channels() int {
	return s.pipeline.Channels()
}

// Close releases the backend and anything opened with it
func (s *Screen) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.backend.Close()
	for i := len(s.closers) - 1; i >= 0; i-- {
		if cerr := s.closers[i](); cerr != nil && err == nil {
			err = cerr
		}
	}
	s.closers = nil
	return err
}

// ListMonitors enumerates monitors
func (s *Screen) ListMonitors() ([]surface.Descriptor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enum.ListMonitors()
}

// ListWindows enumerates top-level windows
func (s *Screen) ListWindows() ([]surface.Descriptor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enum.ListWindows()
}

// MonitorAtPoint returns the monitor containing the virtual desktop point
func (s *Screen) MonitorAtPoint(x, y int) (surface.Descriptor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enum.MonitorAtPoint(x, y)
}

// Monitor returns the monitor with the given id
func (s *Screen) Monitor(id uint32) (surface.Descriptor, error) {
	monitors, err := s.ListMonitors()
	if err != nil {
		return surface.Descriptor{}, err
	}
	return find(monitors, id, "monitor")
}

// Window returns the window with the given id
func (s *Screen) Window(id uint32) (surface.Descriptor, error) {
	windows, err := s.ListWindows()
	if err != nil {
		return surface.Descriptor{}, err
	}
	return find(windows, id, "window")
}

// Primary returns the primary monitor, or the first one when none is
// marked primary.
func (s *Screen) Primary() (surface.Descriptor, error) {
	monitors, err := s.ListMonitors()
	if err != nil {
		return surface.Descriptor{}, err
	}
	if len(monitors) == 0 {
		return surface.Descriptor{}, surface.Wrap(surface.ErrNotFound, "primary monitor", 0, nil)
	}
	for _, m := range monitors {
		if m.IsPrimary {
			return m, nil
		}
	}
	return monitors[0], nil
}

// Capture captures d with the default channel count
func (s *Screen) Capture(d surface.Descriptor) (*pixel.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pipeline.Capture(d)
}

// CaptureChannels captures d as 3 (RGB) or 4 (RGBA) channels
func (s *Screen) CaptureChannels(d surface.Descriptor, channels int) (*pixel.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pipeline.CaptureChannels(d, channels)
}

func find(list []surface.Descriptor, id uint32, what string) (surface.Descriptor, error) {
	for _, d := range list {
		if d.ID == id {
			return d, nil
		}
	}
	return surface.Descriptor{}, surface.Wrap(surface.ErrNotFound, what, id, fmt.Errorf("no %s with id %d", what, id))
}
