package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(filepath.Join(t.TempDir(), "sub", "config.yaml"))
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func TestNewManagerCreatesDefaults(t *testing.T) {
	m := newTestManager(t)

	if _, err := os.Stat(m.GetConfigPath()); err != nil {
		t.Fatalf("expected config file to be written: %v", err)
	}
	cfg := m.Get()
	if cfg.Backend != "auto" || cfg.Capture.Channels != 4 || cfg.Server.Port != 8080 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Server.Host != "127.0.0.1" || len(cfg.Server.AllowedOrigins) != 0 {
		t.Fatalf("expected loopback server without allowed origins, got %+v", cfg.Server)
	}
	if !cfg.Scale.DPIAware || !cfg.Scale.UseMutter {
		t.Fatalf("expected scale defaults on, got %+v", cfg.Scale)
	}
}

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("capture:\n  channels: 3\n"), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := NewManager(path)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	cfg := m.Get()
	if cfg.Capture.Channels != 3 {
		t.Fatalf("expected channels 3, got %d", cfg.Capture.Channels)
	}
	if cfg.Capture.Format != "png" || cfg.LogLevel != "info" {
		t.Fatalf("expected defaults for missing keys, got %+v", cfg)
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("capture:\n  channels: 5\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewManager(path); err == nil {
		t.Fatalf("expected invalid channel count to fail")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"rgb", func(c *Config) { c.Capture.Channels = 3 }, true},
		{"tiff", func(c *Config) { c.Capture.Format = "tiff" }, true},
		{"win32", func(c *Config) { c.Backend = "win32" }, true},
		{"channels", func(c *Config) { c.Capture.Channels = 2 }, false},
		{"format", func(c *Config) { c.Capture.Format = "gif" }, false},
		{"backend", func(c *Config) { c.Backend = "wayland" }, false},
		{"log level", func(c *Config) { c.LogLevel = "loud" }, false},
		{"port", func(c *Config) { c.Server.Port = 70000 }, false},
		{"origin", func(c *Config) { c.Server.AllowedOrigins = []string{"https://viewer.example"} }, true},
		{"origin without scheme", func(c *Config) { c.Server.AllowedOrigins = []string{"viewer.example"} }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			if err := cfg.Validate(); (err == nil) != tt.ok {
				t.Fatalf("expected ok=%v, got %v", tt.ok, err)
			}
		})
	}
}

func TestGetValueAndSet(t *testing.T) {
	m := newTestManager(t)

	v, err := m.GetValue("capture.channels")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if v != 4 {
		t.Fatalf("expected 4, got %v", v)
	}

	if err := m.Set("capture.channels", "3"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := m.Set("scale.use_mutter", "false"); err != nil {
		t.Fatalf("set: %v", err)
	}

	reloaded, err := NewManager(m.GetConfigPath())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	cfg := reloaded.Get()
	if cfg.Capture.Channels != 3 || cfg.Scale.UseMutter {
		t.Fatalf("expected saved values, got %+v", cfg)
	}

	if err := m.Set("capture.channels", "7"); err == nil {
		t.Fatalf("expected invalid channel count to be rejected")
	}
	if err := m.Set("no.such.key", "1"); err == nil {
		t.Fatalf("expected unknown key to be rejected")
	}
	if _, err := m.GetValue("no.such.key"); err == nil {
		t.Fatalf("expected unknown key to be rejected")
	}
	if m.Get().Capture.Channels != 3 {
		t.Fatalf("expected rejected set to leave config unchanged")
	}
}

func TestApplyOverrides(t *testing.T) {
	m := newTestManager(t)

	t.Setenv("SURFACECAP_CAPTURE_FORMAT", "bmp")
	o := NewOverrides()
	o.Set("server.port", 9090)

	if err := m.ApplyOverrides(o); err != nil {
		t.Fatalf("apply: %v", err)
	}
	cfg := m.Get()
	if cfg.Capture.Format != "bmp" {
		t.Fatalf("expected env override bmp, got %q", cfg.Capture.Format)
	}
	if cfg.Server.Port != 9090 {
		t.Fatalf("expected port 9090, got %d", cfg.Server.Port)
	}

	data, err := os.ReadFile(m.GetConfigPath())
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "9090") {
		t.Fatalf("expected overrides not to be saved")
	}

	bad := NewOverrides()
	bad.Set("capture.channels", 9)
	if err := m.ApplyOverrides(bad); err == nil {
		t.Fatalf("expected invalid override to fail")
	}
}
