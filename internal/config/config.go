package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bryanchriswhite/surfacecap/internal/encode"
	"github.com/bryanchriswhite/surfacecap/internal/logger"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment variable overrides, e.g.
// SURFACECAP_CAPTURE_CHANNELS=3
const EnvPrefix = "SURFACECAP"

// Config is the on-disk configuration
type Config struct {
	Backend   string        `json:"backend" yaml:"backend" mapstructure:"backend"`
	LogLevel  string        `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
	LogPretty bool          `json:"log_pretty" yaml:"log_pretty" mapstructure:"log_pretty"`
	Capture   CaptureConfig `json:"capture" yaml:"capture" mapstructure:"capture"`
	Scale     ScaleConfig   `json:"scale" yaml:"scale" mapstructure:"scale"`
	Server    ServerConfig  `json:"server" yaml:"server" mapstructure:"server"`
}

// CaptureConfig controls the capture pipeline and how callers encode its output
type CaptureConfig struct {
	Channels    int    `json:"channels" yaml:"channels" mapstructure:"channels"`
	FullContent bool   `json:"full_content" yaml:"full_content" mapstructure:"full_content"`
	ClientOnly  bool   `json:"client_only" yaml:"client_only" mapstructure:"client_only"`
	Format      string `json:"format" yaml:"format" mapstructure:"format"`
	OutputDir   string `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir"`
}

// ScaleConfig controls DPI scale resolution
type ScaleConfig struct {
	DPIAware  bool `json:"dpi_aware" yaml:"dpi_aware" mapstructure:"dpi_aware"`
	UseMutter bool `json:"use_mutter" yaml:"use_mutter" mapstructure:"use_mutter"`
}

// ServerConfig represents the HTTP API settings. Browser requests are only
// answered for the server's own origin and AllowedOrigins.
type ServerConfig struct {
	Host           string   `json:"host" yaml:"host" mapstructure:"host"`
	Port           int      `json:"port" yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// Backends lists the accepted backend names
var Backends = []string{"auto", "x11", "win32"}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Backend:  "auto",
		LogLevel: "info",
		Capture: CaptureConfig{
			Channels:    4,
			FullContent: true,
			ClientOnly:  true,
			Format:      string(encode.PNG),
			OutputDir:   ".",
		},
		Scale: ScaleConfig{
			DPIAware:  true,
			UseMutter: true,
		},
		Server: ServerConfig{
			Host:           "127.0.0.1",
			Port:           8080,
			AllowedOrigins: []string{},
		},
	}
}

// Validate reports the first invalid setting
func (c *Config) Validate() error {
	valid := false
	for _, b := range Backends {
		if c.Backend == b {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid backend %q (use: %s)", c.Backend, strings.Join(Backends, ", "))
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level: %s (use: debug, info, warn, error)", c.LogLevel)
	}
	if c.Capture.Channels != 3 && c.Capture.Channels != 4 {
		return fmt.Errorf("invalid channel count %d (use 3 or 4)", c.Capture.Channels)
	}
	if _, err := encode.ParseFormat(c.Capture.Format); err != nil {
		return err
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port number: %d", c.Server.Port)
	}
	for _, o := range c.Server.AllowedOrigins {
		if !strings.HasPrefix(o, "http://") && !strings.HasPrefix(o, "https://") {
			return fmt.Errorf("invalid allowed origin %q (use scheme://host[:port])", o)
		}
	}
	return nil
}

// Manager handles configuration
type Manager struct {
	configPath string
	config     *Config
	mu         sync.RWMutex
}

// DefaultPath returns $HOME/.config/surfacecap/config.yaml
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "surfacecap", "config.yaml"), nil
}

// NewManager loads configFile, or the default path when empty. A missing
// file is created with defaults.
func NewManager(configFile string) (*Manager, error) {
	actualConfigPath := configFile
	if actualConfigPath == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		actualConfigPath = p
	}

	m := &Manager{
		configPath: actualConfigPath,
	}

	if err := m.load(); err != nil {
		if os.IsNotExist(err) {
			logger.WithComponent("config").Info().
				Str("path", m.configPath).
				Msg("Config file not found, creating new config")
			m.config = Default()
			if err := m.Save(); err != nil {
				return nil, fmt.Errorf("failed to create default config: %w", err)
			}
		} else {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	logger.WithComponent("config").Debug().
		Str("path", m.configPath).
		Str("backend", m.config.Backend).
		Int("channels", m.config.Capture.Channels).
		Msg("Config loaded")

	return m, nil
}

// load reads the configuration from disk. Keys missing from the file keep
// their default values.
func (m *Manager) load() error {
	data, err := os.ReadFile(m.configPath)
	if err != nil {
		return err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", m.configPath, err)
	}

	m.config = cfg
	return nil
}

// Get returns a copy of the current configuration
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.config == nil {
		return Default()
	}
	cfg := *m.config
	cfg.Server.AllowedOrigins = append([]string(nil), m.config.Server.AllowedOrigins...)
	return &cfg
}

// Save saves the current configuration to disk
func (m *Manager) Save() error {
	m.mu.RLock()
	cfg := m.config
	m.mu.RUnlock()

	if cfg == nil {
		cfg = Default()
	}

	logger.WithComponent("config").Debug().
		Str("path", m.configPath).
		Msg("Saving config")

	configDir := filepath.Dir(m.configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		logger.WithComponent("config").Error().
			Err(err).
			Str("config_dir", configDir).
			Msg("Failed to create config directory")
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(m.configPath, data, 0644); err != nil {
		logger.WithComponent("config").Error().
			Err(err).
			Str("path", m.configPath).
			Msg("Failed to write config")
		return err
	}

	logger.WithComponent("config").Info().
		Str("path", m.configPath).
		Msg("Config saved")
	return nil
}

// Update validates and saves cfg
func (m *Manager) Update(cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	m.config = cfg
	m.mu.Unlock()
	return m.Save()
}

// GetViper returns a viper instance holding the current configuration
func (m *Manager) GetViper() (*viper.Viper, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.viperLocked()
}

func (m *Manager) viperLocked() (*viper.Viper, error) {
	cfg := m.config
	if cfg == nil {
		cfg = Default()
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return v, nil
}

// GetValue returns the value of a dotted key such as capture.channels
func (m *Manager) GetValue(key string) (interface{}, error) {
	v, err := m.GetViper()
	if err != nil {
		return nil, err
	}
	if !v.IsSet(key) {
		return nil, fmt.Errorf("configuration key not found: %s", key)
	}
	return v.Get(key), nil
}

// Set parses value into the type of key, validates the result and saves it
func (m *Manager) Set(key, value string) error {
	m.mu.Lock()
	v, err := m.viperLocked()
	if err != nil {
		m.mu.Unlock()
		return err
	}
	if !v.IsSet(key) {
		m.mu.Unlock()
		return fmt.Errorf("configuration key not found: %s", key)
	}
	v.Set(key, value)

	cfg, err := decode(v)
	if err != nil {
		m.mu.Unlock()
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	m.config = cfg
	m.mu.Unlock()
	return m.Save()
}

// NewOverrides returns a viper that reads SURFACECAP_* environment
// variables. Callers bind command-line flags to it before ApplyOverrides.
func NewOverrides() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// ApplyOverrides layers every key set in overrides over the loaded file for
// the lifetime of the Manager. Overrides are not saved.
func (m *Manager) ApplyOverrides(overrides *viper.Viper) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, err := m.viperLocked()
	if err != nil {
		return err
	}
	applied := 0
	for _, key := range v.AllKeys() {
		if overrides.IsSet(key) {
			v.Set(key, overrides.Get(key))
			applied++
		}
	}
	if applied == 0 {
		return nil
	}

	cfg, err := decode(v)
	if err != nil {
		return fmt.Errorf("invalid override: %w", err)
	}
	m.config = cfg

	logger.WithComponent("config").Debug().
		Int("overrides", applied).
		Msg("Applied config overrides")
	return nil
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// GetConfigPath returns the path to the config file
func (m *Manager) GetConfigPath() string {
	return m.configPath
}

// GetConfigDir returns the config directory path
func (m *Manager) GetConfigDir() string {
	return filepath.Dir(m.configPath)
}
