package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// EnvConfigPath overrides the default configuration file location.
const EnvConfigPath = "PHOTOBOOTH_CONFIG"

// Config holds the application configuration
type Config struct {
	Session SessionConfig `json:"session"`
	Editor  EditorConfig  `json:"editor"`
	Export  ExportConfig  `json:"export"`
	Storage StorageConfig `json:"storage"`
	Logging LoggingConfig `json:"logging"`
}

// SessionConfig holds the capture countdown and live preview settings
type SessionConfig struct {
	Countdown         int     `json:"countdown"`
	TickIntervalMs    int     `json:"tick_interval_ms"`
	FlashMs           int     `json:"flash_ms"`
	Mirror            bool    `json:"mirror"`
	PreviewMinScale   float64 `json:"preview_min_scale"`
	PreviewMaxScale   float64 `json:"preview_max_scale"`
	PreviewScaleStep  float64 `json:"preview_scale_step"`
	PreviewBaseHeight float64 `json:"preview_base_height"`
}

// EditorConfig holds the frame editor preview settings
type EditorConfig struct {
	MinScale  float64 `json:"min_scale"`
	MaxScale  float64 `json:"max_scale"`
	ScaleStep float64 `json:"scale_step"`
	BaseWidth float64 `json:"base_width"`
}

// ExportConfig holds the composed image settings
type ExportConfig struct {
	BackgroundHeight int    `json:"background_height"`
	DefaultWidth     int    `json:"default_width"`
	Suffix           string `json:"suffix"`
	Format           string `json:"format"`
	Interpolation    string `json:"interpolation"`
	OutputDir        string `json:"output_dir"`
}

// StorageConfig holds where custom frames are persisted
type StorageConfig struct {
	Dir string `json:"dir"`
	Key string `json:"key"`
}

// LoggingConfig holds the log level
type LoggingConfig struct {
	Level string `json:"level"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Session: SessionConfig{
			Countdown:         3,
			TickIntervalMs:    1000,
			FlashMs:           300,
			Mirror:            true,
			PreviewMinScale:   0.5,
			PreviewMaxScale:   1.5,
			PreviewScaleStep:  0.05,
			PreviewBaseHeight: 480,
		},
		Editor: EditorConfig{
			MinScale:  0.1,
			MaxScale:  4.0,
			ScaleStep: 0.1,
			BaseWidth: 500,
		},
		Export: ExportConfig{
			BackgroundHeight: 1080,
			DefaultWidth:     1200,
			Suffix:           "-photobooth",
			Format:           "png",
			Interpolation:    "catmullrom",
			OutputDir:        ".",
		},
		Storage: StorageConfig{
			Dir: defaultDataDir(),
			Key: "customFrames",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromFile loads configuration from a JSON file. Fields missing from the
// file keep their default values.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// Load reads the config at path if it exists and falls back to defaults
// otherwise.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	cfg, err := LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Session.Countdown < 1 {
		return fmt.Errorf("session.countdown must be at least 1")
	}

	if c.Session.TickIntervalMs < 1 {
		return fmt.Errorf("session.tick_interval_ms must be positive")
	}

	if c.Session.FlashMs < 0 {
		return fmt.Errorf("session.flash_ms cannot be negative")
	}

	if err := validateScale("session.preview", c.Session.PreviewMinScale, c.Session.PreviewMaxScale, c.Session.PreviewScaleStep); err != nil {
		return err
	}

	if c.Session.PreviewBaseHeight <= 0 {
		return fmt.Errorf("session.preview_base_height must be positive")
	}

	if err := validateScale("editor", c.Editor.MinScale, c.Editor.MaxScale, c.Editor.ScaleStep); err != nil {
		return err
	}

	if c.Editor.BaseWidth <= 0 {
		return fmt.Errorf("editor.base_width must be positive")
	}

	if c.Export.BackgroundHeight < 1 || c.Export.DefaultWidth < 1 {
		return fmt.Errorf("export.background_height and export.default_width must be positive")
	}

	switch strings.ToLower(c.Export.Format) {
	case "png", "webp":
	default:
		return fmt.Errorf("export.format must be png or webp, got %q", c.Export.Format)
	}

	switch strings.ToLower(c.Export.Interpolation) {
	case "nearest", "approxbilinear", "bilinear", "catmullrom":
	default:
		return fmt.Errorf("export.interpolation %q is not supported", c.Export.Interpolation)
	}

	if c.Storage.Key == "" {
		return fmt.Errorf("storage.key cannot be empty")
	}

	if _, err := ParseLevel(c.Logging.Level); err != nil {
		return err
	}

	return nil
}

func validateScale(section string, min, max, step float64) error {
	if min <= 0 || max < min {
		return fmt.Errorf("%s scale range [%v,%v] is invalid", section, min, max)
	}
	if step <= 0 {
		return fmt.Errorf("%s scale step must be positive", section)
	}
	return nil
}

// TickInterval returns the countdown tick as a duration.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Session.TickIntervalMs) * time.Millisecond
}

// Flash returns the shutter flash length as a duration.
func (c *Config) Flash() time.Duration {
	return time.Duration(c.Session.FlashMs) * time.Millisecond
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(level string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("logging.level: %w", err)
	}
	return l, nil
}

// GetConfigPath returns the configuration file path, honouring PHOTOBOOTH_CONFIG
func GetConfigPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "photobooth", "config.json")
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./data"
	}
	return filepath.Join(home, ".local", "share", "photobooth")
}
