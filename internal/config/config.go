// Package config loads scanner configuration from YAML, .env and the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Camera drivers.
const (
	DriverDir      = "dir"
	DriverSnapshot = "snapshot"
)

// Extraction backends.
const (
	BackendPDFCPU     = "pdfcpu"
	BackendFitz       = "fitz"
	BackendLedongthuc = "ledongthuc"
)

// Config holds all configuration for the scanner.
type Config struct {
	Camera  CameraConfig  `yaml:"camera"`
	Scan    ScanConfig    `yaml:"scan"`
	Fetch   FetchConfig   `yaml:"fetch"`
	Extract ExtractConfig `yaml:"extract"`
	Display DisplayConfig `yaml:"display"`
	Log     LogConfig     `yaml:"log"`
}

// CameraConfig selects where frames come from.
type CameraConfig struct {
	Driver string `yaml:"driver"` // dir or snapshot
	Facing string `yaml:"facing"` // preferred facing mode

	// Dir driver: directories per facing mode that a capture tool writes frames into.
	Dirs map[string]string `yaml:"dirs"`

	// Snapshot driver: JPEG/PNG snapshot endpoints per facing mode.
	SnapshotURLs map[string]string `yaml:"snapshot_urls"`
	PollInterval time.Duration     `yaml:"poll_interval"`
}

// ScanConfig tunes the decode loop.
type ScanConfig struct {
	RefreshRate int  `yaml:"refresh_rate"` // decode attempts per second
	TryHarder   bool `yaml:"try_harder"`
}

// FetchConfig tunes the PDF download.
type FetchConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	MaxBytes  int64         `yaml:"max_bytes"`
	UserAgent string        `yaml:"user_agent"`
}

// ExtractConfig selects the PDF parsing backend.
type ExtractConfig struct {
	Backend string `yaml:"backend"`
}

// DisplayConfig tunes the terminal surface.
type DisplayConfig struct {
	PreviewChars int  `yaml:"preview_chars"`
	Color        bool `yaml:"color"`
	Hyperlinks   bool `yaml:"hyperlinks"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads .env, the YAML file at path (if any), then environment overrides.
func Load(path string) (*Config, error) {
	_ = godotenv.Load() // .env is optional

	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() *Config {
	return &Config{
		Camera: CameraConfig{
			Driver:       DriverDir,
			Facing:       "environment",
			Dirs:         map[string]string{"environment": "./frames"},
			SnapshotURLs: map[string]string{},
			PollInterval: 200 * time.Millisecond,
		},
		Scan: ScanConfig{
			RefreshRate: 60,
		},
		Fetch: FetchConfig{
			Timeout:   60 * time.Second,
			MaxBytes:  100 * 1024 * 1024,
			UserAgent: "qr-pdf-preview/1.0",
		},
		Extract: ExtractConfig{
			Backend: BackendLedongthuc,
		},
		Display: DisplayConfig{
			PreviewChars: 20000,
			Color:        true,
			Hyperlinks:   true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	switch c.Camera.Driver {
	case DriverDir:
		if len(c.Camera.Dirs) == 0 {
			return fmt.Errorf("camera.dirs must name at least one directory")
		}
	case DriverSnapshot:
		if len(c.Camera.SnapshotURLs) == 0 {
			return fmt.Errorf("camera.snapshot_urls must name at least one endpoint")
		}
		if c.Camera.PollInterval <= 0 {
			return fmt.Errorf("camera.poll_interval must be positive")
		}
	default:
		return fmt.Errorf("invalid camera driver: %s", c.Camera.Driver)
	}

	if c.Scan.RefreshRate < 1 || c.Scan.RefreshRate > 240 {
		return fmt.Errorf("scan.refresh_rate must be between 1 and 240")
	}

	if c.Fetch.MaxBytes <= 0 {
		return fmt.Errorf("fetch.max_bytes must be positive")
	}
	if c.Fetch.Timeout < 0 {
		return fmt.Errorf("fetch.timeout must not be negative")
	}

	switch c.Extract.Backend {
	case BackendPDFCPU, BackendFitz, BackendLedongthuc:
	default:
		return fmt.Errorf("invalid extract backend: %s", c.Extract.Backend)
	}

	if c.Display.PreviewChars < 1 {
		return fmt.Errorf("display.preview_chars must be positive")
	}
	return nil
}

// RefreshInterval is the delay between two decode attempts.
func (c *Config) RefreshInterval() time.Duration {
	return time.Second / time.Duration(c.Scan.RefreshRate)
}

// applyEnvOverrides applies QRPDF_* environment variables to cfg. A value that
// does not parse is an error rather than silently keeping the default.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("QRPDF_CAMERA_DRIVER"); v != "" {
		cfg.Camera.Driver = v
	}
	if v := os.Getenv("QRPDF_CAMERA_FACING"); v != "" {
		cfg.Camera.Facing = v
	}
	if v := os.Getenv("QRPDF_CAMERA_DIR"); v != "" {
		cfg.Camera.Dirs = map[string]string{cfg.Camera.Facing: v}
	}
	if v := os.Getenv("QRPDF_SNAPSHOT_URL"); v != "" {
		cfg.Camera.Driver = DriverSnapshot
		cfg.Camera.SnapshotURLs = map[string]string{cfg.Camera.Facing: v}
	}

	if v := os.Getenv("QRPDF_REFRESH_RATE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid QRPDF_REFRESH_RATE %q: %w", v, err)
		}
		cfg.Scan.RefreshRate = n
	}

	if v := os.Getenv("QRPDF_FETCH_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid QRPDF_FETCH_TIMEOUT %q (want a duration such as 30s): %w", v, err)
		}
		cfg.Fetch.Timeout = d
	}
	if v := os.Getenv("QRPDF_FETCH_MAX_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid QRPDF_FETCH_MAX_BYTES %q: %w", v, err)
		}
		cfg.Fetch.MaxBytes = n
	}

	if v := os.Getenv("QRPDF_EXTRACT_BACKEND"); v != "" {
		cfg.Extract.Backend = strings.ToLower(v)
	}

	if v := os.Getenv("QRPDF_PREVIEW_CHARS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid QRPDF_PREVIEW_CHARS %q: %w", v, err)
		}
		cfg.Display.PreviewChars = n
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		cfg.Display.Color = false
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	return nil
}
