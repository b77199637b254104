package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Event layouts for day/week views. The two are mutually exclusive per view.
const (
	LayoutAbsolute = "absolute"
	LayoutRows     = "rows"
)

const (
	defaultListen         = "127.0.0.1:8080"
	defaultStoragePath    = "./data/userInfo.json"
	defaultWeekStart      = "sunday"
	defaultView           = "week"
	defaultHourHeight     = 50
	defaultMinEventHeight = 1
	defaultClockCron      = "* * * * *"
	defaultLogLevel       = "info"
)

// StorageConfig selects where the user record is persisted.
type StorageConfig struct {
	// Backend is either "file" (one JSON document) or "sqlite"
	// (key-value table holding the same document).
	Backend string `yaml:"backend" json:"backend"`
	// Path is the JSON file or the sqlite database file.
	Path string `yaml:"path" json:"path"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	Storage StorageConfig `yaml:"storage" json:"storage"`

	// WeekStart controls which weekday has index 0 in week views.
	// Supported values:
	//   - "sunday" (default)
	//   - "monday"
	WeekStart string `yaml:"week_start" json:"week_start"`

	// DefaultView is the granularity shown at startup.
	DefaultView string `yaml:"default_view" json:"default_view"`

	// HourHeight is the fallback pixel height of one hour-row, used until
	// the presentation layer reports a measured value.
	HourHeight float64 `yaml:"hour_height" json:"hour_height"`

	// MinEventHeight is the smallest height an event block is given.
	MinEventHeight float64 `yaml:"min_event_height" json:"min_event_height"`

	// Layout is "absolute" (one positioned block per event) or "rows"
	// (event repeated in every hour-row it overlaps).
	Layout string `yaml:"layout" json:"layout"`

	// ClockCron drives the current-time indicator refresh.
	ClockCron string `yaml:"clock_cron" json:"clock_cron"`

	LogLevel string `yaml:"log_level" json:"log_level"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen: defaultListen,
		Storage: StorageConfig{
			Backend: BackendFile,
			Path:    defaultStoragePath,
		},
		WeekStart:      defaultWeekStart,
		DefaultView:    defaultView,
		HourHeight:     defaultHourHeight,
		MinEventHeight: defaultMinEventHeight,
		Layout:         LayoutAbsolute,
		ClockCron:      defaultClockCron,
		LogLevel:       defaultLogLevel,
	}
}

// Normalize fills in missing or unsupported values with defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	switch c.Storage.Backend {
	case BackendFile, BackendSQLite:
	default:
		c.Storage.Backend = BackendFile
	}
	if c.Storage.Path == "" {
		c.Storage.Path = defaultStoragePath
	}
	switch c.WeekStart {
	case "sunday", "monday":
	default:
		c.WeekStart = defaultWeekStart
	}
	switch c.DefaultView {
	case "day", "week", "month", "year":
	default:
		c.DefaultView = defaultView
	}
	if c.HourHeight <= 0 {
		c.HourHeight = defaultHourHeight
	}
	if c.MinEventHeight <= 0 {
		c.MinEventHeight = defaultMinEventHeight
	}
	switch c.Layout {
	case LayoutAbsolute, LayoutRows:
	default:
		c.Layout = LayoutAbsolute
	}
	if c.ClockCron == "" {
		c.ClockCron = defaultClockCron
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
}

// FirstWeekday maps WeekStart to the weekday shown first in week views.
func (c *Config) FirstWeekday() time.Weekday {
	if c.WeekStart == "monday" {
		return time.Monday
	}
	return time.Sunday
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     perms and returned.
//   - Otherwise the YAML is unmarshalled and normalized.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Caller decides whether an unwritable default is fatal.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return cfg, nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600 perms,
// creating the parent directory if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return WriteFileAtomic(path, data, ".calassist-config-*.tmp")
}

// WriteFileAtomic writes data next to path under a temp name and renames it
// over path, so readers never observe a half-written file.
func WriteFileAtomic(path string, data []byte, pattern string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
