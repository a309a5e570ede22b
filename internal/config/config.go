package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SourceConfig describes a single subscribed ICS feed.
type SourceConfig struct {
	// URL is the ICS endpoint.
	URL string `yaml:"url" json:"url"`
	// ID is an internal identifier used for logging and de-dup.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label.
	Name string `yaml:"name" json:"name"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// DisplayConfig holds the week-view geometry parameters.
type DisplayConfig struct {
	// DayStartHour / DayEndHour bound the visible time window of the
	// week view. Events starting outside it are not laid out.
	DayStartHour int `yaml:"day_start_hour" json:"day_start_hour"`
	DayEndHour   int `yaml:"day_end_hour" json:"day_end_hour"`

	// HourHeight is the pixel height of one hour.
	HourHeight float64 `yaml:"hour_height" json:"hour_height"`

	// MinEventHeight keeps short events visible; EventGap leaves a seam
	// between adjacent blocks.
	MinEventHeight float64 `yaml:"min_event_height" json:"min_event_height"`
	EventGap       float64 `yaml:"event_gap" json:"event_gap"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone used as canonical display zone.
	Timezone string `yaml:"timezone" json:"timezone"`

	// RefreshCron is a cron-style schedule for re-fetching the subscribed
	// feeds (e.g. "*/15 * * * *").
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// DatabasePath is the SQLite file holding the imported event set.
	DatabasePath string `yaml:"database_path" json:"database_path"`

	// CacheDir is where feed bodies and snapshots are cached.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	// Display holds the week-view geometry.
	Display DisplayConfig `yaml:"display" json:"display"`

	// Sources is the list of subscribed ICS feeds.
	Sources []SourceConfig `yaml:"sources" json:"sources"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:       "127.0.0.1:8080",
		Timezone:     "Europe/Vienna",
		RefreshCron:  "*/15 * * * *",
		DatabasePath: "./var/unicorn.db",
		CacheDir:     "./var/cache",
		Display: DisplayConfig{
			DayStartHour:   6,
			DayEndHour:     20,
			HourHeight:     60,
			MinEventHeight: 20,
			EventGap:       2,
		},
		Sources: []SourceConfig{},
	}
}

// Normalize fills in missing/zero values with defaults so partially
// filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.Timezone == "" {
		c.Timezone = "Europe/Vienna"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "*/15 * * * *"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "./var/unicorn.db"
	}
	if c.CacheDir == "" {
		c.CacheDir = "./var/cache"
	}
	if c.Display.DayStartHour <= 0 {
		c.Display.DayStartHour = 6
	}
	if c.Display.DayEndHour <= 0 {
		c.Display.DayEndHour = 20
	}
	if c.Display.HourHeight <= 0 {
		c.Display.HourHeight = 60
	}
	if c.Display.MinEventHeight <= 0 {
		c.Display.MinEventHeight = 20
	}
	if c.Display.EventGap <= 0 {
		c.Display.EventGap = 2
	}
	if c.Sources == nil {
		c.Sources = []SourceConfig{}
	}
}

// Load loads configuration from the given YAML path. A missing file is a
// first run: the default config is written there (0600) and returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	return &cfg, nil
}

// Save writes the configuration atomically (temp file + rename, 0600).
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}
	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".unicorn-config-*.tmp")
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
