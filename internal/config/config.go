package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FeedConfig describes a single ICS feed subscription.
type FeedConfig struct {
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url" json:"url"`
	// ID is an internal identifier used for de-dup and logging.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label.
	Name string `yaml:"name" json:"name"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the status API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the status API.
	Listen string `yaml:"listen" json:"listen"`

	// SheetID is the target Google Sheets spreadsheet ID.
	SheetID string `yaml:"sheet_id" json:"sheet_id"`

	// SheetTab is the tab (sheet) name used for reads and writes.
	SheetTab string `yaml:"sheet_tab" json:"sheet_tab"`

	// Timezone is the IANA timezone used as the canonical local zone.
	Timezone string `yaml:"timezone" json:"timezone"`

	// WindowDays is the rolling forward-looking window length.
	WindowDays int `yaml:"window_days" json:"window_days"`

	// PollSeconds is the delay between poll cycles.
	PollSeconds int `yaml:"poll_seconds" json:"poll_seconds"`

	// Feeds is the list of subscribed ICS sources.
	Feeds []FeedConfig `yaml:"feeds" json:"feeds"`

	// CredentialsFile is the path to a service-account JSON key file.
	// Exactly one of CredentialsFile / CredentialsJSON must be set.
	CredentialsFile string `yaml:"credentials_file" json:"credentials_file"`

	// CredentialsJSON is the inline service-account JSON key.
	CredentialsJSON string `yaml:"credentials_json" json:"credentials_json"`

	// ReadRetries / ReadRetrySeconds bound the snapshot-read retry loop.
	ReadRetries      int `yaml:"read_retries" json:"read_retries"`
	ReadRetrySeconds int `yaml:"read_retry_seconds" json:"read_retry_seconds"`

	// CacheDir is where per-feed HTTP cache state is kept.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:           "127.0.0.1:8080",
		SheetTab:         "Sheet1",
		Timezone:         "America/New_York",
		WindowDays:       14,
		PollSeconds:      1800,
		Feeds:            []FeedConfig{},
		ReadRetries:      5,
		ReadRetrySeconds: 10,
		CacheDir:         "./var/ics-cache",
	}
}

// Normalize fills in missing/zero values with defaults so that partially
// filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.SheetTab == "" {
		c.SheetTab = "Sheet1"
	}
	if c.Timezone == "" {
		c.Timezone = "America/New_York"
	}
	if c.WindowDays <= 0 {
		c.WindowDays = 14
	}
	if c.PollSeconds <= 0 {
		c.PollSeconds = 1800
	}
	if c.ReadRetries <= 0 {
		c.ReadRetries = 5
	}
	if c.ReadRetrySeconds <= 0 {
		c.ReadRetrySeconds = 10
	}
	if c.CacheDir == "" {
		c.CacheDir = "./var/ics-cache"
	}
	if c.Feeds == nil {
		c.Feeds = []FeedConfig{}
	}
}

// Validate enforces the startup invariants. A violation is fatal: the
// process refuses to run rather than poll uselessly.
func (c *Config) Validate() error {
	if c.SheetID == "" {
		return errors.New("sheet_id is required (or set SHEET_ID)")
	}
	if len(c.Feeds) == 0 {
		return errors.New("at least one feed is required (or set ICS_URLS)")
	}
	for i, f := range c.Feeds {
		if f.URL == "" {
			return fmt.Errorf("feed %d has no url", i)
		}
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	hasFile := c.CredentialsFile != ""
	hasInline := c.CredentialsJSON != ""
	if hasFile == hasInline {
		return errors.New("exactly one of credentials_file and credentials_json must be set")
	}
	return nil
}

// Location resolves the configured timezone. Call Validate first.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// Load loads configuration from the given YAML path, then applies
// environment overrides (a .env file is honored if present).
//
// If the file does not exist, a default config is written there first so
// a fresh install can run purely off the environment.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	_ = godotenv.Load()

	var cfg *Config
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		cfg = DefaultConfig()
		if serr := Save(path, cfg); serr != nil {
			return cfg, serr
		}
	} else {
		cfg = &Config{}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()
	cfg.Normalize()
	return cfg, nil
}

// applyEnv overlays the original deployment's environment surface on top
// of the file-based config.
func (c *Config) applyEnv() {
	if v := os.Getenv("SHEET_ID"); v != "" {
		c.SheetID = v
	}
	if v := os.Getenv("LOCAL_TZ"); v != "" {
		c.Timezone = v
	}
	if v := os.Getenv("WINDOW_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.WindowDays = n
		}
	}
	if v := os.Getenv("POLL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.PollSeconds = n
		}
	}
	if v := os.Getenv("ICS_URLS"); v != "" {
		feeds := make([]FeedConfig, 0)
		for _, u := range strings.Split(v, ",") {
			u = strings.TrimSpace(u)
			if u != "" {
				feeds = append(feeds, FeedConfig{URL: u})
			}
		}
		if len(feeds) > 0 {
			c.Feeds = feeds
		}
	}
	if v := os.Getenv("GOOGLE_CREDENTIALS_FILE"); v != "" {
		c.CredentialsFile = v
	}
	if v := os.Getenv("GOOGLE_CREDENTIALS"); v != "" {
		c.CredentialsJSON = v
	}
}

// Save writes the configuration to path atomically with 0600 perms.
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

	tmp, err := os.CreateTemp(dir, ".assigntrack-config-*.tmp")
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
