package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.SheetID = "sheet-123"
	cfg.Feeds = []FeedConfig{{URL: "https://lms.example.edu/feed.ics", ID: "lms"}}
	cfg.CredentialsFile = "/etc/assigntrack/credentials.json"
	return cfg
}

func TestValidateOK(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidateRejectsMissingSheetID(t *testing.T) {
	cfg := validConfig()
	cfg.SheetID = ""
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsNoFeeds(t *testing.T) {
	cfg := validConfig()
	cfg.Feeds = nil
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsFeedWithoutURL(t *testing.T) {
	cfg := validConfig()
	cfg.Feeds = append(cfg.Feeds, FeedConfig{ID: "empty"})
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsBadTimezone(t *testing.T) {
	cfg := validConfig()
	cfg.Timezone = "Mars/Olympus_Mons"
	assert.Error(t, cfg.Validate())
}

func TestValidateCredentialExclusivity(t *testing.T) {
	cfg := validConfig()
	cfg.CredentialsFile = ""
	cfg.CredentialsJSON = ""
	assert.Error(t, cfg.Validate(), "neither credential source")

	cfg.CredentialsFile = "creds.json"
	cfg.CredentialsJSON = `{"type":"service_account"}`
	assert.Error(t, cfg.Validate(), "both credential sources")

	cfg.CredentialsFile = ""
	assert.NoError(t, cfg.Validate(), "inline only")
}

func TestNormalizeFillsDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.Normalize()

	assert.Equal(t, "127.0.0.1:8080", cfg.Listen)
	assert.Equal(t, "Sheet1", cfg.SheetTab)
	assert.Equal(t, "America/New_York", cfg.Timezone)
	assert.Equal(t, 14, cfg.WindowDays)
	assert.Equal(t, 1800, cfg.PollSeconds)
	assert.Equal(t, 5, cfg.ReadRetries)
	assert.Equal(t, 10, cfg.ReadRetrySeconds)
	assert.NotNil(t, cfg.Feeds)
}

func TestLoadCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 14, cfg.WindowDays)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoadReadsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte(`
sheet_id: sheet-xyz
timezone: America/Chicago
window_days: 7
feeds:
  - url: https://lms.example.edu/feed.ics
    id: lms
credentials_file: creds.json
`)
	require.NoError(t, os.WriteFile(path, body, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sheet-xyz", cfg.SheetID)
	assert.Equal(t, "America/Chicago", cfg.Timezone)
	assert.Equal(t, 7, cfg.WindowDays)
	require.Len(t, cfg.Feeds, 1)
	assert.Equal(t, "lms", cfg.Feeds[0].ID)
	require.NoError(t, cfg.Validate())
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv("SHEET_ID", "env-sheet")
	t.Setenv("LOCAL_TZ", "America/Denver")
	t.Setenv("WINDOW_DAYS", "21")
	t.Setenv("POLL_SECONDS", "600")
	t.Setenv("ICS_URLS", "https://a.example/f.ics, https://b.example/f.ics")
	t.Setenv("GOOGLE_CREDENTIALS", `{"type":"service_account"}`)

	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "env-sheet", cfg.SheetID)
	assert.Equal(t, "America/Denver", cfg.Timezone)
	assert.Equal(t, 21, cfg.WindowDays)
	assert.Equal(t, 600, cfg.PollSeconds)
	require.Len(t, cfg.Feeds, 2)
	assert.Equal(t, "https://a.example/f.ics", cfg.Feeds[0].URL)
	assert.Equal(t, "https://b.example/f.ics", cfg.Feeds[1].URL)
	require.NoError(t, cfg.Validate())
}
