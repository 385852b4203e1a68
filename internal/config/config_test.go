package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("TEST_API_KEY", "sekret")
	path := writeConfig(t, `
api:
  base_url: "http://upstream:3001"
  api_key: "${TEST_API_KEY}"
database:
  path: `+filepath.Join(t.TempDir(), "meetroom.db")+`
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sekret", cfg.API.APIKey)
	assert.Equal(t, "http://upstream:3001", cfg.API.BaseURL)
}

func TestLoad_Defaults(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "data", "meetroom.db")
	path := writeConfig(t, "database:\n  path: "+dbPath+"\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	hours, err := cfg.BusinessHours()
	require.NoError(t, err)
	assert.Equal(t, "08:00", hours.Open.String())
	assert.Equal(t, "18:00", hours.Close.String())

	slotsCfg, err := cfg.SlotsConfig()
	require.NoError(t, err)
	assert.Equal(t, 5, slotsCfg.FullDayThreshold)

	assert.Equal(t, 30*time.Minute, cfg.SessionTimeout())
	assert.Equal(t, 10*time.Second, cfg.APITimeout())

	// The database directory is created on load.
	assert.DirExists(t, filepath.Dir(dbPath))
}

func TestLoad_CustomBookingWindow(t *testing.T) {
	path := writeConfig(t, `
database:
  path: `+filepath.Join(t.TempDir(), "meetroom.db")+`
booking:
  open_time: "09:00"
  close_time: "17:00"
  full_day_threshold: 3
  session_timeout_minutes: 10
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	slotsCfg, err := cfg.SlotsConfig()
	require.NoError(t, err)
	assert.Equal(t, "09:00", slotsCfg.Hours.Open.String())
	assert.Equal(t, "17:00", slotsCfg.Hours.Close.String())
	assert.Equal(t, 3, slotsCfg.FullDayThreshold)
	assert.Equal(t, 10*time.Minute, cfg.SessionTimeout())
}

func TestLoad_InvertedHoursRejected(t *testing.T) {
	path := writeConfig(t, `
database:
  path: `+filepath.Join(t.TempDir(), "meetroom.db")+`
booking:
  open_time: "18:00"
  close_time: "08:00"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	_, err = cfg.BusinessHours()
	assert.ErrorContains(t, err, "inverted")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
