package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, time.Second, cfg.TickInterval)
	assert.Equal(t, "chime", cfg.ReminderSound)
	assert.Equal(t, "", cfg.DefaultPreset)
	assert.Contains(t, cfg.LogPath, "interval-pacer.log")
}

func TestLoad_FlagsOverrideDefaults(t *testing.T) {
	cfg, err := Load([]string{
		"--tick-interval", "250ms",
		"--preset", "Classic 5x3",
		"--reminder-sound", "bell",
		"--log-path", "/tmp/pacer.log",
	})
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, cfg.TickInterval)
	assert.Equal(t, "Classic 5x3", cfg.DefaultPreset)
	assert.Equal(t, "bell", cfg.ReminderSound)
	assert.Equal(t, "/tmp/pacer.log", cfg.LogPath)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "tick_interval: 2s\ndefault_preset: Beginner 8x1\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load([]string{"--config", path})
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, cfg.TickInterval)
	assert.Equal(t, "Beginner 8x1", cfg.DefaultPreset)
	// Unset keys fall back to defaults
	assert.Equal(t, "chime", cfg.ReminderSound)
}

func TestLoad_MissingExplicitConfigFileFails(t *testing.T) {
	_, err := Load([]string{"--config", "/nonexistent/config.yaml"})
	assert.Error(t, err)
}

func TestLoad_InvalidTickIntervalRejected(t *testing.T) {
	_, err := Load([]string{"--tick-interval", "0s"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tick interval")
}

func TestLoad_UnknownFlagFails(t *testing.T) {
	_, err := Load([]string{"--bogus"})
	assert.Error(t, err)
}
