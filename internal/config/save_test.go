package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLogLevel_CreatesNewFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	err := SaveLogLevel(configPath, "debug")
	require.NoError(t, err)

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "log:")
	assert.Contains(t, string(data), "level: debug")
}

func TestSaveLogLevel_PreservesCommentsAndOtherConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, WriteDefaultConfig(configPath))

	err := SaveLogLevel(configPath, "warn")
	require.NoError(t, err)

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, "# Dispatch tracing")
	assert.Contains(t, content, "level: warn")
	assert.Contains(t, content, "# debug, info, warn, error")
	assert.Contains(t, content, "exporter: file")
	assert.NotContains(t, content, "level: info")
}

func TestSaveLogLevel_Roundtrip(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, WriteDefaultConfig(configPath))
	require.NoError(t, SaveLogLevel(configPath, "error"))

	// Load back using Viper
	v := viper.New()
	v.SetConfigFile(configPath)
	require.NoError(t, v.ReadInConfig())
	require.Equal(t, "error", v.GetString("log.level"))

	cfg, err := Load(configPath)
	require.NoError(t, err)
	require.Equal(t, "error", cfg.Log.Level)
	require.Equal(t, Defaults().Demo, cfg.Demo)
}

func TestSaveLogLevel_RejectsUnknownLevel(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	err := SaveLogLevel(configPath, "chatty")
	require.Error(t, err)

	_, statErr := os.Stat(configPath)
	require.True(t, os.IsNotExist(statErr), "nothing should be written")
}

func TestSaveLogLevel_NonMappingSection(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("log: verbose\n"), 0o600))

	err := SaveLogLevel(configPath, "debug")
	require.Error(t, err)
	require.Contains(t, err.Error(), "not a mapping")
}

func TestSaveLogLevel_InvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("log: [unclosed\n"), 0o600))

	err := SaveLogLevel(configPath, "debug")
	require.Error(t, err)
	require.Contains(t, err.Error(), "parsing config")
}

func TestSaveFlag_AddsAndUpdates(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, WriteDefaultConfig(configPath))

	require.NoError(t, SaveFlag(configPath, "panic-demo", true))
	cfg, err := Load(configPath)
	require.NoError(t, err)
	require.True(t, cfg.Flags["panic-demo"])

	require.NoError(t, SaveFlag(configPath, "panic-demo", false))
	cfg, err = Load(configPath)
	require.NoError(t, err)
	require.False(t, cfg.Flags["panic-demo"])

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	require.Equal(t, 1, strings.Count(string(data), "panic-demo: false"))
}

func TestSaveFlag_RequiresName(t *testing.T) {
	err := SaveFlag(filepath.Join(t.TempDir(), "config.yaml"), "", true)
	require.Error(t, err)
}

func TestSave_AtomicWrite(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")

	require.NoError(t, SaveLogLevel(configPath, "info"))
	require.NoError(t, SaveLogLevel(configPath, "debug"))

	// Check no temp files left behind
	entries, err := os.ReadDir(tempDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "config.yaml", entries[0].Name())
}

func TestSave_CreatesDirectory(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "subdir", "nested", "config.yaml")

	require.NoError(t, SaveLogLevel(configPath, "info"))

	_, err := os.Stat(configPath)
	require.NoError(t, err)
}
