// internal/config/config_test.go
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setTestEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DATA_DIR", filepath.Join(dir, "data"))
	t.Setenv("LOG_DIR", filepath.Join(dir, "logs"))
	t.Setenv("LORE_FILE", filepath.Join(dir, "lore.txt"))
	t.Setenv("DB_PATH", filepath.Join(dir, "app.db"))
	return dir
}

func TestLoadDefaults(t *testing.T) {
	dir := setTestEnv(t)
	t.Setenv("PORT", "")
	t.Setenv("DEBUG_MODE", "")
	t.Setenv("WATCH_LORE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.True(t, cfg.DebugMode)
	assert.True(t, cfg.WatchLore)
	assert.DirExists(t, filepath.Join(dir, "data"))
	assert.DirExists(t, filepath.Join(dir, "logs"))
}

func TestLoadFromEnvironment(t *testing.T) {
	setTestEnv(t)
	t.Setenv("PORT", "9191")
	t.Setenv("DEBUG_MODE", "false")
	t.Setenv("WATCH_LORE", "no")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9191", cfg.Port)
	assert.False(t, cfg.DebugMode)
	assert.False(t, cfg.WatchLore)
}

func TestInitConfigPersistsToggles(t *testing.T) {
	dir := setTestEnv(t)
	t.Setenv("PORT", "9191")
	t.Setenv("WATCH_LORE", "")

	dataDir := filepath.Join(dir, "data")
	require.NoError(t, os.MkdirAll(dataDir, 0755))

	// A previous run turned the watcher off.
	saved := AppConfig{Port: "old", WatchLore: false}
	data, err := json.Marshal(saved)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "config.json"), data, 0644))

	require.NoError(t, InitConfig(dataDir))

	cfg := GetCurrentConfig()
	// Environment wins for bootstrap fields, the saved toggle survives.
	assert.Equal(t, "9191", cfg.Port)
	assert.False(t, cfg.WatchLore)

	assert.FileExists(t, filepath.Join(dataDir, "config.json"))
}
