// internal/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/joho/godotenv"
)

var (
	currentConfig *AppConfig
	configMutex   sync.RWMutex
	configFile    string
)

// AppConfig holds the full runtime configuration, persisted to disk so
// settings survive restarts.
type AppConfig struct {
	Port      string `json:"port"`
	DataDir   string `json:"data_dir"`
	LoreFile  string `json:"lore_file"`
	DBPath    string `json:"db_path"`
	LogDir    string `json:"log_dir"`
	DebugMode bool   `json:"debug_mode"`

	// Lore reload behavior
	WatchLore bool `json:"watch_lore"` // reload the corpus when the lore file changes
}

// Config holds the environment-derived bootstrap configuration.
type Config struct {
	Port      string
	DataDir   string
	LoreFile  string
	DBPath    string
	LogDir    string
	DebugMode bool
	WatchLore bool
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// .env is optional
	godotenv.Load()

	config := &Config{
		Port:      getEnv("PORT", "8080"),
		DataDir:   getEnvPath("DATA_DIR", "data"),
		LoreFile:  getEnv("LORE_FILE", filepath.Join("data", "fangen_lore.txt")),
		DBPath:    getEnv("DB_PATH", filepath.Join("data", "zxi.db")),
		LogDir:    getEnvPath("LOG_DIR", "logs"),
		DebugMode: getEnvBool("DEBUG_MODE", true),
		WatchLore: getEnvBool("WATCH_LORE", true),
	}

	if _, err := os.Stat(config.LoreFile); os.IsNotExist(err) {
		log.Printf("warning: lore file %s not found, the corpus will be empty until one is provided", config.LoreFile)
	}

	return config, nil
}

// getEnv returns the environment variable or a default.
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvPath returns a path from the environment, creating it if missing.
func getEnvPath(key, defaultValue string) string {
	path := getEnv(key, defaultValue)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(path, 0755); err != nil {
			fmt.Printf("warning: failed to create directory %s: %v\n", path, err)
		}
	}

	return path
}

// getEnvBool returns a boolean environment variable.
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	return value == "true" || value == "1" || value == "yes"
}

// InitConfig initializes the config manager, merging any persisted config
// in dataDir with the current environment.
func InitConfig(dataDir string) error {
	configFile = filepath.Join(dataDir, "config.json")

	baseConfig, err := Load()
	if err != nil {
		return err
	}

	configMutex.Lock()
	defer configMutex.Unlock()

	currentConfig = &AppConfig{
		Port:      baseConfig.Port,
		DataDir:   baseConfig.DataDir,
		LoreFile:  baseConfig.LoreFile,
		DBPath:    baseConfig.DBPath,
		LogDir:    baseConfig.LogDir,
		DebugMode: baseConfig.DebugMode,
		WatchLore: baseConfig.WatchLore,
	}

	// Environment wins for everything except persisted toggles.
	if _, err := os.Stat(configFile); !os.IsNotExist(err) {
		data, err := os.ReadFile(configFile)
		if err == nil {
			var savedConfig AppConfig
			if json.Unmarshal(data, &savedConfig) == nil {
				savedConfig.Port = baseConfig.Port
				savedConfig.DataDir = baseConfig.DataDir
				savedConfig.LoreFile = baseConfig.LoreFile
				savedConfig.DBPath = baseConfig.DBPath
				savedConfig.LogDir = baseConfig.LogDir
				savedConfig.DebugMode = baseConfig.DebugMode

				currentConfig = &savedConfig
			}
		}
	}

	return SaveConfig()
}

// GetCurrentConfig returns a copy of the current configuration.
func GetCurrentConfig() *AppConfig {
	configMutex.RLock()
	defer configMutex.RUnlock()

	if currentConfig == nil {
		baseConfig, _ := Load()
		return &AppConfig{
			Port:      baseConfig.Port,
			DataDir:   baseConfig.DataDir,
			LoreFile:  baseConfig.LoreFile,
			DBPath:    baseConfig.DBPath,
			LogDir:    baseConfig.LogDir,
			DebugMode: baseConfig.DebugMode,
			WatchLore: baseConfig.WatchLore,
		}
	}

	configCopy := *currentConfig
	return &configCopy
}

// SaveConfig writes the current configuration to disk.
func SaveConfig() error {
	if currentConfig == nil {
		return fmt.Errorf("no configuration to save")
	}

	dir := filepath.Dir(configFile)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(currentConfig, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	return os.WriteFile(configFile, data, 0644)
}
