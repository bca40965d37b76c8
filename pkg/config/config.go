package config

import (
	"os"
	"os/user"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	// DataDir is where the storage backend keeps its records.
	DataDir string `yaml:"dataDir"`
	// Backend selects the storage engine: file, sqlite, or memory.
	Backend string `yaml:"backend"`
	// MaxRecordSizeKB caps a single persisted record; 0 disables the limit.
	MaxRecordSizeKB int `yaml:"maxRecordSizeKB"`
	// LogLevel is a zerolog level name (debug, info, warn, error).
	LogLevel string `yaml:"logLevel"`
}

// Default record cap, roughly what mobile key-value stores tolerate before
// rejecting a write.
const defaultMaxRecordSizeKB = 1024

// GetDefaultDataPath returns the default directory for storing records
func GetDefaultDataPath() string {
	currentUser, err := user.Current()
	if err != nil {
		return "./data"
	}

	defaultPath := filepath.Join(currentUser.HomeDir, "Documents", "PocketNote")
	if err := os.MkdirAll(defaultPath, 0755); err != nil {
		// Fall back to relative path if we can't create in Documents
		return "./data"
	}

	return defaultPath
}

// GetConfigFilePath returns the path where the config file should be stored
func GetConfigFilePath() string {
	currentUser, err := user.Current()
	if err != nil {
		return "./config.yaml"
	}

	configPath := filepath.Join(currentUser.HomeDir, ".config", "pocketnote")
	if err := os.MkdirAll(configPath, 0755); err != nil {
		return "./config.yaml"
	}

	return filepath.Join(configPath, "config.yaml")
}

// Load loads configuration from file, using defaults if the file doesn't
// exist, then applies environment overrides (POCKETNOTE_DATA_DIR,
// POCKETNOTE_BACKEND, POCKETNOTE_MAX_RECORD_KB, POCKETNOTE_LOG_LEVEL).
func Load() (*Config, error) {
	config := &Config{
		DataDir:         GetDefaultDataPath(),
		Backend:         "file",
		MaxRecordSizeKB: defaultMaxRecordSizeKB,
		LogLevel:        "info",
	}

	configFile := GetConfigFilePath()
	if data, err := os.ReadFile(configFile); err == nil {
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(config)

	if err := os.MkdirAll(config.DataDir, 0755); err != nil {
		return nil, err
	}

	return config, nil
}

func applyEnvOverrides(config *Config) {
	if v := os.Getenv("POCKETNOTE_DATA_DIR"); v != "" {
		config.DataDir = v
	}
	if v := os.Getenv("POCKETNOTE_BACKEND"); v != "" {
		config.Backend = v
	}
	if v := os.Getenv("POCKETNOTE_MAX_RECORD_KB"); v != "" {
		if kb, err := strconv.Atoi(v); err == nil {
			config.MaxRecordSizeKB = kb
		}
	}
	if v := os.Getenv("POCKETNOTE_LOG_LEVEL"); v != "" {
		config.LogLevel = v
	}
}

// MaxRecordSizeBytes converts the configured cap to bytes.
func (c *Config) MaxRecordSizeBytes() int {
	if c.MaxRecordSizeKB <= 0 {
		return 0
	}
	return c.MaxRecordSizeKB * 1024
}

// Save saves the configuration to file
func (c *Config) Save() error {
	configFile := GetConfigFilePath()

	if err := os.MkdirAll(filepath.Dir(configFile), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(configFile, data, 0644)
}
