package config

import (
	"os"
	"strconv"
	"time"

	"hrattrition/internal/errors"
)

// DefaultFontURL is the Hangul-capable face used for chart labels.
const DefaultFontURL = "https://github.com/google/fonts/raw/main/ofl/nanumgothic/NanumGothic-Regular.ttf"

// Config represents the complete application configuration
type Config struct {
	Server ServerConfig
	API    APIConfig
	Data   DataConfig
	Font   FontConfig
	Log    LogConfig
}

// ServerConfig holds dashboard web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// APIConfig holds JSON API server settings
type APIConfig struct {
	Port string
}

// DataConfig holds input dataset settings
type DataConfig struct {
	File  string
	Sheet string
	Watch bool
}

// FontConfig holds chart font provisioning settings
type FontConfig struct {
	Enabled bool
	URL     string
	Path    string
	Timeout time.Duration
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server: *loadServerConfig(),
		API:    *loadAPIConfig(),
		Data:   *loadDataConfig(),
		Font:   *loadFontConfig(),
		Log:    LogConfig{Level: getEnvOrDefault("LOG_LEVEL", "INFO")},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:    getEnvOrDefault("PORT", "8080"),
		GinMode: getEnvOrDefault("GIN_MODE", "release"),
	}
}

func loadAPIConfig() *APIConfig {
	return &APIConfig{
		Port: getEnvOrDefault("API_PORT", "8081"),
	}
}

func loadDataConfig() *DataConfig {
	return &DataConfig{
		File:  getEnvOrDefault("DATA_FILE", "HR Data.csv"),
		Sheet: getEnvOrDefault("DATA_SHEET", ""),
		Watch: getEnvBoolOrDefault("DATA_WATCH", false),
	}
}

func loadFontConfig() *FontConfig {
	return &FontConfig{
		Enabled: getEnvBoolOrDefault("FONT_ENABLED", true),
		URL:     getEnvOrDefault("FONT_URL", DefaultFontURL),
		Path:    getEnvOrDefault("FONT_PATH", "NanumGothic.ttf"),
		Timeout: getEnvDurationOrDefault("FONT_TIMEOUT", 30*time.Second),
	}
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("PORT is required")
	}
	if config.API.Port == "" {
		return errors.ConfigInvalid("API_PORT is required")
	}
	if config.Data.File == "" {
		return errors.ConfigInvalid("DATA_FILE is required")
	}
	if config.Font.Enabled {
		if config.Font.Path == "" {
			return errors.ConfigInvalid("FONT_PATH is required when fonts are enabled")
		}
		if _, err := os.Stat(config.Font.Path); err != nil && config.Font.URL == "" {
			return errors.ConfigInvalid("FONT_URL is required when FONT_PATH does not exist")
		}
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
