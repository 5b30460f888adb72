package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"navi/pkg/logging"

	"gopkg.in/yaml.v3"
)

const (
	userConfigDir  = ".config/navi"
	configFileName = "config.yaml"
)

// GetDefaultConfigPathOrPanic returns the user's navi configuration
// directory (~/.config/navi). It panics only when the home directory
// cannot be determined, which makes the process unusable anyway.
func GetDefaultConfigPathOrPanic() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		panic(fmt.Errorf("could not determine user config directory: %w", err))
	}
	return filepath.Join(homeDir, userConfigDir)
}

// LoadConfig loads config.yaml from the given directory, overlaying the
// defaults. A missing file is not an error; the defaults are used.
func LoadConfig(configPath string) (NaviConfig, error) {
	configFilePath := filepath.Join(configPath, configFileName)
	config := GetDefaultConfig()

	data, err := os.ReadFile(configFilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Info("ConfigLoader", "No config.yaml found at %s, using defaults", configFilePath)
			expandSecrets(&config)
			applyFallbacks(&config, configPath)
			return config, nil
		}
		return NaviConfig{}, fmt.Errorf("error reading config from %s: %w", configFilePath, err)
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return NaviConfig{}, fmt.Errorf("error loading config from %s: %w", configFilePath, err)
	}

	expandSecrets(&config)
	applyFallbacks(&config, configPath)
	logging.Info("ConfigLoader", "Loaded configuration from %s", configFilePath)
	return config, nil
}

// expandSecrets resolves $NAME / ${NAME} references in OAuth client
// credentials so secrets can live in the environment instead of the
// config file.
func expandSecrets(config *NaviConfig) {
	for key, provider := range config.Providers {
		provider.OAuth.ClientID = os.ExpandEnv(provider.OAuth.ClientID)
		provider.OAuth.ClientSecret = os.ExpandEnv(provider.OAuth.ClientSecret)
		config.Providers[key] = provider
	}
}

func applyFallbacks(config *NaviConfig, configPath string) {
	if config.RemoteTimeoutSeconds <= 0 {
		config.RemoteTimeoutSeconds = 15
	}
	if config.Aggregator.CacheTTLSeconds <= 0 {
		config.Aggregator.CacheTTLSeconds = 120
	}
	if len(config.Aggregator.CreatePreference) == 0 {
		config.Aggregator.CreatePreference = []string{ProviderGoogleCal, ProviderOutlook, ProviderNotion}
	}
	if config.CredentialFile == "" {
		config.CredentialFile = filepath.Join(configPath, "credentials.json")
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
}

// ParseLogLevel maps a config log level string to a logging.LogLevel.
// Unknown values fall back to info.
func ParseLogLevel(level string) logging.LogLevel {
	switch level {
	case "debug":
		return logging.LevelDebug
	case "warn":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}
