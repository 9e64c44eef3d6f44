// Package config loads application configuration from a TOML file and
// FOCUSTIMERS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Settings SettingsConfig
	History  HistoryConfig
	Audio    AudioConfig
	Log      LogConfig
	Lang     string
}

// SettingsConfig locates the user settings store.
type SettingsConfig struct {
	Path string
}

// HistoryConfig locates the completed-run database.
type HistoryConfig struct {
	Path    string
	Enabled bool
}

// AudioConfig toggles the finish alarm.
type AudioConfig struct {
	Enabled bool
}

// LogConfig controls logging output.
type LogConfig struct {
	File    string
	Verbose bool
}

// Dir returns the directory holding FocusTimers files.
func Dir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("user config dir: %w", err)
	}
	return filepath.Join(dir, "focustimers"), nil
}

// Load reads configuration from file and env. Env var overrides use prefix FOCUSTIMERS_.
func Load() (Config, error) {
	dir, err := Dir()
	if err != nil {
		return Config{}, err
	}

	v := viper.New()

	// default values
	v.SetDefault("settings.path", filepath.Join(dir, "settings.toml"))
	v.SetDefault("history.path", filepath.Join(dir, "history.db"))
	v.SetDefault("history.enabled", true)
	v.SetDefault("audio.enabled", true)
	v.SetDefault("log.file", "")
	v.SetDefault("log.verbose", false)
	v.SetDefault("lang", "")

	v.SetConfigType("toml")

	if cfgPath := os.Getenv("FOCUSTIMERS_CONFIG"); cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(dir)
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("FOCUSTIMERS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}
