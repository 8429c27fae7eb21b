// Package config loads settings from ~/.reaction-test/config.toml and RT_
// environment variables.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	DirName    = ".reaction-test"
	configName = "config"
	configType = "toml"
	envPrefix  = "RT"
)

// Config is the decoded view of the settings.
type Config struct {
	Sessions SessionsConfig `mapstructure:"sessions"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type SessionsConfig struct {
	Path string `mapstructure:"path"`
}

type LoggingConfig struct {
	Directory  string `mapstructure:"directory"`
	Level      string `mapstructure:"level"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

func setDefaults(v *viper.Viper, dataDir string) {
	v.SetDefault("sessions.path", filepath.Join(dataDir, "sessions.toml"))

	v.SetDefault("logging.directory", filepath.Join(dataDir, "logs"))
	v.SetDefault("logging.level", "info")
	// max_size is in megabytes, max_age in days.
	v.SetDefault("logging.max_size", 10)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age", 28)
	v.SetDefault("logging.compress", true)
}

// Load builds a viper instance rooted at homeDir. A missing config file is
// fine; defaults and environment variables still apply.
func Load(homeDir string) (*viper.Viper, error) {
	dataDir := filepath.Join(homeDir, DirName)

	v := viper.New()
	setDefaults(v, dataDir)

	v.AddConfigPath(dataDir)
	v.SetConfigName(configName)
	v.SetConfigType(configType)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	return v, nil
}

func Decode(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}
