// Package config loads CLI configuration from a TOML file merged over
// embedded defaults.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

//go:embed data/default_config.toml
var defaultConfigTOML string

// Manager handles configuration loading and management.
type Manager struct {
	v      *viper.Viper
	cfg    *Config
	logger *slog.Logger
}

// NewManager creates a configuration manager with environment bindings
// in place.
func NewManager() *Manager {
	v := viper.New()

	v.RegisterAlias("user", "names.user")
	v.RegisterAlias("char", "names.char")

	_ = v.BindEnv("chat.file", "ST_CHAT_FILE")
	_ = v.BindEnv("chat.metadata_db", "ST_METADATA_DB")
	_ = v.BindEnv("expand.backend", "ST_BACKEND")

	return &Manager{
		v:   v,
		cfg: &Config{},
	}
}

// WithLogger sets the logger for the configuration manager.
func (m *Manager) WithLogger(logger *slog.Logger) *Manager {
	m.logger = logger
	return m
}

// Config returns the loaded configuration.
func (m *Manager) Config() *Config {
	return m.cfg
}

// Viper exposes the underlying viper instance for flag binding.
func (m *Manager) Viper() *viper.Viper {
	return m.v
}

// Load reads configuration from the given TOML file, merging it over
// the embedded defaults. A missing file is created with the defaults so
// users have something to edit.
func (m *Manager) Load(configPath string) error {
	if m.logger != nil {
		m.logger.Debug("loading config file", "path", configPath)
	}

	m.v.SetConfigType("toml")

	if err := m.v.ReadConfig(strings.NewReader(defaultConfigTOML)); err != nil {
		return fmt.Errorf("failed to load embedded defaults: %w", err)
	}

	m.v.SetConfigFile(configPath)

	if err := m.v.MergeInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		var pathErr *os.PathError
		if !errors.As(err, &notFound) && !errors.As(err, &pathErr) {
			return err
		}
		if pathErr != nil && !os.IsNotExist(pathErr) {
			return err
		}
		if m.logger != nil {
			m.logger.Debug("config file not found, writing defaults", "path", configPath)
		}
		if err := m.createDefaultConfigFile(configPath); err != nil {
			return fmt.Errorf("failed to create default config file: %w", err)
		}
		m.v.SetConfigFile(configPath)
	} else if m.logger != nil {
		m.logger.Info("configuration loaded", "path", m.v.ConfigFileUsed())
	}

	if err := m.v.Unmarshal(m.cfg); err != nil {
		return fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return nil
}

// createDefaultConfigFile writes the embedded defaults to configPath.
func (m *Manager) createDefaultConfigFile(configPath string) error {
	if dir := filepath.Dir(configPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(configPath, []byte(defaultConfigTOML), 0o644); err != nil {
		return fmt.Errorf("failed to write default config to %s: %w", configPath, err)
	}
	if m.logger != nil {
		m.logger.Info("created default config file", "path", configPath)
	}
	return nil
}

// DefaultConfigPath returns the default config location in the user's
// home directory.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	return filepath.Join(home, ".stmacro", "config.toml"), nil
}
