// Package config loads drover configuration with viper: an explicit file,
// ~/.drover/config.yaml or ~/.drover.yaml, DROVER_* environment variables,
// then defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultConfigName = ".drover"
	defaultConfigDir  = ".drover"
	dirConfigFile     = "config.yaml"
)

// Manager handles drover configuration
type Manager struct {
	configPath string
	config     *Config
	viper      *viper.Viper
}

// NewManager creates a configuration manager with its own viper instance
func NewManager(configPath string) *Manager {
	return NewManagerWith(viper.New(), configPath)
}

// NewManagerWith binds the manager to an existing viper instance, so CLI
// flag bindings and the loaded file share a single configuration view
func NewManagerWith(v *viper.Viper, configPath string) *Manager {
	return &Manager{
		configPath: configPath,
		viper:      v,
		config:     &Config{},
	}
}

// Load loads the drover configuration
func (m *Manager) Load() (*Config, error) {
	m.setDefaults()

	if m.configPath != "" {
		m.viper.SetConfigFile(m.configPath)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}

		// Prefer ~/.drover/config.yaml, fall back to ~/.drover.yaml
		if dirConfig := filepath.Join(home, defaultConfigDir, dirConfigFile); fileExists(dirConfig) {
			m.viper.SetConfigFile(dirConfig)
		} else {
			m.viper.AddConfigPath(home)
			m.viper.SetConfigName(defaultConfigName)
			m.viper.SetConfigType("yaml")
		}
	}

	m.viper.SetEnvPrefix("DROVER")
	m.viper.AutomaticEnv()

	if err := m.viper.ReadInConfig(); err != nil {
		// A missing config file is fine, defaults apply
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	m.config = &Config{}
	if err := m.viper.Unmarshal(m.config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return m.config, nil
}

// GetConfig returns the current configuration
func (m *Manager) GetConfig() *Config {
	return m.config
}

// setDefaults registers every default in viper, so unset keys resolve the
// same way through the struct and through direct viper lookups
func (m *Manager) setDefaults() {
	m.viper.SetDefault("defaults.parallel", 5)
	m.viper.SetDefault("defaults.min_parallel", 1)
	m.viper.SetDefault("defaults.timeout", 30*time.Second)
	m.viper.SetDefault("defaults.poll_interval", time.Second)
	m.viper.SetDefault("defaults.render_interval", 3*time.Second)
	m.viper.SetDefault("defaults.output_mode", "summary")
	m.viper.SetDefault("defaults.dashboard_path", "drover-dashboard.json")
	m.viper.SetDefault("log.max_entries", 50)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
