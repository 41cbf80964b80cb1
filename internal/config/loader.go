package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".hostprint"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// LoadConfigFile loads settings from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound.
// Callers should handle this error appropriately based on whether
// the config file path was explicitly specified by the user.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}

	// Initialize Engines map if nil
	if cf.Engines == nil {
		cf.Engines = make(map[string]EngineConfig)
	}

	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .hostprint in the current directory
// 3. Look for .hostprint in the user's home directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	// If explicit path is provided, use it
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	// Check current directory
	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	// Check home directory
	home, err := os.UserHomeDir()
	if err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}

// Apply merges file settings into the config. CLI flags are applied after
// this call, so file values override defaults and flags override the file.
func (c *Config) Apply(cf *File) error {
	if cf == nil {
		return nil
	}
	c.Engines = cf

	if cf.ProbeTimeout != "" {
		d, err := time.ParseDuration(cf.ProbeTimeout)
		if err != nil {
			return fmt.Errorf("parse probe_timeout: %w", err)
		}
		c.ProbeTimeout = d
	}
	if cf.AppID != "" {
		c.AppID = cf.AppID
	}
	if cf.Watch.Schedule != "" {
		c.WatchSchedule = cf.Watch.Schedule
	}
	if cf.Watch.NotifyURL != "" {
		c.NotifyURL = cf.Watch.NotifyURL
	}

	return nil
}
