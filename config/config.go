package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default configuration constants. See [Config] for field descriptions.
const (
	// DefaultPollingInterval is the sampling period for polling watches.
	DefaultPollingInterval = 30 * time.Second

	// DefaultLocationCwd controls whether a driver constructed without a
	// location roots at the working directory instead of the platform root.
	DefaultLocationCwd = true
)

// Config contains runtime configuration values for the filesystem driver and
// its watch subsystem.
type Config struct {
	PollingInterval    time.Duration // Sampling period for polling watches (Default 30s)
	DefaultLocationCwd bool          // Root drivers at the cwd when no location given (Default true)
	WatchBackend       string        // Force a watch backend: "native", "signal" or "poll" (Default "" = probe)
}

// ConfigOverride uses pointer fields to distinguish between unset and zero
// values when loading partial configuration. See [Config] for field
// descriptions.
type ConfigOverride struct {
	PollingIntervalSeconds *float64 `yaml:"polling_interval_seconds,omitempty" json:"polling_interval_seconds,omitempty"`
	DefaultLocationCwd     *bool    `yaml:"default_location_cwd,omitempty" json:"default_location_cwd,omitempty"`
	WatchBackend           *string  `yaml:"watch_backend,omitempty" json:"watch_backend,omitempty"`
}

// NewDefaultConfig creates a new Config with all default values.
func NewDefaultConfig() *Config {
	return &Config{
		PollingInterval:    DefaultPollingInterval,
		DefaultLocationCwd: DefaultLocationCwd,
		WatchBackend:       "",
	}
}

// NewConfig creates a Config from defaults with any non-nil override fields
// applied.
func NewConfig(override *ConfigOverride) *Config {
	cfg := NewDefaultConfig()
	if override != nil {
		cfg.Merge(override)
	}
	return cfg
}

// Merge applies non-nil values from override onto this Config.
// This allows partial configuration updates while preserving existing values.
func (c *Config) Merge(override *ConfigOverride) {
	if override.PollingIntervalSeconds != nil {
		c.PollingInterval = time.Duration(*override.PollingIntervalSeconds * float64(time.Second))
	}
	if override.DefaultLocationCwd != nil {
		c.DefaultLocationCwd = *override.DefaultLocationCwd
	}
	if override.WatchBackend != nil {
		c.WatchBackend = *override.WatchBackend
	}
}

// LoadConfigOverrideFile loads configuration overrides from a file without
// merging. Supports both YAML (.yaml, .yml) and JSON (.json) formats.
func LoadConfigOverrideFile(path string) (*ConfigOverride, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var override ConfigOverride

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown config file extension: %s", path)
	}

	return &override, nil
}

// NewConfigFromFile creates a new Config by merging file overrides with
// defaults.
func NewConfigFromFile(path string) (*Config, error) {
	cfg := NewDefaultConfig()
	override, err := LoadConfigOverrideFile(path)
	if err != nil {
		return nil, err
	}
	cfg.Merge(override)
	return cfg, nil
}
