package hintnav

import (
	"github.com/hazyhaar/hintnav/hintnav/internal/config"
)

// Config is the top-level hintnav configuration. Re-exported from internal.
type Config = config.Config

// BrowserConfig controls Chrome lifecycle.
type BrowserConfig = config.BrowserConfig

// HintsConfig controls selector, envelope secret and colors.
type HintsConfig = config.HintsConfig

// StyleConfig holds the hint colors.
type StyleConfig = config.StyleConfig

// SinkConfig defines an output backend.
type SinkConfig = config.SinkConfig

// LoadConfigFile reads a YAML configuration file.
func LoadConfigFile(path string) (*Config, error) {
	return config.LoadFile(path)
}

// DefaultConfig returns a configuration with every default applied and a
// fresh envelope secret.
func DefaultConfig() *Config {
	return config.Default()
}
