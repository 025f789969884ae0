// Package config handles hintnav configuration from YAML files.
package config

import (
	"crypto/rand"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level hintnav configuration.
type Config struct {
	Browser  BrowserConfig  `yaml:"browser"`
	Hints    HintsConfig    `yaml:"hints"`
	Viewport ViewportConfig `yaml:"viewport"`
	Sinks    []SinkConfig   `yaml:"sinks"`
	HTTP     HTTPConfig     `yaml:"http"`
	MCP      MCPConfig      `yaml:"mcp"`
}

// BrowserConfig controls Chrome lifecycle.
type BrowserConfig struct {
	Remote           string        `yaml:"remote"`
	MemoryLimit      int64         `yaml:"memory_limit"`
	RecycleInterval  time.Duration `yaml:"recycle_interval"`
	ResourceBlocking []string      `yaml:"resource_blocking"`
	Stealth          string        `yaml:"stealth"` // headless | headful
	XvfbDisplay      string        `yaml:"xvfb_display"`
}

// HintsConfig controls hint mode itself.
type HintsConfig struct {
	Selector string      `yaml:"selector"` // clickable | link | raw XPath
	Secret   string      `yaml:"secret"`   // envelope tag, random when empty
	Style    StyleConfig `yaml:"style"`
}

// StyleConfig holds the colors painted on hinted elements.
type StyleConfig struct {
	HintBackground   string `yaml:"hint_background"`
	HintColor        string `yaml:"hint_color"`
	Background       string `yaml:"background"`
	BackgroundActive string `yaml:"background_active"`
	TextColor        string `yaml:"text_color"`
}

// ViewportConfig sizes static documents, which have no window of their own.
type ViewportConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// SinkConfig defines an output backend.
type SinkConfig struct {
	Type   string `yaml:"type"`   // stdout | webhook | history
	URL    string `yaml:"url"`    // webhook
	Secret string `yaml:"secret"` // webhook HMAC key, unsigned when empty
	Path   string `yaml:"path"`   // history database
}

// HTTPConfig controls the control API.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// MCPConfig controls the MCP server.
type MCPConfig struct {
	Enabled bool   `yaml:"enabled"`
	Name    string `yaml:"name"`
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML configuration and applies defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var cfg Config
	cfg.ApplyDefaults()
	return &cfg
}

// ApplyDefaults fills every zero field.
func (c *Config) ApplyDefaults() {
	if c.Browser.MemoryLimit <= 0 {
		c.Browser.MemoryLimit = 1 << 30
	}
	if c.Browser.RecycleInterval <= 0 {
		c.Browser.RecycleInterval = 4 * time.Hour
	}
	if c.Browser.XvfbDisplay == "" {
		c.Browser.XvfbDisplay = ":99"
	}
	if c.Browser.Stealth == "" {
		c.Browser.Stealth = "headless"
	}
	if c.Hints.Selector == "" {
		c.Hints.Selector = "clickable"
	}
	if c.Hints.Secret == "" {
		c.Hints.Secret = newSecret(32)
	}
	s := &c.Hints.Style
	if s.HintBackground == "" {
		s.HintBackground = "red"
	}
	if s.HintColor == "" {
		s.HintColor = "white"
	}
	if s.Background == "" {
		s.Background = "yellow"
	}
	if s.BackgroundActive == "" {
		s.BackgroundActive = "#88FF00"
	}
	if s.TextColor == "" {
		s.TextColor = "black"
	}
	if c.Viewport.Width <= 0 {
		c.Viewport.Width = 1280
	}
	if c.Viewport.Height <= 0 {
		c.Viewport.Height = 800
	}
	if c.MCP.Name == "" {
		c.MCP.Name = "hintnav"
	}
}

// newSecret returns a base-36 token of the given length.
func newSecret(length int) string {
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		panic("config: crypto/rand failed: " + err.Error())
	}
	for i := range buf {
		buf[i] = alphabet[int(buf[i])%len(alphabet)]
	}
	return string(buf)
}
