// Package config loads and validates the service configuration from
// HCL.
package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/hclsimple"

	"github.com/parapet-sh/parapet/internal/posture"
)

// Config is the root service configuration.
type Config struct {
	// Listen is the dashboard's own bind address.
	Listen string `hcl:"listen,optional"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `hcl:"log_level,optional"`

	// LogJSON switches console output to JSON.
	LogJSON bool `hcl:"log_json,optional"`

	Gateway GatewayConfig `hcl:"gateway,block"`
	Zones   *ZonesConfig  `hcl:"zones,block"`
	Audit   *AuditConfig  `hcl:"audit,block"`
	UI      *UIConfig     `hcl:"ui,block"`
}

// GatewayConfig points at the authoritative gateway device.
type GatewayConfig struct {
	URL    string `hcl:"url"`
	APIKey string `hcl:"api_key,optional"`

	// TimeoutSeconds bounds gateway HTTP calls. Zero means no timeout;
	// mutations are then never abandoned mid-flight.
	TimeoutSeconds int `hcl:"timeout_seconds,optional"`
}

// ZonesConfig overrides zone display behavior.
type ZonesConfig struct {
	// Order lists well-known zone names to pin first, in order.
	Order []string `hcl:"order,optional"`

	// Labels maps lowercase zone names to display labels.
	Labels map[string]string `hcl:"labels,optional"`
}

// AuditConfig controls the operator audit trail.
type AuditConfig struct {
	Path          string `hcl:"path,optional"`
	RetentionDays int    `hcl:"retention_days,optional"`
}

// UIConfig tunes dashboard behavior.
type UIConfig struct {
	// ErrorClearSeconds is how long transient mutation errors stay
	// visible.
	ErrorClearSeconds int `hcl:"error_clear_seconds,optional"`
}

// Default returns the stock configuration.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills unset fields after decoding.
func (c *Config) applyDefaults() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8484"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Audit == nil {
		c.Audit = &AuditConfig{}
	}
	if c.Audit.Path == "" {
		c.Audit.Path = "/var/lib/parapet/audit.db"
	}
	if c.Audit.RetentionDays == 0 {
		c.Audit.RetentionDays = 90
	}
	if c.UI == nil {
		c.UI = &UIConfig{}
	}
	if c.UI.ErrorClearSeconds == 0 {
		c.UI.ErrorClearSeconds = 5
	}
}

// Load reads and validates a config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := hclsimple.Decode(path, data, nil, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address must not be empty")
	}
	if c.Gateway.URL == "" {
		return fmt.Errorf("gateway url is required")
	}
	u, err := url.Parse(c.Gateway.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("gateway url %q is not a valid URL", c.Gateway.URL)
	}
	if c.Gateway.TimeoutSeconds < 0 {
		return fmt.Errorf("gateway timeout_seconds must not be negative")
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level %q is not one of debug, info, warn, error", c.LogLevel)
	}
	if c.UI != nil && c.UI.ErrorClearSeconds < 0 {
		return fmt.Errorf("ui error_clear_seconds must not be negative")
	}
	if c.Audit != nil && c.Audit.RetentionDays < 0 {
		return fmt.Errorf("audit retention_days must not be negative")
	}
	return nil
}

// GatewayTimeout returns the configured gateway timeout.
func (c *Config) GatewayTimeout() time.Duration {
	return time.Duration(c.Gateway.TimeoutSeconds) * time.Second
}

// ErrorTTL returns how long transient errors stay visible.
func (c *Config) ErrorTTL() time.Duration {
	if c.UI == nil || c.UI.ErrorClearSeconds == 0 {
		return 5 * time.Second
	}
	return time.Duration(c.UI.ErrorClearSeconds) * time.Second
}

// DisplayConfig builds the zone display settings, layering any
// configured overrides onto the defaults.
func (c *Config) DisplayConfig() posture.DisplayConfig {
	d := posture.DefaultDisplayConfig()
	if c.Zones == nil {
		return d
	}
	if len(c.Zones.Order) > 0 {
		d.CanonicalOrder = c.Zones.Order
	}
	for k, v := range c.Zones.Labels {
		d.Labels[k] = v
	}
	return d
}
