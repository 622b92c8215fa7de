package notify

import (
	"errors"
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds ntfy notification configuration.
type Config struct {
	Enabled  bool   `envconfig:"ENABLED" default:"false"`
	Server   string `envconfig:"SERVER" default:"https://ntfy.sh"`
	Topic    string `envconfig:"TOPIC"`
	Priority string `envconfig:"PRIORITY" default:"default"`
	Tags     string `envconfig:"TAGS" default:"chart_with_upwards_trend"`
	Token    string `envconfig:"TOKEN"`
}

var validPriorities = map[string]bool{
	"min": true, "low": true, "default": true, "high": true, "urgent": true,
}

// LoadConfig reads NTFY_* environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("ntfy", &cfg); err != nil {
		return nil, fmt.Errorf("loading ntfy config: %w", err)
	}
	return &cfg, cfg.Validate()
}

// Validate checks configuration is valid when enabled.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Topic == "" {
		return errors.New("NTFY_TOPIC is required when NTFY_ENABLED=true")
	}
	if !validPriorities[c.Priority] {
		return fmt.Errorf("invalid NTFY_PRIORITY: %s (valid: min, low, default, high, urgent)", c.Priority)
	}
	return nil
}
