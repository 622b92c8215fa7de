package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// ServerConfig is read from GEXCALC_SERVER_* environment variables.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8080"`
	ConfigPath      string        `envconfig:"CONFIG"`
	RateLimit       float64       `envconfig:"RATE_LIMIT" default:"20"`
	Burst           int           `envconfig:"BURST" default:"40"`
	MaxBodyBytes    int64         `envconfig:"MAX_BODY_BYTES" default:"10485760"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
}

func LoadServerConfig() (*ServerConfig, error) {
	var cfg ServerConfig
	if err := envconfig.Process("GEXCALC_SERVER", &cfg); err != nil {
		return nil, fmt.Errorf("reading server env: %w", err)
	}

	if cfg.RateLimit <= 0 {
		return nil, fmt.Errorf("invalid GEXCALC_SERVER_RATE_LIMIT: %v (must be positive)", cfg.RateLimit)
	}
	if cfg.Burst < 1 {
		return nil, fmt.Errorf("invalid GEXCALC_SERVER_BURST: %d (must be >= 1)", cfg.Burst)
	}
	if cfg.MaxBodyBytes < 1 {
		return nil, fmt.Errorf("invalid GEXCALC_SERVER_MAX_BODY_BYTES: %d (must be >= 1)", cfg.MaxBodyBytes)
	}
	if !ValidLogLevels[cfg.LogLevel] {
		return nil, fmt.Errorf("invalid GEXCALC_SERVER_LOG_LEVEL: %s (must be debug, info, warn or error)", cfg.LogLevel)
	}

	return &cfg, nil
}
