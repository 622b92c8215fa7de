package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/dgnsrekt/gexbot-analytics/internal/chain"
	"github.com/dgnsrekt/gexbot-analytics/internal/gamma"
)

type Config struct {
	Engine       EngineConfig       `mapstructure:"engine"`
	Walls        WallsConfig        `mapstructure:"walls"`
	ExpectedMove ExpectedMoveConfig `mapstructure:"expected_move"`
	Ingest       IngestConfig       `mapstructure:"ingest"`
	Batch        BatchConfig        `mapstructure:"batch"`
	Client       ClientConfig       `mapstructure:"client"`
	Output       OutputConfig       `mapstructure:"output"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

type EngineConfig struct {
	RiskFreeRate       float64 `mapstructure:"risk_free_rate"`
	ContractMultiplier float64 `mapstructure:"contract_multiplier"`
	MinVolatility      float64 `mapstructure:"min_volatility"`
	MaxVolatility      float64 `mapstructure:"max_volatility"`
	SignConvention     string  `mapstructure:"sign_convention"`
	Workers            int     `mapstructure:"workers"`
	FanOutThreshold    int     `mapstructure:"fan_out_threshold"`
}

type WallsConfig struct {
	SignificanceThreshold float64 `mapstructure:"significance_threshold"`
	MaxWalls              int     `mapstructure:"max_walls"`
	NearbyDistancePct     float64 `mapstructure:"nearby_distance_pct"`
}

type ExpectedMoveConfig struct {
	ATMWindow int `mapstructure:"atm_window"`
}

type IngestConfig struct {
	DefaultSymbol     string  `mapstructure:"default_symbol"`
	DefaultVolatility float64 `mapstructure:"default_volatility"`
	PercentIVCutoff   float64 `mapstructure:"percent_iv_cutoff"`
	MaxFileSizeMB     int     `mapstructure:"max_file_size_mb"`
}

type BatchConfig struct {
	Workers int `mapstructure:"workers"`
}

type ClientConfig struct {
	BaseURL       string `mapstructure:"base_url"`
	TimeoutSec    int    `mapstructure:"timeout_sec"`
	RetryCount    int    `mapstructure:"retry_count"`
	RetryDelay    int    `mapstructure:"retry_delay_sec"`
	RatePerSecond int    `mapstructure:"rate_per_second"`
}

type OutputConfig struct {
	Format    string `mapstructure:"format"`
	Directory string `mapstructure:"directory"`
}

type LoggingConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Directory string `mapstructure:"directory"`
	Level     string `mapstructure:"level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("engine.risk_free_rate", 0.05)
	v.SetDefault("engine.contract_multiplier", 100)
	v.SetDefault("engine.min_volatility", 0.01)
	v.SetDefault("engine.max_volatility", 2.0)
	v.SetDefault("engine.sign_convention", "dealer_short")
	v.SetDefault("engine.workers", 4)
	v.SetDefault("engine.fan_out_threshold", 2000)
	v.SetDefault("walls.significance_threshold", 0.05)
	v.SetDefault("walls.max_walls", 5)
	v.SetDefault("walls.nearby_distance_pct", 5.0)
	v.SetDefault("expected_move.atm_window", 10)
	v.SetDefault("ingest.default_symbol", "")
	v.SetDefault("ingest.default_volatility", 0.20)
	v.SetDefault("ingest.percent_iv_cutoff", 10.0)
	v.SetDefault("ingest.max_file_size_mb", 100)
	v.SetDefault("batch.workers", 3)
	v.SetDefault("client.base_url", "http://localhost:8080")
	v.SetDefault("client.timeout_sec", 60)
	v.SetDefault("client.retry_count", 3)
	v.SetDefault("client.retry_delay_sec", 2)
	v.SetDefault("client.rate_per_second", 5)
	v.SetDefault("output.format", "table")
	v.SetDefault("output.directory", "out")
	v.SetDefault("logging.enabled", false)
	v.SetDefault("logging.directory", "logs")
	v.SetDefault("logging.level", "info")
}

func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("GEXCALC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("default")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// GammaParams converts the engine section into pricing parameters.
func (c EngineConfig) GammaParams() (gamma.Params, error) {
	conv, err := gamma.ConventionByName(c.SignConvention)
	if err != nil {
		return gamma.Params{}, err
	}
	return gamma.Params{
		RiskFreeRate:       c.RiskFreeRate,
		ContractMultiplier: c.ContractMultiplier,
		MinVolatility:      c.MinVolatility,
		MaxVolatility:      c.MaxVolatility,
		Convention:         conv,
	}, nil
}

// LoadOptions converts the ingest section into chain loader options. The
// volatility bounds follow the engine so loaded IVs and priced IVs agree.
func (c *Config) LoadOptions() chain.LoadOptions {
	opts := chain.DefaultLoadOptions()
	opts.DefaultSymbol = c.Ingest.DefaultSymbol
	opts.DefaultVolatility = c.Ingest.DefaultVolatility
	opts.PercentIVCutoff = c.Ingest.PercentIVCutoff
	opts.MaxFileSizeMB = c.Ingest.MaxFileSizeMB
	opts.MinVolatility = c.Engine.MinVolatility
	opts.MaxVolatility = c.Engine.MaxVolatility
	return opts
}
