package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/dgnsrekt/gexbot-analytics/internal/gamma"
)

// FieldError describes one rejected configuration value
type FieldError struct {
	Field  string
	Value  any
	Reason string
}

// ValidationErrors collects all validation errors
type ValidationErrors struct {
	Fields []FieldError
}

func (e *ValidationErrors) add(field string, value any, reason string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Value: value, Reason: reason})
}

// HasErrors returns true if any validation errors exist
func (e *ValidationErrors) HasErrors() bool {
	return len(e.Fields) > 0
}

// Has reports whether field was rejected
func (e *ValidationErrors) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// Error formats all validation errors into a clear message
func (e *ValidationErrors) Error() string {
	var sb strings.Builder
	sb.WriteString("configuration validation failed:\n")
	for _, f := range e.Fields {
		sb.WriteString(fmt.Sprintf("  - %s = %v: %s\n", f.Field, f.Value, f.Reason))
	}
	return sb.String()
}

func (c *Config) Validate() error {
	errs := &ValidationErrors{}

	e := c.Engine
	if math.IsNaN(e.RiskFreeRate) || e.RiskFreeRate < 0 || e.RiskFreeRate > 1 {
		errs.add("engine.risk_free_rate", e.RiskFreeRate, "must be within [0, 1]")
	}
	if !(e.ContractMultiplier > 0) {
		errs.add("engine.contract_multiplier", e.ContractMultiplier, "must be positive")
	}
	if !(e.MinVolatility > 0) {
		errs.add("engine.min_volatility", e.MinVolatility, "must be positive")
	}
	if !(e.MaxVolatility >= e.MinVolatility) {
		errs.add("engine.max_volatility", e.MaxVolatility, "must be >= min_volatility")
	}
	if _, err := gamma.ConventionByName(e.SignConvention); err != nil {
		errs.add("engine.sign_convention", e.SignConvention,
			"must be one of: "+strings.Join(gamma.ConventionNames(), ", "))
	}
	if e.Workers < 1 {
		errs.add("engine.workers", e.Workers, "must be >= 1")
	}

	w := c.Walls
	if math.IsNaN(w.SignificanceThreshold) || w.SignificanceThreshold < 0 || w.SignificanceThreshold > 1 {
		errs.add("walls.significance_threshold", w.SignificanceThreshold, "must be within [0, 1]")
	}
	if w.MaxWalls < 1 {
		errs.add("walls.max_walls", w.MaxWalls, "must be >= 1")
	}
	if w.NearbyDistancePct < 0 {
		errs.add("walls.nearby_distance_pct", w.NearbyDistancePct, "must be >= 0")
	}

	if c.ExpectedMove.ATMWindow < 1 {
		errs.add("expected_move.atm_window", c.ExpectedMove.ATMWindow, "must be >= 1")
	}

	in := c.Ingest
	if !(in.DefaultVolatility > 0) {
		errs.add("ingest.default_volatility", in.DefaultVolatility, "must be positive")
	}
	if !(in.PercentIVCutoff > 0) {
		errs.add("ingest.percent_iv_cutoff", in.PercentIVCutoff, "must be positive")
	}
	if in.MaxFileSizeMB < 1 {
		errs.add("ingest.max_file_size_mb", in.MaxFileSizeMB, "must be >= 1")
	}

	if c.Batch.Workers < 1 {
		errs.add("batch.workers", c.Batch.Workers, "must be >= 1")
	}

	cl := c.Client
	if cl.TimeoutSec < 1 {
		errs.add("client.timeout_sec", cl.TimeoutSec, "must be >= 1")
	}
	if cl.RetryCount < 0 {
		errs.add("client.retry_count", cl.RetryCount, "must be >= 0")
	}
	if cl.RatePerSecond < 1 {
		errs.add("client.rate_per_second", cl.RatePerSecond, "must be >= 1")
	}

	if !ValidFormats[c.Output.Format] {
		errs.add("output.format", c.Output.Format, "must be one of: table, json, yaml")
	}
	if !ValidLogLevels[c.Logging.Level] {
		errs.add("logging.level", c.Logging.Level, "must be one of: debug, info, warn, error")
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}
