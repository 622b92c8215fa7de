package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/gexbot-analytics/internal/chain"
	"github.com/dgnsrekt/gexbot-analytics/internal/client"
	"github.com/dgnsrekt/gexbot-analytics/internal/export"
)

const dateLayout = "2006-01-02"

// parseAsOf parses an --as-of date, defaulting to today.
func parseAsOf(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --as-of date (use YYYY-MM-DD): %w", err)
	}
	return t, nil
}

// loadChain reads a chain file with the configured ingest options and logs
// every skipped row.
func loadChain(path, asOf, symbol string) (*chain.LoadResult, error) {
	opts := cfg.LoadOptions()
	t, err := parseAsOf(asOf)
	if err != nil {
		return nil, err
	}
	opts.AsOf = t
	if symbol != "" {
		opts.DefaultSymbol = strings.ToUpper(symbol)
	}

	result, err := chain.NewFileLoader(opts, logger).Load(path)
	if err != nil {
		return nil, err
	}
	for _, is := range result.Issues {
		logger.Warn("skipped row", zap.String("file", path), zap.String("issue", is.String()))
	}
	return result, nil
}

func newClient() *client.HTTPClient {
	return client.NewClient(
		cfg.Client.BaseURL,
		cfg.Client.RatePerSecond,
		time.Duration(cfg.Client.TimeoutSec)*time.Second,
		time.Duration(cfg.Client.RetryDelay)*time.Second,
		cfg.Client.RetryCount,
		logger,
	)
}

// output renders v to path atomically, or to stdout when path is empty.
func output(v any, format, path string) error {
	if format == "" {
		format = cfg.Output.Format
	}
	if path == "" {
		return export.Render(os.Stdout, v, format)
	}
	if err := export.WriteFileAtomic(path, func(w io.Writer) error {
		return export.Render(w, v, format)
	}); err != nil {
		return err
	}
	logger.Info("wrote output", zap.String("path", path), zap.String("format", format))
	return nil
}

func requirePositive(name string, v float64) error {
	if !(v > 0) {
		return fmt.Errorf("--%s must be positive, got %v", name, v)
	}
	return nil
}
