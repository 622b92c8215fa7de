package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dgnsrekt/gexbot-analytics/internal/analysis"
	"github.com/dgnsrekt/gexbot-analytics/internal/batch"
	"github.com/dgnsrekt/gexbot-analytics/internal/chain"
	"github.com/dgnsrekt/gexbot-analytics/internal/notify"
)

func batchCmd() *cobra.Command {
	var (
		asOf   string
		format string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "batch PATH:SPOT[:SYMBOL]...",
		Short: "Analyze several chain files and print one summary row per file",
		Long: `Analyze several chain files concurrently (batch.workers) and summarise the
gamma environment, flip level and top walls of each.

Set NTFY_ENABLED=true and NTFY_TOPIC to publish a summary to ntfy when the
batch finishes.

Examples:
  gexcalc batch data/spy.csv:580.25 data/qqq.csv:501.1:QQQ data/iwm.jsonl.zst:221

Fields are read from the right, so paths containing colons (C:\data\spy.csv:580) work.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks := make([]batch.Task, 0, len(args))
			for _, arg := range args {
				t, err := batch.ParseTask(arg)
				if err != nil {
					return err
				}
				tasks = append(tasks, t)
			}

			opts := cfg.LoadOptions()
			t, err := parseAsOf(asOf)
			if err != nil {
				return err
			}
			opts.AsOf = t

			analyzer, err := analysis.FromConfig(cfg, logger)
			if err != nil {
				return err
			}

			mgr := batch.NewManager(chain.NewFileLoader(opts, logger), analyzer, cfg.Batch.Workers, logger)
			result, err := mgr.Execute(cmd.Context(), tasks)
			if err != nil {
				return err
			}

			if err := output(result, format, out); err != nil {
				return err
			}
			notifyBatch(cmd, result)
			if result.Failed > 0 {
				return fmt.Errorf("%d of %d files failed", result.Failed, result.Total)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "valuation date for expiry columns (YYYY-MM-DD, default today)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "output format: table, json, yaml (default from config)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write output to file instead of stdout")

	return cmd
}

// notifyBatch publishes the batch outcome. Notification problems are logged
// and never fail the command.
func notifyBatch(cmd *cobra.Command, result *batch.BatchResult) {
	ntfyCfg, err := notify.LoadConfig()
	if err != nil {
		logger.Warn("notifications disabled", zap.Error(err))
		return
	}
	if err := notify.New(ntfyCfg, logger).BatchComplete(cmd.Context(), result); err != nil {
		logger.Warn("failed to send batch notification", zap.Error(err))
	}
}
