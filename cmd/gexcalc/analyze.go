package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dgnsrekt/gexbot-analytics/internal/analysis"
)

func analyzeCmd() *cobra.Command {
	var (
		spot   float64
		symbol string
		asOf   string
		format string
		out    string
		remote bool
	)

	cmd := &cobra.Command{
		Use:   "analyze FILE",
		Short: "Compute gamma exposure, walls, metrics and expected move for a chain",
		Long: `Analyze an option chain file (.csv or .jsonl, optionally .zst compressed)
at the given spot price.

Examples:
  # Table report
  gexcalc analyze --spot 580.25 data/spy_2025-11-21.csv

  # JSON report written atomically to a file
  gexcalc analyze --spot 580.25 --format json --out out/spy.json data/spy.csv

  # Run the analysis on a gexcalc server
  gexcalc analyze --spot 580.25 --remote data/spy.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if err := requirePositive("spot", spot); err != nil {
				return err
			}

			loaded, err := loadChain(args[0], asOf, symbol)
			if err != nil {
				return err
			}

			req := analysis.Request{Symbol: symbol, Spot: spot, Contracts: loaded.Contracts}
			if req.Symbol == "" && len(loaded.Contracts) > 0 {
				req.Symbol = loaded.Contracts[0].Symbol
			}

			var report *analysis.Report
			if remote {
				logger.Info("analyzing remotely", zap.String("server", cfg.Client.BaseURL))
				report, err = newClient().Analyze(ctx, req)
			} else {
				var analyzer *analysis.Analyzer
				analyzer, err = analysis.FromConfig(cfg, logger)
				if err != nil {
					return err
				}
				report, err = analyzer.Run(ctx, req)
			}
			if err != nil {
				return fmt.Errorf("analyzing %s: %w", args[0], err)
			}

			return output(report, format, out)
		},
	}

	cmd.Flags().Float64Var(&spot, "spot", 0, "underlying spot price (required)")
	cmd.Flags().StringVar(&symbol, "symbol", "", "symbol for rows without one")
	cmd.Flags().StringVar(&asOf, "as-of", "", "valuation date for expiry columns (YYYY-MM-DD, default today)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "output format: table, json, yaml (default from config)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write output to file instead of stdout")
	cmd.Flags().BoolVar(&remote, "remote", false, "send the chain to the configured analysis server")
	_ = cmd.MarkFlagRequired("spot")

	return cmd
}
