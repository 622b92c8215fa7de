package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dgnsrekt/gexbot-analytics/internal/config"
	"github.com/dgnsrekt/gexbot-analytics/internal/export"
	"github.com/dgnsrekt/gexbot-analytics/internal/gamma"
)

func exportCmd() *cobra.Command {
	var (
		spot   float64
		symbol string
		asOf   string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "export FILE",
		Short: "Write the per-contract gamma breakdown as CSV",
		Long: `Price every contract in a chain file and write d1, N'(d1), gamma and signed
exposure per contract to CSV.

Examples:
  gexcalc export --spot 580.25 data/spy.csv
  gexcalc export --spot 580.25 --out audit/spy_breakdown.csv data/spy.csv.zst`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePositive("spot", spot); err != nil {
				return err
			}

			loaded, err := loadChain(args[0], asOf, symbol)
			if err != nil {
				return err
			}

			engine, err := newEngine(cfg)
			if err != nil {
				return err
			}

			rows, issues := export.Breakdowns(engine, loaded.Contracts, spot)
			for _, is := range issues {
				logger.Warn("rejected contract", zap.String("issue", is.String()))
			}
			if len(rows) == 0 {
				return fmt.Errorf("no valid contracts in %s", args[0])
			}

			if out == "" {
				out = defaultExportPath(cfg.Output.Directory, args[0])
			}
			if err := export.WriteFileAtomic(out, func(w io.Writer) error {
				return export.WriteBreakdownCSV(w, rows)
			}); err != nil {
				return err
			}

			logger.Info("export complete",
				zap.String("path", out),
				zap.Int("rows", len(rows)),
				zap.Int("rejected", len(issues)),
			)
			return nil
		},
	}

	cmd.Flags().Float64Var(&spot, "spot", 0, "underlying spot price (required)")
	cmd.Flags().StringVar(&symbol, "symbol", "", "symbol for rows without one")
	cmd.Flags().StringVar(&asOf, "as-of", "", "valuation date for expiry columns (YYYY-MM-DD, default today)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output CSV path (default <output.directory>/<file>_breakdown.csv)")
	_ = cmd.MarkFlagRequired("spot")

	return cmd
}

func newEngine(c *config.Config) (*gamma.Engine, error) {
	params, err := c.Engine.GammaParams()
	if err != nil {
		return nil, err
	}
	return gamma.NewEngine(params)
}

// defaultExportPath maps data/spy.csv.zst to <dir>/spy_breakdown.csv.
func defaultExportPath(dir, input string) string {
	base := filepath.Base(input)
	base = strings.TrimSuffix(base, ".zst")
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, base+"_breakdown.csv")
}
