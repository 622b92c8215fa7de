package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dgnsrekt/gexbot-analytics/internal/chain"
	"github.com/dgnsrekt/gexbot-analytics/internal/move"
)

func moveCmd() *cobra.Command {
	var (
		spot   float64
		iv     float64
		dte    float64
		asOf   string
		format string
		remote bool
	)

	cmd := &cobra.Command{
		Use:   "move [FILE]",
		Short: "Expected 1SD and 2SD move from implied volatility",
		Long: `Compute the expected move either from an explicit volatility and days to
expiry, or from the ATM volatility of a chain file.

Examples:
  # Explicit inputs
  gexcalc move --spot 580 --iv 0.20 --dte 30

  # ATM volatility of the 10 contracts nearest spot
  gexcalc move --spot 580 data/spy.csv`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePositive("spot", spot); err != nil {
				return err
			}

			if len(args) == 1 {
				loaded, err := loadChain(args[0], asOf, "")
				if err != nil {
					return err
				}
				engine, err := move.NewEngine(cfg.ExpectedMove.ATMWindow)
				if err != nil {
					return err
				}
				em, err := engine.Compute(validContracts(loaded.Contracts), spot)
				if err != nil {
					return fmt.Errorf("expected move for %s: %w", args[0], err)
				}
				return output(em, format, "")
			}

			if err := requirePositive("iv", iv); err != nil {
				return err
			}
			if err := requirePositive("dte", dte); err != nil {
				return err
			}

			if remote {
				m, err := newClient().ExpectedMove(cmd.Context(), spot, iv, dte)
				if err != nil {
					return err
				}
				return output(*m, format, "")
			}
			return output(move.Calculate(spot, iv, dte), format, "")
		},
	}

	cmd.Flags().Float64Var(&spot, "spot", 0, "underlying spot price (required)")
	cmd.Flags().Float64Var(&iv, "iv", 0, "annualised implied volatility as a decimal (0.20 = 20%)")
	cmd.Flags().Float64Var(&dte, "dte", 0, "calendar days to expiry")
	cmd.Flags().StringVar(&asOf, "as-of", "", "valuation date for expiry columns (YYYY-MM-DD, default today)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "output format: table, json, yaml (default from config)")
	cmd.Flags().BoolVar(&remote, "remote", false, "ask the configured analysis server")
	_ = cmd.MarkFlagRequired("spot")

	return cmd
}

// validContracts drops contracts the gamma engine would reject so the ATM
// window only averages usable volatilities.
func validContracts(contracts []chain.OptionContract) []chain.OptionContract {
	out := make([]chain.OptionContract, 0, len(contracts))
	for i, c := range contracts {
		if err := c.Validate(); err != nil {
			logger.Warn("rejected contract", zap.String("issue", chain.IssueFor(i, c, err).String()))
			continue
		}
		out = append(out, c)
	}
	return out
}
