package main

import (
	"github.com/spf13/cobra"

	"github.com/dgnsrekt/gexbot-analytics/internal/chain"
)

func summaryCmd() *cobra.Command {
	var (
		asOf   string
		format string
	)

	cmd := &cobra.Command{
		Use:   "summary FILE",
		Short: "Describe a chain file: strikes, expiries and trading days to expiry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := loadChain(args[0], asOf, "")
			if err != nil {
				return err
			}
			t, err := parseAsOf(asOf)
			if err != nil {
				return err
			}
			return output(chain.Summarize(loaded.Contracts, t), format, "")
		},
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "valuation date for expiry columns (YYYY-MM-DD, default today)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "output format: table, json, yaml (default from config)")

	return cmd
}
