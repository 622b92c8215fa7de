package export

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"github.com/dgnsrekt/gexbot-analytics/internal/chain"
	"github.com/dgnsrekt/gexbot-analytics/internal/gamma"
)

// BreakdownRow is one line of the per-contract audit CSV.
type BreakdownRow struct {
	Symbol            string  `csv:"symbol"`
	Strike            float64 `csv:"strike"`
	OptionType        string  `csv:"option_type"`
	DaysToExpiry      float64 `csv:"days_to_expiry"`
	TimeToExpiry      float64 `csv:"time_to_expiry_years"`
	ImpliedVolatility float64 `csv:"implied_volatility"`
	VolatilityUsed    float64 `csv:"volatility_used"`
	OpenInterest      int64   `csv:"open_interest"`
	D1                float64 `csv:"d1"`
	NormPDF           float64 `csv:"norm_pdf_d1"`
	Gamma             float64 `csv:"gamma"`
	ExposureBase      float64 `csv:"exposure_base"`
	Exposure          float64 `csv:"gamma_exposure"`
	SignLabel         string  `csv:"sign"`
	DistancePct       float64 `csv:"distance_pct"`
	Moneyness         string  `csv:"moneyness"`
}

func rowFrom(b gamma.Breakdown) BreakdownRow {
	return BreakdownRow{
		Symbol:            b.Symbol,
		Strike:            b.Strike,
		OptionType:        string(b.Type),
		DaysToExpiry:      b.DaysToExpiry,
		TimeToExpiry:      b.TimeToExpiry,
		ImpliedVolatility: b.ImpliedVolatility,
		VolatilityUsed:    b.Volatility,
		OpenInterest:      b.OpenInterest,
		D1:                b.D1,
		NormPDF:           b.NormPDF,
		Gamma:             b.Gamma,
		ExposureBase:      b.ExposureBase,
		Exposure:          b.Exposure,
		SignLabel:         b.SignLabel,
		DistancePct:       b.DistancePct,
		Moneyness:         b.Moneyness,
	}
}

// Breakdowns prices every contract and returns one row per valid contract in
// input order. Contracts the engine rejects are returned as issues.
func Breakdowns(engine *gamma.Engine, contracts []chain.OptionContract, spot float64) ([]BreakdownRow, []chain.Issue) {
	rows := make([]BreakdownRow, 0, len(contracts))
	var issues []chain.Issue
	for i, c := range contracts {
		b, err := engine.Breakdown(c, spot)
		if err != nil {
			issues = append(issues, chain.IssueFor(i, c, err))
			continue
		}
		rows = append(rows, rowFrom(b))
	}
	return rows, issues
}

func WriteBreakdownCSV(w io.Writer, rows []BreakdownRow) error {
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("writing breakdown csv: %w", err)
	}
	return nil
}
