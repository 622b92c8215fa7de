package metrics

import (
	"math"

	"github.com/montanaflynn/stats"

	"github.com/dgnsrekt/gexbot-analytics/internal/chain"
	"github.com/dgnsrekt/gexbot-analytics/internal/strike"
)

// Metrics are chain-wide totals and dispersion of per-strike exposure.
type Metrics struct {
	TotalNetGamma          float64 `json:"total_net_gamma"`
	TotalCallGamma         float64 `json:"total_call_gamma"`
	TotalPutGamma          float64 `json:"total_put_gamma"`
	TotalOpenInterest      int64   `json:"total_open_interest"`
	GammaWeightedAvgStrike Float   `json:"gamma_weighted_avg_strike"`
	CallPutGammaRatio      Float   `json:"call_put_gamma_ratio"`
	NetGammaStdDev         float64 `json:"net_gamma_std_dev"`
	// MaxCallExposure is the most negative call exposure, 0 when none is negative.
	MaxCallExposure float64 `json:"max_call_exposure"`
	// MaxPutExposure is the most positive put exposure, 0 when none is positive.
	MaxPutExposure float64 `json:"max_put_exposure"`
	StrikeCount    int     `json:"strike_count"`
}

// Compute derives Metrics from aggregates. Degenerate ratios are reported as
// undefined or +Inf rather than as errors.
func Compute(aggs []strike.Aggregate) (Metrics, error) {
	if len(aggs) == 0 {
		return Metrics{}, &chain.NoContractsError{}
	}

	m := Metrics{StrikeCount: len(aggs)}
	var weighted, absNet float64
	for _, s := range aggs {
		m.TotalNetGamma += s.NetGammaExposure
		m.TotalCallGamma += s.CallGammaExposure
		m.TotalPutGamma += s.PutGammaExposure
		m.TotalOpenInterest += s.TotalOpenInterest

		abs := math.Abs(s.NetGammaExposure)
		weighted += s.Strike * abs
		absNet += abs

		m.MaxCallExposure = math.Min(m.MaxCallExposure, s.CallGammaExposure)
		m.MaxPutExposure = math.Max(m.MaxPutExposure, s.PutGammaExposure)
	}

	m.GammaWeightedAvgStrike = Undefined()
	if absNet > 0 {
		m.GammaWeightedAvgStrike = Float(weighted / absNet)
	}

	if m.TotalPutGamma == 0 {
		m.CallPutGammaRatio = Float(math.Inf(1))
	} else {
		m.CallPutGammaRatio = Float(math.Abs(m.TotalCallGamma / m.TotalPutGamma))
	}

	std, err := stats.StandardDeviationPopulation(strike.Net(aggs))
	if err != nil {
		return Metrics{}, err
	}
	m.NetGammaStdDev = std

	return m, nil
}
