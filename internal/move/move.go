package move

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/dgnsrekt/gexbot-analytics/internal/chain"
)

const (
	daysPerYear = 365.0

	// Probability1SD and Probability2SD are the normal-distribution coverage,
	// in percent, of one and two standard deviations.
	Probability1SD = 68.2
	Probability2SD = 95.4

	DefaultATMWindow = 10
)

var ErrInvalidParams = errors.New("invalid expected move parameters")

// Move is the implied one and two standard deviation range around spot.
type Move struct {
	CurrentPrice   float64 `json:"current_price"`
	ImpliedVol     float64 `json:"implied_volatility"`
	DaysToExpiry   float64 `json:"days_to_expiry"`
	Move1SD        float64 `json:"move_1sd"`
	Move2SD        float64 `json:"move_2sd"`
	Upper1SD       float64 `json:"upper_1sd"`
	Lower1SD       float64 `json:"lower_1sd"`
	Upper2SD       float64 `json:"upper_2sd"`
	Lower2SD       float64 `json:"lower_2sd"`
	MovePct1SD     float64 `json:"move_pct_1sd"`
	MovePct2SD     float64 `json:"move_pct_2sd"`
	Probability1SD float64 `json:"probability_1sd"`
	Probability2SD float64 `json:"probability_2sd"`
}

// Calculate returns the expected move for an annualised volatility over dte
// calendar days: spot * iv * sqrt(dte / 365).
func Calculate(spot, iv, dte float64) Move {
	m1 := spot * iv * math.Sqrt(dte/daysPerYear)
	m2 := 2 * m1

	m := Move{
		CurrentPrice:   spot,
		ImpliedVol:     iv,
		DaysToExpiry:   dte,
		Move1SD:        m1,
		Move2SD:        m2,
		Upper1SD:       spot + m1,
		Lower1SD:       spot - m1,
		Upper2SD:       spot + m2,
		Lower2SD:       spot - m2,
		Probability1SD: Probability1SD,
		Probability2SD: Probability2SD,
	}
	if spot != 0 {
		m.MovePct1SD = m1 / spot * 100
		m.MovePct2SD = m2 / spot * 100
	}
	return m
}

// ATMStats describes implied volatility near the money.
type ATMStats struct {
	ATMImpliedVol    float64 `json:"atm_implied_volatility"`
	OverallAverageIV float64 `json:"overall_average_iv"`
	AverageDTE       float64 `json:"average_days_to_expiry"`
	ATMContracts     int     `json:"atm_contracts"`
	ClosestStrike    float64 `json:"closest_strike"`
	TotalContracts   int     `json:"total_contracts"`
}

// ExpectedMove combines ATM statistics with the move they imply.
type ExpectedMove struct {
	Move
	ATM ATMStats `json:"atm"`
}

type Engine struct {
	window int
}

// NewEngine builds an engine averaging the window contracts nearest spot.
func NewEngine(window int) (*Engine, error) {
	if window < 1 {
		return nil, fmt.Errorf("%w: atm window must be >= 1, got %d", ErrInvalidParams, window)
	}
	return &Engine{window: window}, nil
}

// ATMStatistics averages IV over the min(window, n) contracts closest to
// spot. Ties in distance keep their input order.
func (e *Engine) ATMStatistics(contracts []chain.OptionContract, spot float64) (ATMStats, error) {
	if len(contracts) == 0 {
		return ATMStats{}, &chain.NoContractsError{}
	}

	ivs := make([]float64, len(contracts))
	dtes := make([]float64, len(contracts))
	idx := make([]int, len(contracts))
	for i, c := range contracts {
		ivs[i] = c.ImpliedVolatility
		dtes[i] = c.DaysToExpiry
		idx[i] = i
	}

	sort.SliceStable(idx, func(a, b int) bool {
		return math.Abs(contracts[idx[a]].Strike-spot) < math.Abs(contracts[idx[b]].Strike-spot)
	})

	n := e.window
	if n > len(idx) {
		n = len(idx)
	}
	atm := make([]float64, n)
	for i := 0; i < n; i++ {
		atm[i] = ivs[idx[i]]
	}

	var s ATMStats
	var err error
	if s.ATMImpliedVol, err = stats.Mean(atm); err != nil {
		return ATMStats{}, err
	}
	if s.OverallAverageIV, err = stats.Mean(ivs); err != nil {
		return ATMStats{}, err
	}
	if s.AverageDTE, err = stats.Mean(dtes); err != nil {
		return ATMStats{}, err
	}
	s.ATMContracts = n
	s.ClosestStrike = contracts[idx[0]].Strike
	s.TotalContracts = len(contracts)
	return s, nil
}

// Compute derives the expected move from the chain's ATM volatility and
// average days to expiry.
func (e *Engine) Compute(contracts []chain.OptionContract, spot float64) (ExpectedMove, error) {
	atm, err := e.ATMStatistics(contracts, spot)
	if err != nil {
		return ExpectedMove{}, err
	}
	return ExpectedMove{
		Move: Calculate(spot, atm.ATMImpliedVol, atm.AverageDTE),
		ATM:  atm,
	}, nil
}
