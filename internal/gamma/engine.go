package gamma

import (
	"fmt"
	"math"

	"github.com/dgnsrekt/gexbot-analytics/internal/chain"
)

const (
	sqrt2Pi = 2.5066282746310002

	// DaysPerYear converts days to expiry into the year fraction used by
	// the pricing formula and the expected move.
	DaysPerYear = 365.0

	// atmBand is the distance from spot, in percent, treated as at the money.
	atmBand = 2.0
)

// Params configures an Engine.
type Params struct {
	RiskFreeRate       float64
	ContractMultiplier float64
	MinVolatility      float64
	MaxVolatility      float64
	Convention         SignConvention
}

func DefaultParams() Params {
	return Params{
		RiskFreeRate:       0.05,
		ContractMultiplier: 100,
		MinVolatility:      0.01,
		MaxVolatility:      2.0,
		Convention:         DealerShort{},
	}
}

// Engine computes Black-Scholes gamma and dealer gamma exposure. It holds no
// mutable state and is safe for concurrent use.
type Engine struct {
	rate       float64
	multiplier float64
	minVol     float64
	maxVol     float64
	convention SignConvention
}

func NewEngine(p Params) (*Engine, error) {
	if math.IsNaN(p.RiskFreeRate) || p.RiskFreeRate < 0 || p.RiskFreeRate > 1 {
		return nil, fmt.Errorf("%w: risk free rate %v outside [0, 1]", ErrInvalidParams, p.RiskFreeRate)
	}
	if !(p.ContractMultiplier > 0) || math.IsInf(p.ContractMultiplier, 0) {
		return nil, fmt.Errorf("%w: contract multiplier must be positive, got %v", ErrInvalidParams, p.ContractMultiplier)
	}
	if !(p.MinVolatility > 0) || !(p.MaxVolatility >= p.MinVolatility) || math.IsInf(p.MaxVolatility, 0) {
		return nil, fmt.Errorf("%w: volatility bounds [%v, %v]", ErrInvalidParams, p.MinVolatility, p.MaxVolatility)
	}
	if p.Convention == nil {
		return nil, fmt.Errorf("%w: sign convention is required", ErrInvalidParams)
	}

	return &Engine{
		rate:       p.RiskFreeRate,
		multiplier: p.ContractMultiplier,
		minVol:     p.MinVolatility,
		maxVol:     p.MaxVolatility,
		convention: p.Convention,
	}, nil
}

func (e *Engine) RiskFreeRate() float64      { return e.rate }
func (e *Engine) Multiplier() float64        { return e.multiplier }
func (e *Engine) Convention() SignConvention { return e.convention }

// YearFraction converts days to expiry into years.
func YearFraction(days float64) float64 {
	return days / DaysPerYear
}

// NormPDF is the standard normal density.
func NormPDF(x float64) float64 {
	return math.Exp(-0.5*x*x) / sqrt2Pi
}

// D1 is the Black-Scholes d1 term.
//
// Parameters:
//   - spot: price of the underlying
//   - strike: strike price of the option
//   - tau: time to expiry in years, must be positive
//   - rate: annual risk-free rate
//   - vol: annual volatility as a decimal, must be positive
func D1(spot, strike, tau, rate, vol float64) float64 {
	return (math.Log(spot/strike) + (rate+0.5*vol*vol)*tau) / (vol * math.Sqrt(tau))
}

// boundVolatility clamps vol into the engine's band. Non-finite and
// non-positive values map to the lower bound.
func (e *Engine) boundVolatility(vol float64) float64 {
	if math.IsNaN(vol) || vol < e.minVol {
		return e.minVol
	}
	if vol > e.maxVol {
		return e.maxVol
	}
	return vol
}

// Gamma returns the Black-Scholes gamma of an option. The value does not
// depend on whether the option is a call or a put.
//
// Returns 0 when tau <= 0 (expired) or when spot or strike are not positive.
// Volatility is clamped to the configured bounds before use.
func (e *Engine) Gamma(spot, strike, tau, vol float64) float64 {
	g, _, _ := e.gamma(spot, strike, tau, vol)
	return g
}

func (e *Engine) gamma(spot, strike, tau, vol float64) (g, d1, pdf float64) {
	if !(tau > 0) || !(spot > 0) || !(strike > 0) {
		return 0, 0, 0
	}
	vol = e.boundVolatility(vol)
	d1 = D1(spot, strike, tau, e.rate, vol)
	pdf = NormPDF(d1)
	return pdf / (spot * vol * math.Sqrt(tau)), d1, pdf
}

// Exposure returns the signed dealer gamma exposure of a contract at the
// given spot: gamma * open interest * multiplier * spot^2 with the sign set
// by the engine's convention.
func (e *Engine) Exposure(c chain.OptionContract, spot float64) (float64, error) {
	b, err := e.Breakdown(c, spot)
	if err != nil {
		return 0, err
	}
	return b.Exposure, nil
}

// Breakdown lists every intermediate of the exposure calculation for one
// contract.
func (e *Engine) Breakdown(c chain.OptionContract, spot float64) (Breakdown, error) {
	if err := c.Validate(); err != nil {
		return Breakdown{}, err
	}
	if math.IsNaN(spot) || math.IsInf(spot, 0) || spot <= 0 {
		return Breakdown{}, fmt.Errorf("%w: %v", ErrInvalidSpot, spot)
	}

	tau := YearFraction(c.DaysToExpiry)
	vol := e.boundVolatility(c.ImpliedVolatility)
	g, d1, pdf := e.gamma(spot, c.Strike, tau, vol)
	base := g * float64(c.OpenInterest) * e.multiplier * spot * spot

	distance := c.Strike - spot
	distancePct := distance / spot * 100

	return Breakdown{
		Symbol:            c.Symbol,
		Strike:            c.Strike,
		Type:              c.Type,
		DaysToExpiry:      c.DaysToExpiry,
		TimeToExpiry:      tau,
		ImpliedVolatility: c.ImpliedVolatility,
		Volatility:        vol,
		OpenInterest:      c.OpenInterest,
		D1:                d1,
		NormPDF:           pdf,
		Gamma:             g,
		Multiplier:        e.multiplier,
		RiskFreeRate:      e.rate,
		ExposureBase:      base,
		Exposure:          e.convention.Sign(c.Type) * base,
		SignLabel:         e.convention.Label(c.Type),
		Spot:              spot,
		Distance:          distance,
		DistancePct:       distancePct,
		Moneyness:         Moneyness(c.Type, c.Strike, spot),
	}, nil
}

// Moneyness classifies a contract relative to spot. Strikes within 2% of
// spot are ATM.
func Moneyness(t chain.OptionType, strike, spot float64) string {
	if math.Abs((strike-spot)/spot*100) < atmBand {
		return "ATM"
	}
	itm := strike < spot
	if t == chain.Put {
		itm = strike > spot
	}
	if itm {
		return "ITM"
	}
	return "OTM"
}
