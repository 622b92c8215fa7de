package gamma

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgnsrekt/gexbot-analytics/internal/chain"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultParams())
	require.NoError(t, err)
	return e
}

func atmCall() chain.OptionContract {
	return chain.OptionContract{
		Symbol:            "TEST",
		Strike:            100,
		Type:              chain.Call,
		OpenInterest:      1000,
		ImpliedVolatility: 0.20,
		DaysToExpiry:      30,
	}
}

func TestGamma_ATMReference(t *testing.T) {
	e := newTestEngine(t)

	b, err := e.Breakdown(atmCall(), 100)
	require.NoError(t, err)

	assert.InDelta(t, 0.100342, b.D1, 1e-6)
	assert.InDelta(t, 0.396939, b.NormPDF, 1e-6)
	assert.InDelta(t, 0.0692276, b.Gamma, 1e-7)
	assert.InDelta(t, 6.92276e7, b.ExposureBase, 1e2)
	assert.InDelta(t, -6.92276e7, b.Exposure, 1e2)
	assert.Equal(t, "ATM", b.Moneyness)
	assert.InDelta(t, 30.0/365.0, b.TimeToExpiry, 1e-12)
}

func TestGamma_MatchesClosedForm(t *testing.T) {
	e := newTestEngine(t)
	spot, strike, tau, vol := 580.0, 600.0, 45.0/365, 0.18

	d1 := (math.Log(spot/strike) + (0.05+0.5*vol*vol)*tau) / (vol * math.Sqrt(tau))
	want := math.Exp(-d1*d1/2) / math.Sqrt(2*math.Pi) / (spot * vol * math.Sqrt(tau))

	assert.InDelta(t, want, e.Gamma(spot, strike, tau, vol), 1e-15)
}

func TestGamma_PositiveForPositiveInputs(t *testing.T) {
	e := newTestEngine(t)
	for _, strike := range []float64{80, 95, 100, 105, 120} {
		for _, days := range []float64{7, 30, 180, 365} {
			for _, vol := range []float64{0.2, 0.6, 1.5} {
				g := e.Gamma(100, strike, YearFraction(days), vol)
				assert.Greater(t, g, 0.0, "strike=%v days=%v vol=%v", strike, days, vol)
			}
		}
	}
}

func TestGamma_ExpiredIsZero(t *testing.T) {
	e := newTestEngine(t)
	assert.Equal(t, 0.0, e.Gamma(100, 100, 0, 0.2))
	assert.Equal(t, 0.0, e.Gamma(100, 100, -0.1, 0.2))
	assert.Equal(t, 0.0, e.Gamma(0, 100, 0.1, 0.2))
}

func TestGamma_VolatilityClamped(t *testing.T) {
	e := newTestEngine(t)
	tau := YearFraction(30)

	assert.Equal(t, e.Gamma(100, 100, tau, 0.01), e.Gamma(100, 100, tau, 0.0001))
	assert.Equal(t, e.Gamma(100, 100, tau, 2.0), e.Gamma(100, 100, tau, 5.0))
	assert.False(t, math.IsNaN(e.Gamma(100, 100, tau, math.NaN())))
	assert.False(t, math.IsInf(e.Gamma(100, 100, tau, 0), 0))
}

func TestExposure_CallPutSymmetry(t *testing.T) {
	e := newTestEngine(t)
	call := atmCall()
	put := call
	put.Type = chain.Put

	callGamma, err := e.Breakdown(call, 100)
	require.NoError(t, err)
	putGamma, err := e.Breakdown(put, 100)
	require.NoError(t, err)

	assert.Equal(t, callGamma.Gamma, putGamma.Gamma)
	assert.Equal(t, callGamma.ExposureBase, putGamma.ExposureBase)
	assert.Less(t, callGamma.Exposure, 0.0)
	assert.Greater(t, putGamma.Exposure, 0.0)
	assert.Equal(t, 0.0, callGamma.Exposure+putGamma.Exposure)
}

func TestExposure_DealerLongFlipsSign(t *testing.T) {
	p := DefaultParams()
	p.Convention = DealerLong{}
	e, err := NewEngine(p)
	require.NoError(t, err)

	exp, err := e.Exposure(atmCall(), 100)
	require.NoError(t, err)
	assert.Greater(t, exp, 0.0)
}

func TestExposure_ZeroOpenInterest(t *testing.T) {
	e := newTestEngine(t)
	c := atmCall()
	c.OpenInterest = 0

	exp, err := e.Exposure(c, 100)
	require.NoError(t, err)
	assert.Equal(t, 0.0, math.Abs(exp))
}

func TestExposure_RejectsInvalidContracts(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		name   string
		mutate func(c *chain.OptionContract)
		want   error
	}{
		{"zero iv", func(c *chain.OptionContract) { c.ImpliedVolatility = 0 }, chain.ErrInvalidVolatility},
		{"inf iv", func(c *chain.OptionContract) { c.ImpliedVolatility = math.Inf(1) }, chain.ErrInvalidVolatility},
		{"negative inf iv", func(c *chain.OptionContract) { c.ImpliedVolatility = math.Inf(-1) }, chain.ErrInvalidVolatility},
		{"negative strike", func(c *chain.OptionContract) { c.Strike = -5 }, chain.ErrInvalidStrike},
		{"inf strike", func(c *chain.OptionContract) { c.Strike = math.Inf(1) }, chain.ErrInvalidStrike},
		{"negative dte", func(c *chain.OptionContract) { c.DaysToExpiry = -5 }, chain.ErrInvalidExpiry},
		{"inf dte", func(c *chain.OptionContract) { c.DaysToExpiry = math.Inf(1) }, chain.ErrInvalidExpiry},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := atmCall()
			tt.mutate(&c)
			_, err := e.Exposure(c, 100)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := e.Exposure(atmCall(), 0)
	assert.ErrorIs(t, err, ErrInvalidSpot)

	expired := atmCall()
	expired.DaysToExpiry = 0
	exp, err := e.Exposure(expired, 100)
	require.NoError(t, err)
	assert.Zero(t, exp)
}

func TestNewEngine_InvalidParams(t *testing.T) {
	tests := map[string]func(p *Params){
		"negative rate":      func(p *Params) { p.RiskFreeRate = -0.01 },
		"rate above one":     func(p *Params) { p.RiskFreeRate = 1.5 },
		"zero multiplier":    func(p *Params) { p.ContractMultiplier = 0 },
		"zero min vol":       func(p *Params) { p.MinVolatility = 0 },
		"inverted vol band":  func(p *Params) { p.MaxVolatility = 0.001 },
		"missing convention": func(p *Params) { p.Convention = nil },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			p := DefaultParams()
			mutate(&p)
			_, err := NewEngine(p)
			assert.ErrorIs(t, err, ErrInvalidParams)
		})
	}
}

func TestConventionByName(t *testing.T) {
	c, err := ConventionByName("Dealer_Short")
	require.NoError(t, err)
	assert.Equal(t, "dealer_short", c.Name())

	_, err = ConventionByName("market_maker")
	assert.ErrorIs(t, err, ErrInvalidParams)
	assert.Equal(t, []string{"dealer_long", "dealer_short"}, ConventionNames())
}

func TestMoneyness(t *testing.T) {
	assert.Equal(t, "ATM", Moneyness(chain.Call, 101, 100))
	assert.Equal(t, "ITM", Moneyness(chain.Call, 90, 100))
	assert.Equal(t, "OTM", Moneyness(chain.Call, 110, 100))
	assert.Equal(t, "ITM", Moneyness(chain.Put, 110, 100))
	assert.Equal(t, "OTM", Moneyness(chain.Put, 90, 100))
}
