package metrics

import (
	"math"
	"sort"

	"github.com/dgnsrekt/gexbot-analytics/internal/chain"
	"github.com/dgnsrekt/gexbot-analytics/internal/strike"
)

type EnvironmentKind string

const (
	Positive EnvironmentKind = "positive"
	Negative EnvironmentKind = "negative"
	Neutral  EnvironmentKind = "neutral"
)

type StrengthLevel string

const (
	VeryWeak          StrengthLevel = "very_weak"
	Weak              StrengthLevel = "weak"
	Moderate          StrengthLevel = "moderate"
	Strong            StrengthLevel = "strong"
	VeryStrong        StrengthLevel = "very_strong"
	UndefinedStrength StrengthLevel = "undefined"
)

// Strength level boundaries, lower bound inclusive.
const (
	weakThreshold       = 0.01
	moderateThreshold   = 0.02
	strongThreshold     = 0.05
	veryStrongThreshold = 0.10
)

// LevelFor maps a normalised strength onto its level.
func LevelFor(strength Float) StrengthLevel {
	v := float64(strength)
	switch {
	case !strength.Defined():
		return UndefinedStrength
	case v >= veryStrongThreshold:
		return VeryStrong
	case v >= strongThreshold:
		return Strong
	case v >= moderateThreshold:
		return Moderate
	case v >= weakThreshold:
		return Weak
	default:
		return VeryWeak
	}
}

// StrikeDistribution counts strikes by the sign of their net exposure.
type StrikeDistribution struct {
	Positive    int     `json:"positive_strikes"`
	Negative    int     `json:"negative_strikes"`
	Neutral     int     `json:"neutral_strikes"`
	PositivePct float64 `json:"positive_pct"`
	NegativePct float64 `json:"negative_pct"`
	NeutralPct  float64 `json:"neutral_pct"`
}

type Environment struct {
	Environment    EnvironmentKind    `json:"environment"`
	Strength       Float              `json:"strength"`
	StrengthLevel  StrengthLevel      `json:"strength_level"`
	GammaFlipLevel *float64           `json:"gamma_flip_level"`
	TotalNetGamma  float64            `json:"total_net_gamma"`
	Distribution   StrikeDistribution `json:"distribution"`
	Description    string             `json:"description"`
}

var descriptions = map[EnvironmentKind]string{
	Positive: "Dealers are net long gamma: hedging sells rallies and buys dips, damping moves.",
	Negative: "Dealers are net short gamma: hedging buys rallies and sells dips, amplifying moves.",
	Neutral:  "Dealer gamma is balanced: hedging flows add little directional pressure.",
}

// Classify determines the gamma environment at spot. Strength is net exposure
// normalised by spot times total open interest and is undefined when either
// is zero.
func Classify(aggs []strike.Aggregate, spot float64) (Environment, error) {
	if len(aggs) == 0 {
		return Environment{}, &chain.NoContractsError{}
	}

	var total float64
	var oi int64
	var dist StrikeDistribution
	for _, s := range aggs {
		total += s.NetGammaExposure
		oi += s.TotalOpenInterest
		switch {
		case s.NetGammaExposure > 0:
			dist.Positive++
		case s.NetGammaExposure < 0:
			dist.Negative++
		default:
			dist.Neutral++
		}
	}
	n := float64(len(aggs))
	dist.PositivePct = float64(dist.Positive) / n * 100
	dist.NegativePct = float64(dist.Negative) / n * 100
	dist.NeutralPct = float64(dist.Neutral) / n * 100

	env := Environment{
		TotalNetGamma:  total,
		Distribution:   dist,
		GammaFlipLevel: FlipLevel(aggs),
	}
	switch {
	case total > 0:
		env.Environment = Positive
	case total < 0:
		env.Environment = Negative
	default:
		env.Environment = Neutral
	}
	env.Description = descriptions[env.Environment]

	env.Strength = Undefined()
	if oi > 0 && spot > 0 && !math.IsInf(spot, 0) {
		env.Strength = Float(math.Abs(total) / (spot * float64(oi)))
	}
	env.StrengthLevel = LevelFor(env.Strength)

	return env, nil
}

func oppositeSigns(a, b float64) bool {
	return (a > 0 && b < 0) || (a < 0 && b > 0)
}

// FlipLevel returns the midpoint of the first adjacent strike pair, in
// ascending strike order, whose net exposures have strictly opposite signs.
// It returns nil when net exposure never changes sign.
func FlipLevel(aggs []strike.Aggregate) *float64 {
	for i := 0; i+1 < len(aggs); i++ {
		if oppositeSigns(aggs[i].NetGammaExposure, aggs[i+1].NetGammaExposure) {
			mid := (aggs[i].Strike + aggs[i+1].Strike) / 2
			return &mid
		}
	}
	return nil
}

// Crossing is one sign change of net exposure between adjacent strikes.
type Crossing struct {
	LowerStrike  float64 `json:"lower_strike"`
	UpperStrike  float64 `json:"upper_strike"`
	LowerNet     float64 `json:"lower_net"`
	UpperNet     float64 `json:"upper_net"`
	Midpoint     float64 `json:"midpoint"`
	Interpolated float64 `json:"interpolated"`
	Magnitude    float64 `json:"magnitude"`
}

// Crossings lists every sign change in ascending strike order. Interpolated
// is the zero of the straight line through the two net values.
func Crossings(aggs []strike.Aggregate) []Crossing {
	var out []Crossing
	for i := 0; i+1 < len(aggs); i++ {
		lo, hi := aggs[i], aggs[i+1]
		if !oppositeSigns(lo.NetGammaExposure, hi.NetGammaExposure) {
			continue
		}
		a, b := math.Abs(lo.NetGammaExposure), math.Abs(hi.NetGammaExposure)
		out = append(out, Crossing{
			LowerStrike:  lo.Strike,
			UpperStrike:  hi.Strike,
			LowerNet:     lo.NetGammaExposure,
			UpperNet:     hi.NetGammaExposure,
			Midpoint:     (lo.Strike + hi.Strike) / 2,
			Interpolated: lo.Strike + (hi.Strike-lo.Strike)*a/(a+b),
			Magnitude:    a + b,
		})
	}
	return out
}

// DominantFlipLevel is a diagnostic: the interpolated level of the crossing
// with the largest magnitude jump. Ties go to the lower strike.
func DominantFlipLevel(aggs []strike.Aggregate) *float64 {
	cs := Crossings(aggs)
	if len(cs) == 0 {
		return nil
	}
	sort.SliceStable(cs, func(i, j int) bool { return cs[i].Magnitude > cs[j].Magnitude })
	level := cs[0].Interpolated
	return &level
}
