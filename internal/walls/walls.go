package walls

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/dgnsrekt/gexbot-analytics/internal/strike"
)

var ErrInvalidParams = errors.New("invalid wall parameters")

// Type distinguishes call from put walls.
type Type string

const (
	CallWall Type = "call_wall"
	PutWall  Type = "put_wall"
)

// Wall is a strike whose exposure dominates its side of the chain.
type Wall struct {
	Strike           float64 `json:"strike"`
	ExposureValue    float64 `json:"exposure_value"`
	Type             Type    `json:"type"`
	DistanceFromSpot float64 `json:"distance_from_spot"`
	SignificanceRank int     `json:"significance_rank"`
}

// Walls holds both sides of a detection pass.
type Walls struct {
	Call []Wall `json:"call_walls"`
	Put  []Wall `json:"put_walls"`
}

// All returns call walls followed by put walls.
func (w Walls) All() []Wall {
	out := make([]Wall, 0, len(w.Call)+len(w.Put))
	out = append(out, w.Call...)
	return append(out, w.Put...)
}

type Analyzer struct {
	threshold float64
	maxWalls  int
}

// NewAnalyzer builds an analyzer keeping walls whose share of total same-side
// magnitude is at least threshold, up to maxWalls per side.
func NewAnalyzer(threshold float64, maxWalls int) (*Analyzer, error) {
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("%w: significance threshold %v outside [0, 1]", ErrInvalidParams, threshold)
	}
	if maxWalls < 1 {
		return nil, fmt.Errorf("%w: max walls must be >= 1, got %d", ErrInvalidParams, maxWalls)
	}
	return &Analyzer{threshold: threshold, maxWalls: maxWalls}, nil
}

// CallWalls ranks strikes carrying negative call exposure.
func (a *Analyzer) CallWalls(aggs []strike.Aggregate, spot float64) []Wall {
	return a.detect(aggs, spot, CallWall, func(s strike.Aggregate) (float64, bool) {
		return s.CallGammaExposure, s.CallGammaExposure < 0
	})
}

// PutWalls ranks strikes carrying positive put exposure.
func (a *Analyzer) PutWalls(aggs []strike.Aggregate, spot float64) []Wall {
	return a.detect(aggs, spot, PutWall, func(s strike.Aggregate) (float64, bool) {
		return s.PutGammaExposure, s.PutGammaExposure > 0
	})
}

func (a *Analyzer) All(aggs []strike.Aggregate, spot float64) Walls {
	return Walls{Call: a.CallWalls(aggs, spot), Put: a.PutWalls(aggs, spot)}
}

func (a *Analyzer) detect(aggs []strike.Aggregate, spot float64, typ Type, pick func(strike.Aggregate) (float64, bool)) []Wall {
	candidates := make([]Wall, 0, len(aggs))
	var total float64
	for _, s := range aggs {
		v, ok := pick(s)
		if !ok {
			continue
		}
		candidates = append(candidates, Wall{
			Strike:           s.Strike,
			ExposureValue:    v,
			Type:             typ,
			DistanceFromSpot: math.Abs(s.Strike - spot),
		})
		total += math.Abs(v)
	}

	// Stable so equal magnitudes keep ascending strike order
	sort.SliceStable(candidates, func(i, j int) bool {
		return math.Abs(candidates[i].ExposureValue) > math.Abs(candidates[j].ExposureValue)
	})

	walls := make([]Wall, 0, a.maxWalls)
	cutoff := a.threshold * total
	for _, c := range candidates {
		if math.Abs(c.ExposureValue) < cutoff {
			continue
		}
		walls = append(walls, c)
		if len(walls) == a.maxWalls {
			break
		}
	}
	for i := range walls {
		walls[i].SignificanceRank = i + 1
	}
	return walls
}

// Nearby keeps walls within maxDistancePct (a fraction, 0.1 == 10%) of spot,
// nearest first.
func Nearby(walls []Wall, spot, maxDistancePct float64) []Wall {
	out := make([]Wall, 0, len(walls))
	for _, w := range walls {
		if spot > 0 && w.DistanceFromSpot/spot <= maxDistancePct {
			out = append(out, w)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceFromSpot < out[j].DistanceFromSpot })
	return out
}
