package batch

import (
	"github.com/dgnsrekt/gexbot-analytics/internal/analysis"
	"github.com/dgnsrekt/gexbot-analytics/internal/metrics"
)

// Summary is the one-line view of a report used in batch output.
type Summary struct {
	Path           string        `json:"path"`
	Symbol         string        `json:"symbol"`
	Spot           float64       `json:"spot"`
	Contracts      int           `json:"contracts"`
	SkippedRows    int           `json:"skipped_rows"`
	Rejected       int           `json:"rejected"`
	Environment    string        `json:"environment"`
	Strength       metrics.Float `json:"strength"`
	StrengthLevel  string        `json:"strength_level"`
	TotalNetGamma  float64       `json:"total_net_gamma"`
	GammaFlipLevel *float64      `json:"gamma_flip_level"`
	CallWalls      int           `json:"call_walls"`
	PutWalls       int           `json:"put_walls"`
	TopCallWall    *float64      `json:"top_call_wall"`
	TopPutWall     *float64      `json:"top_put_wall"`
	Move1SD        float64       `json:"move_1sd"`
	MovePct1SD     float64       `json:"move_pct_1sd"`
}

func Summarize(r *analysis.Report) Summary {
	s := Summary{
		Symbol:         r.Symbol,
		Spot:           r.Spot,
		Contracts:      r.Contracts,
		Rejected:       len(r.Rejected),
		Environment:    string(r.Environment.Environment),
		Strength:       r.Environment.Strength,
		StrengthLevel:  string(r.Environment.StrengthLevel),
		TotalNetGamma:  r.Metrics.TotalNetGamma,
		GammaFlipLevel: r.Environment.GammaFlipLevel,
		CallWalls:      len(r.Walls.Call),
		PutWalls:       len(r.Walls.Put),
		Move1SD:        r.ExpectedMove.Move1SD,
		MovePct1SD:     r.ExpectedMove.MovePct1SD,
	}
	if len(r.Walls.Call) > 0 {
		k := r.Walls.Call[0].Strike
		s.TopCallWall = &k
	}
	if len(r.Walls.Put) > 0 {
		k := r.Walls.Put[0].Strike
		s.TopPutWall = &k
	}
	return s
}
