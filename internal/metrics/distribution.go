package metrics

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/dgnsrekt/gexbot-analytics/internal/chain"
	"github.com/dgnsrekt/gexbot-analytics/internal/strike"
)

var percentileLevels = []float64{10, 25, 50, 75, 90}

type Percentiles struct {
	P10 float64 `json:"p10"`
	P25 float64 `json:"p25"`
	P50 float64 `json:"p50"`
	P75 float64 `json:"p75"`
	P90 float64 `json:"p90"`
}

// Concentration measures how much of the absolute net exposure sits in the
// largest strikes. Shares are percentages; Herfindahl is in [0, 1].
type Concentration struct {
	Top5Share  Float `json:"top5_share_pct"`
	Top10Share Float `json:"top10_share_pct"`
	Herfindahl Float `json:"herfindahl_index"`
}

// Distribution summarises the per-strike net exposure series.
type Distribution struct {
	Mean                float64       `json:"mean"`
	Median              float64       `json:"median"`
	Min                 float64       `json:"min"`
	Max                 float64       `json:"max"`
	StdDev              float64       `json:"std_dev"`
	Percentiles         Percentiles   `json:"percentiles"`
	Concentration       Concentration `json:"concentration"`
	StrikesWithExposure int           `json:"strikes_with_exposure"`
}

// Describe computes summary statistics of per-strike net exposure.
func Describe(aggs []strike.Aggregate) (Distribution, error) {
	if len(aggs) == 0 {
		return Distribution{}, &chain.NoContractsError{}
	}

	net := stats.Float64Data(strike.Net(aggs))
	var d Distribution
	var err error

	if d.Mean, err = stats.Mean(net); err != nil {
		return Distribution{}, err
	}
	if d.Median, err = stats.Median(net); err != nil {
		return Distribution{}, err
	}
	if d.Min, err = stats.Min(net); err != nil {
		return Distribution{}, err
	}
	if d.Max, err = stats.Max(net); err != nil {
		return Distribution{}, err
	}
	if d.StdDev, err = stats.StandardDeviationPopulation(net); err != nil {
		return Distribution{}, err
	}

	ps := make([]float64, len(percentileLevels))
	for i, level := range percentileLevels {
		if ps[i], err = stats.PercentileNearestRank(net, level); err != nil {
			return Distribution{}, err
		}
	}
	d.Percentiles = Percentiles{P10: ps[0], P25: ps[1], P50: ps[2], P75: ps[3], P90: ps[4]}

	for _, v := range net {
		if v != 0 {
			d.StrikesWithExposure++
		}
	}
	d.Concentration = concentration(net)

	return d, nil
}

func concentration(net []float64) Concentration {
	abs := make([]float64, len(net))
	var total float64
	for i, v := range net {
		abs[i] = math.Abs(v)
		total += abs[i]
	}
	if total == 0 {
		return Concentration{Top5Share: Undefined(), Top10Share: Undefined(), Herfindahl: Undefined()}
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(abs)))

	var top5, top10, hhi float64
	for i, v := range abs {
		if i < 5 {
			top5 += v
		}
		if i < 10 {
			top10 += v
		}
		share := v / total
		hhi += share * share
	}
	return Concentration{
		Top5Share:  Float(top5 / total * 100),
		Top10Share: Float(top10 / total * 100),
		Herfindahl: Float(hhi),
	}
}
