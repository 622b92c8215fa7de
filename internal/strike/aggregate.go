package strike

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/dgnsrekt/gexbot-analytics/internal/chain"
	"github.com/dgnsrekt/gexbot-analytics/internal/gamma"
)

// Aggregate is the combined exposure of every contract at one strike.
type Aggregate struct {
	Strike            float64 `json:"strike"`
	CallGammaExposure float64 `json:"call_gamma_exposure"`
	PutGammaExposure  float64 `json:"put_gamma_exposure"`
	NetGammaExposure  float64 `json:"net_gamma_exposure"`
	TotalOpenInterest int64   `json:"total_open_interest"`
}

// NewAggregate derives the net exposure from the call and put legs.
func NewAggregate(strike, call, put float64, openInterest int64) Aggregate {
	return Aggregate{
		Strike:            strike,
		CallGammaExposure: call,
		PutGammaExposure:  put,
		NetGammaExposure:  call + put,
		TotalOpenInterest: openInterest,
	}
}

// Result is the output of one aggregation pass.
type Result struct {
	Strikes []Aggregate
	Issues  []chain.Issue
}

type contribution struct {
	index    int
	strike   float64
	typ      chain.OptionType
	oi       int64
	exposure float64
	err      error
}

type bucket struct {
	calls []float64
	puts  []float64
	oi    int64
}

type Aggregator struct {
	engine *gamma.Engine
	logger *zap.Logger
}

func NewAggregator(engine *gamma.Engine, logger *zap.Logger) *Aggregator {
	return &Aggregator{engine: engine, logger: logger}
}

func (a *Aggregator) contribute(i int, c chain.OptionContract, spot float64) contribution {
	exp, err := a.engine.Exposure(c, spot)
	return contribution{index: i, strike: c.Strike, typ: c.Type, oi: c.OpenInterest, exposure: exp, err: err}
}

// Aggregate folds every valid contract into its strike. Invalid contracts are
// skipped and reported in Result.Issues.
func (a *Aggregator) Aggregate(contracts []chain.OptionContract, spot float64) Result {
	parts := make([]contribution, len(contracts))
	for i, c := range contracts {
		parts[i] = a.contribute(i, c, spot)
	}
	return a.reduce(contracts, parts)
}

// AggregateConcurrent computes per-contract exposures on a pool of workers.
// The merge is identical to Aggregate, so both return the same Result.
func (a *Aggregator) AggregateConcurrent(ctx context.Context, contracts []chain.OptionContract, spot float64, workers int) (Result, error) {
	if workers < 1 {
		workers = 1
	}
	if len(contracts) == 0 {
		return Result{Strikes: []Aggregate{}}, nil
	}

	jobs := make(chan int, len(contracts))
	parts := make([]contribution, len(contracts))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}
				// Each index is written by exactly one worker
				parts[i] = a.contribute(i, contracts[i], spot)
			}
		}()
	}

	for i := range contracts {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	return a.reduce(contracts, parts), nil
}

// reduce merges contributions per strike. Exposures inside a bucket are
// summed in sorted order so the totals do not depend on input order.
func (a *Aggregator) reduce(contracts []chain.OptionContract, parts []contribution) Result {
	buckets := make(map[float64]*bucket)
	var issues []chain.Issue

	for _, p := range parts {
		if p.err != nil {
			issues = append(issues, chain.IssueFor(p.index, contracts[p.index], p.err))
			continue
		}
		b, ok := buckets[p.strike]
		if !ok {
			b = &bucket{}
			buckets[p.strike] = b
		}
		if p.typ == chain.Call {
			b.calls = append(b.calls, p.exposure)
		} else {
			b.puts = append(b.puts, p.exposure)
		}
		b.oi += p.oi
	}

	strikes := make([]Aggregate, 0, len(buckets))
	for k, b := range buckets {
		strikes = append(strikes, NewAggregate(k, canonicalSum(b.calls), canonicalSum(b.puts), b.oi))
	}
	sort.Slice(strikes, func(i, j int) bool { return strikes[i].Strike < strikes[j].Strike })

	if len(issues) > 0 {
		a.logger.Warn("rejected contracts",
			zap.Int("rejected", len(issues)),
			zap.Int("total", len(contracts)),
		)
	}
	a.logger.Debug("aggregated strikes",
		zap.Int("contracts", len(contracts)-len(issues)),
		zap.Int("strikes", len(strikes)),
	)

	return Result{Strikes: strikes, Issues: issues}
}

func canonicalSum(values []float64) float64 {
	sort.Float64s(values)
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum
}

// Net returns the per-strike net exposures in strike order.
func Net(aggs []Aggregate) []float64 {
	out := make([]float64, len(aggs))
	for i, a := range aggs {
		out[i] = a.NetGammaExposure
	}
	return out
}
