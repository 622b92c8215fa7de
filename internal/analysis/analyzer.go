package analysis

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dgnsrekt/gexbot-analytics/internal/chain"
	"github.com/dgnsrekt/gexbot-analytics/internal/gamma"
	"github.com/dgnsrekt/gexbot-analytics/internal/metrics"
	"github.com/dgnsrekt/gexbot-analytics/internal/move"
	"github.com/dgnsrekt/gexbot-analytics/internal/strike"
	"github.com/dgnsrekt/gexbot-analytics/internal/walls"
)

// DefaultFanOutThreshold is the chain size above which aggregation is spread
// across workers.
const DefaultFanOutThreshold = 2000

// Request is the input of one analysis run.
type Request struct {
	Symbol    string                 `json:"symbol,omitempty"`
	Spot      float64                `json:"spot"`
	Contracts []chain.OptionContract `json:"contracts"`
}

type Options struct {
	Engine            *gamma.Engine
	Walls             *walls.Analyzer
	Move              *move.Engine
	// NearbyDistancePct is a percentage of spot (5 == 5%).
	NearbyDistancePct float64
	Workers           int
	FanOutThreshold   int
	Logger            *zap.Logger
}

type Analyzer struct {
	engine     *gamma.Engine
	aggregator *strike.Aggregator
	walls      *walls.Analyzer
	move       *move.Engine
	nearby     float64
	workers    int
	fanOut     int
	logger     *zap.Logger
	now        func() time.Time
}

func New(opts Options) (*Analyzer, error) {
	if opts.Engine == nil || opts.Walls == nil || opts.Move == nil {
		return nil, fmt.Errorf("analysis: engine, walls and move are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	fanOut := opts.FanOutThreshold
	if fanOut <= 0 {
		fanOut = DefaultFanOutThreshold
	}
	return &Analyzer{
		engine:     opts.Engine,
		aggregator: strike.NewAggregator(opts.Engine, logger),
		walls:      opts.Walls,
		move:       opts.Move,
		nearby:     opts.NearbyDistancePct / 100,
		workers:    opts.Workers,
		fanOut:     fanOut,
		logger:     logger,
		now:        time.Now,
	}, nil
}

// Engine exposes the gamma engine so callers can produce per-contract
// breakdowns with the same parameters.
func (a *Analyzer) Engine() *gamma.Engine {
	return a.engine
}

// Run aggregates the chain and derives walls, metrics and the expected move.
// Walls and metrics read the same aggregate slice concurrently; the expected
// move runs alongside them over the accepted contracts.
func (a *Analyzer) Run(ctx context.Context, req Request) (*Report, error) {
	if math.IsNaN(req.Spot) || math.IsInf(req.Spot, 0) || req.Spot <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSpot, req.Spot)
	}
	if len(req.Contracts) == 0 {
		return nil, &chain.NoContractsError{Symbol: req.Symbol}
	}

	start := a.now()
	result, err := a.aggregate(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(result.Strikes) == 0 {
		return nil, &RejectedError{Total: len(req.Contracts), Issues: result.Issues}
	}
	accepted := acceptedContracts(req.Contracts, result.Issues)

	report := &Report{
		ID:             uuid.New().String(),
		Symbol:         req.Symbol,
		Spot:           req.Spot,
		GeneratedAt:    start.UTC(),
		SignConvention: a.engine.Convention().Name(),
		Contracts:      len(req.Contracts),
		Accepted:       len(accepted),
		Rejected:       result.Issues,
		Strikes:        result.Strikes,
	}

	var (
		wg                 sync.WaitGroup
		metricsErr, envErr error
		distErr, moveErr   error
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		report.Walls = a.walls.All(result.Strikes, req.Spot)
		report.WallSummary = walls.Summarize(report.Walls, req.Spot)
		report.NearbyWalls = walls.Nearby(report.Walls.All(), req.Spot, a.nearby)
	}()
	go func() {
		defer wg.Done()
		report.Metrics, metricsErr = metrics.Compute(result.Strikes)
		report.Environment, envErr = metrics.Classify(result.Strikes, req.Spot)
		report.Distribution, distErr = metrics.Describe(result.Strikes)
		report.Diagnostics = Diagnostics{
			Crossings:         metrics.Crossings(result.Strikes),
			DominantFlipLevel: metrics.DominantFlipLevel(result.Strikes),
		}
	}()
	go func() {
		defer wg.Done()
		report.ExpectedMove, moveErr = a.move.Compute(accepted, req.Spot)
	}()
	wg.Wait()

	for _, err := range []error{metricsErr, envErr, distErr, moveErr} {
		if err != nil {
			return nil, fmt.Errorf("analyzing %s: %w", req.Symbol, err)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.logger.Info("analysis complete",
		zap.String("id", report.ID),
		zap.String("symbol", req.Symbol),
		zap.Float64("spot", req.Spot),
		zap.Int("contracts", report.Contracts),
		zap.Int("rejected", len(report.Rejected)),
		zap.Int("strikes", len(report.Strikes)),
		zap.String("environment", string(report.Environment.Environment)),
		zap.Duration("duration", a.now().Sub(start)),
	)

	return report, nil
}

func (a *Analyzer) aggregate(ctx context.Context, req Request) (strike.Result, error) {
	if a.workers > 1 && len(req.Contracts) >= a.fanOut {
		return a.aggregator.AggregateConcurrent(ctx, req.Contracts, req.Spot, a.workers)
	}
	if err := ctx.Err(); err != nil {
		return strike.Result{}, err
	}
	return a.aggregator.Aggregate(req.Contracts, req.Spot), nil
}

func acceptedContracts(contracts []chain.OptionContract, issues []chain.Issue) []chain.OptionContract {
	if len(issues) == 0 {
		return contracts
	}
	rejected := make(map[int]bool, len(issues))
	for _, is := range issues {
		rejected[is.Index] = true
	}
	out := make([]chain.OptionContract, 0, len(contracts)-len(issues))
	for i, c := range contracts {
		if !rejected[i] {
			out = append(out, c)
		}
	}
	return out
}
