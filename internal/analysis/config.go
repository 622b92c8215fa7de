package analysis

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/dgnsrekt/gexbot-analytics/internal/config"
	"github.com/dgnsrekt/gexbot-analytics/internal/gamma"
	"github.com/dgnsrekt/gexbot-analytics/internal/move"
	"github.com/dgnsrekt/gexbot-analytics/internal/walls"
)

// FromConfig builds an Analyzer from a validated configuration.
func FromConfig(cfg *config.Config, logger *zap.Logger) (*Analyzer, error) {
	params, err := cfg.Engine.GammaParams()
	if err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	engine, err := gamma.NewEngine(params)
	if err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	wa, err := walls.NewAnalyzer(cfg.Walls.SignificanceThreshold, cfg.Walls.MaxWalls)
	if err != nil {
		return nil, fmt.Errorf("walls config: %w", err)
	}
	me, err := move.NewEngine(cfg.ExpectedMove.ATMWindow)
	if err != nil {
		return nil, fmt.Errorf("expected move config: %w", err)
	}

	return New(Options{
		Engine:            engine,
		Walls:             wa,
		Move:              me,
		NearbyDistancePct: cfg.Walls.NearbyDistancePct,
		Workers:           cfg.Engine.Workers,
		FanOutThreshold:   cfg.Engine.FanOutThreshold,
		Logger:            logger,
	})
}
