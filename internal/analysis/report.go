package analysis

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgnsrekt/gexbot-analytics/internal/chain"
	"github.com/dgnsrekt/gexbot-analytics/internal/metrics"
	"github.com/dgnsrekt/gexbot-analytics/internal/move"
	"github.com/dgnsrekt/gexbot-analytics/internal/strike"
	"github.com/dgnsrekt/gexbot-analytics/internal/walls"
)

var (
	ErrInvalidSpot         = errors.New("spot price must be positive and finite")
	ErrAllContractsInvalid = errors.New("no valid contracts")
)

// RejectedError is returned when every contract of a request was rejected.
// It matches ErrAllContractsInvalid.
type RejectedError struct {
	Total  int
	Issues []chain.Issue
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%v: %d of %d rejected", ErrAllContractsInvalid, len(e.Issues), e.Total)
}

func (e *RejectedError) Unwrap() error {
	return ErrAllContractsInvalid
}

// Diagnostics carries secondary flip analysis that does not feed the
// environment classification.
type Diagnostics struct {
	Crossings         []metrics.Crossing `json:"crossings"`
	DominantFlipLevel *float64           `json:"dominant_flip_level"`
}

// Report is the full result of one analysis run.
type Report struct {
	ID             string               `json:"id"`
	Symbol         string               `json:"symbol,omitempty"`
	Spot           float64              `json:"spot"`
	GeneratedAt    time.Time            `json:"generated_at"`
	SignConvention string               `json:"sign_convention"`
	Contracts      int                  `json:"contracts"`
	Accepted       int                  `json:"accepted"`
	Rejected       []chain.Issue        `json:"rejected,omitempty"`
	Strikes        []strike.Aggregate   `json:"strikes"`
	Walls          walls.Walls          `json:"walls"`
	WallSummary    walls.Summary        `json:"wall_summary"`
	NearbyWalls    []walls.Wall         `json:"nearby_walls"`
	Metrics        metrics.Metrics      `json:"metrics"`
	Environment    metrics.Environment  `json:"environment"`
	Distribution   metrics.Distribution `json:"distribution"`
	ExpectedMove   move.ExpectedMove    `json:"expected_move"`
	Diagnostics    Diagnostics          `json:"diagnostics"`
}
