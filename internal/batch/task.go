package batch

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dgnsrekt/gexbot-analytics/internal/analysis"
)

// Task is one chain file to analyze at a given spot.
type Task struct {
	Path   string
	Symbol string
	Spot   float64
}

// ParseTask reads a PATH:SPOT[:SYMBOL] argument. Fields are split from the
// right so the path may itself contain colons (C:\data\spy.csv:580). A
// trailing numeric field is always read as the spot.
func ParseTask(arg string) (Task, error) {
	rest, last, ok := cutLast(arg)
	if !ok {
		return Task{}, fmt.Errorf("invalid task %q (want PATH:SPOT[:SYMBOL])", arg)
	}

	var t Task
	spotField := last
	if _, err := strconv.ParseFloat(last, 64); err != nil {
		t.Symbol = strings.ToUpper(strings.TrimSpace(last))
		if rest, spotField, ok = cutLast(rest); !ok {
			return Task{}, fmt.Errorf("invalid spot in task %q: %w", arg, analysis.ErrInvalidSpot)
		}
	}
	if rest == "" {
		return Task{}, fmt.Errorf("invalid task %q (want PATH:SPOT[:SYMBOL])", arg)
	}

	spot, err := strconv.ParseFloat(spotField, 64)
	if err != nil || !(spot > 0) || math.IsInf(spot, 1) {
		return Task{}, fmt.Errorf("invalid spot in task %q: %w", arg, analysis.ErrInvalidSpot)
	}
	t.Path, t.Spot = rest, spot
	return t, nil
}

func cutLast(s string) (before, after string, ok bool) {
	i := strings.LastIndex(s, ":")
	if i < 0 {
		return s, "", false
	}
	return s[:i], s[i+1:], true
}

func (t Task) String() string {
	if t.Symbol == "" {
		return fmt.Sprintf("%s@%g", t.Path, t.Spot)
	}
	return fmt.Sprintf("%s:%s@%g", t.Symbol, t.Path, t.Spot)
}

// symbolFor picks the task symbol, then the chain's own symbol, then the
// file name.
func (t Task) symbolFor(chainSymbol string) string {
	if t.Symbol != "" {
		return t.Symbol
	}
	if chainSymbol != "" {
		return chainSymbol
	}
	base := filepath.Base(t.Path)
	for ext := filepath.Ext(base); ext != ""; ext = filepath.Ext(base) {
		base = strings.TrimSuffix(base, ext)
	}
	return strings.ToUpper(base)
}

type TaskResult struct {
	Index   int
	Task    Task
	Summary *Summary
	Error   error
}
