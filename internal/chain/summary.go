package chain

import (
	"math"
	"sort"
	"time"

	"github.com/scmhub/calendar"
)

// ExpiryGroup summarises the contracts sharing one expiration.
type ExpiryGroup struct {
	ExpiryDate   string  `json:"expiry_date,omitempty"`
	DaysToExpiry float64 `json:"days_to_expiry"`
	TradingDays  int     `json:"trading_days,omitempty"`
	Contracts    int     `json:"contracts"`
	OpenInterest int64   `json:"open_interest"`
}

// Summary describes the shape of a chain before any exposure is computed.
type Summary struct {
	Symbols       []string      `json:"symbols"`
	Contracts     int           `json:"contracts"`
	Calls         int           `json:"calls"`
	Puts          int           `json:"puts"`
	UniqueStrikes int           `json:"unique_strikes"`
	MinStrike     float64       `json:"min_strike"`
	MaxStrike     float64       `json:"max_strike"`
	OpenInterest  int64         `json:"open_interest"`
	AverageIV     float64       `json:"average_iv"`
	Expiries      []ExpiryGroup `json:"expiries"`
}

// Summarize groups contracts by expiry and counts NYSE sessions between
// asOf and each expiration.
func Summarize(contracts []OptionContract, asOf time.Time) Summary {
	s := Summary{MinStrike: math.Inf(1), MaxStrike: math.Inf(-1)}
	if len(contracts) == 0 {
		s.MinStrike, s.MaxStrike = 0, 0
		return s
	}

	if asOf.IsZero() {
		asOf = time.Now()
	}
	nyse := calendar.XNYS()
	strikes := make(map[float64]bool)
	symbols := make(map[string]bool)
	groups := make(map[string]*ExpiryGroup)
	var ivSum float64

	for _, c := range contracts {
		s.Contracts++
		switch c.Type {
		case Call:
			s.Calls++
		case Put:
			s.Puts++
		}
		strikes[c.Strike] = true
		if c.Symbol != "" {
			symbols[c.Symbol] = true
		}
		s.MinStrike = math.Min(s.MinStrike, c.Strike)
		s.MaxStrike = math.Max(s.MaxStrike, c.Strike)
		s.OpenInterest += c.OpenInterest
		ivSum += c.ImpliedVolatility

		key := ""
		if !c.ExpiryDate.IsZero() {
			key = c.ExpiryDate.Format("2006-01-02")
		}
		g, ok := groups[key]
		if !ok {
			g = &ExpiryGroup{ExpiryDate: key, DaysToExpiry: c.DaysToExpiry}
			if !c.ExpiryDate.IsZero() {
				g.TradingDays = tradingDaysBetween(nyse, asOf, c.ExpiryDate)
			}
			groups[key] = g
		}
		g.Contracts++
		g.OpenInterest += c.OpenInterest
	}

	s.UniqueStrikes = len(strikes)
	s.AverageIV = ivSum / float64(s.Contracts)
	for sym := range symbols {
		s.Symbols = append(s.Symbols, sym)
	}
	sort.Strings(s.Symbols)

	for _, g := range groups {
		s.Expiries = append(s.Expiries, *g)
	}
	sort.Slice(s.Expiries, func(i, j int) bool {
		if s.Expiries[i].DaysToExpiry != s.Expiries[j].DaysToExpiry {
			return s.Expiries[i].DaysToExpiry < s.Expiries[j].DaysToExpiry
		}
		return s.Expiries[i].ExpiryDate < s.Expiries[j].ExpiryDate
	})

	return s
}

// tradingDaysBetween counts business days in (from, to].
func tradingDaysBetween(cal *calendar.Calendar, from, to time.Time) int {
	// NYSE operates in Eastern time
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		loc = time.UTC
	}

	start := midnight(from)
	end := midnight(to)
	n := 0
	for d := start.AddDate(0, 0, 1); !d.After(end); d = d.AddDate(0, 0, 1) {
		// Check at noon local time to avoid date shifts
		noon := time.Date(d.Year(), d.Month(), d.Day(), 12, 0, 0, 0, loc)
		if cal.IsBusinessDay(noon) {
			n++
		}
	}
	return n
}
