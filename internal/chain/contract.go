package chain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// OptionType is the right conveyed by a contract.
type OptionType string

const (
	Call OptionType = "call"
	Put  OptionType = "put"
)

// ParseOptionType accepts call/put in any case plus the single-letter forms.
func ParseOptionType(s string) (OptionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "call", "c":
		return Call, nil
	case "put", "p":
		return Put, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidOptionType, s)
	}
}

func (t OptionType) Valid() bool {
	return t == Call || t == Put
}

// OptionContract is one listed option as observed in a chain snapshot.
// Contracts are read-only inputs; nothing downstream mutates them.
type OptionContract struct {
	Symbol            string     `json:"symbol,omitempty"`
	Strike            float64    `json:"strike"`
	Type              OptionType `json:"option_type"`
	OpenInterest      int64      `json:"open_interest"`
	ImpliedVolatility float64    `json:"implied_volatility"`
	DaysToExpiry      float64    `json:"days_to_expiry"`
	Volume            int64      `json:"volume,omitempty"`
	Bid               float64    `json:"bid,omitempty"`
	Ask               float64    `json:"ask,omitempty"`
	LastPrice         float64    `json:"last_price,omitempty"`

	// ExpiryDate is zero when the source only carried days to expiry.
	ExpiryDate time.Time `json:"-"`
}

// Validate reports the first reason the contract cannot be priced.
func (c OptionContract) Validate() error {
	if math.IsNaN(c.Strike) || math.IsInf(c.Strike, 0) || c.Strike <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidStrike, c.Strike)
	}
	if !c.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidOptionType, string(c.Type))
	}
	if c.OpenInterest < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeOpenInterest, c.OpenInterest)
	}
	iv := c.ImpliedVolatility
	if math.IsNaN(iv) || math.IsInf(iv, 0) || iv <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidVolatility, iv)
	}
	if math.IsNaN(c.DaysToExpiry) || math.IsInf(c.DaysToExpiry, 0) || c.DaysToExpiry < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidExpiry, c.DaysToExpiry)
	}
	return nil
}

func (c OptionContract) String() string {
	sym := c.Symbol
	if sym == "" {
		sym = "?"
	}
	return fmt.Sprintf("%s %g %s %gd", sym, c.Strike, c.Type, c.DaysToExpiry)
}
