package chain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidStrike        = errors.New("strike must be positive")
	ErrInvalidOptionType    = errors.New("option type must be call or put")
	ErrNegativeOpenInterest = errors.New("open interest must not be negative")
	ErrInvalidOpenInterest  = errors.New("open interest must be a finite integer in range")
	ErrInvalidVolatility    = errors.New("implied volatility must be finite and positive")
	ErrInvalidExpiry        = errors.New("days to expiry must be finite and non-negative")
	ErrMissingColumns       = errors.New("missing required columns")
	ErrEmptyFile            = errors.New("chain file is empty")
	ErrUnsupportedFormat    = errors.New("unsupported chain file format")
	ErrFileTooLarge         = errors.New("chain file exceeds size limit")
)

// NoContractsError is returned when an operation needs at least one
// contract (or strike) and got none.
type NoContractsError struct {
	Symbol string
}

func (e *NoContractsError) Error() string {
	if e.Symbol != "" {
		return fmt.Sprintf("no option contracts for %s", e.Symbol)
	}
	return "no option contracts"
}

// Issue records a contract or row that was excluded from a run.
type Issue struct {
	Index  int        `json:"index"`
	Line   int        `json:"line,omitempty"`
	Symbol string     `json:"symbol,omitempty"`
	Strike float64    `json:"strike,omitempty"`
	Type   OptionType `json:"option_type,omitempty"`
	Reason string     `json:"reason"`
}

func (i Issue) String() string {
	if i.Line > 0 {
		return fmt.Sprintf("line %d: %s", i.Line, i.Reason)
	}
	return fmt.Sprintf("contract %d (%s %g): %s", i.Index, i.Type, i.Strike, i.Reason)
}

// IssueFor builds an Issue for the contract at index.
func IssueFor(index int, c OptionContract, err error) Issue {
	return Issue{
		Index:  index,
		Symbol: c.Symbol,
		Strike: c.Strike,
		Type:   c.Type,
		Reason: err.Error(),
	}
}
