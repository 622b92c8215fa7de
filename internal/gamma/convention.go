package gamma

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dgnsrekt/gexbot-analytics/internal/chain"
)

// SignConvention decides the sign of a contract's exposure. The sign is an
// assumption about who holds the other side of customer positions; it is
// never part of the gamma formula itself.
type SignConvention interface {
	Name() string
	Sign(t chain.OptionType) float64
	Label(t chain.OptionType) string
}

// DealerShort assumes dealers are short the calls and puts customers buy.
// Short call gamma shows up as negative exposure (resistance) and short put
// gamma as positive exposure (support).
type DealerShort struct{}

func (DealerShort) Name() string { return "dealer_short" }

func (DealerShort) Sign(t chain.OptionType) float64 {
	if t == chain.Call {
		return -1
	}
	return 1
}

func (DealerShort) Label(t chain.OptionType) string {
	if t == chain.Call {
		return "negative (call resistance)"
	}
	return "positive (put support)"
}

// DealerLong assumes dealers are long customer-sold options, flipping both signs.
type DealerLong struct{}

func (DealerLong) Name() string { return "dealer_long" }

func (DealerLong) Sign(t chain.OptionType) float64 {
	if t == chain.Call {
		return 1
	}
	return -1
}

func (DealerLong) Label(t chain.OptionType) string {
	if t == chain.Call {
		return "positive (long call)"
	}
	return "negative (long put)"
}

var conventions = map[string]SignConvention{
	DealerShort{}.Name(): DealerShort{},
	DealerLong{}.Name():  DealerLong{},
}

// ConventionByName looks up a registered sign convention.
func ConventionByName(name string) (SignConvention, error) {
	if c, ok := conventions[strings.ToLower(strings.TrimSpace(name))]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("%w: unknown sign convention %q (valid: %s)",
		ErrInvalidParams, name, strings.Join(ConventionNames(), ", "))
}

func ConventionNames() []string {
	names := make([]string, 0, len(conventions))
	for n := range conventions {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
