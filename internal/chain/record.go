package chain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Record is one raw chain row before normalisation. Every field is kept as
// text so that missing cells can be told apart from zeros.
type Record struct {
	Symbol            string `csv:"symbol"`
	Strike            string `csv:"strike"`
	ExpiryDate        string `csv:"expiry_date"`
	OptionType        string `csv:"option_type"`
	OpenInterest      string `csv:"open_interest"`
	ImpliedVolatility string `csv:"implied_volatility"`
	DaysToExpiry      string `csv:"days_to_expiry"`
	Volume            string `csv:"volume"`
	Bid               string `csv:"bid"`
	Ask               string `csv:"ask"`
	LastPrice         string `csv:"last_price"`
}

var requiredColumns = []string{"strike", "option_type", "open_interest"}

var columnAliases = map[string]string{
	"type":               "option_type",
	"optiontype":         "option_type",
	"right":              "option_type",
	"cp":                 "option_type",
	"expiration":         "expiry_date",
	"expiration_date":    "expiry_date",
	"expiry":             "expiry_date",
	"expirationdate":     "expiry_date",
	"iv":                 "implied_volatility",
	"impliedvolatility":  "implied_volatility",
	"implied_vol":        "implied_volatility",
	"oi":                 "open_interest",
	"openinterest":       "open_interest",
	"dte":                "days_to_expiry",
	"daystoexpiry":       "days_to_expiry",
	"days_to_expiration": "days_to_expiry",
	"strike_price":       "strike",
	"strikeprice":        "strike",
	"underlying":         "symbol",
	"ticker":             "symbol",
	"last":               "last_price",
	"lastprice":          "last_price",
}

// NormalizeColumn maps a header or JSON key onto its canonical column name.
func NormalizeColumn(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.TrimPrefix(n, "\ufeff")
	n = strings.NewReplacer(" ", "_", "-", "_").Replace(n)
	if alias, ok := columnAliases[n]; ok {
		return alias
	}
	return n
}

func checkColumns(present map[string]bool) error {
	var missing []string
	for _, c := range requiredColumns {
		if !present[c] {
			missing = append(missing, c)
		}
	}
	if !present["expiry_date"] && !present["days_to_expiry"] {
		missing = append(missing, "expiry_date|days_to_expiry")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return nil
}

func (r *Record) set(column, value string) {
	switch column {
	case "symbol":
		r.Symbol = value
	case "strike":
		r.Strike = value
	case "expiry_date":
		r.ExpiryDate = value
	case "option_type":
		r.OptionType = value
	case "open_interest":
		r.OpenInterest = value
	case "implied_volatility":
		r.ImpliedVolatility = value
	case "days_to_expiry":
		r.DaysToExpiry = value
	case "volume":
		r.Volume = value
	case "bid":
		r.Bid = value
	case "ask":
		r.Ask = value
	case "last_price":
		r.LastPrice = value
	}
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"01/02/2006",
	"20060102",
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

func parseNumber(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	return strconv.ParseFloat(s, 64)
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ToContract normalises the record into a contract. Semantic checks such as
// non-positive strikes are left to OptionContract.Validate.
func (r Record) ToContract(opts LoadOptions) (OptionContract, error) {
	var c OptionContract

	strike, err := parseNumber(r.Strike)
	if err != nil {
		return c, fmt.Errorf("%w: %q", ErrInvalidStrike, r.Strike)
	}
	c.Strike = strike

	if c.Type, err = ParseOptionType(r.OptionType); err != nil {
		return c, err
	}

	if strings.TrimSpace(r.OpenInterest) == "" {
		return c, fmt.Errorf("open interest is missing")
	}
	oi, err := parseNumber(r.OpenInterest)
	oi = math.Round(oi)
	if err != nil || math.IsNaN(oi) || math.Abs(oi) >= math.MaxInt64 {
		return c, fmt.Errorf("%w: %q", ErrInvalidOpenInterest, r.OpenInterest)
	}
	c.OpenInterest = int64(oi)

	c.ImpliedVolatility, err = opts.normalizeVolatility(r.ImpliedVolatility)
	if err != nil {
		return c, err
	}

	c.DaysToExpiry, c.ExpiryDate, err = opts.daysToExpiry(r.DaysToExpiry, r.ExpiryDate)
	if err != nil {
		return c, err
	}

	c.Symbol = strings.ToUpper(strings.TrimSpace(r.Symbol))
	if c.Symbol == "" {
		c.Symbol = opts.DefaultSymbol
	}

	c.Volume = int64(optionalNumber(r.Volume))
	c.Bid = optionalNumber(r.Bid)
	c.Ask = optionalNumber(r.Ask)
	c.LastPrice = optionalNumber(r.LastPrice)

	return c, nil
}

func optionalNumber(s string) float64 {
	if strings.TrimSpace(s) == "" {
		return 0
	}
	v, err := parseNumber(s)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// normalizeVolatility fills missing values, converts percentage quotes and
// clamps positive values into the configured band. Infinite values are
// rejected. Non-positive values pass through unchanged so that validation
// rejects them.
func (o LoadOptions) normalizeVolatility(raw string) (float64, error) {
	if strings.TrimSpace(raw) == "" {
		return o.DefaultVolatility, nil
	}
	iv, err := parseNumber(strings.TrimSuffix(strings.TrimSpace(raw), "%"))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidVolatility, raw)
	}
	if math.IsNaN(iv) {
		return o.DefaultVolatility, nil
	}
	if math.IsInf(iv, 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidVolatility, raw)
	}
	if iv > o.PercentIVCutoff {
		iv /= 100
	}
	if iv <= 0 {
		return iv, nil
	}
	return math.Min(math.Max(iv, o.MinVolatility), o.MaxVolatility), nil
}

func (o LoadOptions) daysToExpiry(rawDays, rawDate string) (float64, time.Time, error) {
	var expiry time.Time
	if strings.TrimSpace(rawDate) != "" {
		t, err := parseDate(rawDate)
		if err != nil {
			if strings.TrimSpace(rawDays) == "" {
				return 0, expiry, err
			}
		} else {
			expiry = midnight(t)
		}
	}

	if strings.TrimSpace(rawDays) != "" {
		days, err := parseNumber(rawDays)
		if err != nil {
			return 0, expiry, fmt.Errorf("invalid days to expiry %q", rawDays)
		}
		return math.Max(days, MinDaysToExpiry), expiry, nil
	}

	if expiry.IsZero() {
		return 0, expiry, fmt.Errorf("expiry is missing")
	}

	days := math.Floor(expiry.Sub(midnight(o.asOf())).Hours() / 24)
	return math.Max(days, MinDaysToExpiry), expiry, nil
}
