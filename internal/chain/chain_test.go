package chain

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"
)

var asOf = time.Date(2025, 11, 14, 15, 30, 0, 0, time.UTC)

func testLoader(t *testing.T) *FileLoader {
	t.Helper()
	opts := DefaultLoadOptions()
	opts.AsOf = asOf
	opts.DefaultSymbol = "SPY"
	logger, _ := zap.NewDevelopment()
	return NewFileLoader(opts, logger)
}

func TestValidate(t *testing.T) {
	good := OptionContract{Strike: 100, Type: Call, OpenInterest: 10, ImpliedVolatility: 0.2, DaysToExpiry: 30}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected valid contract, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(c *OptionContract)
		want   error
	}{
		{"zero strike", func(c *OptionContract) { c.Strike = 0 }, ErrInvalidStrike},
		{"nan strike", func(c *OptionContract) { c.Strike = math.NaN() }, ErrInvalidStrike},
		{"bad type", func(c *OptionContract) { c.Type = "straddle" }, ErrInvalidOptionType},
		{"negative oi", func(c *OptionContract) { c.OpenInterest = -1 }, ErrNegativeOpenInterest},
		{"zero iv", func(c *OptionContract) { c.ImpliedVolatility = 0 }, ErrInvalidVolatility},
		{"inf iv", func(c *OptionContract) { c.ImpliedVolatility = math.Inf(1) }, ErrInvalidVolatility},
		{"nan dte", func(c *OptionContract) { c.DaysToExpiry = math.NaN() }, ErrInvalidExpiry},
		{"negative dte", func(c *OptionContract) { c.DaysToExpiry = -5 }, ErrInvalidExpiry},
		{"inf dte", func(c *OptionContract) { c.DaysToExpiry = math.Inf(1) }, ErrInvalidExpiry},
		{"inf strike", func(c *OptionContract) { c.Strike = math.Inf(1) }, ErrInvalidStrike},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := good
			tt.mutate(&c)
			if err := c.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestParseOptionType(t *testing.T) {
	for in, want := range map[string]OptionType{"CALL": Call, " put ": Put, "c": Call, "P": Put} {
		got, err := ParseOptionType(in)
		if err != nil {
			t.Fatalf("ParseOptionType(%q) failed: %v", in, err)
		}
		if got != want {
			t.Errorf("ParseOptionType(%q): expected %s, got %s", in, want, got)
		}
	}
	if _, err := ParseOptionType("x"); !errors.Is(err, ErrInvalidOptionType) {
		t.Errorf("expected ErrInvalidOptionType, got %v", err)
	}
}

func TestNormalizeColumn(t *testing.T) {
	cases := map[string]string{
		"Strike":             "strike",
		"Open Interest":      "open_interest",
		"OI":                 "open_interest",
		"Expiration":         "expiry_date",
		"implied-volatility": "implied_volatility",
		"IV":                 "implied_volatility",
		"DTE":                "days_to_expiry",
		"Type":               "option_type",
	}
	for in, want := range cases {
		if got := NormalizeColumn(in); got != want {
			t.Errorf("NormalizeColumn(%q): expected %s, got %s", in, want, got)
		}
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFileLoader_CSV(t *testing.T) {
	csv := strings.Join([]string{
		"Strike,Type,Expiration,Open Interest,IV,Volume",
		"580,call,2025-12-14,1000,25,120",
		"575,put,2025-12-14,800,,",
		"570,straddle,2025-12-14,10,0.3,",
		"585,C,2025-11-14,50,0.18,",
		"590,put,2025-12-14,abc,0.3,",
	}, "\n")
	path := writeFile(t, "spy.csv", csv)

	result, err := testLoader(t).Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(result.Contracts) != 3 {
		t.Fatalf("expected 3 contracts, got %d", len(result.Contracts))
	}
	if len(result.Issues) != 2 {
		t.Fatalf("expected 2 issues, got %d", len(result.Issues))
	}
	if result.Issues[0].Line != 4 {
		t.Errorf("expected first issue on line 4, got %d", result.Issues[0].Line)
	}
	if result.Issues[1].Line != 6 {
		t.Errorf("expected second issue on line 6, got %d", result.Issues[1].Line)
	}

	first := result.Contracts[0]
	if first.Strike != 580 || first.Type != Call || first.OpenInterest != 1000 {
		t.Errorf("unexpected first contract: %+v", first)
	}
	if first.ImpliedVolatility != 0.25 {
		t.Errorf("expected percentage IV normalised to 0.25, got %v", first.ImpliedVolatility)
	}
	if first.DaysToExpiry != 30 {
		t.Errorf("expected 30 days to expiry, got %v", first.DaysToExpiry)
	}
	if first.Symbol != "SPY" {
		t.Errorf("expected default symbol SPY, got %q", first.Symbol)
	}
	if first.Volume != 120 {
		t.Errorf("expected volume 120, got %d", first.Volume)
	}

	if iv := result.Contracts[1].ImpliedVolatility; iv != 0.20 {
		t.Errorf("expected default IV 0.20 for empty cell, got %v", iv)
	}
	if dte := result.Contracts[2].DaysToExpiry; dte != MinDaysToExpiry {
		t.Errorf("expected same-day expiry clamped to %v, got %v", MinDaysToExpiry, dte)
	}
}

func TestFileLoader_OutOfRangeValues(t *testing.T) {
	csv := strings.Join([]string{
		"strike,option_type,open_interest,implied_volatility,days_to_expiry",
		"100,call,10,inf,30",
		"101,call,10,-Inf,30",
		"102,put,1e30,0.2,30",
		"103,put,20,0.2,30",
	}, "\n")
	path := writeFile(t, "range.csv", csv)

	result, err := testLoader(t).Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(result.Contracts) != 1 || result.Contracts[0].Strike != 103 {
		t.Fatalf("expected only the 103 put, got %+v", result.Contracts)
	}
	if len(result.Issues) != 3 {
		t.Fatalf("expected 3 issues, got %d", len(result.Issues))
	}
	for i, want := range []string{ErrInvalidVolatility.Error(), ErrInvalidVolatility.Error(), ErrInvalidOpenInterest.Error()} {
		if !strings.Contains(result.Issues[i].Reason, want) {
			t.Errorf("issue %d: expected %q, got %q", i, want, result.Issues[i].Reason)
		}
	}
}

func TestFileLoader_MissingColumns(t *testing.T) {
	path := writeFile(t, "bad.csv", "strike,option_type\n100,call\n")

	_, err := testLoader(t).Load(path)
	if !errors.Is(err, ErrMissingColumns) {
		t.Fatalf("expected ErrMissingColumns, got %v", err)
	}
	if !strings.Contains(err.Error(), "open_interest") {
		t.Errorf("expected missing column to be named, got %v", err)
	}
}

func TestFileLoader_Empty(t *testing.T) {
	path := writeFile(t, "empty.csv", "")
	if _, err := testLoader(t).Load(path); !errors.Is(err, ErrEmptyFile) {
		t.Errorf("expected ErrEmptyFile, got %v", err)
	}
}

func TestFileLoader_UnsupportedFormat(t *testing.T) {
	path := writeFile(t, "chain.xlsx", "x")
	if _, err := testLoader(t).Load(path); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestFileLoader_JSONLCompressed(t *testing.T) {
	lines := strings.Join([]string{
		`{"strike": 100, "option_type": "put", "open_interest": 500, "implied_volatility": 0.35, "dte": 7, "symbol": "qqq"}`,
		``,
		`{"strike": 105, "option_type": "call", "open_interest": 250, "days_to_expiry": 0.5}`,
	}, "\n")

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatal(err)
	}
	compressed := enc.EncodeAll([]byte(lines), nil)
	_ = enc.Close()

	path := filepath.Join(t.TempDir(), "qqq.jsonl.zst")
	if err := os.WriteFile(path, compressed, 0600); err != nil {
		t.Fatal(err)
	}

	result, err := testLoader(t).Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(result.Contracts) != 2 {
		t.Fatalf("expected 2 contracts, got %d", len(result.Contracts))
	}

	put := result.Contracts[0]
	if put.Symbol != "QQQ" || put.Type != Put || put.DaysToExpiry != 7 || put.ImpliedVolatility != 0.35 {
		t.Errorf("unexpected put contract: %+v", put)
	}
	call := result.Contracts[1]
	if call.DaysToExpiry != MinDaysToExpiry {
		t.Errorf("expected fractional DTE clamped to %v, got %v", MinDaysToExpiry, call.DaysToExpiry)
	}
	if call.ImpliedVolatility != 0.20 {
		t.Errorf("expected default IV, got %v", call.ImpliedVolatility)
	}
}

func TestFileLoader_VolatilityClamp(t *testing.T) {
	opts := DefaultLoadOptions()
	tests := []struct {
		raw  string
		want float64
	}{
		{"0.001", 0.01},
		{"3.5", 2.0},
		{"150", 1.5},
		{"-0.2", -0.2},
		{"0", 0},
	}
	for _, tt := range tests {
		got, err := opts.normalizeVolatility(tt.raw)
		if err != nil {
			t.Fatalf("normalizeVolatility(%q) failed: %v", tt.raw, err)
		}
		if got != tt.want {
			t.Errorf("normalizeVolatility(%q): expected %v, got %v", tt.raw, tt.want, got)
		}
	}
}

func TestSummarize(t *testing.T) {
	expiry := time.Date(2025, 11, 21, 0, 0, 0, 0, time.UTC)
	contracts := []OptionContract{
		{Symbol: "SPY", Strike: 580, Type: Call, OpenInterest: 100, ImpliedVolatility: 0.2, DaysToExpiry: 7, ExpiryDate: expiry},
		{Symbol: "SPY", Strike: 580, Type: Put, OpenInterest: 200, ImpliedVolatility: 0.3, DaysToExpiry: 7, ExpiryDate: expiry},
		{Symbol: "SPY", Strike: 590, Type: Call, OpenInterest: 50, ImpliedVolatility: 0.1, DaysToExpiry: 30},
	}

	s := Summarize(contracts, asOf)

	if s.Contracts != 3 || s.Calls != 2 || s.Puts != 1 {
		t.Errorf("unexpected counts: %+v", s)
	}
	if s.UniqueStrikes != 2 {
		t.Errorf("expected 2 unique strikes, got %d", s.UniqueStrikes)
	}
	if s.MinStrike != 580 || s.MaxStrike != 590 {
		t.Errorf("unexpected strike range %v-%v", s.MinStrike, s.MaxStrike)
	}
	if s.OpenInterest != 350 {
		t.Errorf("expected open interest 350, got %d", s.OpenInterest)
	}
	if math.Abs(s.AverageIV-0.2) > 1e-12 {
		t.Errorf("expected average IV 0.2, got %v", s.AverageIV)
	}
	if len(s.Expiries) != 2 {
		t.Fatalf("expected 2 expiry groups, got %d", len(s.Expiries))
	}
	if s.Expiries[0].ExpiryDate != "2025-11-21" || s.Expiries[0].Contracts != 2 {
		t.Errorf("unexpected first expiry group: %+v", s.Expiries[0])
	}
	if s.Expiries[0].TradingDays != 5 {
		t.Errorf("expected 5 trading days to 2025-11-21, got %d", s.Expiries[0].TradingDays)
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil, asOf)
	if s.Contracts != 0 || s.MinStrike != 0 || s.MaxStrike != 0 {
		t.Errorf("unexpected empty summary: %+v", s)
	}
}
