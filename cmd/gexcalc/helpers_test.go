package main

import (
	"path/filepath"
	"testing"
)

func TestDefaultExportPath(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"data/spy.csv", filepath.Join("out", "spy_breakdown.csv")},
		{"data/spy.csv.zst", filepath.Join("out", "spy_breakdown.csv")},
		{"qqq.jsonl", filepath.Join("out", "qqq_breakdown.csv")},
	}
	for _, tt := range tests {
		if got := defaultExportPath("out", tt.input); got != tt.want {
			t.Errorf("defaultExportPath(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestParseAsOf(t *testing.T) {
	got, err := parseAsOf("2025-11-21")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Format(dateLayout) != "2025-11-21" {
		t.Errorf("unexpected date %v", got)
	}

	if _, err := parseAsOf("11/21/2025"); err == nil {
		t.Error("expected error for wrong layout")
	}
}

func TestRequirePositive(t *testing.T) {
	if err := requirePositive("spot", 1); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	for _, v := range []float64{0, -1} {
		if err := requirePositive("spot", v); err == nil {
			t.Errorf("expected error for %v", v)
		}
	}
}
