package notify

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/gexbot-analytics/internal/batch"
)

func sampleResult() *batch.BatchResult {
	flip := 578.5
	return &batch.BatchResult{
		Total:   5,
		Success: 1,
		Failed:  4,
		Summaries: []batch.Summary{
			{Symbol: "SPY", Spot: 580, Environment: "positive_gamma", StrengthLevel: "strong", GammaFlipLevel: &flip},
		},
		Errors: []batch.TaskError{
			{Path: "a.csv", Error: "missing"}, {Path: "b.csv", Error: "missing"},
			{Path: "c.csv", Error: "missing"}, {Path: "d.csv", Error: "missing"},
		},
		Duration: 1500 * time.Millisecond,
	}
}

func TestFormatBatchMessage(t *testing.T) {
	msg := FormatBatchMessage(sampleResult())

	for _, want := range []string{
		"Files: 1 analyzed, 4 failed",
		"SPY @ 580.00: positive_gamma (strong), flip 578.50",
		"- a.csv: missing",
		"... and 1 more errors",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
	if strings.Contains(msg, "d.csv") {
		t.Error("message should list at most three errors")
	}
}

func TestBatchComplete(t *testing.T) {
	var gotPath, gotPriority, gotAuth, gotBody string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotPriority = r.Header.Get("Priority")
		gotAuth = r.Header.Get("Authorization")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
	}))
	defer ts.Close()

	cfg := &Config{Enabled: true, Server: ts.URL + "/", Topic: "gex", Priority: "default", Tags: "chart", Token: "secret"}
	n := New(cfg, zap.NewNop())
	if err := n.BatchComplete(context.Background(), sampleResult()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/gex" {
		t.Errorf("expected /gex, got %s", gotPath)
	}
	if gotPriority != "high" {
		t.Errorf("expected high priority for failed batch, got %s", gotPriority)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("unexpected auth header %q", gotAuth)
	}
	if !strings.Contains(gotBody, "SPY") {
		t.Errorf("unexpected body %q", gotBody)
	}
}

func TestBatchComplete_ServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	cfg := &Config{Enabled: true, Server: ts.URL, Topic: "gex", Priority: "default"}
	if err := NewClient(cfg, zap.NewNop()).BatchComplete(context.Background(), sampleResult()); err == nil {
		t.Error("expected error for 403")
	}
}

func TestNew_Disabled(t *testing.T) {
	if _, ok := New(&Config{}, zap.NewNop()).(NoopNotifier); !ok {
		t.Error("expected noop notifier when disabled")
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("NTFY_ENABLED", "true")
	t.Setenv("NTFY_TOPIC", "gex-alerts")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server != "https://ntfy.sh" || cfg.Topic != "gex-alerts" {
		t.Errorf("unexpected config: %+v", cfg)
	}

	t.Setenv("NTFY_PRIORITY", "loud")
	if _, err := LoadConfig(); err == nil {
		t.Error("expected invalid priority error")
	}
}
