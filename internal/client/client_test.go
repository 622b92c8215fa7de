package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/gexbot-analytics/internal/analysis"
	"github.com/dgnsrekt/gexbot-analytics/internal/chain"
	"github.com/dgnsrekt/gexbot-analytics/internal/config"
	"github.com/dgnsrekt/gexbot-analytics/internal/server"
)

func newAPIServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}
	analyzer, err := analysis.FromConfig(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("building analyzer: %v", err)
	}
	srvCfg := &config.ServerConfig{RateLimit: 1000, Burst: 1000, MaxBodyBytes: 1 << 20}
	router, err := server.NewRouter(server.NewServer(analyzer, srvCfg, zap.NewNop()), zap.NewNop())
	if err != nil {
		t.Fatalf("building router: %v", err)
	}
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return ts
}

func sampleRequest() analysis.Request {
	return analysis.Request{
		Symbol: "SPY",
		Spot:   580,
		Contracts: []chain.OptionContract{
			{Strike: 570, Type: chain.Put, OpenInterest: 8000, ImpliedVolatility: 0.22, DaysToExpiry: 14},
			{Strike: 580, Type: chain.Call, OpenInterest: 12000, ImpliedVolatility: 0.2, DaysToExpiry: 14},
			{Strike: 580, Type: chain.Put, OpenInterest: 10000, ImpliedVolatility: 0.21, DaysToExpiry: 14},
			{Strike: 590, Type: chain.Call, OpenInterest: 15000, ImpliedVolatility: 0.19, DaysToExpiry: 14},
		},
	}
}

func TestAnalyze_Success(t *testing.T) {
	ts := newAPIServer(t)
	logger, _ := zap.NewDevelopment()
	client := NewClient(ts.URL, 10, 30*time.Second, 10*time.Millisecond, 1, logger)

	report, err := client.Analyze(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.ID == "" {
		t.Error("expected report id")
	}
	if len(report.Strikes) != 3 {
		t.Errorf("expected 3 strikes, got %d", len(report.Strikes))
	}
	if report.Metrics.StrikeCount != 3 {
		t.Errorf("expected strike count 3, got %d", report.Metrics.StrikeCount)
	}
	if !report.Metrics.CallPutGammaRatio.Defined() {
		t.Error("expected a defined call/put ratio")
	}
}

func TestAnalyze_Rejected(t *testing.T) {
	ts := newAPIServer(t)
	client := NewClient(ts.URL, 10, 30*time.Second, 10*time.Millisecond, 3, zap.NewNop())

	req := analysis.Request{Spot: 100, Contracts: []chain.OptionContract{
		{Strike: 0, Type: chain.Call, OpenInterest: 1, ImpliedVolatility: 0.2, DaysToExpiry: 1},
	}}
	_, err := client.Analyze(context.Background(), req)
	if !errors.Is(err, ErrBadRequest) {
		t.Errorf("expected ErrBadRequest, got %v", err)
	}
}

func TestExpectedMove(t *testing.T) {
	ts := newAPIServer(t)
	client := NewClient(ts.URL, 10, 30*time.Second, 10*time.Millisecond, 0, zap.NewNop())

	m, err := client.ExpectedMove(context.Background(), 580, 0.2, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Move2SD != 2*m.Move1SD {
		t.Errorf("expected 2SD to be double 1SD, got %v and %v", m.Move1SD, m.Move2SD)
	}
}

func TestRetryOnServerError(t *testing.T) {
	var attempts atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"current_price": 100, "move_1sd": 5, "move_2sd": 10}`))
	}))
	defer ts.Close()

	client := NewClient(ts.URL, 10, 30*time.Second, 10*time.Millisecond, 3, zap.NewNop())
	m, err := client.ExpectedMove(context.Background(), 100, 0.2, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts.Load())
	}
	if m.Move1SD != 5 {
		t.Errorf("unexpected move: %+v", m)
	}
}

func TestRateLimited(t *testing.T) {
	var attempts atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	client := NewClient(ts.URL, 10, 30*time.Second, 10*time.Millisecond, 2, zap.NewNop())
	_, err := client.ExpectedMove(context.Background(), 100, 0.2, 10)
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}
	if attempts.Load() != 3 {
		t.Errorf("expected 3 attempts (1 + 2 retries), got %d", attempts.Load())
	}
}

func TestContextCancelled(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(ts.URL, 10, 30*time.Second, time.Second, 3, zap.NewNop())
	if _, err := client.Analyze(ctx, sampleRequest()); err == nil {
		t.Error("expected error for cancelled context")
	}
}
