package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/dgnsrekt/gexbot-analytics/internal/analysis"
	"github.com/dgnsrekt/gexbot-analytics/internal/move"
)

// Client is the remote analysis surface used by the CLI.
type Client interface {
	Analyze(ctx context.Context, req analysis.Request) (*analysis.Report, error)
	ExpectedMove(ctx context.Context, spot, iv, dte float64) (*move.Move, error)
}

type HTTPClient struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	retryCount int
	retryDelay time.Duration
	logger     *zap.Logger
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewClient(baseURL string, ratePerSec int, timeout, retryDelay time.Duration, retryCount int, logger *zap.Logger) *HTTPClient {
	transport := &http.Transport{
		MaxIdleConns:       100,
		MaxConnsPerHost:    10,
		IdleConnTimeout:    90 * time.Second,
		DisableCompression: false,
	}

	return &HTTPClient{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		baseURL:    baseURL,
		limiter:    rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec*2),
		retryCount: retryCount,
		retryDelay: retryDelay,
		logger:     logger,
	}
}

func (c *HTTPClient) Analyze(ctx context.Context, req analysis.Request) (*analysis.Report, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	var report analysis.Report
	if err := c.do(ctx, http.MethodPost, "/v1/analyze", payload, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func (c *HTTPClient) ExpectedMove(ctx context.Context, spot, iv, dte float64) (*move.Move, error) {
	q := url.Values{}
	q.Set("spot", strconv.FormatFloat(spot, 'f', -1, 64))
	q.Set("iv", strconv.FormatFloat(iv, 'f', -1, 64))
	q.Set("dte", strconv.FormatFloat(dte, 'f', -1, 64))

	var m move.Move
	if err := c.do(ctx, http.MethodGet, "/v1/expected-move?"+q.Encode(), nil, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// do sends one request, retrying transport errors, 429 and 5xx responses with
// exponential backoff. Other 4xx responses fail immediately.
func (c *HTTPClient) do(ctx context.Context, method, path string, payload []byte, out any) error {
	// Wait for rate limiter
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	endpoint := c.baseURL + path
	c.logger.Debug("requesting", zap.String("method", method), zap.String("url", endpoint))

	var lastErr error
	for attempt := 0; attempt <= c.retryCount; attempt++ {
		if attempt > 0 {
			delay := c.retryDelay * time.Duration(1<<(attempt-1)) // Exponential backoff
			c.logger.Debug("retrying request", zap.Int("attempt", attempt), zap.Duration("delay", delay))

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		// Read body before closing for error messages
		respBody, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()

		if readErr != nil {
			lastErr = readErr
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = ErrRateLimited
			continue
		}

		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			continue
		}

		if resp.StatusCode >= 400 {
			return fmt.Errorf("%w (%d): %s", ErrBadRequest, resp.StatusCode, serverMessage(respBody))
		}

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
		}

		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func serverMessage(body []byte) string {
	var e errorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
		return e.Error
	}
	return string(body)
}
