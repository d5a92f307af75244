package nwps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/river-gauge-etl/internal/domain"
	"github.com/couchcryptid/river-gauge-etl/internal/observability"
)

// DefaultBaseURL is the NOAA National Water Prediction Service API root.
const DefaultBaseURL = "https://api.water.noaa.gov/nwps/v1"

// DefaultRateLimitWindow is how long a successful (endpoint, data type) call blocks a repeat.
const DefaultRateLimitWindow = 900 * time.Second

// CallLog is the part of the persistence gateway the fetcher gates and records against.
type CallLog interface {
	CalledWithin(ctx context.Context, endpoint, dataType string, window time.Duration) (bool, error)
	LogCall(ctx context.Context, endpoint, dataType string) error
	LogError(ctx context.Context, endpoint, message string) error
}

// Client fetches NWPS JSON payloads, refusing to repeat a call made within
// the rate-limit window and recording every outcome in the call log.
type Client struct {
	httpClient *http.Client
	calls      CallLog
	window     time.Duration
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a rate-limited fetcher. timeout bounds each request.
func NewClient(calls CallLog, timeout, window time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		calls:      calls,
		window:     window,
		metrics:    metrics,
		logger:     logger,
	}
}

// Fetch GETs url and returns its JSON body.
//
// The call log is consulted first: a call to the same url for the same
// dataType inside the window yields a *domain.RateLimitedError without any
// network traffic. A transport failure, non-2xx status or non-JSON body is
// written to the error log and returned as a *domain.FetchError. Only
// successful calls are written to the call log.
func (c *Client) Fetch(ctx context.Context, url, dataType string) (json.RawMessage, error) {
	recent, err := c.calls.CalledWithin(ctx, url, dataType, c.window)
	if err != nil {
		return nil, err
	}
	if recent {
		c.metrics.Fetches.WithLabelValues(dataType, "rate_limited").Inc()
		return nil, &domain.RateLimitedError{Endpoint: url, DataType: dataType}
	}

	start := time.Now()
	body, err := c.get(ctx, url)
	c.metrics.FetchDuration.WithLabelValues(dataType).Observe(time.Since(start).Seconds())

	// The outcome is recorded even when the caller's context is already done.
	logCtx := context.WithoutCancel(ctx)

	if err != nil {
		c.metrics.Fetches.WithLabelValues(dataType, "error").Inc()
		if logErr := c.calls.LogError(logCtx, url, err.Error()); logErr != nil {
			c.logger.Error("failed to record api error", "endpoint", url, "error", logErr)
		}
		return nil, &domain.FetchError{Endpoint: url, Err: err}
	}

	if err := c.calls.LogCall(logCtx, url, dataType); err != nil {
		c.metrics.Fetches.WithLabelValues(dataType, "error").Inc()
		return nil, err
	}
	c.metrics.Fetches.WithLabelValues(dataType, "success").Inc()
	c.logger.Debug("fetched", "endpoint", url, "data_type", dataType, "bytes", len(body))
	return body, nil
}

func (c *Client) get(ctx context.Context, url string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %s: %s", resp.Status, truncate(body, 256))
	}

	if !json.Valid(body) {
		return nil, errors.New("decode response: body is not valid JSON")
	}
	return json.RawMessage(body), nil
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
