package usgs

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/river-gauge-etl/internal/domain"
)

// DefaultBaseURL is the USGS water services root.
const DefaultBaseURL = "https://waterservices.usgs.gov/nwis"

// DefaultTimeout bounds the site listing request.
const DefaultTimeout = 10 * time.Second

// Client discovers active stream gauges with the USGS Site Web Service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a discovery client. An empty baseURL uses DefaultBaseURL.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
	}
}

// DiscoverGauges lists active stream gauges inside the bounding box of
// radiusKm around (lat, lon).
//
// A failed request returns a *domain.DiscoveryError; a successful response
// without any parseable gauge returns domain.ErrNoGaugesFound.
func (c *Client) DiscoverGauges(ctx context.Context, lat, lon, radiusKm float64) ([]domain.Gauge, error) {
	bbox := domain.BoundingBox(lat, lon, radiusKm)
	params := url.Values{
		"format":     {"rdb"},
		"bBox":       {bbox.String()},
		"siteStatus": {"active"},
		"siteType":   {"ST"},
	}
	fullURL := c.baseURL + "/site/?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, &domain.DiscoveryError{URL: fullURL, Err: fmt.Errorf("create request: %w", err)}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.DiscoveryError{URL: fullURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &domain.DiscoveryError{URL: fullURL, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	gauges, err := ParseRDB(resp.Body)
	if err != nil {
		return nil, &domain.DiscoveryError{URL: fullURL, Err: err}
	}
	if len(gauges) == 0 {
		return nil, fmt.Errorf("%w near (%.7f, %.7f) within %g km", domain.ErrNoGaugesFound, lat, lon, radiusKm)
	}

	c.logger.Info("gauges discovered", "count", len(gauges), "bbox", bbox.String())
	return gauges, nil
}
