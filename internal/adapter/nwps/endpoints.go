package nwps

import (
	"net/url"
	"strings"
)

// Endpoints builds the per-gauge NWPS URLs. Each URL is also the rate-limit
// key, so the four kinds of one gauge never share a bucket.
type Endpoints struct {
	BaseURL string
}

// NewEndpoints returns URL builders rooted at baseURL (DefaultBaseURL when empty).
func NewEndpoints(baseURL string) Endpoints {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return Endpoints{BaseURL: strings.TrimRight(baseURL, "/")}
}

func (e Endpoints) DetailsURL(siteNo string) string {
	return e.BaseURL + "/gauges/" + url.PathEscape(siteNo)
}

func (e Endpoints) StageflowURL(siteNo string) string {
	return e.BaseURL + "/gauges/" + url.PathEscape(siteNo) + "/stageflow"
}

func (e Endpoints) ReachURL(reachID string) string {
	return e.BaseURL + "/reaches/" + url.PathEscape(reachID)
}

func (e Endpoints) HistoricalForecastURL(siteNo, observedPEDTS string) string {
	return e.BaseURL + "/products/stageflow/" + url.PathEscape(siteNo) + "/" + url.PathEscape(observedPEDTS)
}
