package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Gauge is a USGS stream monitoring location returned by discovery.
type Gauge struct {
	SiteNo      string  `json:"site_no"`
	StationName string  `json:"station_nm"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

// Kind identifies one of the four cached NWPS data sets. Its string value is
// also the data_type tag recorded in the API call log.
type Kind string

const (
	KindDetails            Kind = "details"
	KindStageflow          Kind = "stageflow"
	KindReach              Kind = "reach"
	KindHistoricalForecast Kind = "historical_forecast"
)

// Kinds lists every kind in the order a gauge's stages run.
var Kinds = []Kind{KindDetails, KindStageflow, KindReach, KindHistoricalForecast}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindDetails, KindStageflow, KindReach, KindHistoricalForecast:
		return true
	}
	return false
}

// Expires reports whether cached rows of this kind are subject to staleness.
// Reach rows are keyed by a reach id that never changes, so they are kept forever.
func (k Kind) Expires() bool {
	return k != KindReach
}

// ParseKind converts a data_type tag to a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown data kind %q", s)
	}
	return k, nil
}

// Snapshot is one cached payload of a given kind for a gauge.
type Snapshot struct {
	SiteNo    string          `json:"site_no"`
	Kind      Kind            `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	FetchedAt time.Time       `json:"fetched_at"`
}
