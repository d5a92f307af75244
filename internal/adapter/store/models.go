package store

import (
	"time"

	"gorm.io/datatypes"
)

// Gauge is a discovered monitoring location. Rows are inserted on every
// discovery run and never deduplicated.
type Gauge struct {
	ID          uint   `gorm:"primaryKey"`
	SiteNo      string `gorm:"index;size:32;not null"`
	StationName string `gorm:"size:255"`
	Latitude    float64
	Longitude   float64
	CreatedAt   time.Time `gorm:"not null"`
}

func (Gauge) TableName() string { return "gauges" }

// SnapshotModel holds the columns shared by the four cached payload tables.
type SnapshotModel struct {
	ID        uint           `gorm:"primaryKey"`
	SiteNo    string         `gorm:"index;size:32;not null"`
	Payload   datatypes.JSON `gorm:"not null"`
	FetchedAt time.Time      `gorm:"index;not null"`
}

type GaugeDetail struct{ SnapshotModel }

func (GaugeDetail) TableName() string { return "gauge_details" }

type GaugeStageflow struct{ SnapshotModel }

func (GaugeStageflow) TableName() string { return "gauge_stageflows" }

type GaugeReach struct{ SnapshotModel }

func (GaugeReach) TableName() string { return "gauge_reaches" }

type GaugeHistoricalForecast struct{ SnapshotModel }

func (GaugeHistoricalForecast) TableName() string { return "gauge_historical_forecasts" }

// APICall records a successful outbound request. Append-only.
type APICall struct {
	ID       uint      `gorm:"primaryKey"`
	Endpoint string    `gorm:"index:idx_api_calls_lookup,priority:1;size:512;not null"`
	DataType string    `gorm:"index:idx_api_calls_lookup,priority:2;size:32;not null"`
	CalledAt time.Time `gorm:"index:idx_api_calls_lookup,priority:3;not null"`
}

func (APICall) TableName() string { return "api_calls" }

// APIErrorLog records a failed outbound request. Append-only and write-only.
type APIErrorLog struct {
	ID           uint      `gorm:"primaryKey"`
	Endpoint     string    `gorm:"size:512;not null"`
	ErrorMessage string    `gorm:"type:text;not null"`
	LoggedAt     time.Time `gorm:"not null"`
}

func (APIErrorLog) TableName() string { return "api_error_logs" }

// models lists every table managed by Migrate.
func models() []any {
	return []any{
		&Gauge{},
		&GaugeDetail{},
		&GaugeStageflow{},
		&GaugeReach{},
		&GaugeHistoricalForecast{},
		&APICall{},
		&APIErrorLog{},
	}
}
