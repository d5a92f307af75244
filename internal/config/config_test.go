package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const defaultBroker = "localhost:9092"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, "data/gauges.db", cfg.DatabaseDSN)
	assert.Equal(t, "https://waterservices.usgs.gov/nwis", cfg.USGSBaseURL)
	assert.Equal(t, "https://api.water.noaa.gov/nwps/v1", cfg.NWPSBaseURL)
	assert.Equal(t, 10*time.Second, cfg.DiscoveryTimeout)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 15*time.Minute, cfg.StaleAfter)
	assert.Equal(t, 900*time.Second, cfg.RateLimitWindow)
	assert.Zero(t, cfg.RunInterval)
	assert.Empty(t, cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{defaultBroker}, cfg.KafkaBrokers)
	assert.Equal(t, "gauge-snapshots", cfg.KafkaSnapshotTopic)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "mysql")
	t.Setenv("DATABASE_DSN", "gauges:secret@tcp(db:3306)/gauges?parseTime=true")
	t.Setenv("USGS_BASE_URL", "http://usgs.local/nwis")
	t.Setenv("NWPS_BASE_URL", "http://nwps.local/v1")
	t.Setenv("DISCOVERY_TIMEOUT", "5s")
	t.Setenv("FETCH_TIMEOUT", "45s")
	t.Setenv("STALE_AFTER", "30m")
	t.Setenv("RATE_LIMIT_WINDOW", "10m")
	t.Setenv("RUN_INTERVAL", "15m")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_SNAPSHOT_TOPIC", "custom-snapshots")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "mysql", cfg.DatabaseDriver)
	assert.Equal(t, "gauges:secret@tcp(db:3306)/gauges?parseTime=true", cfg.DatabaseDSN)
	assert.Equal(t, "http://usgs.local/nwis", cfg.USGSBaseURL)
	assert.Equal(t, "http://nwps.local/v1", cfg.NWPSBaseURL)
	assert.Equal(t, 5*time.Second, cfg.DiscoveryTimeout)
	assert.Equal(t, 45*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 30*time.Minute, cfg.StaleAfter)
	assert.Equal(t, 10*time.Minute, cfg.RateLimitWindow)
	assert.Equal(t, 15*time.Minute, cfg.RunInterval)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-snapshots", cfg.KafkaSnapshotTopic)
}

func TestLoad_InvalidDurations(t *testing.T) {
	for _, key := range []string{"DISCOVERY_TIMEOUT", "FETCH_TIMEOUT", "STALE_AFTER", "RATE_LIMIT_WINDOW"} {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, "not-a-duration")
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
		t.Run(key+" non-positive", func(t *testing.T) {
			t.Setenv(key, "0s")
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestLoad_InvalidRunInterval(t *testing.T) {
	t.Setenv("RUN_INTERVAL", "-1m")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RUN_INTERVAL")
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidDatabaseDriver(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "postgres")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_DRIVER")
}

func TestLoad_KafkaExplicitlyDisabled(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "broker1:9092")
	t.Setenv("KAFKA_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.KafkaEnabled)
}

func TestLoad_KafkaEnabledWithDefaultBroker(t *testing.T) {
	t.Setenv("KAFKA_ENABLED", "true")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{defaultBroker}, cfg.KafkaBrokers)
}
