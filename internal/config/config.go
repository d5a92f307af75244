package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	DatabaseDriver string
	DatabaseDSN    string

	USGSBaseURL      string
	NWPSBaseURL      string
	DiscoveryTimeout time.Duration
	FetchTimeout     time.Duration

	// Cache policy.
	StaleAfter      time.Duration
	RateLimitWindow time.Duration

	// RunInterval repeats the sweep on a fixed interval; zero runs once.
	RunInterval time.Duration

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Snapshot publishing.
	KafkaEnabled       bool
	KafkaBrokers       []string
	KafkaSnapshotTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	discoveryTimeout, err := parsePositiveDuration("DISCOVERY_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	fetchTimeout, err := parsePositiveDuration("FETCH_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	staleAfter, err := parsePositiveDuration("STALE_AFTER", "15m")
	if err != nil {
		return nil, err
	}
	rateLimitWindow, err := parsePositiveDuration("RATE_LIMIT_WINDOW", "15m")
	if err != nil {
		return nil, err
	}

	runInterval, err := time.ParseDuration(sharedcfg.EnvOrDefault("RUN_INTERVAL", "0s"))
	if err != nil || runInterval < 0 {
		return nil, errors.New("invalid RUN_INTERVAL")
	}

	brokersEnv := os.Getenv("KAFKA_BROKERS")
	kafkaEnabled := brokersEnv != ""
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		DatabaseDriver:   sharedcfg.EnvOrDefault("DATABASE_DRIVER", "sqlite"),
		DatabaseDSN:      sharedcfg.EnvOrDefault("DATABASE_DSN", "data/gauges.db"),
		USGSBaseURL:      sharedcfg.EnvOrDefault("USGS_BASE_URL", "https://waterservices.usgs.gov/nwis"),
		NWPSBaseURL:      sharedcfg.EnvOrDefault("NWPS_BASE_URL", "https://api.water.noaa.gov/nwps/v1"),
		DiscoveryTimeout: discoveryTimeout,
		FetchTimeout:     fetchTimeout,
		StaleAfter:       staleAfter,
		RateLimitWindow:  rateLimitWindow,
		RunInterval:      runInterval,
		HTTPAddr:         os.Getenv("HTTP_ADDR"),
		LogLevel:         sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:        sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:  shutdownTimeout,

		KafkaEnabled:       kafkaEnabled,
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSnapshotTopic: sharedcfg.EnvOrDefault("KAFKA_SNAPSHOT_TOPIC", "gauge-snapshots"),
	}

	switch cfg.DatabaseDriver {
	case "sqlite", "mysql":
	default:
		return nil, fmt.Errorf("invalid DATABASE_DRIVER %q: want sqlite or mysql", cfg.DatabaseDriver)
	}
	if cfg.DatabaseDSN == "" {
		return nil, errors.New("DATABASE_DSN is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.KafkaEnabled && cfg.KafkaSnapshotTopic == "" {
		return nil, errors.New("KAFKA_SNAPSHOT_TOPIC is required")
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}
