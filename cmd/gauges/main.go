// Command gauges discovers the USGS stream gauges around a point and brings
// each gauge's cached NWPS data (details, stageflow, reach, historical
// forecast) up to date.
//
// Usage:
//
//	go run ./cmd/gauges -lat 41.76 -lon -72.89 -radius 10
//
// With RUN_INTERVAL set the sweep repeats until SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/river-gauge-etl/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/river-gauge-etl/internal/adapter/kafka"
	"github.com/couchcryptid/river-gauge-etl/internal/adapter/nwps"
	"github.com/couchcryptid/river-gauge-etl/internal/adapter/store"
	"github.com/couchcryptid/river-gauge-etl/internal/adapter/usgs"
	"github.com/couchcryptid/river-gauge-etl/internal/config"
	"github.com/couchcryptid/river-gauge-etl/internal/observability"
	"github.com/couchcryptid/river-gauge-etl/internal/pipeline"
	"github.com/couchcryptid/river-gauge-etl/internal/scheduler"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	area, err := parseArgs(args, os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	st, err := store.Open(cfg.DatabaseDriver, cfg.DatabaseDSN, clock, logger)
	if err != nil {
		logger.Error("failed to open store", "driver", cfg.DatabaseDriver, "error", err)
		return 1
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Error("store close error", "error", err)
		}
	}()

	var publisher pipeline.Publisher
	if cfg.KafkaEnabled {
		writer := kafkaadapter.NewWriter(cfg, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		publisher = writer
		logger.Info("snapshot publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSnapshotTopic)
	}

	orch := pipeline.New(
		usgs.NewClient(cfg.USGSBaseURL, cfg.DiscoveryTimeout, logger),
		st,
		nwps.NewClient(st, cfg.FetchTimeout, cfg.RateLimitWindow, metrics, logger),
		nwps.NewEndpoints(cfg.NWPSBaseURL),
		pipeline.Options{StaleAfter: cfg.StaleAfter, Clock: clock, Publisher: publisher},
		logger,
		metrics,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.HTTPAddr != "" {
		srv := httpadapter.NewServer(cfg.HTTPAddr, orch, st, cfg.StaleAfter, clock, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("http server shutdown error", "error", err)
			}
		}()
	}

	if cfg.RunInterval == 0 {
		if _, err := orch.Run(ctx, area.Lat, area.Lon, area.RadiusKm); err != nil {
			return 1
		}
		return 0
	}

	sched := scheduler.New(orch, area, cfg.RunInterval, logger)
	if err := sched.Start(ctx); err != nil {
		logger.Error("failed to start scheduler", "error", err)
		return 1
	}

	<-ctx.Done()
	logger.Info("shutting down")
	sched.Stop()
	logger.Info("shutdown complete")
	return 0
}

// parseArgs reads the search circle. All three flags are required.
func parseArgs(args []string, output io.Writer) (scheduler.Area, error) {
	fs := flag.NewFlagSet("gauges", flag.ContinueOnError)
	fs.SetOutput(output)
	lat := fs.Float64("lat", 0, "latitude of the search center in decimal degrees (required)")
	lon := fs.Float64("lon", 0, "longitude of the search center in decimal degrees (required)")
	radius := fs.Float64("radius", 0, "search radius in kilometers (required)")
	if err := fs.Parse(args); err != nil {
		return scheduler.Area{}, err
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	for _, name := range []string{"lat", "lon", "radius"} {
		if !set[name] {
			return scheduler.Area{}, fmt.Errorf("-%s is required", name)
		}
	}

	switch {
	case *lat < -90 || *lat > 90:
		return scheduler.Area{}, fmt.Errorf("-lat %v out of range [-90, 90]", *lat)
	case *lon < -180 || *lon > 180:
		return scheduler.Area{}, fmt.Errorf("-lon %v out of range [-180, 180]", *lon)
	case *radius <= 0:
		return scheduler.Area{}, fmt.Errorf("-radius must be positive, got %v", *radius)
	}

	return scheduler.Area{Lat: *lat, Lon: *lon, RadiusKm: *radius}, nil
}
