package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/river-gauge-etl/internal/domain"
	"github.com/couchcryptid/river-gauge-etl/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Discoverer lists the gauges around a point.
type Discoverer interface {
	DiscoverGauges(ctx context.Context, lat, lon, radiusKm float64) ([]domain.Gauge, error)
}

// Store is the cache side of the persistence gateway.
type Store interface {
	SaveGauges(ctx context.Context, gauges []domain.Gauge) error
	Latest(ctx context.Context, kind domain.Kind, siteNo string) (domain.Snapshot, bool, error)
	Insert(ctx context.Context, snap domain.Snapshot) error
}

// Fetcher performs one rate-limited request and returns its JSON body.
type Fetcher interface {
	Fetch(ctx context.Context, url, dataType string) (json.RawMessage, error)
}

// Endpoints builds the per-gauge data URLs.
type Endpoints interface {
	DetailsURL(siteNo string) string
	StageflowURL(siteNo string) string
	ReachURL(reachID string) string
	HistoricalForecastURL(siteNo, observedPEDTS string) string
}

// Publisher receives every freshly fetched snapshot after it is stored.
type Publisher interface {
	Publish(ctx context.Context, snap domain.Snapshot) error
}

// Options tunes an Orchestrator. Zero values fall back to defaults.
type Options struct {
	StaleAfter time.Duration
	Clock      clockwork.Clock
	Publisher  Publisher
}

// Summary reports the outcome of one sweep.
type Summary struct {
	RunID      string
	Discovered int
	Succeeded  int
	Failed     int
}

// Orchestrator runs sweeps: discover gauges, then bring each gauge's four
// cached data kinds up to date one gauge at a time.
type Orchestrator struct {
	discoverer Discoverer
	store      Store
	fetcher    Fetcher
	endpoints  Endpoints
	publisher  Publisher
	clock      clockwork.Clock
	staleAfter time.Duration
	logger     *slog.Logger
	metrics    *observability.Metrics
	ready      atomic.Bool
}

// New creates an Orchestrator with the given collaborators and observability.
func New(d Discoverer, s Store, f Fetcher, e Endpoints, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Orchestrator {
	staleAfter := opts.StaleAfter
	if staleAfter <= 0 {
		staleAfter = domain.DefaultStaleAfter
	}
	return &Orchestrator{
		discoverer: d,
		store:      s,
		fetcher:    f,
		endpoints:  e,
		publisher:  opts.Publisher,
		clock:      domain.ClockOrReal(opts.Clock),
		staleAfter: staleAfter,
		logger:     logger,
		metrics:    metrics,
	}
}

// CheckReadiness returns nil once a sweep has completed,
// or an error describing why the service is not yet ready.
func (o *Orchestrator) CheckReadiness(_ context.Context) error {
	if !o.ready.Load() {
		return errors.New("no sweep has completed yet")
	}
	return nil
}

// Run performs one sweep around (lat, lon). A discovery failure aborts the
// sweep and is returned; a failure inside one gauge only skips that gauge.
func (o *Orchestrator) Run(ctx context.Context, lat, lon, radiusKm float64) (Summary, error) {
	summary := Summary{RunID: uuid.NewString()}
	logger := o.logger.With("run_id", summary.RunID)
	start := time.Now()

	o.metrics.SweepRunning.Set(1)
	defer o.metrics.SweepRunning.Set(0)

	logger.Info("sweep started", "lat", lat, "lon", lon, "radius_km", radiusKm)

	gauges, err := o.discoverer.DiscoverGauges(ctx, lat, lon, radiusKm)
	if err != nil {
		logger.Error("gauge discovery failed", "error", err)
		return summary, fmt.Errorf("discover gauges: %w", err)
	}
	summary.Discovered = len(gauges)
	o.metrics.GaugesDiscovered.Add(float64(len(gauges)))

	if err := o.store.SaveGauges(ctx, gauges); err != nil {
		logger.Error("saving discovered gauges failed", "count", len(gauges), "error", err)
		return summary, err
	}

	for _, gauge := range gauges {
		if err := ctx.Err(); err != nil {
			logger.Info("sweep stopping", "reason", err)
			return summary, err
		}

		glog := logger.With("site_no", gauge.SiteNo)
		glog.Info("processing gauge", "station", gauge.StationName)

		if err := o.processGauge(ctx, gauge, glog); err != nil {
			summary.Failed++
			o.recordFailure(glog, err)
			continue
		}
		summary.Succeeded++
	}

	o.metrics.SweepDuration.Observe(time.Since(start).Seconds())
	o.metrics.LastSweep.Set(float64(o.clock.Now().Unix()))
	o.ready.Store(true)

	logger.Info("sweep complete",
		"discovered", summary.Discovered,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
	)
	return summary, nil
}

// ProcessGauge brings one gauge's details, stageflow, reach and historical
// forecast up to date, in that order, stopping at the first failure.
func (o *Orchestrator) ProcessGauge(ctx context.Context, gauge domain.Gauge) error {
	return o.processGauge(ctx, gauge, o.logger.With("site_no", gauge.SiteNo))
}

func (o *Orchestrator) processGauge(ctx context.Context, gauge domain.Gauge, logger *slog.Logger) error {
	siteNo := gauge.SiteNo

	details, err := o.resolve(ctx, logger, siteNo, domain.KindDetails, func() (string, error) {
		return o.endpoints.DetailsURL(siteNo), nil
	})
	if err != nil {
		return err
	}

	if _, err := o.resolve(ctx, logger, siteNo, domain.KindStageflow, func() (string, error) {
		return o.endpoints.StageflowURL(siteNo), nil
	}); err != nil {
		return err
	}

	if _, err := o.resolve(ctx, logger, siteNo, domain.KindReach, func() (string, error) {
		reachID, err := domain.ReachID(details)
		if err != nil {
			return "", err
		}
		return o.endpoints.ReachURL(reachID), nil
	}); err != nil {
		return err
	}

	if _, err := o.resolve(ctx, logger, siteNo, domain.KindHistoricalForecast, func() (string, error) {
		observed, err := domain.ObservedPEDTS(details)
		if err != nil {
			return "", err
		}
		return o.endpoints.HistoricalForecastURL(siteNo, observed), nil
	}); err != nil {
		return err
	}

	o.metrics.GaugesProcessed.Inc()
	return nil
}

// resolve returns the cached snapshot of kind when it is fresh, otherwise
// fetches, stores and publishes a new one. endpoint is only evaluated when a
// fetch is needed, so chained lookups never read details they do not use.
func (o *Orchestrator) resolve(ctx context.Context, logger *slog.Logger, siteNo string, kind domain.Kind, endpoint func() (string, error)) (domain.Snapshot, error) {
	fail := func(err error) (domain.Snapshot, error) {
		return domain.Snapshot{}, &domain.StageError{SiteNo: siteNo, Stage: kind, Err: err}
	}

	cached, found, err := o.store.Latest(ctx, kind, siteNo)
	if err != nil {
		return fail(err)
	}

	freshness := domain.Classify(cached, found, o.clock.Now(), o.staleAfter)
	o.metrics.CacheLookups.WithLabelValues(string(kind), freshness.String()).Inc()
	if !freshness.NeedsFetch() {
		logger.Info("retrieved from cache", "stage", kind, "fetched_at", cached.FetchedAt)
		return cached, nil
	}

	url, err := endpoint()
	if err != nil {
		return fail(err)
	}

	payload, err := o.fetcher.Fetch(ctx, url, string(kind))
	if err != nil {
		return fail(err)
	}

	snap := domain.Snapshot{
		SiteNo:    siteNo,
		Kind:      kind,
		Payload:   payload,
		FetchedAt: o.clock.Now(),
	}
	if err := o.store.Insert(ctx, snap); err != nil {
		return fail(err)
	}
	o.publish(ctx, logger, snap)

	logger.Info("retrieved from api", "stage", kind, "cache", freshness.String())
	return snap, nil
}

// publish forwards a snapshot to the optional publisher. The store is the
// system of record, so a publish failure never fails the gauge.
func (o *Orchestrator) publish(ctx context.Context, logger *slog.Logger, snap domain.Snapshot) {
	if o.publisher == nil {
		return
	}
	if err := o.publisher.Publish(ctx, snap); err != nil {
		o.metrics.PublishErrors.Inc()
		logger.Warn("snapshot publish failed", "stage", snap.Kind, "error", err)
		return
	}
	o.metrics.SnapshotsPublished.Inc()
}

func (o *Orchestrator) recordFailure(logger *slog.Logger, err error) {
	stage := "unknown"
	var se *domain.StageError
	if errors.As(err, &se) {
		stage = string(se.Stage)
	}
	o.metrics.GaugeFailures.WithLabelValues(stage).Inc()

	// A rate-limit refusal is expected when sweeps run closer together than the window.
	if errors.Is(err, domain.ErrRateLimited) {
		logger.Warn("gauge skipped", "stage", stage, "error", err)
		return
	}
	logger.Error("gauge skipped", "stage", stage, "error", err)
}
