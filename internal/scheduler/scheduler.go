package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/couchcryptid/river-gauge-etl/internal/pipeline"
	"github.com/go-co-op/gocron"
)

// Sweeper runs one discovery-and-refresh pass over an area.
type Sweeper interface {
	Run(ctx context.Context, lat, lon, radiusKm float64) (pipeline.Summary, error)
}

// Area is the search circle every scheduled sweep covers.
type Area struct {
	Lat      float64
	Lon      float64
	RadiusKm float64
}

// Scheduler repeats sweeps on a fixed interval. A sweep that overruns the
// interval delays the next one instead of overlapping it.
type Scheduler struct {
	scheduler *gocron.Scheduler
	sweeper   Sweeper
	area      Area
	interval  time.Duration
	logger    *slog.Logger
}

// New creates a Scheduler. Nothing runs until Start.
func New(sweeper Sweeper, area Area, interval time.Duration, logger *slog.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		sweeper:   sweeper,
		area:      area,
		interval:  interval,
		logger:    logger,
	}
}

// Start runs the first sweep immediately and then one every interval, each
// bound to ctx. It returns once the job is scheduled.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.interval <= 0 {
		return errors.New("scheduler: interval must be positive")
	}

	_, err := s.scheduler.Every(s.interval).Do(func() {
		if ctx.Err() != nil {
			return
		}
		if _, err := s.sweeper.Run(ctx, s.area.Lat, s.area.Lon, s.area.RadiusKm); err != nil {
			s.logger.Error("scheduled sweep failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	s.logger.Info("scheduler started", "interval", s.interval)
	s.scheduler.StartAsync()
	return nil
}

// Stop cancels future sweeps and waits for a running one to return.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
