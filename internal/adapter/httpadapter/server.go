package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/river-gauge-etl/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SnapshotLookup reads the cache without fetching.
type SnapshotLookup interface {
	Latest(ctx context.Context, kind domain.Kind, siteNo string) (domain.Snapshot, bool, error)
}

// Server exposes health, readiness, metrics and cache inspection endpoints.
type Server struct {
	httpServer *http.Server
	snapshots  SnapshotLookup
	staleAfter time.Duration
	clock      clockwork.Clock
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and
// /gauges/{siteNo}/{kind} routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, snapshots SnapshotLookup, staleAfter time.Duration, clock clockwork.Clock, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		snapshots:  snapshots,
		staleAfter: staleAfter,
		clock:      domain.ClockOrReal(clock),
		logger:     logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /gauges/{siteNo}/{kind}", s.handleSnapshot)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

type snapshotResponse struct {
	domain.Snapshot
	Freshness string `json:"freshness"`
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	siteNo := r.PathValue("siteNo")
	kind, err := domain.ParseKind(r.PathValue("kind"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	snap, found, err := s.snapshots.Latest(r.Context(), kind, siteNo)
	if err != nil {
		s.logger.Error("snapshot lookup failed", "site_no", siteNo, "kind", kind, "error", err)
		status := http.StatusInternalServerError
		if errors.Is(err, context.Canceled) {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, map[string]string{"error": "snapshot lookup failed"})
		return
	}
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no cached " + string(kind) + " for " + siteNo})
		return
	}

	writeJSON(w, http.StatusOK, snapshotResponse{
		Snapshot:  snap,
		Freshness: domain.Classify(snap, true, s.clock.Now(), s.staleAfter).String(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
