// Package health exposes a lightweight HTTP health endpoint for container probes
// and, when configured, the Prometheus scrape endpoint.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"habit_tracker_bot/internal/domain"
	"habit_tracker_bot/internal/logging"
)

const (
	storePingTimeout   = 2 * time.Second
	readHeaderTimeout  = 2 * time.Second
	healthListenPrefix = ":"
)

// StoreChecker defines the subset of store behavior required for health.
type StoreChecker interface {
	Ping(ctx context.Context) error
}

// StatsReporter is implemented by stores that can summarize their contents.
type StatsReporter interface {
	Stats(ctx context.Context) (domain.Stats, error)
}

// Server hosts the health endpoint and owns the underlying HTTP server.
type Server struct {
	server       *http.Server
	logger       *logrus.Entry
	storeChecker StoreChecker
	metrics      http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics serves handler on GET /metrics.
func WithMetrics(handler http.Handler) Option {
	return func(s *Server) {
		s.metrics = handler
	}
}

type response struct {
	Status string        `json:"status"`
	Store  string        `json:"store,omitempty"`
	Stats  *domain.Stats `json:"stats,omitempty"`
}

// NewServer constructs a health server that exposes GET /healthz on the provided port.
func NewServer(port int, storeChecker StoreChecker, logger *logrus.Entry, opts ...Option) *Server {
	if logger == nil {
		logger = logging.Logger()
	}

	srv := &Server{
		logger:       logger,
		storeChecker: storeChecker,
	}
	for _, opt := range opts {
		opt(srv)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", srv.handleHealth)
	if srv.metrics != nil {
		mux.Handle("/metrics", srv.metrics)
	}

	srv.server = &http.Server{
		Addr:              fmt.Sprintf("%s%d", healthListenPrefix, port),
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	return srv
}

// ListenAndServe starts the health server and blocks until shutdown.
func (s *Server) ListenAndServe() error {
	s.logger.WithFields(logging.Fields{
		"event": "health_listen",
		"addr":  s.server.Addr,
	}).Info("starting health server")

	if err := s.server.ListenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			s.logger.WithField("event", "health_stopped").Info("health server stopped")
			return nil
		}

		return fmt.Errorf("health server listen: %w", err)
	}

	s.logger.WithField("event", "health_stopped").Info("health server stopped")
	return nil
}

// Shutdown gracefully stops the health server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}

	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := response{Status: "ok"}
	storeStatus := "ok"

	ctx := r.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if s.storeChecker == nil {
		storeStatus = "error"
		s.logger.WithField("event", "health_store_missing").Warn("store checker is not configured for health endpoint")
	} else {
		pingCtx, cancel := context.WithTimeout(ctx, storePingTimeout)
		err := s.storeChecker.Ping(pingCtx)
		if err != nil {
			storeStatus = "error"
			s.logger.WithFields(logging.Fields{
				"event": "health_store_error",
			}).WithError(err).Warn("store ping failed during health check")
		} else if reporter, ok := s.storeChecker.(StatsReporter); ok {
			stats, err := reporter.Stats(pingCtx)
			if err != nil {
				s.logger.WithField("event", "health_stats_error").WithError(err).Warn("store stats failed during health check")
			} else {
				resp.Stats = &stats
			}
		}
		cancel()
	}

	if storeStatus != "ok" {
		resp.Status = "degraded"
		resp.Store = "error"
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.WithField("event", "health_write_error").WithError(err).Error("failed to encode health response")
	}
}
