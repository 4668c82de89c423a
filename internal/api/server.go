// Package api exposes the service's HTTP surface: health, run status,
// manual trigger, last dataset, statistics, run history and metrics.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/picklevibe/bookings-crawler/internal/domain"
	"github.com/picklevibe/bookings-crawler/internal/runstate"
	"github.com/picklevibe/bookings-crawler/internal/storage"
)

// RunHistory is the optional run archive read side.
type RunHistory interface {
	RecentRuns(ctx context.Context, limit int) ([]domain.RunRecord, error)
}

// Server holds the dependencies for the HTTP server.
type Server struct {
	port       string
	router     http.Handler
	httpServer *http.Server
	state      *runstate.Machine
	trigger    func(source string) error
	store      *storage.SnapshotStore
	history    RunHistory // nil when Postgres is not configured
	gatherer   prometheus.Gatherer
	logger     *zap.Logger
	startedAt  time.Time
}

func NewServer(
	port string,
	state *runstate.Machine,
	trigger func(source string) error,
	store *storage.SnapshotStore,
	history RunHistory,
	gatherer prometheus.Gatherer,
	logger *zap.Logger,
) *Server {
	s := &Server{
		port:      port,
		state:     state,
		trigger:   trigger,
		store:     store,
		history:   history,
		gatherer:  gatherer,
		logger:    logger,
		startedAt: time.Now(),
	}
	s.router = s.setupRouter()
	return s
}

func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%s", s.port),
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
