package scraper

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/picklevibe/bookings-crawler/internal/domain"
	"github.com/picklevibe/bookings-crawler/internal/monitoring"
	"github.com/picklevibe/bookings-crawler/internal/runstate"
)

// Deliverer sends an aggregated dataset to its sink.
type Deliverer interface {
	Deliver(ctx context.Context, dataset []domain.BookingRecord) (int, error)
}

// RunArchiver records run outcomes for the run-history endpoint.
type RunArchiver interface {
	SaveRun(ctx context.Context, run domain.RunRecord) error
}

// Orchestrator sequences the paginator across all configured organizations,
// aggregates the results, and drives the run state machine.
type Orchestrator struct {
	provider   SessionProvider
	paginator  *Paginator
	orgs       []domain.Organization
	pipeline   Deliverer
	state      *runstate.Machine
	archive    RunArchiver // optional
	metrics    *monitoring.Metrics
	logger     *zap.Logger
	runTimeout time.Duration
}

func NewOrchestrator(
	provider SessionProvider,
	paginator *Paginator,
	orgs []domain.Organization,
	pipeline Deliverer,
	state *runstate.Machine,
	archive RunArchiver,
	metrics *monitoring.Metrics,
	logger *zap.Logger,
	runTimeout time.Duration,
) *Orchestrator {
	return &Orchestrator{
		provider:   provider,
		paginator:  paginator,
		orgs:       orgs,
		pipeline:   pipeline,
		state:      state,
		archive:    archive,
		metrics:    metrics,
		logger:     logger,
		runTimeout: runTimeout,
	}
}

// Trigger starts a run on its own goroutine. It returns
// runstate.ErrAlreadyRunning, without queueing, when a run is in flight.
// Once started, a run proceeds to completion or failure; there is no
// mid-run cancellation beyond the overall run timeout.
func (o *Orchestrator) Trigger(source string) error {
	if err := o.state.Start(source); err != nil {
		return err
	}
	go o.execute(source)
	return nil
}

func (o *Orchestrator) execute(source string) {
	ctx, cancel := context.WithTimeout(context.Background(), o.runTimeout)
	defer cancel()

	startedAt := time.Now()
	o.logger.Info("crawl run started",
		zap.String("trigger", source),
		zap.Int("organizations", len(o.orgs)))

	session, err := o.provider.NewSession(ctx)
	if err != nil {
		o.metrics.IncErrorsTotal("session_unavailable")
		o.finish(source, startedAt, 0, fmt.Errorf("acquire browser session: %w", err))
		return
	}
	defer session.Close()

	// Organizations are crawled sequentially in configured order: they
	// share the one browser session, and the dataset order must be
	// deterministic (organization-major, page-major, row-major).
	var dataset []domain.BookingRecord
	for _, org := range o.orgs {
		records, crawlErr := o.paginator.Crawl(ctx, session, org)
		dataset = append(dataset, records...)
		if crawlErr != nil {
			// Per-organization isolation: log, keep the partial pages,
			// continue with the remaining organizations.
			o.metrics.IncErrorsTotal("source_unavailable")
			o.logger.Error("organization crawl failed",
				zap.String("organization", org.Name),
				zap.Int("partial_records", len(records)),
				zap.Error(crawlErr))
			continue
		}
		o.metrics.RecordsScraped.WithLabelValues(org.Name).Add(float64(len(records)))
		o.logger.Info("organization crawled",
			zap.String("organization", org.Name),
			zap.Int("records", len(records)))
	}

	count, err := o.pipeline.Deliver(ctx, dataset)
	if err != nil {
		o.metrics.IncErrorsTotal("persistence_failed")
		o.finish(source, startedAt, len(dataset), err)
		return
	}
	o.finish(source, startedAt, count, nil)
}

func (o *Orchestrator) finish(source string, startedAt time.Time, records int, runErr error) {
	finishedAt := time.Now()
	o.metrics.RunDuration.Observe(finishedAt.Sub(startedAt).Seconds())

	run := domain.RunRecord{
		Trigger:    source,
		StartedAt:  startedAt,
		FinishedAt: &finishedAt,
		Records:    records,
	}

	if runErr != nil {
		o.state.FinishFailure(runErr)
		o.metrics.IncRun(source, "failure")
		run.Outcome = "failure"
		run.Error = runErr.Error()
		o.logger.Error("crawl run failed",
			zap.String("trigger", source),
			zap.Duration("duration", finishedAt.Sub(startedAt)),
			zap.Error(runErr))
	} else {
		o.state.FinishSuccess(records)
		o.metrics.IncRun(source, "success")
		run.Outcome = "success"
		o.logger.Info("crawl run finished",
			zap.String("trigger", source),
			zap.Int("records", records),
			zap.Duration("duration", finishedAt.Sub(startedAt)))
	}

	o.archiveRun(run)
}

func (o *Orchestrator) archiveRun(run domain.RunRecord) {
	if o.archive == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := o.archive.SaveRun(ctx, run); err != nil {
		o.logger.Warn("could not archive run outcome", zap.Error(err))
	}
}
