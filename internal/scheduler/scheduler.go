// Package scheduler fires the daily crawl at a fixed wall-clock time in a
// fixed timezone and computes the deterministic next-run instant.
package scheduler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/picklevibe/bookings-crawler/internal/runstate"
)

// Schedule is a daily time-of-day in a fixed timezone.
type Schedule struct {
	expr  string
	inner cron.Schedule
	loc   *time.Location
}

// ParseDaily builds a Schedule from a "HH:MM" time-of-day and an IANA
// timezone name. DST transitions are resolved by the timezone conversion,
// not by fixed-offset arithmetic.
func ParseDaily(timeOfDay, timezone string) (*Schedule, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule timezone %q: %w", timezone, err)
	}

	parts := strings.Split(timeOfDay, ":")
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid schedule time %q, expected HH:MM", timeOfDay)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return nil, fmt.Errorf("invalid schedule hour in %q", timeOfDay)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return nil, fmt.Errorf("invalid schedule minute in %q", timeOfDay)
	}

	expr := fmt.Sprintf("CRON_TZ=%s %d %d * * *", timezone, minute, hour)
	inner, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("could not build schedule from %q: %w", timeOfDay, err)
	}

	return &Schedule{expr: expr, inner: inner, loc: loc}, nil
}

// Next returns the next firing instant strictly after now: today at the
// configured time-of-day in the configured timezone, or tomorrow when that
// has already passed. Re-running the computation with the same now yields
// the same instant.
func (s *Schedule) Next(now time.Time) time.Time {
	return s.inner.Next(now.In(s.loc))
}

// Location exposes the schedule's timezone.
func (s *Schedule) Location() *time.Location {
	return s.loc
}

// Scheduler drives the crawl trigger from a cron timer.
type Scheduler struct {
	cron     *cron.Cron
	schedule *Schedule
	logger   *zap.Logger
}

// New wires the schedule to a trigger function. A firing that finds a run
// already in progress is skipped and logged, never retried; the next day's
// firing is unaffected.
func New(schedule *Schedule, trigger func(source string) error, logger *zap.Logger) (*Scheduler, error) {
	c := cron.New(cron.WithLocation(schedule.loc))
	_, err := c.AddFunc(schedule.expr, func() {
		logger.Info("scheduled crawl firing")
		if err := trigger("scheduled"); err != nil {
			if errors.Is(err, runstate.ErrAlreadyRunning) {
				logger.Warn("scheduled crawl skipped, a run is already in progress")
				return
			}
			logger.Error("scheduled crawl failed to start", zap.Error(err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("could not register schedule %q: %w", schedule.expr, err)
	}
	return &Scheduler{cron: c, schedule: schedule, logger: logger}, nil
}

// Start begins firing. The first firing is the schedule's next instant.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started",
		zap.Time("next_run", s.schedule.Next(time.Now())))
}

// Stop halts the timer and waits for an in-flight firing callback to
// return. It does not cancel a crawl run the callback has started.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
