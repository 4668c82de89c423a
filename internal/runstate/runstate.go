// Package runstate implements the run state machine that serializes crawl
// runs. It is the only mechanism preventing two crawls from running
// concurrently against the same browser session.
package runstate

import (
	"errors"
	"sync"
	"time"

	"github.com/picklevibe/bookings-crawler/internal/domain"
)

// ErrAlreadyRunning is returned by Start when a run is in flight. It is a
// policy rejection, not a fault: the trigger is dropped, never queued.
var ErrAlreadyRunning = errors.New("a crawl run is already in progress")

// Machine is the process-wide run state. All mutations funnel through the
// transition methods; Snapshot always observes a complete, consistent state.
type Machine struct {
	mu        sync.Mutex
	running   bool
	lastRunAt *time.Time
	lastError string
	nextAt    time.Time

	next func(time.Time) time.Time
	now  func() time.Time
}

// New creates a Machine armed with a next-run computation. The next
// scheduled instant is derived immediately so that it is available before
// the first run.
func New(next func(time.Time) time.Time) *Machine {
	m := &Machine{next: next, now: time.Now}
	m.nextAt = next(m.now())
	return m
}

// Start transitions Idle -> Running and clears the last error. It fails
// with ErrAlreadyRunning, leaving state untouched, when a run is active.
func (m *Machine) Start(trigger string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return ErrAlreadyRunning
	}
	m.running = true
	m.lastError = ""
	return nil
}

// FinishSuccess transitions Running -> Idle, stamps the run time, and
// recomputes the next scheduled instant. Calls outside Running are ignored.
func (m *Machine) FinishSuccess(delivered int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	now := m.now()
	m.running = false
	m.lastRunAt = &now
	m.nextAt = m.next(now)
}

// FinishFailure transitions Running -> Idle carrying the failure, and
// recomputes the next scheduled instant. Calls outside Running are ignored.
func (m *Machine) FinishFailure(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	now := m.now()
	m.running = false
	m.lastRunAt = &now
	if err != nil {
		m.lastError = err.Error()
	}
	m.nextAt = m.next(now)
}

// Snapshot returns a copy of the current state.
func (m *Machine) Snapshot() domain.RunStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	status := domain.RunStatus{
		IsRunning:       m.running,
		LastError:       m.lastError,
		NextScheduledAt: m.nextAt,
	}
	if m.lastRunAt != nil {
		at := *m.lastRunAt
		status.LastRunAt = &at
	}
	return status
}
