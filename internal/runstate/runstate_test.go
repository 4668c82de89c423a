package runstate

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNext(now time.Time) time.Time {
	return now.Add(24 * time.Hour)
}

func TestStartRejectsOverlappingTriggers(t *testing.T) {
	m := New(fixedNext)

	require.NoError(t, m.Start("manual"))

	before := m.Snapshot()
	err := m.Start("scheduled")
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	after := m.Snapshot()
	assert.Equal(t, before, after, "rejected trigger must not change state")
	assert.True(t, after.IsRunning)
}

func TestFinishSuccessRearms(t *testing.T) {
	m := New(fixedNext)

	require.NoError(t, m.Start("manual"))
	m.FinishSuccess(42)

	s := m.Snapshot()
	assert.False(t, s.IsRunning)
	require.NotNil(t, s.LastRunAt)
	assert.Empty(t, s.LastError)
	assert.Equal(t, s.LastRunAt.Add(24*time.Hour), s.NextScheduledAt)

	// Re-armed: a new trigger is accepted.
	assert.NoError(t, m.Start("scheduled"))
}

func TestFinishFailureRecordsError(t *testing.T) {
	m := New(fixedNext)

	require.NoError(t, m.Start("scheduled"))
	m.FinishFailure(errors.New("remote sink unreachable"))

	s := m.Snapshot()
	assert.False(t, s.IsRunning)
	assert.Equal(t, "remote sink unreachable", s.LastError)
	require.NotNil(t, s.LastRunAt)
}

func TestStartClearsLastError(t *testing.T) {
	m := New(fixedNext)

	require.NoError(t, m.Start("manual"))
	m.FinishFailure(errors.New("boom"))
	require.NoError(t, m.Start("manual"))

	assert.Empty(t, m.Snapshot().LastError)
}

func TestFinishOutsideRunningIsIgnored(t *testing.T) {
	m := New(fixedNext)

	initial := m.Snapshot()
	m.FinishSuccess(10)
	m.FinishFailure(errors.New("boom"))

	assert.Equal(t, initial, m.Snapshot())
}

func TestNextScheduledComputedAtConstruction(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m := &Machine{next: fixedNext, now: func() time.Time { return at }}
	m.nextAt = m.next(m.now())

	assert.Equal(t, at.Add(24*time.Hour), m.Snapshot().NextScheduledAt)
}
