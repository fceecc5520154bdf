package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		Name:                 "test",
		WindowSize:           10,
		FailureRateThreshold: 0.5,
		MinimumCalls:         10,
		OpenStateDuration:    30 * time.Second,
		HalfOpenProbes:       3,
	}
}

var errBackend = errors.New("connection refused")

func record(b *Breaker, failures, successes int) {
	for i := 0; i < failures; i++ {
		b.RecordFailure(time.Millisecond, errBackend)
	}
	for i := 0; i < successes; i++ {
		b.RecordSuccess(time.Millisecond)
	}
}

func TestBreakerStaysClosedBelowThreshold(t *testing.T) {
	b := New(testConfig())

	record(b, 4, 6)

	assert.Equal(t, StateClosed, b.State())
	assert.True(t, b.Acquire())
}

func TestBreakerOpensAtThreshold(t *testing.T) {
	b := New(testConfig())

	record(b, 6, 4)

	assert.Equal(t, StateOpen, b.State())
	assert.False(t, b.Acquire())
}

func TestBreakerOpensAtExactThreshold(t *testing.T) {
	b := New(testConfig())

	// 5 failures in a window of 10 sits exactly on the 0.5 threshold;
	// meets-or-exceeds opens.
	record(b, 5, 5)

	assert.Equal(t, StateOpen, b.State())
	assert.False(t, b.Acquire())
}

func TestBreakerRequiresMinimumCalls(t *testing.T) {
	b := New(testConfig())

	// 100% failure rate, but below the minimum sample count.
	record(b, 9, 0)

	assert.Equal(t, StateClosed, b.State())
	assert.True(t, b.Acquire())
}

func TestBreakerWindowEvictsOldOutcomes(t *testing.T) {
	b := New(testConfig())

	// Four early failures pushed out of the window by later successes.
	record(b, 4, 5)
	require.Equal(t, StateClosed, b.State())

	record(b, 0, 5)
	record(b, 1, 0)

	// Window now holds 1 failure and 9 successes.
	assert.Equal(t, StateClosed, b.State())
}

func TestRejectionsAreNotRecorded(t *testing.T) {
	b := New(testConfig())
	record(b, 6, 4)
	require.Equal(t, StateOpen, b.State())

	before := b.Snapshot()
	for i := 0; i < 20; i++ {
		assert.False(t, b.Acquire())
	}
	after := b.Snapshot()

	assert.Equal(t, before.Calls, after.Calls)
	assert.Equal(t, before.Failures, after.Failures)
}

func TestOpenTransitionsToHalfOpenAfterWait(t *testing.T) {
	b := New(testConfig())

	now := time.Now()
	b.now = func() time.Time { return now }

	record(b, 6, 4)
	require.Equal(t, StateOpen, b.State())

	now = now.Add(29 * time.Second)
	assert.Equal(t, StateOpen, b.State())

	now = now.Add(2 * time.Second)
	assert.Equal(t, StateHalfOpen, b.State())
}

func TestHalfOpenProbeBudget(t *testing.T) {
	b := New(testConfig())
	now := time.Now()
	b.now = func() time.Time { return now }

	record(b, 6, 4)
	now = now.Add(31 * time.Second)
	require.Equal(t, StateHalfOpen, b.State())

	for i := 0; i < 3; i++ {
		assert.True(t, b.Acquire(), "probe %d should be admitted", i+1)
	}
	assert.False(t, b.Acquire(), "fourth probe must be rejected")
}

func TestHalfOpenClosesAfterSuccessfulProbes(t *testing.T) {
	b := New(testConfig())
	now := time.Now()
	b.now = func() time.Time { return now }

	record(b, 6, 4)
	now = now.Add(31 * time.Second)
	require.Equal(t, StateHalfOpen, b.State())

	for i := 0; i < 3; i++ {
		require.True(t, b.Acquire())
		b.RecordSuccess(time.Millisecond)
	}

	assert.Equal(t, StateClosed, b.State())

	// The window restarts clean after recovery.
	snap := b.Snapshot()
	assert.Equal(t, 0, snap.Calls)
	assert.Equal(t, 0, snap.Failures)
}

func TestHalfOpenReopensOnProbeFailure(t *testing.T) {
	b := New(testConfig())
	now := time.Now()
	b.now = func() time.Time { return now }

	record(b, 6, 4)
	now = now.Add(31 * time.Second)
	require.Equal(t, StateHalfOpen, b.State())

	require.True(t, b.Acquire())
	b.RecordSuccess(time.Millisecond)

	require.True(t, b.Acquire())
	b.RecordFailure(time.Millisecond, errBackend)

	assert.Equal(t, StateOpen, b.State())
	assert.False(t, b.Acquire())
}

func TestSnapshotReportsFailureRate(t *testing.T) {
	b := New(testConfig())

	record(b, 3, 7)

	snap := b.Snapshot()
	assert.Equal(t, "test", snap.Name)
	assert.Equal(t, 10, snap.Calls)
	assert.Equal(t, 3, snap.Failures)
	assert.InDelta(t, 0.3, snap.FailureRate, 1e-9)
}
