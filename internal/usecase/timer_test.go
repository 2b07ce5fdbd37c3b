package usecase

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountdownExpires(t *testing.T) {
	t.Parallel()
	fired := make(chan struct{})
	c := StartCountdown(2, time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("countdown did not expire")
	}
	assert.Equal(t, 0, c.Remaining())
}

func TestCountdownStopPreventsExpiry(t *testing.T) {
	t.Parallel()
	var fired atomic.Bool
	c := StartCountdown(2, 5*time.Millisecond, func() { fired.Store(true) })
	c.Stop()

	time.Sleep(60 * time.Millisecond)
	assert.False(t, fired.Load())
}

func TestCountdownStopIdempotent(t *testing.T) {
	t.Parallel()
	c := StartCountdown(5, time.Second, func() {})
	c.Stop()
	require.NotPanics(t, func() { c.Stop() })
}

func TestCountdownPauseHoldsTicks(t *testing.T) {
	t.Parallel()
	fired := make(chan struct{})
	c := StartCountdown(3, 10*time.Millisecond, func() { close(fired) })
	c.Pause()

	select {
	case <-fired:
		t.Fatal("countdown expired while paused")
	case <-time.After(100 * time.Millisecond):
	}

	c.Resume()
	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("countdown did not expire after resume")
	}
}

func TestCountdownRemainingNeverNegative(t *testing.T) {
	t.Parallel()
	done := make(chan struct{})
	c := StartCountdown(1, time.Millisecond, func() { close(done) })
	<-done
	assert.GreaterOrEqual(t, c.Remaining(), 0)
}
