package usecase

import (
	"sync"
	"time"
)

// TimerHandle is the cancellable countdown handed to the orchestrator when a
// question is asked. Stop is synchronous and idempotent: once it returns the
// expiry callback will not fire unless expiry had already been claimed, in
// which case the answered check-and-set makes the late path a no-op.
type TimerHandle interface {
	Stop()
	Pause()
	Resume()
	Remaining() int
}

// TimerFactory creates a countdown of the given length. Tests substitute a
// manual implementation so expiry can be driven deterministically.
type TimerFactory func(seconds int, onExpire func()) TimerHandle

// Countdown is the production TimerHandle: a 1-second periodic tick running
// in its own goroutine, independent of the orchestrator's provider calls.
type Countdown struct {
	mu        sync.Mutex
	remaining int
	paused    bool
	stopped   bool
	onExpire  func()
	done      chan struct{}
}

// StartCountdown begins ticking immediately. The tick granularity is a
// parameter only so tests can compress time.
func StartCountdown(seconds int, tick time.Duration, onExpire func()) *Countdown {
	c := &Countdown{remaining: seconds, onExpire: onExpire, done: make(chan struct{})}
	go c.run(tick)
	return c
}

func (c *Countdown) run(tick time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-t.C:
			c.mu.Lock()
			if c.stopped {
				c.mu.Unlock()
				return
			}
			if c.paused {
				c.mu.Unlock()
				continue
			}
			c.remaining--
			if c.remaining > 0 {
				c.mu.Unlock()
				continue
			}
			// Claim expiry under the lock so a concurrent Stop either
			// happens before (and suppresses the callback) or after
			// (and becomes a no-op).
			c.stopped = true
			fn := c.onExpire
			c.mu.Unlock()
			fn()
			return
		}
	}
}

// Stop cancels the countdown. Safe to call multiple times.
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.stopped = true
	close(c.done)
}

// Pause freezes the countdown while the orchestrator is busy with a
// provider call.
func (c *Countdown) Pause() {
	c.mu.Lock()
	c.paused = true
	c.mu.Unlock()
}

// Resume continues a paused countdown.
func (c *Countdown) Resume() {
	c.mu.Lock()
	c.paused = false
	c.mu.Unlock()
}

// Remaining returns the seconds left.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.remaining < 0 {
		return 0
	}
	return c.remaining
}
