package timer

import (
	"context"
	"math"
	"sync"
	"time"
)

// Countdown is a room's round clock. The absolute deadline is the single
// source of truth: ticks recompute the remaining seconds from it, so they
// stay correct across scheduling jitter. Clients render only the values
// this countdown emits.
type Countdown struct {
	mu       sync.Mutex
	deadline time.Time
	cancel   context.CancelFunc
	gen      uint64
}

func NewCountdown() *Countdown {
	return &Countdown{}
}

// Start arms the countdown for the given duration, cancelling any prior
// run. onTick receives the remaining whole seconds, first immediately and
// then once per second. onExpire fires at most once when the deadline
// passes, carrying the generation of this Start; no tick follows it.
//
// Cancellation cannot reach an expiry already past its context check, so
// the owner must compare the delivered generation against Generation()
// and drop mismatches. Without that check a stale expiry can land after
// the clock has been re-armed for a different phase.
func (c *Countdown) Start(seconds int, onTick func(remaining int), onExpire func(gen uint64)) uint64 {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.gen++
	gen := c.gen
	c.deadline = time.Now().Add(time.Duration(seconds) * time.Second)
	deadline := c.deadline
	c.mu.Unlock()

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()

		emit := func() bool {
			remaining := remainingSeconds(deadline)
			if onTick != nil {
				onTick(remaining)
			}
			return remaining > 0
		}

		if !emit() {
			if ctx.Err() == nil && onExpire != nil {
				onExpire(gen)
			}
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if emit() {
					continue
				}
				if ctx.Err() == nil && onExpire != nil {
					onExpire(gen)
				}
				return
			}
		}
	}()
	return gen
}

// Cancel stops the countdown and invalidates its generation, so an expiry
// already in flight fails the owner's Generation() check. Idempotent and
// safe when nothing is running.
func (c *Countdown) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
		c.gen++
	}
	c.deadline = time.Time{}
}

// Generation identifies the current arming of the countdown. Expiry
// callbacks whose generation no longer matches are stale.
func (c *Countdown) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// Remaining returns the whole seconds left, 0 when idle or expired.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.deadline.IsZero() {
		return 0
	}
	return remainingSeconds(c.deadline)
}

// Deadline returns the absolute expiry time and whether one is armed.
func (c *Countdown) Deadline() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deadline, !c.deadline.IsZero()
}

func remainingSeconds(deadline time.Time) int {
	left := time.Until(deadline)
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(left.Seconds()))
}
