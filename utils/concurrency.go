package utils

import (
	"context"
	"sync"
	"time"
)

// Throttle spaces out calls so that consecutive Wait returns are at least
// the configured interval apart. It is safe for concurrent use.
type Throttle struct {
	interval time.Duration
	sleep    Sleeper

	mu          sync.Mutex
	lastRequest time.Time
}

// NewThrottle creates a Throttle with a minimum gap of rateLimitMs milliseconds.
func NewThrottle(rateLimitMs int) *Throttle {
	return &Throttle{
		interval: time.Duration(rateLimitMs) * time.Millisecond,
		sleep:    SleepContext,
	}
}

// Wait blocks until the next request is allowed or ctx is done.
func (t *Throttle) Wait(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.lastRequest.IsZero() {
		elapsed := time.Since(t.lastRequest)
		if elapsed < t.interval {
			if err := t.sleep(ctx, t.interval-elapsed); err != nil {
				return err
			}
		}
	}
	t.lastRequest = time.Now()
	return nil
}
