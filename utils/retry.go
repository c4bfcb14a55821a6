package utils

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// RetryState is the position of a retry loop.
type RetryState int

const (
	StateAttempting RetryState = iota
	StateBackoff
	StateExhausted
	StateSucceeded
	StateFailed
)

func (s RetryState) String() string {
	switch s {
	case StateAttempting:
		return "attempting"
	case StateBackoff:
		return "backoff"
	case StateExhausted:
		return "exhausted"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Sleeper suspends the caller for d, returning early with ctx.Err() when ctx
// is cancelled.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the default Sleeper.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// RetryAfterError signals that the remote side asked us to wait for After
// before trying again. The wait replaces the configured delay.
type RetryAfterError struct {
	After time.Duration
	Err   error
}

func (e *RetryAfterError) Error() string {
	return fmt.Sprintf("retry after %v: %v", e.After, e.Err)
}

func (e *RetryAfterError) Unwrap() error { return e.Err }

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was wrapped with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// RetryConfig holds the parameters for the retry strategy.
//
// A Multiplier of 0 or 1 keeps the delay fixed between attempts; 2 doubles it
// after every failure.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
	Sleep       Sleeper
	Logger      *Logger
}

type retryLoop struct {
	cfg     *RetryConfig
	state   RetryState
	attempt int
	delay   time.Duration
	wait    time.Duration
	lastErr error
}

func (l *retryLoop) maxAttempts() int {
	if l.cfg.MaxAttempts < 1 {
		return 1
	}
	return l.cfg.MaxAttempts
}

// observe moves the loop out of StateAttempting based on the outcome of fn.
func (l *retryLoop) observe(err error) {
	l.lastErr = err
	switch {
	case err == nil:
		l.state = StateSucceeded
	case IsPermanent(err):
		l.state = StateFailed
	case l.attempt >= l.maxAttempts():
		l.state = StateExhausted
	default:
		var ra *RetryAfterError
		if errors.As(err, &ra) {
			l.wait = ra.After
		} else {
			l.wait = l.delay
			if l.cfg.Multiplier > 1 {
				l.delay = time.Duration(float64(l.delay) * l.cfg.Multiplier)
			}
		}
		l.state = StateBackoff
	}
}

// Do runs fn until it succeeds, returns a Permanent error, or MaxAttempts is
// reached. Between attempts it sleeps for the configured delay, or for the
// duration carried by a *RetryAfterError.
func (r *RetryConfig) Do(ctx context.Context, operationName string, fn func() error) error {
	sleep := r.Sleep
	if sleep == nil {
		sleep = SleepContext
	}
	loop := &retryLoop{cfg: r, state: StateAttempting, delay: r.BaseDelay}

	for {
		switch loop.state {
		case StateAttempting:
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("%s: %w", operationName, err)
			}
			loop.attempt++
			loop.observe(fn())

		case StateBackoff:
			if r.Logger != nil {
				r.Logger.Warn("[retry] %s failed (attempt %d/%d): %v, retrying in %v",
					operationName, loop.attempt, loop.maxAttempts(), loop.lastErr, loop.wait)
			}
			if err := sleep(ctx, loop.wait); err != nil {
				return fmt.Errorf("%s: %w", operationName, err)
			}
			loop.state = StateAttempting

		case StateExhausted:
			return fmt.Errorf("%s failed after %d attempts: %w", operationName, loop.attempt, loop.lastErr)

		case StateFailed:
			return fmt.Errorf("%s: %w", operationName, loop.lastErr)

		case StateSucceeded:
			return nil
		}
	}
}
