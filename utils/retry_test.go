package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

type sleepRecorder struct {
	waits []time.Duration
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.waits = append(s.waits, d)
	return nil
}

var errTimeout = errors.New("timed out")

func TestRetrySucceedsAfterTimeouts(t *testing.T) {
	rec := &sleepRecorder{}
	cfg := &RetryConfig{MaxAttempts: 5, BaseDelay: 5 * time.Second, Sleep: rec.sleep, Logger: NewDiscardLogger()}

	calls := 0
	err := cfg.Do(context.Background(), "send", func() error {
		calls++
		if calls < 3 {
			return errTimeout
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls: got %d, want 3", calls)
	}
	if len(rec.waits) != 2 || rec.waits[0] != 5*time.Second || rec.waits[1] != 5*time.Second {
		t.Errorf("waits: got %v, want [5s 5s]", rec.waits)
	}
}

func TestRetryExhausted(t *testing.T) {
	rec := &sleepRecorder{}
	cfg := &RetryConfig{MaxAttempts: 5, BaseDelay: time.Second, Sleep: rec.sleep}

	calls := 0
	err := cfg.Do(context.Background(), "send", func() error {
		calls++
		return errTimeout
	})
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if !errors.Is(err, errTimeout) {
		t.Errorf("error should wrap the last failure, got %v", err)
	}
	if calls != 5 {
		t.Errorf("calls: got %d, want 5", calls)
	}
	// No sleep after the last attempt.
	if len(rec.waits) != 4 {
		t.Errorf("sleeps: got %d, want 4", len(rec.waits))
	}
}

func TestRetryHonorsRetryAfter(t *testing.T) {
	rec := &sleepRecorder{}
	cfg := &RetryConfig{MaxAttempts: 3, BaseDelay: 5 * time.Second, Sleep: rec.sleep}

	calls := 0
	err := cfg.Do(context.Background(), "send", func() error {
		calls++
		if calls == 1 {
			return &RetryAfterError{After: 42 * time.Second, Err: errors.New("too many requests")}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if len(rec.waits) != 1 || rec.waits[0] != 42*time.Second {
		t.Errorf("waits: got %v, want [42s]", rec.waits)
	}
}

func TestRetryPermanentStopsImmediately(t *testing.T) {
	rec := &sleepRecorder{}
	cfg := &RetryConfig{MaxAttempts: 5, BaseDelay: time.Second, Sleep: rec.sleep}

	bad := errors.New("bad request")
	calls := 0
	err := cfg.Do(context.Background(), "send", func() error {
		calls++
		return Permanent(bad)
	})
	if !errors.Is(err, bad) {
		t.Errorf("error: got %v, want wrapping %v", err, bad)
	}
	if calls != 1 {
		t.Errorf("calls: got %d, want 1", calls)
	}
	if len(rec.waits) != 0 {
		t.Errorf("sleeps: got %d, want 0", len(rec.waits))
	}
}

func TestRetryExponentialDelay(t *testing.T) {
	rec := &sleepRecorder{}
	cfg := &RetryConfig{MaxAttempts: 4, BaseDelay: time.Second, Multiplier: 2, Sleep: rec.sleep}

	_ = cfg.Do(context.Background(), "fetch", func() error { return errTimeout })

	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
	if len(rec.waits) != len(want) {
		t.Fatalf("waits: got %v, want %v", rec.waits, want)
	}
	for i := range want {
		if rec.waits[i] != want[i] {
			t.Errorf("wait %d: got %v, want %v", i, rec.waits[i], want[i])
		}
	}
}

func TestRetryStopsOnCancelledContext(t *testing.T) {
	cfg := &RetryConfig{MaxAttempts: 5, BaseDelay: time.Second}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := cfg.Do(ctx, "send", func() error {
		calls++
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error: got %v, want context.Canceled", err)
	}
	if calls != 0 {
		t.Errorf("calls: got %d, want 0", calls)
	}
}

func TestRetryStateString(t *testing.T) {
	tests := map[RetryState]string{
		StateAttempting: "attempting",
		StateBackoff:    "backoff",
		StateExhausted:  "exhausted",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("String(%d) = %q; want %q", int(s), got, want)
		}
	}
}
