// Package backoff provides the geometric wait schedule used by the upload
// status poller and the metadata convergence loop.
package backoff

import (
	"context"
	"math"
	"time"
)

// Schedule describes a deterministic geometric backoff:
// Delay(n) = Initial * Factor^n, for n in [0, MaxAttempts).
type Schedule struct {
	Initial     time.Duration
	Factor      float64
	MaxAttempts int
}

// Default matches the tuning used against Strava-shaped services: 1s initial
// wait growing by 1.4x per attempt, capped at 10 attempts (~70s worst case).
func Default() Schedule {
	return Schedule{
		Initial:     1 * time.Second,
		Factor:      1.4,
		MaxAttempts: 10,
	}
}

// Delay returns the wait before attempt n (zero-based).
func (s Schedule) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	return time.Duration(float64(s.Initial) * math.Pow(s.Factor, float64(attempt)))
}

// Wait sleeps for Delay(attempt) or until ctx is cancelled, whichever first.
// Returns ctx.Err() on cancellation so callers can stop issuing requests.
func (s Schedule) Wait(ctx context.Context, attempt int) error {
	timer := time.NewTimer(s.Delay(attempt))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
