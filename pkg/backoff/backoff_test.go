package backoff

import (
	"context"
	"testing"
	"time"
)

func TestDelayIsGeometric(t *testing.T) {
	s := Schedule{Initial: 1 * time.Second, Factor: 1.4, MaxAttempts: 10}

	prev := s.Delay(0)
	if prev != 1*time.Second {
		t.Errorf("Delay(0) = %v, want 1s", prev)
	}

	for n := 1; n < s.MaxAttempts; n++ {
		d := s.Delay(n)
		if d <= prev {
			t.Errorf("Delay(%d) = %v, not strictly greater than Delay(%d) = %v", n, d, n-1, prev)
		}
		// wait[n] = wait[n-1] * factor, within float rounding
		want := time.Duration(float64(prev) * s.Factor)
		diff := d - want
		if diff < 0 {
			diff = -diff
		}
		if diff > time.Millisecond {
			t.Errorf("Delay(%d) = %v, want %v", n, d, want)
		}
		prev = d
	}
}

func TestDelayIsDeterministic(t *testing.T) {
	s := Default()
	for n := 0; n < s.MaxAttempts; n++ {
		if s.Delay(n) != s.Delay(n) {
			t.Fatalf("Delay(%d) not deterministic", n)
		}
	}
}

func TestWaitHonoursCancellation(t *testing.T) {
	s := Schedule{Initial: 10 * time.Second, Factor: 2, MaxAttempts: 3}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := s.Wait(ctx, 0)
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
	if elapsed := time.Since(start); elapsed > 1*time.Second {
		t.Errorf("Wait blocked %v after cancellation", elapsed)
	}
}

func TestWaitCompletes(t *testing.T) {
	s := Schedule{Initial: 1 * time.Millisecond, Factor: 1.4, MaxAttempts: 3}
	if err := s.Wait(context.Background(), 0); err != nil {
		t.Fatalf("Wait returned error: %v", err)
	}
}
