package pipeline

import (
	"testing"
	"time"
)

func TestCircuitBreaker(t *testing.T) {
	t.Run("opens at threshold", func(t *testing.T) {
		cb := NewCircuitBreaker(3, time.Minute)

		cb.RecordFailure()
		cb.RecordFailure()
		if !cb.Allow() {
			t.Error("breaker should stay closed below threshold")
		}

		cb.RecordFailure()
		if cb.Allow() {
			t.Error("breaker should open at threshold")
		}
	})

	t.Run("success resets count and closes", func(t *testing.T) {
		cb := NewCircuitBreaker(3, time.Minute)

		for i := 0; i < 3; i++ {
			cb.RecordFailure()
		}
		if cb.Allow() {
			t.Fatal("breaker should be open")
		}

		cb.RecordSuccess()
		if !cb.Allow() {
			t.Error("success should close the breaker")
		}
		if snap := cb.Snapshot(); snap.Failures != 0 {
			t.Errorf("expected failure count 0 after success, got %d", snap.Failures)
		}
	})

	t.Run("threshold counts consecutive failures only", func(t *testing.T) {
		cb := NewCircuitBreaker(3, time.Minute)

		cb.RecordFailure()
		cb.RecordFailure()
		cb.RecordSuccess()
		cb.RecordFailure()
		cb.RecordFailure()

		if !cb.Allow() {
			t.Error("interleaved success should reset the consecutive count")
		}
	})

	t.Run("no time based recovery", func(t *testing.T) {
		cb := NewCircuitBreaker(1, time.Nanosecond)

		cb.RecordFailure()
		time.Sleep(time.Millisecond)

		if cb.Allow() {
			t.Error("breaker must stay open until an explicit success, regardless of reset timeout")
		}
	})

	t.Run("snapshot reports configuration", func(t *testing.T) {
		cb := NewCircuitBreaker(7, 42*time.Second)
		snap := cb.Snapshot()

		if snap.Threshold != 7 {
			t.Errorf("expected threshold 7, got %d", snap.Threshold)
		}
		if snap.ResetTimeout != 42*time.Second {
			t.Errorf("expected reset timeout 42s, got %s", snap.ResetTimeout)
		}
		if snap.Open {
			t.Error("new breaker should be closed")
		}
	})
}
