package pipeline

import (
	"sync"
	"time"
)

// CircuitBreaker counts consecutive failures against a dependency and opens
// once the count reaches the configured threshold. Any recorded success fully
// resets the count and closes the circuit, so the threshold measures failures
// since the last success rather than failures within a time window.
//
// Recovery is success-driven only: the breaker never half-opens on a timer.
// ResetTimeout is retained as advisory metadata (surfaced via [CircuitBreaker.Snapshot])
// for operators deciding when to probe a failing source again.
type CircuitBreaker struct {
	mu           sync.Mutex
	failures     int
	open         bool
	openedAt     time.Time
	threshold    int
	resetTimeout time.Duration
}

// BreakerSnapshot is a point-in-time view of breaker state for reporting.
type BreakerSnapshot struct {
	Failures     int
	Open         bool
	OpenedAt     time.Time
	Threshold    int
	ResetTimeout time.Duration
}

// NewCircuitBreaker creates a closed breaker that opens after threshold
// consecutive failures. A threshold below one defaults to five.
func NewCircuitBreaker(threshold int, resetTimeout time.Duration) *CircuitBreaker {
	if threshold < 1 {
		threshold = 5
	}
	return &CircuitBreaker{
		threshold:    threshold,
		resetTimeout: resetTimeout,
	}
}

// RecordFailure increments the consecutive-failure count, opening the circuit
// when it reaches the threshold.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	if cb.failures >= cb.threshold && !cb.open {
		cb.open = true
		cb.openedAt = time.Now()
	}
}

// RecordSuccess resets the failure count to zero and closes the circuit.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures = 0
	cb.open = false
	cb.openedAt = time.Time{}
}

// Allow reports whether requests may currently be dispatched.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return !cb.open
}

// Snapshot returns the current breaker state.
func (cb *CircuitBreaker) Snapshot() BreakerSnapshot {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return BreakerSnapshot{
		Failures:     cb.failures,
		Open:         cb.open,
		OpenedAt:     cb.openedAt,
		Threshold:    cb.threshold,
		ResetTimeout: cb.resetTimeout,
	}
}
