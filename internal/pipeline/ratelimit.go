package pipeline

import (
	"context"
	"sync"
	"time"
)

// microScale is the fixed-point scale for token arithmetic: one token is
// 1e6 micro-tokens. Buckets never touch floating point internally, so
// replenishment cannot drift over a long-running process.
const microScale = 1_000_000

// acquireMargin pads computed waits so a retry lands after the bucket has
// actually refilled rather than a rounding hair before it.
const acquireMargin = 10 * time.Millisecond

type bucket struct {
	capacity int64 // micro-tokens
	fillRate int64 // micro-tokens per second
	tokens   int64 // micro-tokens, 0 <= tokens <= capacity
	last     time.Time
}

// replenish credits the bucket for wall-clock time elapsed since the last
// update, clamped at capacity. When the elapsed time is too small to mint a
// whole micro-token the last-update stamp is left alone so the fraction is
// not lost to integer truncation.
func (b *bucket) replenish(now time.Time) {
	elapsed := now.Sub(b.last)
	if elapsed <= 0 {
		return
	}
	add := elapsed.Microseconds() * b.fillRate / microScale
	if add == 0 {
		return
	}
	b.tokens += add
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}
	b.last = now
}

// RateLimiter governs call frequency to external sources with one token
// bucket per key. Keys are conventionally "source" or "source:operation".
//
// All methods are safe for concurrent use. Blocking waits happen outside the
// lock so one key's wait never stalls another key's acquire.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket

	// Injectable for deterministic tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRateLimiter creates an empty RateLimiter. Buckets are registered with
// [RateLimiter.CreateLimit]; acquiring an unregistered key always succeeds
// (fail-open), so a missing limit configuration cannot deadlock the pipeline.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		buckets: make(map[string]*bucket),
		now:     time.Now,
		sleep:   sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// CreateLimit registers a token bucket for key with the given capacity and
// fill rate (tokens per second). Idempotent: an existing bucket for the same
// key is overwritten and reset to full.
func (rl *RateLimiter) CreateLimit(key string, capacity, fillRate float64) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	c := int64(capacity * microScale)
	rl.buckets[key] = &bucket{
		capacity: c,
		fillRate: int64(fillRate * microScale),
		tokens:   c,
		last:     rl.now(),
	}
}

// Acquire debits tokens from the bucket for key, replenishing it first from
// elapsed wall-clock time.
//
// Returns true once the tokens are debited. For an unregistered key it
// returns true immediately. With wait=false a deficit returns false without
// blocking. With wait=true the caller sleeps for deficit/fillRate (plus a
// small margin) and retries; concurrent acquirers racing for the same tokens
// may loop more than once. A cancelled context aborts the wait and returns
// false.
func (rl *RateLimiter) Acquire(ctx context.Context, key string, tokens float64, wait bool) bool {
	need := int64(tokens * microScale)
	if need <= 0 {
		return true
	}

	for {
		rl.mu.Lock()
		b, ok := rl.buckets[key]
		if !ok {
			rl.mu.Unlock()
			return true
		}

		b.replenish(rl.now())
		if b.tokens >= need {
			b.tokens -= need
			rl.mu.Unlock()
			return true
		}
		deficit := need - b.tokens
		fill := b.fillRate
		rl.mu.Unlock()

		if !wait || fill <= 0 {
			return false
		}

		// deficit/fill seconds, computed in micro space
		d := time.Duration(deficit*microScale/fill) * time.Microsecond
		if err := rl.sleep(ctx, d+acquireMargin); err != nil {
			return false
		}
	}
}

// TokenCount returns the current replenished token level for key. The second
// return value is false when the key has no registered bucket.
func (rl *RateLimiter) TokenCount(key string) (float64, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[key]
	if !ok {
		return 0, false
	}
	b.replenish(rl.now())
	return float64(b.tokens) / microScale, true
}
