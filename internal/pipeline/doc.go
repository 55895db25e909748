// Package pipeline implements the resilient task-processing core: a per-key
// token bucket rate limiter, a consecutive-failure circuit breaker, and a
// FIFO task queue gated by the breaker.
//
// The three pieces are constructor-injected instances rather than process
// globals. One breaker+queue pair forms an isolation domain; callers that
// need per-source isolation run one pair per source.
package pipeline
