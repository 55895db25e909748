// Package metrics records per-source API call counters and persists them as
// JSON after every update. Counters survive restarts: the tracker loads the
// file at startup and merges it with any counters already in memory.
package metrics

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// APIMetrics holds monotonically increasing counters for one source. Latency
// is accumulated in seconds to keep the on-disk format language-neutral.
type APIMetrics struct {
	TotalCalls      int64   `json:"total_calls"`
	SuccessfulCalls int64   `json:"successful_calls"`
	FailedCalls     int64   `json:"failed_calls"`
	TotalLatency    float64 `json:"total_latency"`
	RateLimitHits   int64   `json:"rate_limit_hits"`
}

// Snapshot is a derived, read-only view of one source's metrics.
type Snapshot struct {
	TotalCalls     int64
	SuccessRate    float64
	AvgLatency     time.Duration
	RateLimitHits  int64
	RateLimitRatio float64
}

// Tracker persists per-source call metrics to a JSON file. All methods are
// safe for concurrent use; the read-modify-write on every recorded call is
// acceptable because call volume is bounded by the rate limiter upstream.
type Tracker struct {
	mu     sync.Mutex
	path   string
	data   map[string]*APIMetrics
	logger *log.Logger
}

// NewTracker creates a Tracker backed by the JSON file at path. An existing
// file is loaded and merged; a missing or corrupt file starts empty and is
// never fatal.
func NewTracker(path string, logger *log.Logger) *Tracker {
	t := &Tracker{
		path:   path,
		data:   make(map[string]*APIMetrics),
		logger: logger,
	}
	t.load()
	return t
}

func (t *Tracker) load() {
	raw, err := os.ReadFile(t.path)
	if err != nil {
		return
	}

	var stored map[string]*APIMetrics
	if err := json.Unmarshal(raw, &stored); err != nil {
		if t.logger != nil {
			t.logger.Warnf("ignoring corrupt metrics file %s: %v", t.path, err)
		}
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for source, m := range stored {
		if existing, ok := t.data[source]; ok {
			existing.TotalCalls += m.TotalCalls
			existing.SuccessfulCalls += m.SuccessfulCalls
			existing.FailedCalls += m.FailedCalls
			existing.TotalLatency += m.TotalLatency
			existing.RateLimitHits += m.RateLimitHits
		} else {
			t.data[source] = m
		}
	}
}

// RecordCall increments counters for source and persists the full metrics map.
func (t *Tracker) RecordCall(source string, success bool, latency time.Duration, rateLimited bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	m, ok := t.data[source]
	if !ok {
		m = &APIMetrics{}
		t.data[source] = m
	}

	m.TotalCalls++
	if success {
		m.SuccessfulCalls++
	} else {
		m.FailedCalls++
	}
	m.TotalLatency += latency.Seconds()
	if rateLimited {
		m.RateLimitHits++
	}

	if err := t.persist(); err != nil && t.logger != nil {
		t.logger.Warnf("failed to persist metrics: %v", err)
	}
}

// persist writes the metrics map to disk. Caller must hold t.mu.
func (t *Tracker) persist() error {
	raw, err := json.MarshalIndent(t.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metrics: %w", err)
	}
	if err := os.WriteFile(t.path, raw, 0644); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	return nil
}

// Get returns derived metrics for source. Unknown sources yield a zero
// Snapshot, never an error.
func (t *Tracker) Get(source string) Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	m, ok := t.data[source]
	if !ok || m.TotalCalls == 0 {
		return Snapshot{}
	}

	return Snapshot{
		TotalCalls:     m.TotalCalls,
		SuccessRate:    float64(m.SuccessfulCalls) / float64(m.TotalCalls),
		AvgLatency:     time.Duration(m.TotalLatency / float64(m.TotalCalls) * float64(time.Second)),
		RateLimitHits:  m.RateLimitHits,
		RateLimitRatio: float64(m.RateLimitHits) / float64(m.TotalCalls),
	}
}

// Sources lists all sources with recorded metrics.
func (t *Tracker) Sources() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	sources := make([]string, 0, len(t.data))
	for source := range t.data {
		sources = append(sources, source)
	}
	return sources
}

// Reset clears counters for one source, or for all sources when source is
// empty, and persists the change.
func (t *Tracker) Reset(source string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if source == "" {
		t.data = make(map[string]*APIMetrics)
	} else {
		delete(t.data, source)
	}

	if err := t.persist(); err != nil && t.logger != nil {
		t.logger.Warnf("failed to persist metrics: %v", err)
	}
}
