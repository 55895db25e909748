package metrics

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func tempMetricsPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "metrics.json")
}

func TestTracker(t *testing.T) {
	t.Run("record and derive", func(t *testing.T) {
		tracker := NewTracker(tempMetricsPath(t), nil)

		tracker.RecordCall("lastfm", true, 100*time.Millisecond, false)
		tracker.RecordCall("lastfm", true, 300*time.Millisecond, false)
		tracker.RecordCall("lastfm", false, 200*time.Millisecond, true)

		snap := tracker.Get("lastfm")
		if snap.TotalCalls != 3 {
			t.Errorf("expected 3 calls, got %d", snap.TotalCalls)
		}
		if math.Abs(snap.SuccessRate-2.0/3.0) > 0.001 {
			t.Errorf("expected success rate 2/3, got %f", snap.SuccessRate)
		}
		if snap.AvgLatency != 200*time.Millisecond {
			t.Errorf("expected avg latency 200ms, got %s", snap.AvgLatency)
		}
		if math.Abs(snap.RateLimitRatio-1.0/3.0) > 0.001 {
			t.Errorf("expected rate limit ratio 1/3, got %f", snap.RateLimitRatio)
		}
	})

	t.Run("unknown source is zero not error", func(t *testing.T) {
		tracker := NewTracker(tempMetricsPath(t), nil)

		snap := tracker.Get("never-seen")
		if snap.TotalCalls != 0 || snap.SuccessRate != 0 || snap.AvgLatency != 0 {
			t.Errorf("expected zero snapshot, got %+v", snap)
		}
	})

	t.Run("persists after each call", func(t *testing.T) {
		path := tempMetricsPath(t)
		tracker := NewTracker(path, nil)
		tracker.RecordCall("deezer", true, 50*time.Millisecond, false)

		raw, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("metrics file should exist: %v", err)
		}

		var stored map[string]*APIMetrics
		if err := json.Unmarshal(raw, &stored); err != nil {
			t.Fatalf("metrics file should be valid JSON: %v", err)
		}
		if stored["deezer"].TotalCalls != 1 {
			t.Errorf("expected 1 stored call, got %d", stored["deezer"].TotalCalls)
		}
	})

	t.Run("loads and merges at startup", func(t *testing.T) {
		path := tempMetricsPath(t)

		first := NewTracker(path, nil)
		first.RecordCall("spotify", true, time.Second, false)
		first.RecordCall("spotify", false, time.Second, false)

		second := NewTracker(path, nil)
		second.RecordCall("spotify", true, time.Second, false)

		snap := second.Get("spotify")
		if snap.TotalCalls != 3 {
			t.Errorf("expected merged total of 3 calls, got %d", snap.TotalCalls)
		}
	})

	t.Run("corrupt file treated as empty", func(t *testing.T) {
		path := tempMetricsPath(t)
		if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
			t.Fatal(err)
		}

		tracker := NewTracker(path, nil)
		if snap := tracker.Get("anything"); snap.TotalCalls != 0 {
			t.Errorf("corrupt file should yield empty metrics, got %+v", snap)
		}
	})

	t.Run("reset one source", func(t *testing.T) {
		tracker := NewTracker(tempMetricsPath(t), nil)
		tracker.RecordCall("lastfm", true, time.Second, false)
		tracker.RecordCall("deezer", true, time.Second, false)

		tracker.Reset("lastfm")
		if tracker.Get("lastfm").TotalCalls != 0 {
			t.Error("lastfm metrics should be cleared")
		}
		if tracker.Get("deezer").TotalCalls != 1 {
			t.Error("deezer metrics should survive a scoped reset")
		}
	})

	t.Run("reset all sources", func(t *testing.T) {
		tracker := NewTracker(tempMetricsPath(t), nil)
		tracker.RecordCall("lastfm", true, time.Second, false)
		tracker.RecordCall("deezer", true, time.Second, false)

		tracker.Reset("")
		if len(tracker.Sources()) != 0 {
			t.Errorf("expected no sources after full reset, got %v", tracker.Sources())
		}
	})
}
