package enrich

import (
	"fmt"

	"github.com/desertthunder/tagx/internal/models"
)

// ProgressUpdate represents a progress event during an enrichment run.
//
// Used to send real-time updates to the CLI or TUI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	Submit Phase = iota
	Lookup
	Aggregate
	WriteTags
	BreakerPause
	Done
)

func (p Phase) String() string {
	switch p {
	case Submit:
		return "submit"
	case Lookup:
		return "lookup"
	case Aggregate:
		return "aggregate"
	case WriteTags:
		return "write_tags"
	case BreakerPause:
		return "breaker_pause"
	case Done:
		return "done"
	default:
		return ""
	}
}

func submitUpdate(step, total int, track models.Track) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Submit,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Queued: %s - %s", step, total, track.Artist, track.Title),
	}
}

func lookupUpdate(step, total int, track models.Track, source string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Lookup,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s - %s (%s)", step, total, track.Artist, track.Title, source),
	}
}

func aggregateUpdate(step, total int, track models.Track, res *TrackResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Aggregate,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s - %s → %v", step, total, track.Artist, track.Title, res.Genres),
		Data:    res,
	}
}

func failedUpdate(step, total int, track models.Track, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Aggregate,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s - %s: %v", step, total, track.Artist, track.Title, err),
	}
}

func writeTagsUpdate(step, total int, path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteTags,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Writing tags: %s", path),
	}
}

func breakerPauseUpdate(pending int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   BreakerPause,
		Total:   pending,
		Message: fmt.Sprintf("Circuit breaker open, %d tasks waiting", pending),
	}
}

func doneUpdate(result *RunResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Done,
		Step:    result.TotalTracks,
		Total:   result.TotalTracks,
		Message: fmt.Sprintf("Enriched %d/%d tracks (%d failed)", result.SuccessCount, result.TotalTracks, result.FailedCount),
		Data:    result,
	}
}
