package enrich

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/desertthunder/tagx/internal/models"
)

// TagWriter receives the final enrichment result for a file. Tag format I/O
// is owned by the implementation; write failures are reported back to the
// run result but never abort the run.
type TagWriter interface {
	WriteTags(path string, genres []string, info *models.TrackInfo) error
}

// SidecarWriter writes enrichment results to a JSON sidecar file next to the
// audio file (<path>.tagx.json) for a downstream tagger to apply.
type SidecarWriter struct{}

type sidecarPayload struct {
	Genres []string `json:"genres"`
	Year   string   `json:"year,omitempty"`
	Album  string   `json:"album,omitempty"`
}

// WriteTags writes the sidecar. Tracks without a file path are skipped.
func (w *SidecarWriter) WriteTags(path string, genres []string, info *models.TrackInfo) error {
	if path == "" {
		return nil
	}

	payload := sidecarPayload{Genres: genres}
	if info != nil {
		payload.Year = info.Year
		payload.Album = info.Album
	}

	raw, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal sidecar: %w", err)
	}
	if err := os.WriteFile(path+".tagx.json", raw, 0644); err != nil {
		return fmt.Errorf("failed to write sidecar: %w", err)
	}
	return nil
}
