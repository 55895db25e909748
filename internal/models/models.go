package models

import "time"

// Track identifies a single unit of enrichment work: one audio file (or one
// artist/title pair when no file is involved).
type Track struct {
	Path   string // Path to the audio file; empty for ad-hoc lookups
	Artist string
	Title  string
	Album  string
}

// GenreSignal is a raw genre tag from one source with a confidence score in [0,1].
type GenreSignal struct {
	Name       string  `json:"name"`
	Source     string  `json:"source"`
	Confidence float64 `json:"confidence"`
}

// TrackInfo is the result of a single source lookup.
//
// Sources never fail for missing data; absent fields stay zero-valued and
// Genres may be empty. Only transport or auth failures surface as errors.
type TrackInfo struct {
	Artist    string        `json:"artist"`
	Title     string        `json:"title"`
	Album     string        `json:"album,omitempty"`
	Year      string        `json:"year,omitempty"`
	Genres    []GenreSignal `json:"genres,omitempty"`
	SourceAPI string        `json:"source_api"`
	FetchedAt time.Time     `json:"fetched_at,omitempty"`
}

// HasSignal reports whether the lookup produced any usable genre data.
func (ti *TrackInfo) HasSignal() bool {
	return ti != nil && len(ti.Genres) > 0
}
