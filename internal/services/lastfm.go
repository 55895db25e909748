// Last.fm implementation of [MusicAPI]
//
// Response types based on https://www.last.fm/api/show/track.getInfo
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/desertthunder/tagx/internal/models"
	"github.com/desertthunder/tagx/internal/shared"
)

const lastFMBaseURL = "https://ws.audioscrobbler.com/2.0/"

// lastFMTag is one entry of a track's top tags, with a 0-100 relevance count.
type lastFMTag struct {
	Name  string `json:"name"`
	Count any    `json:"count"` // Last.fm returns numbers or strings here
}

type lastFMAlbum struct {
	Title string `json:"title"`
}

type lastFMTrack struct {
	Name    string      `json:"name"`
	Album   lastFMAlbum `json:"album"`
	TopTags struct {
		Tag []lastFMTag `json:"tag"`
	} `json:"toptags"`
}

type lastFMTrackInfoResponse struct {
	Track   *lastFMTrack `json:"track"`
	Error   int          `json:"error"`
	Message string       `json:"message"`
}

// LastFMService queries the Last.fm track.getInfo endpoint.
type LastFMService struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewLastFMService creates a Last.fm client. The base URL and HTTP client are
// overridable for tests and default to the public API and [http.DefaultClient].
func NewLastFMService(apiKey, baseURL string, client *http.Client) (*LastFMService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: lastfm api_key", shared.ErrMissingCredentials)
	}
	if baseURL == "" {
		baseURL = lastFMBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &LastFMService{apiKey: apiKey, baseURL: baseURL, httpClient: client}, nil
}

func (s *LastFMService) Name() string { return "lastfm" }

// Lookup fetches track info and top tags. Tag counts (0-100) map directly to
// confidence scores. An unknown track returns an empty TrackInfo, not an error.
func (s *LastFMService) Lookup(ctx context.Context, artist, title string) (*models.TrackInfo, error) {
	params := url.Values{}
	params.Set("method", "track.getInfo")
	params.Set("artist", artist)
	params.Set("track", title)
	params.Set("api_key", s.apiKey)
	params.Set("format", "json")
	params.Set("autocorrect", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: lastfm returned %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	var parsed lastFMTrackInfoResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	info := &models.TrackInfo{
		Artist:    artist,
		Title:     title,
		SourceAPI: s.Name(),
		FetchedAt: time.Now(),
	}

	// Last.fm reports "track not found" as an in-band error code; that is
	// missing data, not a transport failure.
	if parsed.Error != 0 || parsed.Track == nil {
		return info, nil
	}

	info.Album = parsed.Track.Album.Title
	for _, tag := range parsed.Track.TopTags.Tag {
		info.Genres = append(info.Genres, models.GenreSignal{
			Name:       tag.Name,
			Source:     s.Name(),
			Confidence: tagConfidence(tag.Count),
		})
	}

	return info, nil
}

// tagConfidence converts a Last.fm tag count (0-100, sometimes a string) to a
// [0,1] confidence.
func tagConfidence(count any) float64 {
	var n float64
	switch v := count.(type) {
	case float64:
		n = v
	case string:
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		n = parsed
	default:
		return 0
	}

	if n < 0 {
		return 0
	}
	if n > 100 {
		return 1
	}
	return n / 100
}
