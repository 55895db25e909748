// Deezer implementation of [MusicAPI]
//
// Response types based on https://developers.deezer.com/api
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/desertthunder/tagx/internal/models"
	"github.com/desertthunder/tagx/internal/shared"
)

const (
	deezerBaseURL = "https://api.deezer.com"

	// Deezer attaches genres to albums, not artists, so they carry slightly
	// less weight than a direct artist-genre signal.
	deezerConfidence = 0.75
)

type deezerAlbumRef struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

type deezerTrack struct {
	ID    int64          `json:"id"`
	Title string         `json:"title"`
	Album deezerAlbumRef `json:"album"`
}

type deezerSearchResponse struct {
	Data []deezerTrack `json:"data"`
}

type deezerGenre struct {
	Name string `json:"name"`
}

type deezerAlbum struct {
	Title       string `json:"title"`
	ReleaseDate string `json:"release_date"`
	Genres      struct {
		Data []deezerGenre `json:"data"`
	} `json:"genres"`
}

// DeezerService queries the public Deezer API. No credentials are required.
type DeezerService struct {
	baseURL    string
	httpClient *http.Client
}

// NewDeezerService creates a Deezer client. The base URL and HTTP client are
// overridable for tests.
func NewDeezerService(baseURL string, client *http.Client) *DeezerService {
	if baseURL == "" {
		baseURL = deezerBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &DeezerService{baseURL: baseURL, httpClient: client}
}

func (s *DeezerService) Name() string { return "deezer" }

// Lookup searches for the track, then fetches its album for genres and
// release year. No search hit returns an empty TrackInfo, not an error.
func (s *DeezerService) Lookup(ctx context.Context, artist, title string) (*models.TrackInfo, error) {
	info := &models.TrackInfo{
		Artist:    artist,
		Title:     title,
		SourceAPI: s.Name(),
		FetchedAt: time.Now(),
	}

	query := fmt.Sprintf(`artist:"%s" track:"%s"`, artist, title)
	searchURL := fmt.Sprintf("%s/search?q=%s", s.baseURL, url.QueryEscape(query))

	var search deezerSearchResponse
	if err := s.getJSON(ctx, searchURL, &search); err != nil {
		return nil, err
	}
	if len(search.Data) == 0 {
		return info, nil
	}

	hit := search.Data[0]
	info.Album = hit.Album.Title

	var album deezerAlbum
	albumURL := fmt.Sprintf("%s/album/%d", s.baseURL, hit.Album.ID)
	if err := s.getJSON(ctx, albumURL, &album); err != nil {
		return nil, err
	}

	if len(album.ReleaseDate) >= 4 {
		info.Year = album.ReleaseDate[:4]
	}
	for _, g := range album.Genres.Data {
		info.Genres = append(info.Genres, models.GenreSignal{
			Name:       g.Name,
			Source:     s.Name(),
			Confidence: deezerConfidence,
		})
	}

	return info, nil
}

func (s *DeezerService) getJSON(ctx context.Context, fullURL string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: deezer returned %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
