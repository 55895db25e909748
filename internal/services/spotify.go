// Spotify implementation of [MusicAPI]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
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
	"golang.org/x/oauth2/clientcredentials"
)

const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// Spotify genres come from the artist object, the strongest signal any
	// source provides here.
	spotifyConfidence = 0.9
)

// SpotifyArtistRef is an artist reference embedded in track objects.
type SpotifyArtistRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyAlbum is the album object embedded in track search results.
type SpotifyAlbum struct {
	Name        string `json:"name"`
	ReleaseDate string `json:"release_date"`
}

// SpotifyTrack represents a Spotify track search hit.
type SpotifyTrack struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Artists    []SpotifyArtistRef `json:"artists"`
	Album      SpotifyAlbum       `json:"album"`
	Popularity int                `json:"popularity"`
}

type spotifySearchResponse struct {
	Tracks struct {
		Items []SpotifyTrack `json:"items"`
	} `json:"tracks"`
}

// SpotifyArtist is the full artist object, the only place genres appear.
type SpotifyArtist struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Genres []string `json:"genres"`
}

// SpotifyService queries the Spotify Web API using the OAuth2
// client-credentials flow; no user context is needed for track lookups.
type SpotifyService struct {
	baseURL    string
	httpClient *http.Client
}

// NewSpotifyService creates a Spotify client from app credentials. The
// returned client transparently fetches and refreshes access tokens.
func NewSpotifyService(clientID, clientSecret string) (*SpotifyService, error) {
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("%w: spotify client_id/client_secret", shared.ErrMissingCredentials)
	}

	conf := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyTokenURL,
	}

	return &SpotifyService{
		baseURL:    spotifyBaseURL,
		httpClient: conf.Client(context.Background()),
	}, nil
}

// NewSpotifyServiceWithClient creates a Spotify client against a custom base
// URL and HTTP client, bypassing OAuth. Used in tests.
func NewSpotifyServiceWithClient(baseURL string, client *http.Client) *SpotifyService {
	if client == nil {
		client = http.DefaultClient
	}
	return &SpotifyService{baseURL: baseURL, httpClient: client}
}

func (s *SpotifyService) Name() string { return "spotify" }

// Lookup searches for the track, then fetches the primary artist for genres.
// No search hit returns an empty TrackInfo, not an error.
func (s *SpotifyService) Lookup(ctx context.Context, artist, title string) (*models.TrackInfo, error) {
	info := &models.TrackInfo{
		Artist:    artist,
		Title:     title,
		SourceAPI: s.Name(),
		FetchedAt: time.Now(),
	}

	query := fmt.Sprintf("artist:%s track:%s", artist, title)
	searchURL := fmt.Sprintf("%s/search?q=%s&type=track&limit=1", s.baseURL, url.QueryEscape(query))

	var search spotifySearchResponse
	if err := s.getJSON(ctx, searchURL, &search); err != nil {
		return nil, err
	}
	if len(search.Tracks.Items) == 0 {
		return info, nil
	}

	hit := search.Tracks.Items[0]
	info.Album = hit.Album.Name
	if len(hit.Album.ReleaseDate) >= 4 {
		info.Year = hit.Album.ReleaseDate[:4]
	}

	if len(hit.Artists) == 0 {
		return info, nil
	}

	var full SpotifyArtist
	artistURL := fmt.Sprintf("%s/artists/%s", s.baseURL, hit.Artists[0].ID)
	if err := s.getJSON(ctx, artistURL, &full); err != nil {
		return nil, err
	}

	for _, g := range full.Genres {
		info.Genres = append(info.Genres, models.GenreSignal{
			Name:       g,
			Source:     s.Name(),
			Confidence: spotifyConfidence,
		})
	}

	return info, nil
}

func (s *SpotifyService) getJSON(ctx context.Context, fullURL string, target any) error {
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

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: spotify returned %d", shared.ErrAuthFailed, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%w: spotify returned %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
