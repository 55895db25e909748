package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/tagx/internal/models"
	"github.com/desertthunder/tagx/internal/shared"
)

func TestCacheKey(t *testing.T) {
	t.Run("stable across casing and whitespace", func(t *testing.T) {
		a := CacheKey("lastfm", "Radiohead", "Karma Police")
		b := CacheKey("lastfm", "  radiohead ", "KARMA  POLICE")
		if a != b {
			t.Errorf("normalized queries should share a key: %s vs %s", a, b)
		}
	})

	t.Run("distinct per source", func(t *testing.T) {
		a := CacheKey("lastfm", "Radiohead", "Karma Police")
		b := CacheKey("deezer", "Radiohead", "Karma Police")
		if a == b {
			t.Error("different sources must not share cache keys")
		}
	})
}

func TestMemoryCache(t *testing.T) {
	cache := NewMemoryCache()
	key := CacheKey("lastfm", "a", "b")

	if _, ok := cache.Get(key); ok {
		t.Error("empty cache should miss")
	}

	stored := &models.TrackInfo{Artist: "a", Title: "b", SourceAPI: "lastfm"}
	if err := cache.Set(key, stored); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	got, ok := cache.Get(key)
	if !ok {
		t.Fatal("cache should hit after set")
	}
	if got.SourceAPI != "lastfm" {
		t.Errorf("unexpected cached value: %+v", got)
	}
}

func TestLastFMLookup(t *testing.T) {
	t.Run("parses tags into confidence scored signals", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("method") != "track.getInfo" {
				t.Errorf("unexpected method param: %s", r.URL.Query().Get("method"))
			}
			w.Write([]byte(`{
				"track": {
					"name": "Karma Police",
					"album": {"title": "OK Computer"},
					"toptags": {"tag": [
						{"name": "rock", "count": 100},
						{"name": "alternative", "count": "60"}
					]}
				}
			}`))
		}))
		defer srv.Close()

		svc, err := NewLastFMService("key", srv.URL, srv.Client())
		if err != nil {
			t.Fatal(err)
		}

		info, err := svc.Lookup(context.Background(), "Radiohead", "Karma Police")
		if err != nil {
			t.Fatalf("lookup failed: %v", err)
		}

		if info.Album != "OK Computer" {
			t.Errorf("expected album OK Computer, got %s", info.Album)
		}
		if len(info.Genres) != 2 {
			t.Fatalf("expected 2 genre signals, got %d", len(info.Genres))
		}
		if info.Genres[0].Confidence != 1.0 {
			t.Errorf("count 100 should map to confidence 1.0, got %f", info.Genres[0].Confidence)
		}
		if info.Genres[1].Confidence != 0.6 {
			t.Errorf("string count 60 should map to 0.6, got %f", info.Genres[1].Confidence)
		}
		if info.SourceAPI != "lastfm" {
			t.Errorf("expected source lastfm, got %s", info.SourceAPI)
		}
	})

	t.Run("unknown track is missing data not an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"error": 6, "message": "Track not found"}`))
		}))
		defer srv.Close()

		svc, _ := NewLastFMService("key", srv.URL, srv.Client())
		info, err := svc.Lookup(context.Background(), "Nobody", "Nothing")
		if err != nil {
			t.Fatalf("missing data must not be an error: %v", err)
		}
		if info.HasSignal() {
			t.Errorf("expected no genre signals, got %v", info.Genres)
		}
	})

	t.Run("server error is a transport failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		svc, _ := NewLastFMService("key", srv.URL, srv.Client())
		if _, err := svc.Lookup(context.Background(), "a", "b"); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("missing api key", func(t *testing.T) {
		if _, err := NewLastFMService("", "", nil); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})
}

func TestDeezerLookup(t *testing.T) {
	t.Run("search then album for genres and year", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"data": [{"id": 1, "title": "Karma Police", "album": {"id": 42, "title": "OK Computer"}}]}`))
		})
		mux.HandleFunc("/album/42", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"title": "OK Computer", "release_date": "1997-06-16", "genres": {"data": [{"name": "Alternative"}]}}`))
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		svc := NewDeezerService(srv.URL, srv.Client())
		info, err := svc.Lookup(context.Background(), "Radiohead", "Karma Police")
		if err != nil {
			t.Fatalf("lookup failed: %v", err)
		}

		if info.Year != "1997" {
			t.Errorf("expected year 1997, got %s", info.Year)
		}
		if len(info.Genres) != 1 || info.Genres[0].Name != "Alternative" {
			t.Errorf("unexpected genres: %v", info.Genres)
		}
		if info.Genres[0].Confidence != deezerConfidence {
			t.Errorf("expected confidence %f, got %f", deezerConfidence, info.Genres[0].Confidence)
		}
	})

	t.Run("no search hit returns empty info", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"data": []}`))
		}))
		defer srv.Close()

		svc := NewDeezerService(srv.URL, srv.Client())
		info, err := svc.Lookup(context.Background(), "Nobody", "Nothing")
		if err != nil {
			t.Fatalf("missing data must not be an error: %v", err)
		}
		if info.HasSignal() {
			t.Errorf("expected no signals, got %v", info.Genres)
		}
	})
}

func TestSpotifyLookup(t *testing.T) {
	t.Run("search then artist for genres", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"tracks": {"items": [{
				"id": "t1", "name": "Karma Police", "popularity": 80,
				"album": {"name": "OK Computer", "release_date": "1997-06-16"},
				"artists": [{"id": "a1", "name": "Radiohead"}]
			}]}}`))
		})
		mux.HandleFunc("/artists/a1", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"id": "a1", "name": "Radiohead", "genres": ["art rock", "alternative rock"]}`))
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		svc := NewSpotifyServiceWithClient(srv.URL, srv.Client())
		info, err := svc.Lookup(context.Background(), "Radiohead", "Karma Police")
		if err != nil {
			t.Fatalf("lookup failed: %v", err)
		}

		if info.Album != "OK Computer" || info.Year != "1997" {
			t.Errorf("unexpected album metadata: %+v", info)
		}
		if len(info.Genres) != 2 {
			t.Fatalf("expected 2 genre signals, got %d", len(info.Genres))
		}
		for _, g := range info.Genres {
			if g.Confidence != spotifyConfidence {
				t.Errorf("expected confidence %f, got %f", spotifyConfidence, g.Confidence)
			}
		}
	})

	t.Run("auth failure surfaces as ErrAuthFailed", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		svc := NewSpotifyServiceWithClient(srv.URL, srv.Client())
		if _, err := svc.Lookup(context.Background(), "a", "b"); !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})

	t.Run("missing credentials", func(t *testing.T) {
		if _, err := NewSpotifyService("", ""); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})
}
