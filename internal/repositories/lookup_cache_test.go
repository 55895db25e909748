package repositories

import (
	"testing"
	"time"

	"github.com/desertthunder/tagx/internal/models"
	"github.com/desertthunder/tagx/internal/services"
	"github.com/desertthunder/tagx/internal/shared"
)

func newTestCache(t *testing.T, ttl time.Duration) *LookupCache {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cache, err := NewLookupCache(db, ttl, nil)
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	return cache
}

func sampleInfo(source string) *models.TrackInfo {
	return &models.TrackInfo{
		Artist:    "Radiohead",
		Title:     "Karma Police",
		Album:     "OK Computer",
		Year:      "1997",
		SourceAPI: source,
		Genres: []models.GenreSignal{
			{Name: "art rock", Source: source, Confidence: 0.9},
		},
	}
}

func TestLookupCache(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		cache := newTestCache(t, time.Hour)
		key := services.CacheKey("lastfm", "Radiohead", "Karma Police")

		if _, ok := cache.Get(key); ok {
			t.Error("empty cache should miss")
		}

		if err := cache.Set(key, sampleInfo("lastfm")); err != nil {
			t.Fatalf("set failed: %v", err)
		}

		got, ok := cache.Get(key)
		if !ok {
			t.Fatal("expected cache hit")
		}
		if got.Album != "OK Computer" || len(got.Genres) != 1 {
			t.Errorf("unexpected cached payload: %+v", got)
		}
	})

	t.Run("replace existing entry", func(t *testing.T) {
		cache := newTestCache(t, time.Hour)
		key := services.CacheKey("lastfm", "a", "b")

		first := sampleInfo("lastfm")
		cache.Set(key, first)

		second := sampleInfo("lastfm")
		second.Year = "2001"
		if err := cache.Set(key, second); err != nil {
			t.Fatalf("replacing set failed: %v", err)
		}

		got, _ := cache.Get(key)
		if got.Year != "2001" {
			t.Errorf("expected replaced entry, got year %s", got.Year)
		}
	})

	t.Run("expired entries miss", func(t *testing.T) {
		cache := newTestCache(t, time.Nanosecond)
		key := services.CacheKey("deezer", "a", "b")

		cache.Set(key, sampleInfo("deezer"))
		time.Sleep(time.Millisecond)

		if _, ok := cache.Get(key); ok {
			t.Error("expired entry should miss")
		}
	})

	t.Run("zero ttl never expires", func(t *testing.T) {
		cache := newTestCache(t, 0)
		key := services.CacheKey("deezer", "a", "b")

		cache.Set(key, sampleInfo("deezer"))
		if _, ok := cache.Get(key); !ok {
			t.Error("zero TTL should keep entries forever")
		}
	})

	t.Run("stats and clear by source", func(t *testing.T) {
		cache := newTestCache(t, time.Hour)
		cache.Set(services.CacheKey("lastfm", "a", "1"), sampleInfo("lastfm"))
		cache.Set(services.CacheKey("lastfm", "a", "2"), sampleInfo("lastfm"))
		cache.Set(services.CacheKey("deezer", "a", "1"), sampleInfo("deezer"))

		stats, err := cache.Stats()
		if err != nil {
			t.Fatalf("stats failed: %v", err)
		}
		if stats["lastfm"] != 2 || stats["deezer"] != 1 {
			t.Errorf("unexpected stats: %v", stats)
		}

		removed, err := cache.Clear("lastfm")
		if err != nil {
			t.Fatalf("clear failed: %v", err)
		}
		if removed != 2 {
			t.Errorf("expected 2 removed, got %d", removed)
		}

		removed, err = cache.Clear("")
		if err != nil {
			t.Fatalf("full clear failed: %v", err)
		}
		if removed != 1 {
			t.Errorf("expected 1 removed on full clear, got %d", removed)
		}
	})
}
