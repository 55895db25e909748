package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/desertthunder/tagx/internal/models"
	"github.com/desertthunder/tagx/internal/shared"
)

// MusicAPI is the single capability a music source exposes to the pipeline.
type MusicAPI interface {
	// Name returns the source identifier used for rate limit keys and metrics
	// (e.g. "spotify", "lastfm").
	Name() string

	// Lookup fetches track metadata for an artist/title pair. Missing data is
	// not an error: the returned TrackInfo may carry no genres. Transport and
	// auth failures are errors. Implementations must not retry internally.
	Lookup(ctx context.Context, artist, title string) (*models.TrackInfo, error)
}

// Cache stores previous lookup results so repeat queries skip rate-limited
// calls. TTL and eviction policy belong to the implementation.
type Cache interface {
	Get(key string) (*models.TrackInfo, bool)
	Set(key string, info *models.TrackInfo) error
}

// CacheKey derives a stable key for a (source, artist, title) lookup. Artist
// and title are normalized so casing and stray whitespace hit the same entry.
func CacheKey(source, artist, title string) string {
	payload := fmt.Sprintf("%s|%s|%s", source, shared.NormalizeQuery(artist), shared.NormalizeQuery(title))
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// MemoryCache is a map-backed [Cache] without expiry, used in tests and for
// single-run processes. Safe for concurrent use.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]*models.TrackInfo
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]*models.TrackInfo)}
}

func (c *MemoryCache) Get(key string) (*models.TrackInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	info, ok := c.entries[key]
	return info, ok
}

func (c *MemoryCache) Set(key string, info *models.TrackInfo) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = info
	return nil
}
