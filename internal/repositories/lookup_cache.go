package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tagx/internal/models"
)

const lookupCacheSchema = `
CREATE TABLE IF NOT EXISTS lookup_cache (
	key        TEXT PRIMARY KEY,
	source     TEXT NOT NULL,
	payload    TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_lookup_cache_source ON lookup_cache(source);
`

// LookupCache is a SQLite-backed implementation of services.Cache. Entries
// older than the TTL are treated as misses and lazily deleted; a zero TTL
// disables expiry.
//
// Cache reads and writes deliberately swallow storage errors (logged, then
// treated as a miss / no-op): a broken cache must degrade to live lookups,
// never fail the pipeline.
type LookupCache struct {
	db     *sql.DB
	ttl    time.Duration
	logger *log.Logger
}

// NewLookupCache creates the cache and its schema if missing.
func NewLookupCache(db *sql.DB, ttl time.Duration, logger *log.Logger) (*LookupCache, error) {
	if _, err := db.Exec(lookupCacheSchema); err != nil {
		return nil, fmt.Errorf("failed to create lookup_cache schema: %w", err)
	}
	return &LookupCache{db: db, ttl: ttl, logger: logger}, nil
}

// Get returns the cached TrackInfo for key, or a miss when absent, expired,
// or unreadable.
func (c *LookupCache) Get(key string) (*models.TrackInfo, bool) {
	var payload string
	var createdAt time.Time

	row := c.db.QueryRow("SELECT payload, created_at FROM lookup_cache WHERE key = ?", key)
	if err := row.Scan(&payload, &createdAt); err != nil {
		if !errors.Is(err, sql.ErrNoRows) && c.logger != nil {
			c.logger.Warnf("cache read failed for %s: %v", key, err)
		}
		return nil, false
	}

	if c.ttl > 0 && time.Since(createdAt) > c.ttl {
		if _, err := c.db.Exec("DELETE FROM lookup_cache WHERE key = ?", key); err != nil && c.logger != nil {
			c.logger.Warnf("failed to evict expired entry %s: %v", key, err)
		}
		return nil, false
	}

	var info models.TrackInfo
	if err := json.Unmarshal([]byte(payload), &info); err != nil {
		if c.logger != nil {
			c.logger.Warnf("corrupt cache payload for %s: %v", key, err)
		}
		return nil, false
	}
	return &info, true
}

// Set stores info under key, replacing any previous entry.
func (c *LookupCache) Set(key string, info *models.TrackInfo) error {
	payload, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal cache payload: %w", err)
	}

	_, err = c.db.Exec(
		"INSERT OR REPLACE INTO lookup_cache (key, source, payload, created_at) VALUES (?, ?, ?, ?)",
		key, info.SourceAPI, string(payload), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// Stats returns entry counts grouped by source.
func (c *LookupCache) Stats() (map[string]int, error) {
	rows, err := c.db.Query("SELECT source, COUNT(*) FROM lookup_cache GROUP BY source")
	if err != nil {
		return nil, fmt.Errorf("failed to query cache stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var source string
		var count int
		if err := rows.Scan(&source, &count); err != nil {
			return nil, fmt.Errorf("failed to scan cache stats: %w", err)
		}
		stats[source] = count
	}
	return stats, rows.Err()
}

// Clear removes entries for one source, or every entry when source is empty.
// Returns the number of rows removed.
func (c *LookupCache) Clear(source string) (int64, error) {
	var res sql.Result
	var err error
	if source == "" {
		res, err = c.db.Exec("DELETE FROM lookup_cache")
	} else {
		res, err = c.db.Exec("DELETE FROM lookup_cache WHERE source = ?", source)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to clear cache: %w", err)
	}
	return res.RowsAffected()
}
