package main

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/desertthunder/tagx/internal/repositories"
	"github.com/desertthunder/tagx/internal/shared"
	"github.com/urfave/cli/v3"
)

// openLookupCache opens the lookup cache for the cache subcommands, which
// unlike enrichment must fail loudly when the database is unreachable.
func (r *Runner) openLookupCache() (*repositories.LookupCache, func(), error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	ttl := time.Duration(r.config.Cache.TTLHours) * time.Hour
	cache, err := repositories.NewLookupCache(db, ttl, r.logger)
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	return cache, func() { db.Close() }, nil
}

// CacheStats shows cached lookup counts per source.
func (r *Runner) CacheStats(ctx context.Context, cmd *cli.Command) error {
	cache, closeDB, err := r.openLookupCache()
	if err != nil {
		return err
	}
	defer closeDB()

	stats, err := cache.Stats()
	if err != nil {
		return fmt.Errorf("failed to read cache stats: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(stats, true)
	}

	r.writePlainHeader("Lookup Cache")

	if len(stats) == 0 {
		r.writePlain("Cache is empty.\n")
		return nil
	}

	sources := make([]string, 0, len(stats))
	total := 0
	for source, count := range stats {
		sources = append(sources, source)
		total += count
	}
	sort.Strings(sources)

	for _, source := range sources {
		r.writePlain("%-12s %6d entries\n", source, stats[source])
	}
	r.writePlain("\nTotal: %d entries (TTL %dh)\n", total, r.config.Cache.TTLHours)

	return nil
}

// CacheClear removes cached lookups for one source, or all sources.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	cache, closeDB, err := r.openLookupCache()
	if err != nil {
		return err
	}
	defer closeDB()

	source := cmd.String("source")
	removed, err := cache.Clear(source)
	if err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}

	if source == "" {
		r.logger.Info("cleared lookup cache", "entries", removed)
		return r.writePlain("✓ Cleared %d cached lookups\n", removed)
	}

	r.logger.Info("cleared lookup cache", "source", source, "entries", removed)
	return r.writePlain("✓ Cleared %d cached lookups for %s\n", removed, source)
}
