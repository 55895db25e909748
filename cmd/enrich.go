package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/tagx/internal/enrich"
	"github.com/desertthunder/tagx/internal/formatter"
	"github.com/desertthunder/tagx/internal/repositories"
	"github.com/desertthunder/tagx/internal/services"
	"github.com/desertthunder/tagx/internal/shared"
	"github.com/urfave/cli/v3"
)

// openCache opens the persistent lookup cache when the database is reachable.
// A nil cache (with a nil db) is returned on failure so enrichment degrades to
// uncached lookups instead of refusing to run.
func (r *Runner) openCache() (services.Cache, *sql.DB) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		r.logger.Warn("lookup cache unavailable, running without it", "error", err)
		return nil, nil
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	ttl := time.Duration(r.config.Cache.TTLHours) * time.Hour
	cache, err := repositories.NewLookupCache(db, ttl, r.logger)
	if err != nil {
		r.logger.Warn("lookup cache unavailable, running without it", "error", err)
		db.Close()
		return nil, nil
	}
	return cache, db
}

// EnrichRun enriches every MP3 under the given directory.
func (r *Runner) EnrichRun(ctx context.Context, cmd *cli.Command) error {
	dir := cmd.StringArg("dir")
	if dir == "" {
		return fmt.Errorf("%w: directory argument is required", shared.ErrMissingArgument)
	}
	if len(r.sources) == 0 {
		return fmt.Errorf("%w: no sources configured, run 'tagx setup' and add credentials", shared.ErrSourceUnavailable)
	}

	tracks, err := enrich.ScanTracks(dir)
	if err != nil {
		return err
	}
	if len(tracks) == 0 {
		r.writePlain("No MP3 files found under %s\n", dir)
		return nil
	}

	if cmd.Bool("dry-run") {
		r.writePlain("Found %d tracks under %s:\n", len(tracks), dir)
		for _, t := range tracks {
			r.writePlain("  - %s - %s\n", t.Artist, t.Title)
		}
		return nil
	}

	r.applyRunOverrides(cmd)
	r.logger.Info("starting enrichment run", "dir", dir, "tracks", len(tracks))
	r.writePlain("Enriching %d tracks from %s...\n\n", len(tracks), dir)

	var cache services.Cache
	if !cmd.Bool("no-cache") {
		var db *sql.DB
		cache, db = r.openCache()
		if db != nil {
			defer db.Close()
		}
	}

	var writer enrich.TagWriter
	if cmd.Bool("write") {
		writer = &enrich.SidecarWriter{}
	}

	engine := r.newEngine(cache, writer)

	progressCh := make(chan enrich.ProgressUpdate, 50)
	progressDone := make(chan struct{})
	go func() {
		defer close(progressDone)
		for update := range progressCh {
			switch update.Phase {
			case enrich.Lookup:
				r.writePlain("🔍 %s\n", update.Message)
			case enrich.Aggregate:
				r.writePlain("   %s\n", update.Message)
			case enrich.BreakerPause:
				r.writePlain("\n⏸  %s\n", update.Message)
			}
		}
	}()

	result, err := engine.Run(ctx, tracks, progressCh)
	close(progressCh)
	<-progressDone

	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Enrichment Complete!")
	r.writePlain("Enriched: %d/%d\n", result.SuccessCount, result.TotalTracks)
	r.writePlain("Failed: %d\n", result.FailedCount)
	if result.CancelledCount > 0 {
		r.writePlain("Cancelled: %d\n", result.CancelledCount)
	}
	r.writePlain("Cache hits: %d\n", result.CacheHits)
	if result.RelaxedCount > 0 {
		r.writePlain("Relaxed threshold: %d\n", result.RelaxedCount)
	}

	if result.FailedCount > 0 {
		r.writePlain("\nFailed to enrich %d tracks:\n", result.FailedCount)
		for _, res := range result.Results {
			if res.Err != nil {
				r.writePlain("  - %s - %s\n", res.Track.Artist, res.Track.Title)
			}
		}
	}

	if snap := r.breaker.Snapshot(); snap.Open {
		r.writePlain("\nCircuit breaker open after %d consecutive failures (opened %s).\n",
			snap.Failures, snap.OpenedAt.Format(time.RFC3339))
		r.writePlain("Check the sources with 'tagx sources test' before retrying; suggested wait %s.\n",
			snap.ResetTimeout)
	}

	if reportPath := cmd.String("report"); reportPath != "" {
		written, err := formatter.WriteReport(result, reportPath)
		if err != nil {
			return err
		}
		r.writePlain("\nReport written to %s\n", written)
	}

	return nil
}

// EnrichTrack enriches a single artist/title pair synchronously.
func (r *Runner) EnrichTrack(ctx context.Context, cmd *cli.Command) error {
	artist := cmd.String("artist")
	title := cmd.String("title")

	if len(r.sources) == 0 {
		return fmt.Errorf("%w: no sources configured, run 'tagx setup' and add credentials", shared.ErrSourceUnavailable)
	}

	cache, db := r.openCache()
	if db != nil {
		defer db.Close()
	}

	engine := r.newEngine(cache, nil)

	res, err := engine.Lookup(ctx, artist, title)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(res, cmd.Bool("pretty"))
	}

	r.writePlain("%s - %s\n", artist, title)
	r.writePlain("Genres: %v\n", res.Genres)
	if res.Year != "" {
		r.writePlain("Year: %s\n", res.Year)
	}
	if res.Album != "" {
		r.writePlain("Album: %s\n", res.Album)
	}
	if res.Relaxed {
		r.writePlain("Note: confidence threshold relaxed to %.2f\n", res.FloorUsed)
	}

	return nil
}
