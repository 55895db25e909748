package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/tagx/internal/shared"
	"github.com/urfave/cli/v3"
)

// SourcesList lists the configured sources and their rate limit settings.
func (r *Runner) SourcesList(ctx context.Context, cmd *cli.Command) error {
	r.writePlainHeader("Configured Sources")

	if len(r.sources) == 0 {
		r.writePlain("No sources configured. Add credentials to config.toml and retry.\n")
		return nil
	}

	for _, src := range r.sources {
		name := src.Name()
		r.writePlain("• %s", name)
		if tokens, ok := r.limiter.TokenCount(name); ok {
			r.writePlain(" (%.1f tokens available)", tokens)
		}
		r.writePlain("\n")
	}

	return nil
}

// SourcesTest runs one lookup against every configured source and reports
// per-source latency and failures. Lookups go through the rate limiter so a
// test never burns a source's whole budget.
func (r *Runner) SourcesTest(ctx context.Context, cmd *cli.Command) error {
	artist := cmd.String("artist")
	title := cmd.String("title")

	if len(r.sources) == 0 {
		return fmt.Errorf("%w: no sources configured", shared.ErrSourceUnavailable)
	}

	r.writePlain("Testing %d sources with '%s - %s'...\n\n", len(r.sources), artist, title)

	failures := 0
	for _, src := range r.sources {
		if !r.limiter.Acquire(ctx, src.Name(), 1, true) {
			r.writePlain("✗ %s: rate limited\n", src.Name())
			failures++
			continue
		}

		start := time.Now()
		info, err := src.Lookup(ctx, artist, title)
		latency := time.Since(start)
		r.tracker.RecordCall(src.Name(), err == nil, latency, false)

		if err != nil {
			r.writePlain("✗ %s: %v\n", src.Name(), err)
			failures++
			continue
		}

		if info.HasSignal() {
			r.writePlain("✓ %s: %d genre signals in %s\n", src.Name(), len(info.Genres), latency.Round(time.Millisecond))
		} else {
			r.writePlain("✓ %s: reachable, no genre data for this track (%s)\n", src.Name(), latency.Round(time.Millisecond))
		}
	}

	if failures > 0 {
		return fmt.Errorf("%w: %d of %d sources failed", shared.ErrSourceUnavailable, failures, len(r.sources))
	}

	r.writePlainln("All sources reachable.")
	return nil
}
