// Package enrich orchestrates metadata enrichment runs: it feeds per-track
// tasks through the pipeline queue, performs rate-limited lookups against
// every configured source, reports outcomes to the metrics tracker and the
// circuit breaker, merges genre signals through the aggregator, and hands the
// final result to the tag-writer collaborator.
//
// Progress is reported through a channel for non-blocking status updates to
// the CLI/TUI layers.
package enrich
