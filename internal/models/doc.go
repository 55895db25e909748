// Package models defines the domain types shared across the enrichment
// pipeline: tracks awaiting enrichment, per-source lookup results, and the
// confidence-scored genre signals the aggregator consumes.
package models
