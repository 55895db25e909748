// Package services defines the MusicAPI capability consumed by enrichment
// tasks and its concrete clients (Spotify, Last.fm, Deezer).
//
// Clients never fail for missing data, only for transport or auth failures,
// and never retry internally: the pipeline's rate limiter and circuit breaker
// stay authoritative over call volume.
package services
