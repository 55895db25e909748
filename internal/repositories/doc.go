// Package repositories provides the SQLite persistence layer: a TTL-bounded
// cache of source lookup results keyed by query hash.
package repositories
