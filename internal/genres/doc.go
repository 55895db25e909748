// Package genres merges raw, noisy genre tags gathered from several sources
// into a deduplicated, confidence-ranked result.
//
// Raw tags are split into sub-tags, filtered against a blacklist of non-genre
// noise terms and bare year strings, title-cased, and deduplicated keeping
// the highest confidence seen. Final selection applies a confidence threshold
// with adaptive relaxation so a track with only weak signals still gets its
// single best candidate rather than nothing.
package genres
