// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for library enrichment:
//  1. [TrackListView] : Browse the scanned tracks
//  2. [ConfirmView] : Confirm the enrichment run
//  3. [EnrichView] : Monitor real-time progress updates
//  4. [ResultView] : Display per-track outcomes and failure details
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Progress updates flow through a channel from the enrichment Engine, providing
// non-blocking status reporting during runs.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
