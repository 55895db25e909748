package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tagx/internal/enrich"
	"github.com/desertthunder/tagx/internal/shared"
	"github.com/desertthunder/tagx/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI for library enrichment.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	dir := cmd.StringArg("dir")
	if dir == "" {
		return fmt.Errorf("%w: directory argument is required", shared.ErrMissingArgument)
	}
	if len(r.sources) == 0 {
		return fmt.Errorf("%w: no sources configured", shared.ErrSourceUnavailable)
	}

	tracks, err := enrich.ScanTracks(dir)
	if err != nil {
		return err
	}
	if len(tracks) == 0 {
		return fmt.Errorf("%w: no MP3 files found under %s", shared.ErrInvalidInput, dir)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/tagx-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	cache, db := r.openCache()
	if db != nil {
		defer db.Close()
	}

	var writer enrich.TagWriter
	if cmd.Bool("write") {
		writer = &enrich.SidecarWriter{}
	}

	model := ui.NewModel(ctx, r.newEngine(cache, writer), tracks)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
