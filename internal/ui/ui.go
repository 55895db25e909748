package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tagx/internal/enrich"
	"github.com/desertthunder/tagx/internal/models"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	TrackListView ViewState = iota
	ConfirmView
	EnrichView
	ResultView
)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	engine       *enrich.Engine
	width        int
	height       int
	trackList    list.Model
	tracks       []models.Track
	progressChan chan enrich.ProgressUpdate
	runDone      chan runCompleteMsg
	progress     enrich.ProgressUpdate
	spin         spinner.Model
	result       *enrich.RunResult
	err          error
	help         help.Model
	keys         keyMap
}

// keyMap defines the key bindings for the TUI.
type keyMap struct {
	up      key.Binding
	down    key.Binding
	enter   key.Binding
	back    key.Binding
	yes     key.Binding
	no      key.Binding
	restart key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "enrich")),
		back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		yes:     key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		no:      key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "no")),
		restart: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "restart")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter},
		{k.back, k.yes, k.no},
		{k.restart, k.quit},
	}
}

// trackItem wraps [models.Track] to implement list.Item.
type trackItem struct {
	track models.Track
}

func (i trackItem) FilterValue() string { return i.track.Title }
func (i trackItem) Title() string       { return i.track.Title }
func (i trackItem) Description() string {
	desc := i.track.Artist
	if i.track.Album != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.Album)
	}
	return desc
}

type progressUpdateMsg enrich.ProgressUpdate

type runCompleteMsg struct {
	result *enrich.RunResult
	err    error
}

// NewModel creates a new TUI model with the provided dependencies. The tracks
// are scanned up front by the caller; the model only drives the run.
func NewModel(ctx context.Context, engine *enrich.Engine, tracks []models.Track) *Model {
	items := make([]list.Item, len(tracks))
	for i, track := range tracks {
		items[i] = trackItem{track: track}
	}
	trackList := list.New(items, list.NewDefaultDelegate(), 0, 0)
	trackList.Title = fmt.Sprintf("Tracks (%d)", len(tracks))

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &Model{
		ctx:       ctx,
		view:      TrackListView,
		engine:    engine,
		tracks:    tracks,
		trackList: trackList,
		spin:      sp,
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

// Init starts the spinner tick; the track list is already populated.
func (m *Model) Init() tea.Cmd {
	return m.spin.Tick
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.trackList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case TrackListView:
			return m.handleTrackListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case EnrichView:
			return m.handleEnrichKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case progressUpdateMsg:
		m.progress = enrich.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case runCompleteMsg:
		m.result = msg.result
		m.err = msg.err
		m.view = ResultView
		return m, nil
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.error.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case TrackListView:
		return m.renderTrackList()
	case ConfirmView:
		return m.renderConfirm()
	case EnrichView:
		return m.renderEnrich()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleTrackListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		if len(m.tracks) > 0 {
			m.view = ConfirmView
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "n", "esc":
		m.view = TrackListView
		return m, nil
	case "y":
		m.view = EnrichView
		return m, tea.Batch(m.startRun(), m.spin.Tick)
	}
	return m, nil
}

func (m *Model) handleEnrichKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		m.view = TrackListView
		m.result = nil
		m.err = nil
		m.progress = enrich.ProgressUpdate{}
		return m, nil
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.view == TrackListView {
		m.trackList, cmd = m.trackList.Update(msg)
	}
	return m, cmd
}

func (m *Model) startRun() tea.Cmd {
	m.progressChan = make(chan enrich.ProgressUpdate, 50)
	done := make(chan runCompleteMsg, 1)

	go func() {
		result, err := m.engine.Run(m.ctx, m.tracks, m.progressChan)
		done <- runCompleteMsg{result: result, err: err}
		close(m.progressChan)
	}()

	m.runDone = done
	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		update, ok := <-m.progressChan
		if !ok {
			return <-m.runDone
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderTrackList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.trackList.View(), helpView)
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render(fmt.Sprintf("Enrich %d tracks?", len(m.tracks)))
	info := "\nGenres, year, and album metadata will be fetched from the configured sources.\n"

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderEnrich() string {
	title := styles.title.Render("Enriching Library")

	var phase string
	switch m.progress.Phase {
	case enrich.Submit:
		phase = fmt.Sprintf("Queueing tracks (%d/%d)", m.progress.Step, m.progress.Total)
	case enrich.Lookup:
		phase = fmt.Sprintf("Looking up metadata (%d/%d)", m.progress.Step, m.progress.Total)
	case enrich.Aggregate:
		phase = fmt.Sprintf("Aggregating genres (%d/%d)", m.progress.Step, m.progress.Total)
	case enrich.WriteTags:
		phase = fmt.Sprintf("Writing tags (%d/%d)", m.progress.Step, m.progress.Total)
	case enrich.BreakerPause:
		phase = styles.warning.Render("Paused: too many source failures")
	default:
		phase = "Processing..."
	}

	return fmt.Sprintf("%s\n\n%s %s\n%s", title, m.spin.View(), phase, m.progress.Message)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.error.Render(fmt.Sprintf("Run failed: %v\n\nPress r to retry, q to quit", m.err))
	}

	if m.result == nil {
		return styles.error.Render("No result available\n\nPress r to retry, q to quit")
	}

	title := styles.success.Render("✓ Enrichment Complete!")
	info := fmt.Sprintf(
		"\nEnriched: %d/%d\nFailed: %d\nCancelled: %d\nCache hits: %d",
		m.result.SuccessCount,
		m.result.TotalTracks,
		m.result.FailedCount,
		m.result.CancelledCount,
		m.result.CacheHits,
	)

	var failed string
	if m.result.FailedCount > 0 {
		failed = fmt.Sprintf("\n\n%s", styles.warning.Render(fmt.Sprintf("Failed to enrich %d tracks:", m.result.FailedCount)))
		for _, res := range m.result.Results {
			if res.Err != nil {
				failed += fmt.Sprintf("\n  • %s - %s", res.Track.Artist, res.Track.Title)
			}
		}
	}

	helpKeys := []key.Binding{m.keys.restart, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, failed, helpView)
}
