package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/reel/internal/domain"
	"github.com/mmcdole/reel/internal/profile"
	"github.com/mmcdole/reel/internal/search"
	"github.com/mmcdole/reel/internal/tui/styles"
)

// ProfileService is what the screen needs from the profile layer
type ProfileService interface {
	Load(ctx context.Context, viewedUserID string, force bool) (profile.Snapshot, error)
	Refresh(ctx context.Context, viewedUserID string) (profile.Snapshot, error)
	CachedProfile(key string) (domain.Profile, bool)
	CachedVideos(key string) ([]domain.Video, bool)
	CachedFollowers(key string) (domain.FollowerStats, bool)
	FilterVideos(key, query string) []search.Match
}

// Model is the root Bubble Tea model for the profile screen
type Model struct {
	ctx          context.Context
	svc          ProfileService
	viewedUserID string
	key          string
	events       <-chan domain.ResourceEvent
	keys         KeyMap

	spinner     spinner.Model
	filterInput textinput.Model
	filtering   bool

	snapshot profile.Snapshot
	loaded   bool
	states   map[domain.ResourceKind]domain.LoadState
	matches  []search.Match
	cursor   int

	width  int
	height int
}

// NewModel creates the profile screen for viewedUserID (empty = signed-in user).
// events may be nil when no observer is wired.
func NewModel(ctx context.Context, svc ProfileService, viewedUserID string, events <-chan domain.ResourceEvent) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.SpinnerStyle

	ti := textinput.New()
	ti.Placeholder = "type to filter..."
	ti.Prompt = "/ "
	ti.PromptStyle = styles.FilterPromptStyle
	ti.TextStyle = styles.FilterStyle

	return Model{
		ctx:          ctx,
		svc:          svc,
		viewedUserID: viewedUserID,
		key:          domain.KeyFor(viewedUserID),
		events:       events,
		keys:         DefaultKeyMap(),
		spinner:      sp,
		filterInput:  ti,
		states: map[domain.ResourceKind]domain.LoadState{
			domain.KindProfile:   domain.StateLoading,
			domain.KindVideos:    domain.StateLoading,
			domain.KindFollowers: domain.StateLoading,
		},
	}
}

// Init starts the first load and begins listening for loader events
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadCmd(false), m.waitForEvent())
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case SnapshotLoadedMsg:
		m.snapshot = msg.Snapshot
		m.loaded = true
		m.states[domain.KindProfile] = stateOf(msg.Snapshot.Profile.Err)
		m.states[domain.KindVideos] = stateOf(msg.Snapshot.Videos.Err)
		m.states[domain.KindFollowers] = stateOf(msg.Snapshot.Followers.Err)
		m.applyFilter()
		return m, nil

	case ResourceEventMsg:
		m.handleEvent(msg.Event)
		return m, m.waitForEvent()

	case tea.KeyMsg:
		if m.filtering {
			return m.updateFilter(msg)
		}
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Refresh):
		for kind := range m.states {
			m.states[kind] = domain.StateLoading
		}
		return m, tea.Batch(m.spinner.Tick, m.loadCmd(true))

	case key.Matches(msg, m.keys.Filter):
		m.filtering = true
		cmd := m.filterInput.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.Escape):
		m.filterInput.SetValue("")
		m.applyFilter()
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.matches)-1 {
			m.cursor++
		}
		return m, nil
	}
	return m, nil
}

// updateFilter routes keys to the filter input while it has focus
func (m Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.filtering = false
		m.filterInput.Blur()
		m.filterInput.SetValue("")
		m.applyFilter()
		return m, nil
	case key.Matches(msg, m.keys.Enter):
		m.filtering = false
		m.filterInput.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	m.applyFilter()
	return m, cmd
}

// handleEvent applies a loader event for this screen's key.
// Background refreshes re-read the cache so the screen shows the new value.
func (m *Model) handleEvent(ev domain.ResourceEvent) {
	if ev.Key != m.key {
		return
	}
	if !ev.Background {
		m.states[ev.Kind] = ev.State
		return
	}
	if ev.Err != nil {
		return
	}

	switch ev.Kind {
	case domain.KindProfile:
		if p, ok := m.svc.CachedProfile(m.key); ok {
			m.snapshot.Profile = profile.Section[domain.Profile]{Value: p}
		}
	case domain.KindVideos:
		if v, ok := m.svc.CachedVideos(m.key); ok {
			m.snapshot.Videos = profile.Section[[]domain.Video]{Value: v}
			m.applyFilter()
		}
	case domain.KindFollowers:
		if f, ok := m.svc.CachedFollowers(m.key); ok {
			m.snapshot.Followers = profile.Section[domain.FollowerStats]{Value: f}
		}
	}
	m.states[ev.Kind] = domain.StateLoaded
}

// applyFilter recomputes the visible video list from the current query
func (m *Model) applyFilter() {
	m.matches = m.svc.FilterVideos(m.key, m.filterInput.Value())
	if m.matches == nil && m.filterInput.Value() == "" {
		// Videos not cached (e.g. cache write failed); fall back to the snapshot
		m.matches = search.NewIndex(m.snapshot.Videos.Value).Filter("")
	}
	if m.cursor >= len(m.matches) {
		m.cursor = max(len(m.matches)-1, 0)
	}
}

func (m Model) loadCmd(force bool) tea.Cmd {
	svc, ctx, viewed := m.svc, m.ctx, m.viewedUserID
	return func() tea.Msg {
		var (
			snap profile.Snapshot
			err  error
		)
		if force {
			snap, err = svc.Refresh(ctx, viewed)
		} else {
			snap, err = svc.Load(ctx, viewed, false)
		}
		return SnapshotLoadedMsg{Snapshot: snap, Err: err}
	}
}

func (m Model) waitForEvent() tea.Cmd {
	if m.events == nil {
		return nil
	}
	events := m.events
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return ResourceEventMsg{Event: ev}
	}
}

func stateOf(err error) domain.LoadState {
	if err != nil {
		return domain.StateError
	}
	return domain.StateLoaded
}
