package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/taan/internal/formatter"
	"github.com/desertthunder/taan/internal/models"
	"github.com/desertthunder/taan/internal/tasks"
)

const seekStepMS = 5000

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LoginView ViewState = iota
	PlaylistListView
	TrackListView
)

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	view     ViewState
	commands chan<- tasks.Command
	updates  <-chan tasks.Update

	width  int
	height int

	auth     models.AuthState
	playback models.PlaybackState
	accent   string
	errMsg   string

	playlistList list.Model
	trackList    list.Model
	playlist     *models.Playlist
	tracks       []models.Track

	help help.Model
	keys keyMap
}

// NewModel creates a TUI model that talks to a [tasks.Bridge] through commands and updates.
func NewModel(ctx context.Context, commands chan<- tasks.Command, updates <-chan tasks.Update) *Model {
	m := &Model{
		ctx:      ctx,
		view:     LoginView,
		commands: commands,
		updates:  updates,
		help:     help.New(),
		keys:     newKeyMap(),
	}
	m.playlistList = newList("Playlists")
	m.trackList = newList("Tracks")
	return m
}

func newList(title string) list.Model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	return l
}

// Init starts listening for bridge updates.
func (m *Model) Init() tea.Cmd {
	return m.waitForUpdate()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.playlistList.SetSize(msg.Width-4, msg.Height-8)
		m.trackList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case Msg:
		switch msg.kind {
		case MsgBridgeUpdate:
			cmd := m.applyUpdate(msg.data.(tasks.Update))
			return m, tea.Batch(cmd, m.waitForUpdate())
		case MsgBridgeClosed:
			return m, tea.Quit
		}
	}

	return m.updateLists(msg)
}

func (m *Model) applyUpdate(u tasks.Update) tea.Cmd {
	switch u.Kind {
	case tasks.AuthStateUpdate:
		wasIn := m.auth.Status == models.LoggedIn
		m.auth = u.Auth
		switch {
		case u.Auth.Status == models.LoggedIn && !wasIn:
			m.view = PlaylistListView
			m.errMsg = ""
			return m.send(tasks.FetchPlaylistsCommand(0, 0))
		case u.Auth.Status != models.LoggedIn:
			m.view = LoginView
		}
	case tasks.PlaybackUpdate:
		changed := u.Playback.TrackID != m.playback.TrackID
		if changed || u.Playback.CoverArt == nil {
			m.accent = ""
		}
		m.playback = u.Playback
		if art := u.Playback.CoverArt; art != nil {
			m.accent = art.Accent
		}
		if changed && len(m.tracks) > 0 {
			return m.trackList.SetItems(trackItems(m.tracks, m.playback.TrackID))
		}
	case tasks.CoverUpdate:
		if u.TrackID == m.playback.TrackID && u.Cover != nil {
			m.accent = u.Cover.Accent
		}
	case tasks.PlaylistsUpdate:
		cmd := m.playlistList.SetItems(playlistItems(u.Playlists))
		if u.HasMore {
			m.playlistList.Title = fmt.Sprintf("Playlists (%d of %d)", len(u.Playlists), u.Total)
		}
		return cmd
	case tasks.PlaylistItemsUpdate:
		if m.playlist == nil || m.playlist.ID != u.PlaylistID {
			return nil
		}
		m.view = TrackListView
		m.tracks = u.Tracks
		return m.trackList.SetItems(trackItems(m.tracks, m.playback.TrackID))
	case tasks.ErrorUpdate:
		m.errMsg = u.Message
	}
	return nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.filtering() {
		return m.updateLists(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggle):
		if m.playback.IsPlaying {
			return m, m.send(tasks.PauseCommand())
		}
		return m, m.send(tasks.PlayCommand())
	case key.Matches(msg, m.keys.forward):
		return m, m.send(tasks.SeekCommand(m.playback.PositionMS + seekStepMS))
	case key.Matches(msg, m.keys.backward):
		return m, m.send(tasks.SeekCommand(m.playback.PositionMS - seekStepMS))
	}

	switch m.view {
	case LoginView:
		if key.Matches(msg, m.keys.login) && m.auth.Status != models.LoggingIn {
			return m, m.send(tasks.LoginCommand())
		}
		return m, nil
	case PlaylistListView:
		if key.Matches(msg, m.keys.enter) {
			if pl, ok := m.playlistList.SelectedItem().(playlistItem); ok {
				p := pl.playlist
				m.playlist = &p
				m.trackList.Title = p.Name
				return m, m.send(tasks.FetchPlaylistCommand(p.ID, 50, 0))
			}
		}
	case TrackListView:
		switch {
		case key.Matches(msg, m.keys.back):
			m.view = PlaylistListView
			return m, nil
		case key.Matches(msg, m.keys.enter):
			if tr, ok := m.trackList.SelectedItem().(trackItem); ok {
				return m, m.send(tasks.PlayTrackCommand(tr.track.ID))
			}
		}
	}
	return m.updateLists(msg)
}

func (m *Model) filtering() bool {
	switch m.view {
	case PlaylistListView:
		return m.playlistList.FilterState() == list.Filtering
	case TrackListView:
		return m.trackList.FilterState() == list.Filtering
	}
	return false
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case PlaylistListView:
		m.playlistList, cmd = m.playlistList.Update(msg)
	case TrackListView:
		m.trackList, cmd = m.trackList.Update(msg)
	}
	return m, cmd
}

// send returns a command that hands c to the bridge.
func (m *Model) send(c tasks.Command) tea.Cmd {
	return func() tea.Msg {
		select {
		case m.commands <- c:
		case <-m.ctx.Done():
		}
		return nil
	}
}

func (m *Model) waitForUpdate() tea.Cmd {
	return func() tea.Msg {
		select {
		case u := <-m.updates:
			return bridgeUpdateMsg(u)
		case <-m.ctx.Done():
			return bridgeClosedMsg()
		}
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var body string
	switch m.view {
	case LoginView:
		body = m.renderLogin()
	case PlaylistListView:
		body = m.playlistList.View()
	case TrackListView:
		body = m.trackList.View()
	}

	parts := []string{body, m.renderNowPlaying()}
	if m.errMsg != "" {
		parts = append(parts, styles.err.Render("Error: "+m.errMsg))
	}
	parts = append(parts, m.renderHelp())
	return strings.Join(parts, "\n\n")
}

func (m *Model) renderLogin() string {
	title := styles.title.Render("taan")
	status := m.auth.Status.String()
	if m.auth.Message != "" {
		status = fmt.Sprintf("%s (%s)", status, m.auth.Message)
	}
	switch m.auth.Status {
	case models.LoggingIn:
		return fmt.Sprintf("%s\n%s\n\nFinish signing in in your browser.", title, status)
	case models.Connecting:
		return fmt.Sprintf("%s\n%s", title, styles.warn.Render("Connecting..."))
	default:
		return fmt.Sprintf("%s\n%s\n\nPress l to log in.", title, status)
	}
}

func (m *Model) renderNowPlaying() string {
	s := m.playback
	if s.Title == "" {
		return styles.help.Render("Nothing playing")
	}
	icon := "⏸"
	if s.IsPlaying {
		icon = "▶"
	}
	title := styles.accent(m.accent).Render(s.Title)
	line := fmt.Sprintf("%s %s", icon, title)
	if s.Artist != "" {
		line += " - " + s.Artist
	}
	return fmt.Sprintf("%s  %s", line, formatter.Progress(s.PositionMS, s.DurationMS))
}

func (m *Model) renderHelp() string {
	var keys []key.Binding
	switch m.view {
	case LoginView:
		keys = []key.Binding{m.keys.login, m.keys.quit}
	case PlaylistListView:
		keys = []key.Binding{m.keys.enter, m.keys.toggle, m.keys.quit}
	case TrackListView:
		keys = []key.Binding{m.keys.enter, m.keys.toggle, m.keys.backward, m.keys.forward, m.keys.back, m.keys.quit}
	}
	return m.help.ShortHelpView(keys)
}
