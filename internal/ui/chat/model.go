// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/streamchat-tui/internal/config"
	"github.com/jeranaias/streamchat-tui/internal/session"
	"github.com/jeranaias/streamchat-tui/internal/store"
	"github.com/jeranaias/streamchat-tui/internal/ui/components"
	"github.com/jeranaias/streamchat-tui/internal/ui/styles"
)

// =============================================================================
// FOCUS
// =============================================================================

// focus identifies which pane receives keyboard input.
type focus int

const (
	focusInput focus = iota
	focusSidebar
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	// Styling
	theme *styles.Theme

	// Dimensions
	width  int
	height int
	ready  bool

	// Wiring
	store      *store.Store
	controller *session.Controller
	endpoint   string

	// UI components
	viewport  viewport.Model
	input     textinput.Model
	spinner   spinner.Model
	sidebar   *components.Sidebar
	statusBar *components.StatusBar
	errBox    *components.ErrorBox
	renderer  *components.MessageRenderer

	// Key bindings
	keyMap KeyMap

	// Focus and error state
	focused      focus
	errorMessage string
	sidebarWidth int
}

// New creates a new chat model wired to the store and controller.
func New(cfg *config.Config, theme *styles.Theme, st *store.Store, ctrl *session.Controller) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type a message..."
	ti.CharLimit = 4096
	ti.Focus()

	vp := viewport.New(80, 20)
	vp.SetContent("")

	// ASCII spinner frames survive limited terminals.
	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	sp.Style = theme.Spinner

	sidebarWidth := cfg.UI.SidebarWidth
	if sidebarWidth <= 0 {
		sidebarWidth = 28
	}

	m := Model{
		theme:        theme,
		store:        st,
		controller:   ctrl,
		endpoint:     cfg.Server.Endpoint,
		viewport:     vp,
		input:        ti,
		spinner:      sp,
		sidebar:      components.NewSidebar(theme),
		statusBar:    components.NewStatusBar(theme),
		errBox:       components.NewErrorBox(theme),
		renderer:     components.NewMessageRenderer(theme, cfg.UI.Markdown, 80),
		keyMap:       DefaultKeyMap(),
		focused:      focusInput,
		sidebarWidth: sidebarWidth,
	}

	m.refreshSidebar()
	m.refreshViewport(true)
	return m
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForEvent())
}

// =============================================================================
// CONTROLLER EVENT PLUMBING
// =============================================================================

// sessionEventMsg carries one controller event into the update loop.
type sessionEventMsg session.Event

// waitForEvent blocks on the controller's event channel and delivers
// the next event as a Bubble Tea message. Update re-issues it after
// every received event so the channel is drained continuously.
func (m Model) waitForEvent() tea.Cmd {
	events := m.controller.Events()
	return func() tea.Msg {
		return sessionEventMsg(<-events)
	}
}

// =============================================================================
// VIEW REFRESH HELPERS
// =============================================================================

// refreshSidebar reloads the conversation list from the store.
func (m *Model) refreshSidebar() {
	m.sidebar.SetItems(m.store.Summaries(), m.store.ActiveID())
}

// refreshViewport re-renders the message list. When follow is true the
// viewport jumps to the bottom, tracking the stream.
func (m *Model) refreshViewport(follow bool) {
	m.viewport.SetContent(m.renderer.Render(m.store.Messages()))
	if follow {
		m.viewport.GotoBottom()
	}
}

// busy reports whether input should be disabled.
func (m Model) busy() bool {
	return m.controller.Busy()
}
