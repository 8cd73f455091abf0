// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/streamchat-tui/internal/session"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update handles incoming messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg), nil

	case sessionEventMsg:
		return m.handleSessionEvent(session.Event(msg))

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

// handleResize recomputes the layout for a new terminal size.
func (m Model) handleResize(msg tea.WindowSizeMsg) Model {
	m.width = msg.Width
	m.height = msg.Height
	m.ready = true
	m.theme.SetSize(msg.Width, msg.Height)

	mainWidth := m.width - m.sidebarWidth - 2
	if mainWidth < 20 {
		mainWidth = 20
	}

	// Reserve rows for the input line, status bar, and borders.
	viewportHeight := m.height - 5
	if viewportHeight < 3 {
		viewportHeight = 3
	}

	m.viewport.Width = mainWidth
	m.viewport.Height = viewportHeight
	m.input.Width = mainWidth - 4
	m.sidebar.SetSize(m.sidebarWidth, viewportHeight)
	m.statusBar.SetWidth(m.width)
	m.errBox.SetWidth(mainWidth)
	m.renderer.SetWidth(mainWidth - 2)

	m.refreshViewport(true)
	return m
}

// handleSessionEvent applies one controller event and re-arms the
// event listener.
func (m Model) handleSessionEvent(ev session.Event) (tea.Model, tea.Cmd) {
	switch ev.Kind {
	case session.EventFailed:
		m.errorMessage = ev.Err
	case session.EventDone:
		m.errorMessage = ""
	}

	m.refreshSidebar()
	m.refreshViewport(true)

	cmds := []tea.Cmd{m.waitForEvent()}
	if m.busy() {
		cmds = append(cmds, m.spinner.Tick)
	}
	return m, tea.Batch(cmds...)
}

// handleKey dispatches a key press based on focus and state.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Quit always works.
	if key.Matches(msg, m.keyMap.Quit) {
		return m, tea.Quit
	}

	// Esc cancels an in-flight stream, or dismisses an error.
	if key.Matches(msg, m.keyMap.Cancel) {
		if m.busy() {
			m.controller.Cancel()
			return m, nil
		}
		if m.errorMessage != "" {
			m.errorMessage = ""
			return m, nil
		}
		return m, nil
	}

	if key.Matches(msg, m.keyMap.SwitchPane) {
		if m.focused == focusInput {
			m.focused = focusSidebar
			m.input.Blur()
		} else {
			m.focused = focusInput
			m.input.Focus()
		}
		return m, textinput.Blink
	}

	if key.Matches(msg, m.keyMap.NewChat) && !m.busy() {
		m.store.StartNewConversation()
		m.errorMessage = ""
		m.refreshSidebar()
		m.refreshViewport(true)
		return m, nil
	}

	if key.Matches(msg, m.keyMap.Clear) && !m.busy() {
		m.store.ClearActiveConversation()
		m.refreshSidebar()
		m.refreshViewport(true)
		return m, nil
	}

	if m.focused == focusSidebar {
		return m.handleSidebarKey(msg)
	}
	return m.handleInputKey(msg)
}

// handleSidebarKey handles keys while the conversation list has focus.
func (m Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Up):
		m.sidebar.CursorUp()

	case key.Matches(msg, m.keyMap.Down):
		m.sidebar.CursorDown()

	case key.Matches(msg, m.keyMap.Submit):
		if id := m.sidebar.Selected(); id != "" && !m.busy() {
			if err := m.store.LoadConversation(id); err != nil {
				m.errorMessage = err.Error()
			} else {
				m.errorMessage = ""
			}
			m.focused = focusInput
			m.input.Focus()
			m.refreshSidebar()
			m.refreshViewport(true)
			return m, textinput.Blink
		}

	case key.Matches(msg, m.keyMap.Delete):
		if id := m.sidebar.Selected(); id != "" && !m.busy() {
			m.store.DeleteConversation(id)
			m.refreshSidebar()
			m.refreshViewport(true)
		}
	}
	return m, nil
}

// handleInputKey handles keys while the text input has focus.
func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// In the error state a bare "r" retries rather than typing.
	if m.errorMessage != "" && key.Matches(msg, m.keyMap.Retry) {
		m.errorMessage = ""
		m.controller.Retry()
		return m, m.spinner.Tick
	}

	if key.Matches(msg, m.keyMap.Submit) {
		if m.busy() {
			return m, nil
		}
		text := m.input.Value()
		if text == "" {
			return m, nil
		}
		m.input.Reset()
		m.errorMessage = ""
		m.controller.Send(text)
		m.refreshSidebar()
		m.refreshViewport(true)
		return m, m.spinner.Tick
	}

	switch {
	case key.Matches(msg, m.keyMap.PageUp):
		m.viewport.HalfViewUp()
		return m, nil
	case key.Matches(msg, m.keyMap.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	case key.Matches(msg, m.keyMap.Up):
		m.viewport.LineUp(1)
		return m, nil
	case key.Matches(msg, m.keyMap.Down):
		m.viewport.LineDown(1)
		return m, nil
	}

	// Input is read-only while a request is in flight.
	if m.busy() {
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}
