// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the complete chat interface.
func (m Model) View() string {
	if !m.ready {
		return "Starting streamchat..."
	}

	main := m.renderMain()
	body := lipgloss.JoinHorizontal(lipgloss.Top, m.sidebar.View(), main)

	var b strings.Builder
	b.WriteString(body)
	b.WriteString("\n")
	b.WriteString(m.statusBar.View(m.controller.Status(), m.endpoint))
	return b.String()
}

// renderMain renders the message viewport, error box, and input line.
func (m Model) renderMain() string {
	var parts []string

	parts = append(parts, m.viewport.View())

	if m.errorMessage != "" {
		parts = append(parts, m.errBox.View(m.errorMessage))
	}

	parts = append(parts, m.renderInput())

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// renderInput renders the input line, swapping in the spinner while a
// request is in flight.
func (m Model) renderInput() string {
	if m.busy() {
		line := m.spinner.View() + " " + m.theme.ThinkingText.Render("waiting for response... (Esc to cancel)")
		return m.theme.InputContainer.Width(m.viewport.Width).Render(line)
	}
	return m.theme.InputContainer.Width(m.viewport.Width).Render(m.input.View())
}
