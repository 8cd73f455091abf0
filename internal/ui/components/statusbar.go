// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/streamchat-tui/internal/session"
	"github.com/jeranaias/streamchat-tui/internal/ui/styles"
)

// =============================================================================
// STATUS BAR
// =============================================================================

// StatusBar renders the bottom status line: connection state on the
// left, keyboard shortcuts on the right.
type StatusBar struct {
	theme *styles.Theme
	width int
}

// NewStatusBar creates a status bar with the given theme.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{theme: theme}
}

// SetWidth updates the status bar width.
func (sb *StatusBar) SetWidth(width int) {
	sb.width = width
}

// View renders the status bar for the given controller status.
func (sb *StatusBar) View(status session.Status, endpoint string) string {
	var state string
	switch status {
	case session.StatusLoading:
		state = sb.theme.StatusBusy.Render(styles.StatusIndicators.Pending + " sending")
	case session.StatusStreaming:
		state = sb.theme.StatusBusy.Render(styles.StatusIndicators.Pending + " streaming")
	case session.StatusError:
		state = sb.theme.StatusError.Render(styles.StatusIndicators.Error + " error")
	default:
		state = sb.theme.StatusIdle.Render(styles.StatusIndicators.Success + " ready")
	}

	left := state + "  " + sb.theme.ShortcutDesc.Render(endpoint)

	shortcuts := []struct{ key, desc string }{
		{"Enter", "send"},
		{"C-n", "new"},
		{"Tab", "switch"},
		{"Esc", "cancel"},
		{"C-q", "quit"},
	}
	var parts []string
	for _, s := range shortcuts {
		parts = append(parts, sb.theme.ShortcutKey.Render(s.key)+" "+sb.theme.ShortcutDesc.Render(s.desc))
	}
	right := strings.Join(parts, "  ")

	gap := sb.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}

	return sb.theme.StatusBar.Width(sb.width).Render(left + strings.Repeat(" ", gap) + right)
}
