// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides reusable UI components for the streamchat TUI.
package components

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/streamchat-tui/internal/store"
	"github.com/jeranaias/streamchat-tui/internal/ui/styles"
)

// =============================================================================
// CONVERSATION SIDEBAR
// =============================================================================

// Sidebar renders the conversation list. Conversations are shown most
// recently updated first; the cursor tracks keyboard selection
// independently of which conversation is active.
type Sidebar struct {
	theme  *styles.Theme
	width  int
	height int

	items    []store.Summary
	activeID string
	cursor   int
}

// NewSidebar creates a sidebar with the given theme.
func NewSidebar(theme *styles.Theme) *Sidebar {
	return &Sidebar{theme: theme}
}

// SetSize updates the sidebar dimensions.
func (s *Sidebar) SetSize(width, height int) {
	s.width = width
	s.height = height
}

// SetItems replaces the conversation list and clamps the cursor.
func (s *Sidebar) SetItems(items []store.Summary, activeID string) {
	s.items = items
	s.activeID = activeID
	if s.cursor >= len(items) {
		s.cursor = len(items) - 1
	}
	if s.cursor < 0 {
		s.cursor = 0
	}
}

// CursorUp moves the selection up one entry.
func (s *Sidebar) CursorUp() {
	if s.cursor > 0 {
		s.cursor--
	}
}

// CursorDown moves the selection down one entry.
func (s *Sidebar) CursorDown() {
	if s.cursor < len(s.items)-1 {
		s.cursor++
	}
}

// Selected returns the conversation id under the cursor, or "" when the
// list is empty.
func (s *Sidebar) Selected() string {
	if len(s.items) == 0 {
		return ""
	}
	return s.items[s.cursor].ID
}

// View renders the sidebar.
func (s *Sidebar) View() string {
	var b strings.Builder

	b.WriteString(s.theme.SidebarTitle.Render("Conversations"))
	b.WriteString("\n")

	if len(s.items) == 0 {
		b.WriteString(s.theme.SessionMeta.Render("(none yet)"))
		return s.theme.Sidebar.Width(s.width).Height(s.height).Render(b.String())
	}

	// Title column: sidebar width minus padding and the active marker.
	textWidth := s.width - 4
	if textWidth < 4 {
		textWidth = 4
	}

	for i, item := range s.items {
		marker := " "
		if item.ID == s.activeID {
			marker = "*"
		}

		title := fitWidth(item.Title, textWidth)
		line := marker + " " + title

		if i == s.cursor {
			b.WriteString(s.theme.SessionItemSelected.Render(line))
		} else {
			b.WriteString(s.theme.SessionItem.Render(line))
		}
		b.WriteString("\n")
	}

	return s.theme.Sidebar.Width(s.width).Height(s.height).Render(b.String())
}

// fitWidth truncates or pads a string to the given display width.
// Uses runewidth so CJK and other wide characters line up correctly.
func fitWidth(s string, width int) string {
	if runewidth.StringWidth(s) > width {
		// Truncation of wide runes can land under the target width;
		// pad back out so the column stays aligned.
		s = runewidth.Truncate(s, width, "…")
	}
	return runewidth.FillRight(s, width)
}
