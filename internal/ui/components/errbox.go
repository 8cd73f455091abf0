// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/jeranaias/streamchat-tui/internal/ui/styles"
)

// =============================================================================
// ERROR BOX
// =============================================================================

// ErrorBox renders a failed request with a retry hint.
type ErrorBox struct {
	theme *styles.Theme
	width int
}

// NewErrorBox creates an error box with the given theme.
func NewErrorBox(theme *styles.Theme) *ErrorBox {
	return &ErrorBox{theme: theme}
}

// SetWidth updates the error box width.
func (e *ErrorBox) SetWidth(width int) {
	e.width = width
}

// View renders the error message, or "" when message is empty.
func (e *ErrorBox) View(message string) string {
	if message == "" {
		return ""
	}

	content := e.theme.ErrorTitle.Render(styles.StatusIndicators.Error+" Request failed") + "\n" +
		e.theme.ErrorMessage.Render(message) + "\n" +
		e.theme.ErrorTip.Render("Press r to retry, Esc to dismiss")

	return e.theme.ErrorBox.Width(e.width - 2).Render(content)
}
