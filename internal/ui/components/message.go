// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/streamchat-tui/internal/store"
	"github.com/jeranaias/streamchat-tui/internal/ui/styles"
)

// =============================================================================
// MESSAGE RENDERER
// =============================================================================

// MessageRenderer renders conversation messages for the viewport.
// Finished assistant messages go through glamour for markdown; text that
// is still streaming is shown raw so partial markup never garbles the
// display.
type MessageRenderer struct {
	theme    *styles.Theme
	markdown *glamour.TermRenderer
	width    int
}

// NewMessageRenderer creates a renderer. Markdown rendering is optional;
// when disabled (or when the renderer cannot be built) assistant
// messages fall back to plain text.
func NewMessageRenderer(theme *styles.Theme, markdown bool, width int) *MessageRenderer {
	mr := &MessageRenderer{theme: theme, width: width}
	if markdown {
		mr.markdown = newMarkdownRenderer(width)
	}
	return mr
}

func newMarkdownRenderer(width int) *glamour.TermRenderer {
	if width < 20 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	return r
}

// SetWidth updates the wrap width and rebuilds the markdown renderer.
func (mr *MessageRenderer) SetWidth(width int) {
	if width == mr.width {
		return
	}
	mr.width = width
	if mr.markdown != nil {
		mr.markdown = newMarkdownRenderer(width)
	}
}

// Render renders the full message list as viewport content.
func (mr *MessageRenderer) Render(msgs []store.MessageView) string {
	var b strings.Builder
	for i, msg := range msgs {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(mr.renderOne(msg))
		b.WriteString("\n")
	}
	return b.String()
}

func (mr *MessageRenderer) renderOne(msg store.MessageView) string {
	header := mr.theme.MessageRole.Render(roleLabel(msg.Role)) + " " +
		mr.theme.MessageTime.Render(msg.CreatedAt.Format("15:04"))

	body := msg.Content
	switch {
	case msg.Streaming:
		body += mr.theme.StreamingCursor.Render("▌")
	case msg.Role == store.RoleAssistant && mr.markdown != nil:
		if rendered, err := mr.markdown.Render(body); err == nil {
			body = strings.TrimRight(rendered, "\n")
		}
	}

	style := mr.theme.AssistantMessage
	if msg.Role == store.RoleUser {
		style = mr.theme.UserMessage
	}

	return header + "\n" + style.Width(mr.width).Render(body)
}

func roleLabel(role store.Role) string {
	switch role {
	case store.RoleUser:
		return "You"
	case store.RoleAssistant:
		return "Assistant"
	default:
		return string(role)
	}
}
