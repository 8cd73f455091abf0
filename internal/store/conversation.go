// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store is the in-memory source of truth for all chats and the
// active conversation.
package store

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/jeranaias/streamchat-tui/internal/util"
)

// DefaultTitle is the placeholder before a conversation has any user
// message to derive a title from.
const DefaultTitle = "New Chat"

// titleMaxRunes is the derivation cutoff: the first user message's
// first 50 characters, ellipsis appended when longer.
const titleMaxRunes = 50

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation is one persisted chat thread with an ordered message
// history. Message order is insertion order, which is chronological.
type Conversation struct {
	ID        string
	Title     string
	Messages  []*Message
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewConversation creates an empty conversation with a generated ID.
func NewConversation() *Conversation {
	now := time.Now()
	return &Conversation{
		ID:        generateConversationID(),
		Title:     DefaultTitle,
		Messages:  make([]*Message, 0),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// MessageCount returns the number of messages.
func (c *Conversation) MessageCount() int {
	return len(c.Messages)
}

// IsEmpty returns true if there are no messages.
func (c *Conversation) IsEmpty() bool {
	return len(c.Messages) == 0
}

// deriveTitle computes the display title from the first user message:
// its first 50 characters, with an ellipsis appended when truncated.
// Falls back to the given title when no user message exists.
func deriveTitle(messages []*Message, fallback string) string {
	for _, msg := range messages {
		if msg.Role == RoleUser {
			title := util.TitleFromContent(msg.DisplayContent(), titleMaxRunes)
			// Titles render on one sidebar line.
			title = strings.ReplaceAll(title, "\n", " ")
			return strings.ReplaceAll(title, "\r", "")
		}
	}
	return fallback
}

// generateConversationID creates a unique conversation ID.
func generateConversationID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return "conv_" + hex.EncodeToString(bytes)
}

// =============================================================================
// SUMMARIES
// =============================================================================

// Summary holds lightweight conversation metadata for listing.
type Summary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
}

// summary returns listing metadata for the conversation.
func (c *Conversation) summary() Summary {
	return Summary{
		ID:           c.ID,
		Title:        c.Title,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
		MessageCount: len(c.Messages),
	}
}

// =============================================================================
// EXPORT
// =============================================================================

// ExportMarkdown renders the conversation as Markdown with role labels
// and timestamps.
func (c *Conversation) ExportMarkdown() string {
	var sb strings.Builder
	sb.WriteString("# " + c.Title + "\n\n")
	sb.WriteString("Created: " + c.CreatedAt.Format(time.RFC3339) + "\n\n")
	sb.WriteString("---\n\n")

	for _, msg := range c.Messages {
		sb.WriteString("**" + msg.Role.DisplayName() + "** (" + msg.CreatedAt.Format("15:04") + "):\n\n")
		sb.WriteString(msg.DisplayContent())
		sb.WriteString("\n\n---\n\n")
	}

	return sb.String()
}

// ExportJSON renders the conversation as pretty-printed JSON.
func (c *Conversation) ExportJSON() ([]byte, error) {
	type jsonMessage struct {
		ID        string    `json:"id"`
		Role      string    `json:"role"`
		Content   string    `json:"content"`
		CreatedAt time.Time `json:"created_at"`
	}
	type jsonConversation struct {
		ID        string        `json:"id"`
		Title     string        `json:"title"`
		Messages  []jsonMessage `json:"messages"`
		CreatedAt time.Time     `json:"created_at"`
		UpdatedAt time.Time     `json:"updated_at"`
	}

	out := jsonConversation{
		ID:        c.ID,
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		Messages:  make([]jsonMessage, 0, len(c.Messages)),
	}
	for _, msg := range c.Messages {
		out.Messages = append(out.Messages, jsonMessage{
			ID:        msg.ID,
			Role:      msg.Role.String(),
			Content:   msg.DisplayContent(),
			CreatedAt: msg.CreatedAt,
		})
	}

	return json.MarshalIndent(out, "", "  ")
}
