// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store is the in-memory source of truth for all chats and the
// active conversation.
package store

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is a single message in a conversation. Content is append-only
// while Streaming is true and immutable once finalized.
type Message struct {
	ID        string
	Role      Role
	CreatedAt time.Time

	// Content holds the final text once the message is finalized.
	Content string

	// Streaming marks an assistant message still receiving tokens.
	Streaming bool

	// PERFORMANCE: strings.Builder avoids quadratic allocations while
	// tokens stream in; merged into Content on finalize.
	streamBuf strings.Builder
}

// NewUserMessage creates a finalized user message.
func NewUserMessage(content string) *Message {
	return &Message{
		ID:        generateMessageID(),
		Role:      RoleUser,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// NewAssistantMessage creates an empty assistant message in streaming
// state.
func NewAssistantMessage() *Message {
	return &Message{
		ID:        generateMessageID(),
		Role:      RoleAssistant,
		CreatedAt: time.Now(),
		Streaming: true,
	}
}

// AppendTokens concatenates text onto the content buffer. No-op once
// the message is finalized.
func (m *Message) AppendTokens(text string) {
	if m.Streaming {
		m.streamBuf.WriteString(text)
	}
}

// Finalize freezes the message, unlocking persistence. Idempotent.
func (m *Message) Finalize() {
	if !m.Streaming {
		return
	}
	m.Content = m.streamBuf.String()
	m.streamBuf.Reset()
	m.Streaming = false
}

// DisplayContent returns the text to render, streamed or final.
func (m *Message) DisplayContent() string {
	if m.Streaming {
		return m.streamBuf.String()
	}
	return m.Content
}

// IsEmpty returns true if the message has no content yet.
func (m *Message) IsEmpty() bool {
	return len(m.Content) == 0 && m.streamBuf.Len() == 0
}

// clone returns an independent copy. Only valid for finalized messages;
// the stream buffer is not copied.
func (m *Message) clone() *Message {
	return &Message{
		ID:        m.ID,
		Role:      m.Role,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
		Streaming: m.Streaming,
	}
}

// generateMessageID creates a unique message ID. IDs are generated at
// creation and never reused.
func generateMessageID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return "msg_" + hex.EncodeToString(bytes)
}
