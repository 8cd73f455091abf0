// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package codec serializes the full chat state to a compact opaque blob
// and back, and defines the storage slot it is written to.
package codec

import (
	"bytes"
	"compress/flate"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// =============================================================================
// STORED STATE TYPES
// =============================================================================

// State is the complete persisted application state: every conversation
// plus the active selection.
type State struct {
	Conversations        []StoredConversation `json:"conversations"`
	ActiveConversationID string               `json:"active_conversation_id,omitempty"`
}

// StoredConversation is one persisted chat thread.
//
// Timestamps marshal as RFC 3339 strings with sub-second precision. A
// malformed timestamp in stored data fails JSON decoding and drops the
// whole snapshot as corruption.
type StoredConversation struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Messages  []StoredMessage `json:"messages"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// StoredMessage is one persisted message. Streaming state is never
// persisted: a message only reaches storage once finalized.
type StoredMessage struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// =============================================================================
// SERIALIZE / DESERIALIZE
// =============================================================================

// Serialize encodes the state into an opaque blob string.
func Serialize(state *State) (string, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("failed to encode state: %w", err)
	}

	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		return "", fmt.Errorf("failed to create compressor: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return "", fmt.Errorf("failed to compress state: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to flush compressor: %w", err)
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Deserialize decodes a blob produced by Serialize. The boolean is
// false when the blob is empty or unreadable for any reason; the caller
// starts with an empty store in that case.
func Deserialize(blob string) (*State, bool) {
	if blob == "" {
		return nil, false
	}

	compressed, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return nil, false
	}

	r := flate.NewReader(bytes.NewReader(compressed))
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, false
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, false
	}

	return &state, true
}
