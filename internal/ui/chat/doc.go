// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// The Model composes the conversation sidebar, the message viewport,
// the input line, and the status bar into a single Bubble Tea model.
// It owns no chat state of its own: messages and conversations live in
// the store, send/cancel/retry live in the session controller, and the
// model re-reads both on every event.
//
// Controller progress arrives over the session event channel. The
// model keeps one waitForEvent command armed at all times, so every
// token batch and state transition triggers a re-render.
//
// While a request is in flight the input line is replaced by a
// spinner and typing is disabled; Esc cancels the stream. After a
// failure the error box is shown and "r" retries the last prompt.
package chat
