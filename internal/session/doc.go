// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session drives one outstanding request/response/stream cycle
// against the remote endpoint.
//
// The Controller is a state machine over idle, loading, streaming, and
// error. Send moves idle -> loading when the request goes out,
// loading -> streaming when the first byte arrives, streaming -> idle
// when the stream ends. Transport and server failures land in error
// with the prompt retained so Retry can resubmit it verbatim. Cancel
// aborts the in-flight request and returns to idle; the partially
// streamed assistant message is finalized and kept.
//
// Progress is published as Events on a channel the UI drains, so all
// rendering happens on the UI's own loop while the stream is consumed
// on a worker goroutine.
package session
