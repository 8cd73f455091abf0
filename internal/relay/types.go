// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package relay provides the HTTP client for the remote chat-completion
// endpoint and the decoder for its streamed response format.
package relay

// TokenEvent is one decoded unit of assistant-generated text from the
// stream. Events with empty Text are valid records (the endpoint emits
// keep-alive objects) and are simply unused by callers.
type TokenEvent struct {
	Text string `json:"text"`
}

// PromptRequest is the JSON body of the outbound chat request.
type PromptRequest struct {
	Prompt string `json:"prompt"`
}
