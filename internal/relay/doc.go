// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package relay provides the HTTP client for the remote chat-completion
// endpoint and the decoder for its streamed response format.
//
// The wire protocol is intentionally small: a single POST with a JSON
// body {"prompt": "..."} answered by a streamed body of
// newline-delimited JSON objects, each shaped {"text": "..."}.
//
// The decoder is deliberately forgiving. Upstream proxies are known to
// re-chunk the stream mid-record and occasionally concatenate records
// onto one line, so TokenDecoder buffers raw bytes, splits on newlines,
// and runs a brace-scanning recovery pass over lines that fail to parse
// as a whole. Malformed records are dropped silently; only reader-level
// I/O failures propagate to the caller.
//
// Example:
//
//	client := relay.NewClient(cfg)
//	err := client.Stream(ctx, prompt, nil, func(ev relay.TokenEvent) {
//	    fmt.Print(ev.Text)
//	})
package relay
