// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package relay provides the HTTP client for the remote chat-completion
// endpoint and the decoder for its streamed response format.
package relay

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"regexp"
)

// =============================================================================
// TOKEN DECODER
// =============================================================================

// objectPattern matches a brace-delimited object candidate inside an
// otherwise unparseable line. Used by the recovery pass when records
// arrive concatenated or surrounded by garbage.
var objectPattern = regexp.MustCompile(`\{[^}]+\}`)

// TokenDecoder converts a raw response body into a sequence of
// TokenEvents. The byte buffer is split on newlines before any string
// conversion, so a multi-byte UTF-8 character spanning two network
// chunks is reassembled rather than corrupted.
//
// The decoder is finite and not restartable: once Next returns io.EOF
// it returns io.EOF forever.
type TokenDecoder struct {
	reader  *bufio.Reader
	pending []TokenEvent
	eof     bool
	count   int
}

// NewTokenDecoder creates a decoder reading from r.
func NewTokenDecoder(r io.Reader) *TokenDecoder {
	return &TokenDecoder{
		reader: bufio.NewReader(r),
	}
}

// Next returns the next token event, or io.EOF when the stream is
// exhausted. Malformed records are skipped silently; only reader-level
// failures are returned as errors.
func (d *TokenDecoder) Next() (TokenEvent, error) {
	for {
		if len(d.pending) > 0 {
			ev := d.pending[0]
			d.pending = d.pending[1:]
			d.count++
			return ev, nil
		}

		if d.eof {
			return TokenEvent{}, io.EOF
		}

		line, err := d.reader.ReadBytes('\n')
		if err != nil {
			if err != io.EOF {
				return TokenEvent{}, err
			}
			d.eof = true
			// Stream ended mid-record: give the residue one plain parse
			// attempt, no recovery pass. Trailing garbage is not fatal.
			d.decodeResidual(line)
			continue
		}

		d.decodeLine(line)
	}
}

// decodeLine parses one complete line into zero or more events.
func (d *TokenDecoder) decodeLine(line []byte) {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 {
		return
	}

	var ev TokenEvent
	if err := json.Unmarshal(trimmed, &ev); err == nil {
		d.pending = append(d.pending, ev)
		return
	}

	// Recovery pass: the line was not a single well-formed record.
	// Scan for embedded object candidates and keep every one that
	// parses; drop the rest.
	for _, candidate := range objectPattern.FindAll(trimmed, -1) {
		var rec TokenEvent
		if err := json.Unmarshal(candidate, &rec); err == nil {
			d.pending = append(d.pending, rec)
		}
	}
}

// decodeResidual parses the trailing unterminated fragment after EOF.
func (d *TokenDecoder) decodeResidual(line []byte) {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 {
		return
	}

	var ev TokenEvent
	if err := json.Unmarshal(trimmed, &ev); err == nil {
		d.pending = append(d.pending, ev)
	}
}

// Count returns the number of events yielded so far.
func (d *TokenDecoder) Count() int {
	return d.count
}

// =============================================================================
// PROCESS LOOP
// =============================================================================

// TokenCallback is called for each decoded token event, in order.
type TokenCallback func(ev TokenEvent)

// Process drains the stream, invoking the callback for every event.
// Blocks until the stream is exhausted, a reader failure occurs, or
// the context is cancelled.
func (d *TokenDecoder) Process(ctx context.Context, callback TokenCallback) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			ev, err := d.Next()
			if err != nil {
				if err == io.EOF {
					return nil
				}
				return err
			}
			callback(ev)
		}
	}
}
