// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package relay provides the HTTP client for the remote chat-completion
// endpoint and the decoder for its streamed response format.
package relay

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

// chunkedReader delivers its payload in fixed-size chunks, simulating a
// network body that fragments records at arbitrary byte offsets.
type chunkedReader struct {
	data  []byte
	pos   int
	chunk int
}

func (r *chunkedReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	n := r.chunk
	if n > len(p) {
		n = len(p)
	}
	if r.pos+n > len(r.data) {
		n = len(r.data) - r.pos
	}
	copy(p, r.data[r.pos:r.pos+n])
	r.pos += n
	return n, nil
}

// drain collects every decoded text in order.
func drain(t *testing.T, r io.Reader) []string {
	t.Helper()
	dec := NewTokenDecoder(r)
	var texts []string
	for {
		ev, err := dec.Next()
		if err == io.EOF {
			return texts
		}
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		texts = append(texts, ev.Text)
	}
}

// =============================================================================
// DECODER TESTS
// =============================================================================

func TestTokenDecoder_WellFormedStream(t *testing.T) {
	payload := `{"text":"Hi"}` + "\n" + `{"text":" there"}` + "\n"

	texts := drain(t, strings.NewReader(payload))

	want := []string{"Hi", " there"}
	if len(texts) != len(want) {
		t.Fatalf("got %d events, want %d", len(texts), len(want))
	}
	for i := range want {
		if texts[i] != want[i] {
			t.Errorf("event %d = %q, want %q", i, texts[i], want[i])
		}
	}
}

func TestTokenDecoder_SkipsEmptyLines(t *testing.T) {
	payload := "\n\n" + `{"text":"a"}` + "\n\n   \n" + `{"text":"b"}` + "\n"

	texts := drain(t, strings.NewReader(payload))

	if len(texts) != 2 || texts[0] != "a" || texts[1] != "b" {
		t.Errorf("texts = %v, want [a b]", texts)
	}
}

func TestTokenDecoder_MalformedLineDropped(t *testing.T) {
	payload := `{"text":"ok"}` + "\n" + `not json at all` + "\n" + `{"text":"more"}` + "\n"

	texts := drain(t, strings.NewReader(payload))

	if len(texts) != 2 || texts[0] != "ok" || texts[1] != "more" {
		t.Errorf("texts = %v, want [ok more]", texts)
	}
}

func TestTokenDecoder_RecoveryPass(t *testing.T) {
	// Two records concatenated onto one line do not parse as a single
	// object; the recovery pass extracts each independently.
	payload := `{"text":"a"}{"text":"b"}` + "\n"

	texts := drain(t, strings.NewReader(payload))

	if len(texts) != 2 || texts[0] != "a" || texts[1] != "b" {
		t.Errorf("texts = %v, want [a b]", texts)
	}
}

func TestTokenDecoder_RecoveryPassSkipsBadCandidates(t *testing.T) {
	payload := `garbage {"text":"good"} {"text": } trailing` + "\n"

	texts := drain(t, strings.NewReader(payload))

	if len(texts) != 1 || texts[0] != "good" {
		t.Errorf("texts = %v, want [good]", texts)
	}
}

func TestTokenDecoder_ResidualParsedAtEOF(t *testing.T) {
	// Final record missing its trailing newline still decodes.
	payload := `{"text":"a"}` + "\n" + `{"text":"last"}`

	texts := drain(t, strings.NewReader(payload))

	if len(texts) != 2 || texts[1] != "last" {
		t.Errorf("texts = %v, want [a last]", texts)
	}
}

func TestTokenDecoder_TruncatedResidualIgnored(t *testing.T) {
	payload := `{"text":"a"}` + "\n" + `{"text":"cut of`

	texts := drain(t, strings.NewReader(payload))

	if len(texts) != 1 || texts[0] != "a" {
		t.Errorf("texts = %v, want [a]", texts)
	}
}

func TestTokenDecoder_EmptyStream(t *testing.T) {
	texts := drain(t, strings.NewReader(""))
	if len(texts) != 0 {
		t.Errorf("empty stream yielded %v", texts)
	}

	dec := NewTokenDecoder(strings.NewReader(""))
	if _, err := dec.Next(); err != io.EOF {
		t.Errorf("Next() on empty stream = %v, want io.EOF", err)
	}
	// EOF is sticky.
	if _, err := dec.Next(); err != io.EOF {
		t.Errorf("second Next() = %v, want io.EOF", err)
	}
}

// =============================================================================
// CHUNK BOUNDARY PROPERTY
// =============================================================================

func TestTokenDecoder_ChunkBoundaryInvariance(t *testing.T) {
	// The decoded sequence must not depend on how the payload is split
	// into chunks, including mid-record and mid-rune splits.
	payload := `{"text":"héllo "}` + "\n" +
		`{"text":"wörld 世界"}` + "\n" +
		`bad line` + "\n" +
		`{"text":"a"}{"text":"b"}` + "\n" +
		`{"text":"end"}`

	whole := drain(t, strings.NewReader(payload))

	for _, size := range []int{1, 2, 3, 5, 7, 16, 64, 1024} {
		texts := drain(t, &chunkedReader{data: []byte(payload), chunk: size})

		if len(texts) != len(whole) {
			t.Fatalf("chunk %d: got %d events, want %d", size, len(texts), len(whole))
		}
		for i := range whole {
			if texts[i] != whole[i] {
				t.Errorf("chunk %d: event %d = %q, want %q", size, i, texts[i], whole[i])
			}
		}
	}
}

func TestTokenDecoder_MidRuneSplit(t *testing.T) {
	// One-byte chunks force every multi-byte character to straddle a
	// chunk boundary; decoded text must come out intact.
	payload := `{"text":"日本語のテキスト"}` + "\n"

	texts := drain(t, &chunkedReader{data: []byte(payload), chunk: 1})

	if len(texts) != 1 || texts[0] != "日本語のテキスト" {
		t.Errorf("texts = %q, want the original multi-byte string", texts)
	}
}

// =============================================================================
// PROCESS LOOP TESTS
// =============================================================================

func TestTokenDecoder_Process(t *testing.T) {
	payload := `{"text":"x"}` + "\n" + `{"text":"y"}` + "\n"

	dec := NewTokenDecoder(strings.NewReader(payload))
	var got []string
	err := dec.Process(context.Background(), func(ev TokenEvent) {
		got = append(got, ev.Text)
	})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(got) != 2 || got[0] != "x" || got[1] != "y" {
		t.Errorf("got = %v, want [x y]", got)
	}
	if dec.Count() != 2 {
		t.Errorf("Count() = %d, want 2", dec.Count())
	}
}

func TestTokenDecoder_ProcessCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dec := NewTokenDecoder(strings.NewReader(`{"text":"x"}` + "\n"))
	err := dec.Process(ctx, func(TokenEvent) {
		t.Error("callback should not fire after cancellation")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Process() error = %v, want context.Canceled", err)
	}
}

// errReader fails after a successful partial read.
type errReader struct {
	data []byte
	read bool
}

func (r *errReader) Read(p []byte) (int, error) {
	if !r.read {
		r.read = true
		return copy(p, r.data), nil
	}
	return 0, errors.New("connection reset")
}

func TestTokenDecoder_ReaderFailurePropagates(t *testing.T) {
	dec := NewTokenDecoder(&errReader{data: []byte(`{"text":"a"}` + "\n")})

	ev, err := dec.Next()
	if err != nil {
		t.Fatalf("first Next() error = %v", err)
	}
	if ev.Text != "a" {
		t.Errorf("Text = %q, want 'a'", ev.Text)
	}

	if _, err := dec.Next(); err == nil || err == io.EOF {
		t.Errorf("Next() after reader failure = %v, want transport error", err)
	}
}
