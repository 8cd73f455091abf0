// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jeranaias/streamchat-tui/internal/codec"
	"github.com/jeranaias/streamchat-tui/internal/relay"
	"github.com/jeranaias/streamchat-tui/internal/store"
)

// =============================================================================
// HELPERS
// =============================================================================

func newTestController(t *testing.T, handler http.HandlerFunc) (*Controller, *store.Store, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	st := store.New(codec.NewMemoryBackend())
	client := relay.NewClient(&relay.ClientConfig{Endpoint: srv.URL})
	return NewController(client, st), st, srv
}

// waitFor drains events until one of the wanted kind arrives.
func waitFor(t *testing.T, c *Controller, kind EventKind) Event {
	t.Helper()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev := <-c.Events():
			if ev.Kind == kind {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for event kind %d", kind)
		}
	}
}

func streamTokens(tokens ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for _, tok := range tokens {
			fmt.Fprintf(w, "{\"text\":%q}\n", tok)
		}
	}
}

// =============================================================================
// TESTS
// =============================================================================

func TestSendStreamsAndFinalizes(t *testing.T) {
	c, st, _ := newTestController(t, streamTokens("Hi", " there"))

	c.Send("Hello")
	ev := waitFor(t, c, EventDone)

	if ev.Status != StatusIdle {
		t.Errorf("done status = %v, want idle", ev.Status)
	}
	if got := c.Status(); got != StatusIdle {
		t.Errorf("Status() = %v, want idle", got)
	}

	msgs := st.Messages()
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[0].Role != store.RoleUser || msgs[0].Content != "Hello" {
		t.Errorf("user message = %+v", msgs[0])
	}
	if msgs[1].Role != store.RoleAssistant || msgs[1].Content != "Hi there" {
		t.Errorf("assistant message = %+v", msgs[1])
	}
	if msgs[1].Streaming {
		t.Error("assistant message still streaming after done")
	}
}

func TestSendEmptyPromptIgnored(t *testing.T) {
	c, st, _ := newTestController(t, streamTokens("unused"))

	c.Send("   \n\t ")

	if got := c.Status(); got != StatusIdle {
		t.Errorf("status = %v, want idle", got)
	}
	if got := len(st.Messages()); got != 0 {
		t.Errorf("got %d messages, want 0", got)
	}
}

func TestServerErrorNoPlaceholder(t *testing.T) {
	c, st, _ := newTestController(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	c.Send("Hello")
	ev := waitFor(t, c, EventFailed)

	if ev.Err == "" {
		t.Error("failed event carries no error text")
	}
	if got := c.Status(); got != StatusError {
		t.Errorf("Status() = %v, want error", got)
	}
	if !c.CanRetry() {
		t.Error("CanRetry() = false after failure")
	}

	// The user message was recorded, but no assistant placeholder.
	msgs := st.Messages()
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
	if msgs[0].Role != store.RoleUser {
		t.Errorf("surviving message role = %v, want user", msgs[0].Role)
	}
}

func TestRetryResubmitsLastPrompt(t *testing.T) {
	var healthy atomic.Bool
	c, st, _ := newTestController(t, func(w http.ResponseWriter, r *http.Request) {
		if !healthy.Load() {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		streamTokens("recovered")(w, r)
	})

	c.Send("Hello")
	waitFor(t, c, EventFailed)

	healthy.Store(true)
	c.Retry()
	waitFor(t, c, EventDone)

	msgs := st.Messages()
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want 3 (two user sends, one reply)", len(msgs))
	}
	if msgs[1].Content != "Hello" {
		t.Errorf("retried prompt = %q, want %q", msgs[1].Content, "Hello")
	}
	if msgs[2].Content != "recovered" {
		t.Errorf("reply = %q, want %q", msgs[2].Content, "recovered")
	}
	if c.CanRetry() {
		t.Error("CanRetry() = true after successful retry")
	}
}

func TestRetryAfterMidStreamFailure(t *testing.T) {
	var healthy atomic.Bool
	c, st, _ := newTestController(t, func(w http.ResponseWriter, r *http.Request) {
		if healthy.Load() {
			streamTokens("full", " reply")(w, r)
			return
		}
		// Drop the connection after a partial token.
		fmt.Fprintln(w, `{"text":"part"}`)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		panic(http.ErrAbortHandler)
	})

	c.Send("Hello")
	waitFor(t, c, EventFailed)

	// The orphaned partial reply is discarded, so the user message
	// persists and the retry can open a fresh streaming message.
	msgs := st.Messages()
	if len(msgs) != 1 {
		t.Fatalf("got %d messages after failure, want 1", len(msgs))
	}
	if msgs[0].Role != store.RoleUser {
		t.Errorf("surviving message role = %v, want user", msgs[0].Role)
	}

	healthy.Store(true)
	c.Retry()
	waitFor(t, c, EventDone)

	msgs = st.Messages()
	if len(msgs) != 3 {
		t.Fatalf("got %d messages after retry, want 3", len(msgs))
	}
	reply := msgs[2]
	if reply.Role != store.RoleAssistant || reply.Content != "full reply" {
		t.Errorf("retried reply = %+v, want finalized assistant %q", reply, "full reply")
	}
	if reply.Streaming {
		t.Error("retried reply left streaming")
	}
}

func TestZeroTokenStreamCreatesEmptyReply(t *testing.T) {
	c, st, _ := newTestController(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	c.Send("Hello")
	waitFor(t, c, EventDone)

	// The placeholder appears once the response passes the status
	// check, even when no token ever arrives.
	msgs := st.Messages()
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[1].Role != store.RoleAssistant || msgs[1].Content != "" {
		t.Errorf("placeholder = %+v, want empty assistant message", msgs[1])
	}
	if msgs[1].Streaming {
		t.Error("placeholder left streaming after stream end")
	}
}

func TestRetryNoOpWhenIdle(t *testing.T) {
	c, st, _ := newTestController(t, streamTokens("unused"))

	c.Retry()

	if got := len(st.Messages()); got != 0 {
		t.Errorf("got %d messages, want 0", got)
	}
}

func TestCancelKeepsPartialMessage(t *testing.T) {
	release := make(chan struct{})
	c, st, _ := newTestController(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"text":"partial"}`)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	c.Send("Hello")
	waitFor(t, c, EventToken)

	c.Cancel()
	ev := waitFor(t, c, EventDone)

	if ev.Status != StatusIdle {
		t.Errorf("done status = %v, want idle", ev.Status)
	}

	// The partial assistant message survives, frozen.
	msgs := st.Messages()
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[1].Content != "partial" {
		t.Errorf("partial content = %q, want %q", msgs[1].Content, "partial")
	}
	if msgs[1].Streaming {
		t.Error("cancelled message left streaming")
	}
}

func TestSendWhileBusyIgnored(t *testing.T) {
	release := make(chan struct{})
	c, st, _ := newTestController(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"text":"first"}`)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})

	c.Send("first prompt")
	waitFor(t, c, EventToken)

	// Second send is refused while the first stream is open.
	c.Send("second prompt")

	close(release)
	waitFor(t, c, EventDone)

	msgs := st.Messages()
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[0].Content != "first prompt" {
		t.Errorf("user message = %q", msgs[0].Content)
	}
}
