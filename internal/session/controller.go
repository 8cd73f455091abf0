// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/jeranaias/streamchat-tui/internal/relay"
	"github.com/jeranaias/streamchat-tui/internal/store"
)

// =============================================================================
// STATUS
// =============================================================================

// Status is the controller's position in the send cycle.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusStreaming
	StatusError
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusStreaming:
		return "streaming"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// =============================================================================
// EVENTS
// =============================================================================

// EventKind identifies what happened.
type EventKind int

const (
	// EventStatus reports a state machine transition.
	EventStatus EventKind = iota
	// EventToken reports text appended to the assistant message.
	EventToken
	// EventDone reports the cycle finished (stream end or cancel).
	EventDone
	// EventFailed reports a transport or server failure.
	EventFailed
)

// Event is one progress notification for the rendering boundary.
type Event struct {
	Kind      EventKind
	RequestID string
	Status    Status
	MessageID string
	Err       string
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller owns the single in-flight send. The surrounding UI is
// expected to disable input while Busy reports true; Send additionally
// refuses to start a second cycle.
type Controller struct {
	mu sync.Mutex

	status     Status
	lastErr    string
	lastPrompt string
	cancel     context.CancelFunc

	client *relay.Client
	store  *store.Store
	events chan Event
}

// NewController creates a controller wired to the given client and
// store.
func NewController(client *relay.Client, st *store.Store) *Controller {
	return &Controller{
		client: client,
		store:  st,
		events: make(chan Event, 256),
	}
}

// Events returns the channel progress notifications arrive on.
func (c *Controller) Events() <-chan Event {
	return c.events
}

// Status returns the current state machine position.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// LastError returns the human-readable reason for the error state.
func (c *Controller) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Busy reports whether a send cycle is in flight.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status == StatusLoading || c.status == StatusStreaming
}

// CanRetry reports whether a failed prompt is available to resubmit.
func (c *Controller) CanRetry() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status == StatusError && c.lastPrompt != ""
}

// =============================================================================
// SEND / RETRY / CANCEL
// =============================================================================

// Send records the user message and starts the request/stream cycle on
// a worker goroutine. Empty prompts and sends while busy are ignored.
func (c *Controller) Send(prompt string) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return
	}

	c.mu.Lock()
	if c.status == StatusLoading || c.status == StatusStreaming {
		c.mu.Unlock()
		return
	}

	requestID := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.lastPrompt = prompt
	c.lastErr = ""
	c.status = StatusLoading
	c.mu.Unlock()

	c.store.EnsureActive()
	c.store.AddUserMessage(prompt)
	c.emit(Event{Kind: EventStatus, RequestID: requestID, Status: StatusLoading})

	go c.run(ctx, requestID, prompt)
}

// Retry resubmits the last prompt through the same path as a fresh
// send. No-op unless the controller is in the error state.
func (c *Controller) Retry() {
	c.mu.Lock()
	prompt := c.lastPrompt
	retryable := c.status == StatusError && prompt != ""
	if retryable {
		// Leave error state so Send accepts the cycle.
		c.status = StatusIdle
	}
	c.mu.Unlock()

	if retryable {
		c.Send(prompt)
	}
}

// Cancel aborts the in-flight request. Cancellation is cooperative;
// the worker observes stream termination, finalizes the partial
// assistant message, and returns the controller to idle.
func (c *Controller) Cancel() {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// =============================================================================
// STREAM CYCLE
// =============================================================================

// run performs one request/stream cycle. It is the only writer of the
// assistant message created for this cycle.
func (c *Controller) run(ctx context.Context, requestID, prompt string) {
	defer func() {
		c.mu.Lock()
		c.cancel = nil
		c.mu.Unlock()
	}()

	assistantID := ""
	err := c.client.Stream(ctx, prompt, func() {
		// The response passed the status and body checks: create the
		// assistant placeholder and enter streaming. Failed sends never
		// reach here, so they create no placeholder.
		id, beginErr := c.store.BeginAssistantMessage()
		if beginErr != nil {
			return
		}
		assistantID = id
		c.setStatus(StatusStreaming)
		c.emit(Event{Kind: EventStatus, RequestID: requestID, Status: StatusStreaming, MessageID: id})
	}, func(ev relay.TokenEvent) {
		if assistantID == "" || ev.Text == "" {
			return
		}
		c.store.AppendTokens(assistantID, ev.Text)
		c.emit(Event{Kind: EventToken, RequestID: requestID, MessageID: assistantID})
	})

	switch {
	case err == nil:
		if assistantID != "" {
			c.store.FinalizeMessage(assistantID)
		}
		c.setStatus(StatusIdle)
		c.emit(Event{Kind: EventDone, RequestID: requestID, Status: StatusIdle, MessageID: assistantID})

	case errors.Is(err, context.Canceled):
		// Cancellation is not an error. The partial message is kept
		// and frozen; freezing it also unblocks persistence.
		if assistantID != "" {
			c.store.FinalizeMessage(assistantID)
		}
		c.setStatus(StatusIdle)
		c.emit(Event{Kind: EventDone, RequestID: requestID, Status: StatusIdle, MessageID: assistantID})

	default:
		// Transport or server failure. The orphaned partial reply is
		// discarded: leaving it open would block persistence and make
		// the retry's BeginAssistantMessage fail, silently dropping the
		// retried reply.
		if assistantID != "" {
			c.store.DiscardMessage(assistantID)
		}
		c.mu.Lock()
		c.status = StatusError
		c.lastErr = err.Error()
		c.mu.Unlock()
		c.emit(Event{Kind: EventFailed, RequestID: requestID, Status: StatusError, MessageID: assistantID, Err: err.Error()})
	}
}

func (c *Controller) setStatus(status Status) {
	c.mu.Lock()
	c.status = status
	c.mu.Unlock()
}

// emit delivers an event without ever blocking the stream worker; if
// the UI has fallen far enough behind to fill the buffer, intermediate
// token events are droppable.
func (c *Controller) emit(ev Event) {
	select {
	case c.events <- ev:
	default:
		if ev.Kind == EventToken {
			return
		}
		// Lifecycle events must land; make room by discarding the
		// oldest buffered event.
		select {
		case <-c.events:
		default:
		}
		select {
		case c.events <- ev:
		default:
		}
	}
}
