// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package relay provides the HTTP client for the remote chat-completion
// endpoint and the decoder for its streamed response format.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the relay client.
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeConnection
	ErrTypeTimeout
	ErrTypeServer
	ErrTypeEmptyBody
)

// Sentinel errors for easy checking.
var (
	ErrTimeout   = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
	ErrEmptyBody = &ClientError{Type: ErrTypeEmptyBody, Message: "no response body received"}
)

// Is implements errors.Is support so sentinel comparisons match by type.
func (e *ClientError) Is(target error) bool {
	t, ok := target.(*ClientError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// IsServerError reports whether err is a non-2xx response failure.
func IsServerError(err error) bool {
	var clientErr *ClientError
	return errors.As(err, &clientErr) && clientErr.Type == ErrTypeServer
}

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the relay client.
type ClientConfig struct {
	// Endpoint is the full URL of the chat-completion endpoint.
	Endpoint string

	// ConnectTimeout bounds connection establishment and response
	// headers for streaming requests (default: 10s). The body itself
	// has no deadline; cancellation is handled via context.
	ConnectTimeout time.Duration
}

// DefaultClientConfig returns the default client configuration.
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		Endpoint:       "http://127.0.0.1:8080/api/chat",
		ConnectTimeout: 10 * time.Second,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client issues streaming chat requests against the remote endpoint.
//
// The Client is safe for concurrent use, although the application only
// ever has one send in flight.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
}

// NewClient creates a relay client with the given configuration.
// A nil config uses defaults; zero-valued fields are filled in.
func NewClient(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultClientConfig()
	}
	if config.Endpoint == "" {
		config.Endpoint = "http://127.0.0.1:8080/api/chat"
	}
	if config.ConnectTimeout == 0 {
		config.ConnectTimeout = 10 * time.Second
	}

	return &Client{
		config: config,
		// No global timeout: the response body streams for as long as
		// the reply takes. Header timeout bounds the connection phase.
		httpClient: &http.Client{
			Transport: &http.Transport{
				ResponseHeaderTimeout: config.ConnectTimeout,
			},
		},
	}
}

// Endpoint returns the configured endpoint URL.
func (c *Client) Endpoint() string {
	return c.config.Endpoint
}

// =============================================================================
// STREAMING CHAT
// =============================================================================

// Stream sends the prompt and feeds every decoded token event to the
// callback in arrival order. It returns once the stream is exhausted,
// the context is cancelled, or a failure occurs.
//
// onOpen, when non-nil, fires exactly once after the response passes
// the status and body checks, before any token is decoded.
//
// A non-2xx status or an empty response body is reported as an error
// before onOpen or the callback fires; the caller can rely on neither
// having run when Stream fails with a server error.
func (c *Client) Stream(ctx context.Context, prompt string, onOpen func(), callback TokenCallback) error {
	body, err := json.Marshal(PromptRequest{Prompt: prompt})
	if err != nil {
		return &ClientError{Type: ErrTypeUnknown, Message: "failed to marshal request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/x-ndjson")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrTimeout
		}
		return &ClientError{Type: ErrTypeConnection, Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ClientError{
			Type:    ErrTypeServer,
			Message: "server error: " + resp.Status,
		}
	}

	if resp.Body == nil || resp.Body == http.NoBody {
		return ErrEmptyBody
	}

	if onOpen != nil {
		onOpen()
	}

	decoder := NewTokenDecoder(resp.Body)
	if err := decoder.Process(ctx, callback); err != nil {
		// A cancelled context makes the body reader fail with a
		// transport-flavored error; report the cancellation itself.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &ClientError{Type: ErrTypeConnection, Message: "stream interrupted", Cause: err}
	}
	return nil
}
