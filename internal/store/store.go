// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store is the in-memory source of truth for all chats and the
// active conversation.
package store

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/jeranaias/streamchat-tui/internal/codec"
)

// ErrConversationNotFound is returned when a conversation id does not
// exist in the store.
var ErrConversationNotFound = errors.New("conversation not found")

// ErrStreamInProgress is returned when a second streaming assistant
// message is requested while one is already open.
var ErrStreamInProgress = errors.New("a streaming message is already open")

// =============================================================================
// STORE
// =============================================================================

// Store holds all conversations and the active selection. All methods
// are safe for concurrent use; mutation is serialized behind one mutex
// so state transitions are atomic to observers.
type Store struct {
	mu sync.Mutex

	// conversations sorted by UpdatedAt descending.
	conversations []*Conversation
	activeID      string

	// messages is the working buffer for the active conversation. It
	// is flushed back into the conversation record on switch and on
	// every persistence pass.
	messages []*Message

	backend     codec.Backend
	lastSaveErr error
}

// New creates a store backed by the given storage slot and hydrates
// any prior state. Unreadable prior state degrades to an empty store.
func New(backend codec.Backend) *Store {
	s := &Store{backend: backend}
	s.hydrate()
	return s
}

// hydrate restores conversations, selection, and the active message
// buffer from the storage slot.
func (s *Store) hydrate() {
	blob, ok, err := s.backend.Load(codec.StorageKey)
	if err != nil || !ok {
		return
	}

	state, ok := codec.Deserialize(blob)
	if !ok {
		return
	}

	for _, sc := range state.Conversations {
		conv := &Conversation{
			ID:        sc.ID,
			Title:     sc.Title,
			CreatedAt: sc.CreatedAt,
			UpdatedAt: sc.UpdatedAt,
			Messages:  make([]*Message, 0, len(sc.Messages)),
		}
		for _, sm := range sc.Messages {
			conv.Messages = append(conv.Messages, &Message{
				ID:        sm.ID,
				Role:      Role(sm.Role),
				Content:   sm.Content,
				CreatedAt: sm.CreatedAt,
			})
		}
		s.conversations = append(s.conversations, conv)
	}
	s.sortLocked()

	// The active id must reference a present conversation.
	if conv := s.findLocked(state.ActiveConversationID); conv != nil {
		s.activeID = conv.ID
		s.messages = cloneMessages(conv.Messages)
	}
}

// =============================================================================
// CONVERSATION OPERATIONS
// =============================================================================

// LoadConversation switches the active conversation. No-op when id is
// already active. The outgoing conversation's finalized messages are
// flushed back into its record first; that flush happens even when the
// target id does not exist.
func (s *Store) LoadConversation(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id == s.activeID {
		return nil
	}

	s.flushLocked()

	conv := s.findLocked(id)
	if conv == nil {
		s.persistLocked()
		return ErrConversationNotFound
	}

	s.activeID = conv.ID
	s.messages = cloneMessages(conv.Messages)
	s.persistLocked()
	return nil
}

// StartNewConversation flushes the current conversation, creates a new
// empty one, makes it active, and clears the message buffer. Returns
// the new conversation's id.
func (s *Store) StartNewConversation() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.flushLocked()

	conv := NewConversation()
	s.conversations = append([]*Conversation{conv}, s.conversations...)
	s.activeID = conv.ID
	s.messages = nil
	s.persistLocked()
	return conv.ID
}

// EnsureActive creates and activates a conversation when none is
// active. Returns the active conversation id.
func (s *Store) EnsureActive() string {
	s.mu.Lock()
	active := s.activeID
	s.mu.Unlock()

	if active != "" {
		return active
	}
	return s.StartNewConversation()
}

// DeleteConversation removes a conversation unconditionally. Deleting
// the active conversation clears the selection and the message buffer.
// Unknown ids are a no-op.
func (s *Store) DeleteConversation(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	for i, conv := range s.conversations {
		if conv.ID == id {
			s.conversations = append(s.conversations[:i], s.conversations[i+1:]...)
			found = true
			break
		}
	}
	if !found {
		return
	}

	if id == s.activeID {
		s.activeID = ""
		s.messages = nil
	}
	s.persistLocked()
}

// ClearActiveConversation empties the visible message buffer without
// deleting the conversation record itself.
func (s *Store) ClearActiveConversation() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = nil
	s.persistLocked()
}

// =============================================================================
// MESSAGE OPERATIONS
// =============================================================================

// AddUserMessage appends a finalized user message and returns its id.
func (s *Store) AddUserMessage(text string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := NewUserMessage(text)
	s.messages = append(s.messages, msg)
	s.persistLocked()
	return msg.ID
}

// BeginAssistantMessage appends an empty assistant message in
// streaming state and returns its id. At most one open streaming
// message may exist; a second request fails with ErrStreamInProgress.
func (s *Store) BeginAssistantMessage() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.streamingLocked() != nil {
		return "", ErrStreamInProgress
	}

	msg := NewAssistantMessage()
	s.messages = append(s.messages, msg)
	return msg.ID, nil
}

// AppendTokens concatenates text onto the identified message's content
// buffer. No-op for unknown ids: the conversation may have been
// switched away while a stream was still in flight.
func (s *Store) AppendTokens(id, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if msg := s.findMessageLocked(id); msg != nil {
		msg.AppendTokens(text)
	}
}

// FinalizeMessage freezes the identified message, unlocking
// persistence. No-op for unknown ids.
func (s *Store) FinalizeMessage(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := s.findMessageLocked(id)
	if msg == nil {
		return
	}
	msg.Finalize()
	s.persistLocked()
}

// DiscardMessage removes an un-finalized message from the buffer and
// persists the remainder. A failed stream's orphaned partial reply
// would otherwise block both persistence and the next
// BeginAssistantMessage. No-op for unknown or finalized ids.
func (s *Store) DiscardMessage(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, msg := range s.messages {
		if msg.ID != id {
			continue
		}
		if !msg.Streaming {
			return
		}
		s.messages = append(s.messages[:i], s.messages[i+1:]...)
		s.persistLocked()
		return
	}
}

// =============================================================================
// READ ACCESS
// =============================================================================

// MessageView is a point-in-time copy of a message for rendering.
type MessageView struct {
	ID        string
	Role      Role
	Content   string
	CreatedAt time.Time
	Streaming bool
}

// ActiveID returns the active conversation id, or "" when none.
func (s *Store) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// Messages returns a snapshot of the visible message buffer.
func (s *Store) Messages() []MessageView {
	s.mu.Lock()
	defer s.mu.Unlock()

	views := make([]MessageView, 0, len(s.messages))
	for _, msg := range s.messages {
		views = append(views, MessageView{
			ID:        msg.ID,
			Role:      msg.Role,
			Content:   msg.DisplayContent(),
			CreatedAt: msg.CreatedAt,
			Streaming: msg.Streaming,
		})
	}
	return views
}

// Summaries returns conversation metadata, most recent first.
func (s *Store) Summaries() []Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Summary, 0, len(s.conversations))
	for _, conv := range s.conversations {
		out = append(out, conv.summary())
	}
	return out
}

// Export returns the identified conversation for export formatting.
func (s *Store) Export(id string) (*Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := s.findLocked(id)
	if conv == nil {
		return nil, ErrConversationNotFound
	}

	clone := &Conversation{
		ID:        conv.ID,
		Title:     conv.Title,
		CreatedAt: conv.CreatedAt,
		UpdatedAt: conv.UpdatedAt,
		Messages:  cloneMessages(conv.Messages),
	}
	return clone, nil
}

// LastSaveError reports the outcome of the most recent persistence
// pass. Persistence failures are not fatal; the status bar shows them.
func (s *Store) LastSaveError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSaveErr
}

// =============================================================================
// PERSISTENCE
// =============================================================================

// flushLocked merges the buffer's finalized messages back into the
// active conversation record, refreshing title and UpdatedAt. An open
// streaming message is excluded: it either finalizes later or is lost,
// never half-persisted.
func (s *Store) flushLocked() {
	if s.activeID == "" || len(s.messages) == 0 {
		return
	}
	conv := s.findLocked(s.activeID)
	if conv == nil {
		return
	}

	finalized := make([]*Message, 0, len(s.messages))
	for _, msg := range s.messages {
		if !msg.Streaming {
			finalized = append(finalized, msg)
		}
	}
	if len(finalized) == 0 {
		return
	}

	conv.Messages = cloneMessages(finalized)
	conv.Title = deriveTitle(finalized, conv.Title)
	conv.UpdatedAt = time.Now()
}

// persistLocked serializes the full store through the codec and writes
// it to the storage slot. Skipped entirely while a streaming message is
// open, so partial text never reaches storage. Failures are recorded,
// never propagated.
func (s *Store) persistLocked() {
	if s.streamingLocked() != nil {
		return
	}

	s.flushLocked()
	s.sortLocked()

	state := &codec.State{
		ActiveConversationID: s.activeID,
		Conversations:        make([]codec.StoredConversation, 0, len(s.conversations)),
	}
	for _, conv := range s.conversations {
		sc := codec.StoredConversation{
			ID:        conv.ID,
			Title:     conv.Title,
			CreatedAt: conv.CreatedAt,
			UpdatedAt: conv.UpdatedAt,
			Messages:  make([]codec.StoredMessage, 0, len(conv.Messages)),
		}
		for _, msg := range conv.Messages {
			sc.Messages = append(sc.Messages, codec.StoredMessage{
				ID:        msg.ID,
				Role:      msg.Role.String(),
				Content:   msg.Content,
				CreatedAt: msg.CreatedAt,
			})
		}
		state.Conversations = append(state.Conversations, sc)
	}

	blob, err := codec.Serialize(state)
	if err != nil {
		s.lastSaveErr = err
		return
	}
	s.lastSaveErr = s.backend.Save(codec.StorageKey, blob)
}

// =============================================================================
// HELPERS
// =============================================================================

// sortLocked maintains the most-recent-first invariant explicitly
// rather than relying on insertion order.
func (s *Store) sortLocked() {
	sort.SliceStable(s.conversations, func(i, j int) bool {
		return s.conversations[i].UpdatedAt.After(s.conversations[j].UpdatedAt)
	})
}

func (s *Store) findLocked(id string) *Conversation {
	for _, conv := range s.conversations {
		if conv.ID == id {
			return conv
		}
	}
	return nil
}

func (s *Store) findMessageLocked(id string) *Message {
	for _, msg := range s.messages {
		if msg.ID == id {
			return msg
		}
	}
	return nil
}

func (s *Store) streamingLocked() *Message {
	for _, msg := range s.messages {
		if msg.Streaming {
			return msg
		}
	}
	return nil
}

func cloneMessages(messages []*Message) []*Message {
	out := make([]*Message, 0, len(messages))
	for _, msg := range messages {
		out = append(out, msg.clone())
	}
	return out
}
