// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package codec serializes the full chat state to a compact opaque blob
// and back, and defines the storage slot it is written to.
package codec

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/jeranaias/streamchat-tui/internal/util"
)

// StorageKey is the name of the single slot holding the serialized
// chat state.
const StorageKey = "chat-history"

// =============================================================================
// STORAGE BACKEND PORT
// =============================================================================

// Backend is the durable storage boundary: read and write of an opaque
// string by key. Injecting it keeps the store and codec testable
// without a real persistent medium.
type Backend interface {
	// Load returns the value for key. The boolean is false when the
	// key has never been written.
	Load(key string) (string, bool, error)

	// Save writes the value for key, replacing any previous value.
	Save(key, value string) error
}

// =============================================================================
// FILE BACKEND
// =============================================================================

// FileBackend stores each key as a file under a base directory,
// written atomically so a crash mid-write never corrupts the slot.
type FileBackend struct {
	baseDir string
}

// NewFileBackend creates a file backend rooted at baseDir, creating
// the directory if needed.
func NewFileBackend(baseDir string) (*FileBackend, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}
	return &FileBackend{baseDir: baseDir}, nil
}

// Load implements Backend.
func (b *FileBackend) Load(key string) (string, bool, error) {
	data, err := os.ReadFile(b.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return string(data), true, nil
}

// Save implements Backend.
func (b *FileBackend) Save(key, value string) error {
	return util.AtomicWriteFile(b.path(key), []byte(value), 0644)
}

func (b *FileBackend) path(key string) string {
	return filepath.Join(b.baseDir, key+".dat")
}

// =============================================================================
// KEYED BACKEND
// =============================================================================

// keyedBackend routes every load and save to a fixed slot key,
// regardless of the key the caller passed. It lets multiple profiles
// share one backend by configuring distinct slot keys.
type keyedBackend struct {
	inner Backend
	key   string
}

// WithKey wraps a backend so all operations target the given slot key.
// An empty or default key returns the backend unchanged.
func WithKey(inner Backend, key string) Backend {
	if key == "" || key == StorageKey {
		return inner
	}
	return &keyedBackend{inner: inner, key: key}
}

// Load implements Backend.
func (b *keyedBackend) Load(string) (string, bool, error) {
	return b.inner.Load(b.key)
}

// Save implements Backend.
func (b *keyedBackend) Save(_, value string) error {
	return b.inner.Save(b.key, value)
}

// =============================================================================
// MEMORY BACKEND
// =============================================================================

// MemoryBackend keeps values in memory. Used in tests and as the
// degraded fallback when no durable backend can be opened.
type MemoryBackend struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{values: make(map[string]string)}
}

// Load implements Backend.
func (b *MemoryBackend) Load(key string) (string, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.values[key]
	return v, ok, nil
}

// Save implements Backend.
func (b *MemoryBackend) Save(key, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.values[key] = value
	return nil
}
