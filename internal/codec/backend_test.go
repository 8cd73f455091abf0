// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package codec serializes the full chat state to a compact opaque blob
// and back, and defines the storage slot it is written to.
package codec

import (
	"path/filepath"
	"testing"
)

// backendContract exercises the Backend behavior every implementation
// must share.
func backendContract(t *testing.T, b Backend) {
	t.Helper()

	// Missing key reads as absent, not as an error.
	if v, ok, err := b.Load("missing"); err != nil || ok || v != "" {
		t.Errorf("Load(missing) = (%q, %v, %v), want ('', false, nil)", v, ok, err)
	}

	if err := b.Save(StorageKey, "blob-one"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if v, ok, err := b.Load(StorageKey); err != nil || !ok || v != "blob-one" {
		t.Errorf("Load() = (%q, %v, %v), want ('blob-one', true, nil)", v, ok, err)
	}

	// Rewrite replaces, last writer wins.
	if err := b.Save(StorageKey, "blob-two"); err != nil {
		t.Fatalf("Save() rewrite error = %v", err)
	}
	if v, _, _ := b.Load(StorageKey); v != "blob-two" {
		t.Errorf("Load() after rewrite = %q, want 'blob-two'", v)
	}
}

func TestFileBackend(t *testing.T) {
	b, err := NewFileBackend(filepath.Join(t.TempDir(), "data"))
	if err != nil {
		t.Fatalf("NewFileBackend() error = %v", err)
	}
	backendContract(t, b)
}

func TestMemoryBackend(t *testing.T) {
	backendContract(t, NewMemoryBackend())
}

func TestSQLiteBackend(t *testing.T) {
	b, err := NewSQLiteBackend(filepath.Join(t.TempDir(), "slots.db"))
	if err != nil {
		t.Fatalf("NewSQLiteBackend() error = %v", err)
	}
	defer b.Close()
	backendContract(t, b)
}

func TestWithKey(t *testing.T) {
	inner := NewMemoryBackend()
	b := WithKey(inner, "work-profile")
	backendContract(t, b)

	// Everything lands in the configured slot, whatever key the
	// caller used.
	if _, ok, _ := inner.Load(StorageKey); ok {
		t.Error("default slot written despite custom key")
	}
	if v, ok, _ := inner.Load("work-profile"); !ok || v != "blob-two" {
		t.Errorf("custom slot = (%q, %v), want ('blob-two', true)", v, ok)
	}
}

func TestWithKeyDefaultPassthrough(t *testing.T) {
	inner := NewMemoryBackend()

	if got := WithKey(inner, ""); got != Backend(inner) {
		t.Error("empty key did not return the backend unchanged")
	}
	if got := WithKey(inner, StorageKey); got != Backend(inner) {
		t.Error("default key did not return the backend unchanged")
	}
}

func TestSQLiteBackend_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slots.db")

	b, err := NewSQLiteBackend(path)
	if err != nil {
		t.Fatalf("NewSQLiteBackend() error = %v", err)
	}
	if err := b.Save(StorageKey, "persisted"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	b.Close()

	// Value must survive process restart.
	b2, err := NewSQLiteBackend(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer b2.Close()

	if v, ok, err := b2.Load(StorageKey); err != nil || !ok || v != "persisted" {
		t.Errorf("Load() after reopen = (%q, %v, %v), want ('persisted', true, nil)", v, ok, err)
	}
}
