// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small shared helpers for streamchat.
//
// The package contains two groups of functions:
//
//   - Atomic file writing (atomic.go): crash-safe persistence used by
//     the storage backends. Data is written to a temp file, synced, and
//     renamed over the target so a partial write never replaces a good
//     file.
//
//   - Rune-safe string handling (string.go): truncation helpers that
//     count characters rather than bytes, so multi-byte UTF-8 text is
//     never cut mid-character.
package util
