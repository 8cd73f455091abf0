// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store is the in-memory source of truth for all chats and the
// active conversation.
//
// The Store owns conversation creation, selection, and deletion,
// message mutation (append/finalize), title derivation, and triggers a
// persistence pass through the codec on every committed state
// transition. Persistence is skipped entirely while a streaming
// assistant message is open, so the durable blob never contains
// partially streamed text.
//
// Internal layout mirrors the UI it serves: the active conversation's
// messages live in a working buffer separate from the stored records;
// the buffer is flushed back into its record when the user switches
// conversations and on every persistence pass.
//
// Invariants:
//   - The active conversation id, when set, references an existing
//     conversation.
//   - At most one message per conversation is streaming at any time.
//   - Conversations are kept sorted by UpdatedAt descending.
package store
