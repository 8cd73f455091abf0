// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides reusable UI components for the streamchat
// TUI.
//
// # Components
//
//   - Sidebar: conversation list with keyboard selection
//   - StatusBar: connection state and shortcut hints
//   - MessageRenderer: message list rendering with optional markdown
//   - ErrorBox: failed-request display with retry hint
//
// Components are pure view helpers: they hold layout state (width,
// cursor) but never mutate the chat store. The chat model feeds them
// fresh data on every render.
package components
