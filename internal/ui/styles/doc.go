// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the streamchat
// TUI.
//
// All colors are lipgloss.AdaptiveColor pairs so the palette follows
// the terminal's light/dark background automatically. The Theme struct
// bundles every style the UI needs; construct one with NewTheme at
// startup and share it across components.
package styles
