// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "testing"

func TestNewTheme(t *testing.T) {
	theme := NewTheme("dark")
	if theme == nil {
		t.Fatal("NewTheme() returned nil")
	}

	// A few representative styles must render without panicking.
	for name, render := range map[string]func() string{
		"user message":      func() string { return theme.UserMessage.Render("hello") },
		"assistant message": func() string { return theme.AssistantMessage.Render("hello") },
		"status idle":       func() string { return theme.StatusIdle.Render("ready") },
		"error box":         func() string { return theme.ErrorBox.Render("boom") },
	} {
		if render() == "" {
			t.Errorf("%s style rendered empty output", name)
		}
	}
}

func TestNewThemeHonorsConfiguredPalette(t *testing.T) {
	if theme := NewTheme("dark"); !theme.IsDark {
		t.Error(`NewTheme("dark").IsDark = false`)
	}
	if theme := NewTheme("light"); theme.IsDark {
		t.Error(`NewTheme("light").IsDark = true`)
	}
}

func TestThemeSetSize(t *testing.T) {
	theme := NewTheme("dark")
	theme.SetSize(120, 40)

	if theme.Width != 120 || theme.Height != 40 {
		t.Errorf("SetSize stored %dx%d, want 120x40", theme.Width, theme.Height)
	}
}
