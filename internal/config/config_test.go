// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.Endpoint == "" {
		t.Error("default endpoint is empty")
	}
	if cfg.Storage.Backend != "file" {
		t.Errorf("default backend = %q, want %q", cfg.Storage.Backend, "file")
	}
	if cfg.Storage.Key != "chat-history" {
		t.Errorf("default storage key = %q, want %q", cfg.Storage.Key, "chat-history")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config fails validation: %v", err)
	}
}

func TestSaveAndLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.Server.Endpoint = "http://example.test:9000/chat"
	cfg.UI.Theme = "light"
	if err := SaveTOML(cfg, path); err != nil {
		t.Fatalf("SaveTOML: %v", err)
	}

	// Saved file must not be world-readable.
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("config file permissions = %o, want 0600", perm)
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if loaded.Server.Endpoint != cfg.Server.Endpoint {
		t.Errorf("endpoint = %q, want %q", loaded.Server.Endpoint, cfg.Server.Endpoint)
	}
	if loaded.UI.Theme != "light" {
		t.Errorf("theme = %q, want %q", loaded.UI.Theme, "light")
	}
}

func TestSaveAndLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg := Default()
	cfg.Storage.Backend = "sqlite"
	cfg.Storage.Path = "/tmp/chat.db"
	if err := SaveJSON(cfg, path); err != nil {
		t.Fatalf("SaveJSON: %v", err)
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if loaded.Storage.Backend != "sqlite" {
		t.Errorf("backend = %q, want %q", loaded.Storage.Backend, "sqlite")
	}
	if loaded.Storage.Path != "/tmp/chat.db" {
		t.Errorf("path = %q, want %q", loaded.Storage.Path, "/tmp/chat.db")
	}
}

func TestLoadFromPathFillsDefaults(t *testing.T) {
	// A sparse file gets the missing values from defaults.
	path := filepath.Join(t.TempDir(), "config.toml")
	sparse := "[server]\nendpoint = \"http://localhost:4000/api/chat\"\n"
	if err := os.WriteFile(path, []byte(sparse), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.Server.Endpoint != "http://localhost:4000/api/chat" {
		t.Errorf("endpoint = %q", cfg.Server.Endpoint)
	}
	if cfg.Storage.Backend != "file" {
		t.Errorf("backend = %q, want default %q", cfg.Storage.Backend, "file")
	}
	if cfg.Server.ConnectTimeoutSecs != 10 {
		t.Errorf("connect_timeout_secs = %d, want default 10", cfg.Server.ConnectTimeoutSecs)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{
			name:   "bad endpoint",
			mutate: func(c *Config) { c.Server.Endpoint = "not a url" },
			field:  "server.endpoint",
		},
		{
			name:   "unknown backend",
			mutate: func(c *Config) { c.Storage.Backend = "redis" },
			field:  "storage.backend",
		},
		{
			name:   "unknown theme",
			mutate: func(c *Config) { c.UI.Theme = "solarized" },
			field:  "ui.theme",
		},
		{
			name:   "negative timeout",
			mutate: func(c *Config) { c.Server.ConnectTimeoutSecs = -1 },
			field:  "server.connect_timeout_secs",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error %q does not name field %q", err.Error(), tt.field)
			}
		})
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("STREAMCHAT_ENDPOINT", "http://override:1234/chat")
	t.Setenv("STREAMCHAT_STORAGE_BACKEND", "sqlite")
	t.Setenv("STREAMCHAT_STORAGE_KEY", "work-profile")
	t.Setenv("STREAMCHAT_NO_MARKDOWN", "1")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.Server.Endpoint != "http://override:1234/chat" {
		t.Errorf("endpoint = %q", cfg.Server.Endpoint)
	}
	if cfg.Storage.Backend != "sqlite" {
		t.Errorf("backend = %q", cfg.Storage.Backend)
	}
	if cfg.Storage.Key != "work-profile" {
		t.Errorf("key = %q", cfg.Storage.Key)
	}
	if cfg.UI.Markdown {
		t.Error("markdown still enabled after STREAMCHAT_NO_MARKDOWN=1")
	}
}

func TestEnsureDefault(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if err := EnsureDefault(); err != nil {
		t.Fatalf("EnsureDefault: %v", err)
	}

	path, err := ConfigPathTOML()
	if err != nil {
		t.Fatalf("ConfigPathTOML: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("starter config not written: %v", err)
	}

	// Running again must leave the existing file alone.
	if err := os.WriteFile(path, append(data, []byte("\n# edited\n")...), 0600); err != nil {
		t.Fatal(err)
	}
	if err := EnsureDefault(); err != nil {
		t.Fatalf("EnsureDefault (second run): %v", err)
	}
	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(after), "# edited") {
		t.Error("EnsureDefault overwrote an existing config file")
	}
}

func TestStoragePath(t *testing.T) {
	cfg := Default()
	cfg.Storage.Path = "/var/lib/streamchat"

	path, err := cfg.StoragePath()
	if err != nil {
		t.Fatal(err)
	}
	if path != "/var/lib/streamchat" {
		t.Errorf("explicit path not honored: %q", path)
	}

	cfg.Storage.Path = ""
	cfg.Storage.Backend = "sqlite"
	path, err = cfg.StoragePath()
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "history.db" {
		t.Errorf("sqlite default path = %q, want .../history.db", path)
	}
}
