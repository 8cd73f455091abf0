// streamchat TUI - a terminal client for streaming chat endpoints.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/streamchat-tui/internal/cli"
	"github.com/jeranaias/streamchat-tui/internal/codec"
	"github.com/jeranaias/streamchat-tui/internal/config"
	"github.com/jeranaias/streamchat-tui/internal/relay"
	"github.com/jeranaias/streamchat-tui/internal/session"
	"github.com/jeranaias/streamchat-tui/internal/store"
	"github.com/jeranaias/streamchat-tui/internal/ui/chat"
	"github.com/jeranaias/streamchat-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	switch cmd {
	case cli.CmdTUI:
		runTUI(args)
	case cli.CmdSessions:
		st, closeBackend := mustOpenStore(args)
		defer closeBackend()
		cli.HandleSessions(st)
	case cli.CmdExport:
		st, closeBackend := mustOpenStore(args)
		defer closeBackend()
		parser := cli.NewArgParser(args.Raw)
		err := cli.HandleExport(st, args.Subcommand, parser.Flag("format"), parser.Flag("output"))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case cli.CmdVersion:
		cli.HandleVersion()
	case cli.CmdHelp:
		cli.PrintUsage()
	}
}

// loadConfig loads configuration and applies CLI overrides.
func loadConfig(args cli.Args) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if args.ConfigPath != "" {
		cfg, err = config.LoadFromPath(args.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if args.Endpoint != "" {
		cfg.Server.Endpoint = args.Endpoint
	}
	return cfg, nil
}

// openBackend opens the configured persistence backend. The returned
// close function is a no-op for backends without resources to release.
func openBackend(cfg *config.Config) (codec.Backend, func(), error) {
	path, err := cfg.StoragePath()
	if err != nil {
		return nil, nil, err
	}

	var backend codec.Backend
	closeBackend := func() {}

	switch cfg.Storage.Backend {
	case "sqlite":
		sb, err := codec.NewSQLiteBackend(path)
		if err != nil {
			return nil, nil, err
		}
		backend = sb
		closeBackend = func() { sb.Close() }
	default:
		fb, err := codec.NewFileBackend(path)
		if err != nil {
			return nil, nil, err
		}
		backend = fb
	}

	return codec.WithKey(backend, cfg.Storage.Key), closeBackend, nil
}

// mustOpenStore loads config, opens the backend, and hydrates the
// store, exiting on failure. Used by the non-TUI subcommands.
func mustOpenStore(args cli.Args) (*store.Store, func()) {
	cfg, err := loadConfig(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	backend, closeBackend, err := openBackend(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	return store.New(backend), closeBackend
}

// runTUI wires the full stack and starts the Bubble Tea program.
func runTUI(args cli.Args) {
	if args.ConfigPath == "" {
		if err := config.EnsureDefault(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not write starter config: %v\n", err)
		}
	}

	cfg, err := loadConfig(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	backend, closeBackend, err := openBackend(cfg)
	if err != nil {
		// History is valuable but not worth refusing to start over;
		// degrade to an in-memory session and tell the user.
		fmt.Fprintf(os.Stderr, "Warning: storage unavailable (%v); history will not be saved\n", err)
		backend = codec.NewMemoryBackend()
		closeBackend = func() {}
	}
	defer closeBackend()

	st := store.New(backend)

	client := relay.NewClient(&relay.ClientConfig{
		Endpoint:       cfg.Server.Endpoint,
		ConnectTimeout: time.Duration(cfg.Server.ConnectTimeoutSecs) * time.Second,
	})
	controller := session.NewController(client, st)

	model := chat.New(cfg, styles.NewTheme(cfg.UI.Theme), st, controller)

	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
