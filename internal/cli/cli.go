// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command dispatch for streamchat.
package cli

import (
	"fmt"
	"os"
	"runtime"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdSessions
	CmdExport
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	ConfigPath string // --config: explicit config file path
	Endpoint   string // --endpoint: override the chat endpoint URL

	// Command-specific
	Subcommand string
	Raw        []string
}

const usageText = `streamchat - terminal client for streaming chat endpoints

Streamchat connects to a newline-delimited JSON token stream and
renders it live in the terminal, with persistent multi-conversation
history.

Usage:
  streamchat                       Start TUI (default)
  streamchat sessions              List saved conversations
  streamchat export <id>           Export a conversation transcript
    --format md|json               Export format (default: md)
    --output FILE                  Write to file (default: stdout)
  streamchat version               Show version information
  streamchat help                  Show this help

Global flags:
  --config FILE                    Use an explicit config file
  --endpoint URL                   Override the chat endpoint

Environment:
  STREAMCHAT_ENDPOINT              Chat endpoint URL
  STREAMCHAT_STORAGE_BACKEND       History backend: file or sqlite
  STREAMCHAT_STORAGE_PATH          History location
  STREAMCHAT_STORAGE_KEY           History slot key
  STREAMCHAT_THEME                 UI theme: dark or light
`

// Parse parses os.Args into a command and its arguments.
func Parse() (Command, Args) {
	raw := os.Args[1:]
	parser := NewArgParser(raw)

	args := Args{
		ConfigPath: parser.Flag("config"),
		Endpoint:   parser.Flag("endpoint"),
		Raw:        raw,
	}

	if parser.BoolFlag("version") || parser.BoolFlag("v") {
		return CmdVersion, args
	}
	if parser.BoolFlag("help") || parser.BoolFlag("h") {
		return CmdHelp, args
	}

	switch parser.Subcommand() {
	case "":
		return CmdTUI, args
	case "sessions", "session", "list":
		args.Subcommand = parser.Positional(1)
		return CmdSessions, args
	case "export":
		args.Subcommand = parser.Positional(1)
		return CmdExport, args
	case "version":
		return CmdVersion, args
	case "help":
		return CmdHelp, args
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", parser.Subcommand())
		return CmdHelp, args
	}
}

// PrintUsage writes the usage text to stdout.
func PrintUsage() {
	fmt.Print(usageText)
}

// HandleVersion prints version information.
func HandleVersion() {
	fmt.Printf("streamchat %s\n", Version)
	fmt.Printf("  commit:  %s\n", GitCommit)
	fmt.Printf("  built:   %s\n", BuildDate)
	fmt.Printf("  go:      %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
