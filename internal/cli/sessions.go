// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// sessions.go - Conversation listing and export from the command line.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/jeranaias/streamchat-tui/internal/store"
	"github.com/jeranaias/streamchat-tui/internal/util"
)

// HandleSessions lists saved conversations, most recently updated
// first.
func HandleSessions(st *store.Store) {
	summaries := st.Summaries()
	if len(summaries) == 0 {
		fmt.Println("No saved conversations.")
		return
	}

	fmt.Printf("%-14s  %-40s  %8s  %s\n", "ID", "TITLE", "MESSAGES", "UPDATED")
	for _, s := range summaries {
		title := util.TruncateRunes(s.Title, 40)
		fmt.Printf("%-14s  %-40s  %8d  %s\n", s.ID, title, s.MessageCount, s.UpdatedAt.Format("2006-01-02 15:04"))
	}
}

// HandleExport writes one conversation transcript to stdout or a file.
// Format is "md" (default) or "json".
func HandleExport(st *store.Store, id, format, output string) error {
	if id == "" {
		return errors.New("export requires a conversation id (see: streamchat sessions)")
	}

	conv, err := st.Export(id)
	if err != nil {
		if errors.Is(err, store.ErrConversationNotFound) {
			return fmt.Errorf("no conversation with id %q", id)
		}
		return err
	}

	var data []byte
	switch format {
	case "", "md", "markdown":
		data = []byte(conv.ExportMarkdown())
	case "json":
		data, err = conv.ExportJSON()
		if err != nil {
			return fmt.Errorf("failed to encode conversation: %w", err)
		}
	default:
		return fmt.Errorf("unknown export format %q (want md or json)", format)
	}

	if output == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(output, data, 0600)
}
