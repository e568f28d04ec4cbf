// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/kestrel-tui/internal/model"
	"github.com/jeranaias/kestrel-tui/internal/util"
)

// =============================================================================
// MARKDOWN EXPORT
// =============================================================================

// ExportMarkdown renders a conversation as a markdown transcript and
// writes it atomically to path.
func (s *Store) ExportMarkdown(conv *model.Conversation, path string) error {
	if conv == nil {
		return ErrConversationNotFound
	}
	return util.AtomicWriteFile(path, []byte(RenderMarkdown(conv)), 0644)
}

// RenderMarkdown builds the markdown transcript for a conversation.
func RenderMarkdown(conv *model.Conversation) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", conv.GetTitle())
	fmt.Fprintf(&b, "- Model: %s\n", conv.ModelID)
	fmt.Fprintf(&b, "- Created: %s\n", conv.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "- Messages: %d\n\n", conv.MessageCount())

	for _, msg := range conv.Messages {
		content := msg.GetDisplayContent()
		if content == "" {
			continue
		}
		fmt.Fprintf(&b, "## %s (%s)\n\n", msg.Role.DisplayName(), msg.Timestamp.Format("15:04:05"))
		b.WriteString(content)
		b.WriteString("\n\n")
	}
	return b.String()
}
