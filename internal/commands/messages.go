// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/kestrel-tui/internal/model"
)

// =============================================================================
// RESULT MESSAGES
// =============================================================================

// Command handlers communicate with the UI through these tea messages.

// InfoMsg displays informational text in the transcript.
type InfoMsg struct {
	Text string
}

// ErrorMsg displays an error banner.
type ErrorMsg struct {
	Text string
}

// SwitchModelMsg switches the active model.
type SwitchModelMsg struct {
	ModelID string
}

// NewConversationMsg starts a fresh conversation for the active model.
type NewConversationMsg struct{}

// ClearHistoryMsg wipes the active conversation's messages.
type ClearHistoryMsg struct{}

// ConversationSavedMsg reports a completed save.
type ConversationSavedMsg struct {
	ID string
}

// LoadConversationMsg replaces the active conversation.
type LoadConversationMsg struct {
	Conversation *model.Conversation
}

// FileAttachedMsg pins a file's content into subsequent requests.
type FileAttachedMsg struct {
	Path    string
	Content string
}

// FileDetachedMsg clears the pinned file context.
type FileDetachedMsg struct{}

// infoCmd wraps text in an InfoMsg command.
func infoCmd(text string) tea.Cmd {
	return func() tea.Msg { return InfoMsg{Text: text} }
}

// errorCmd wraps text in an ErrorMsg command.
func errorCmd(text string) tea.Cmd {
	return func() tea.Msg { return ErrorMsg{Text: text} }
}
