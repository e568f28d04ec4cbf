// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"github.com/jeranaias/kestrel-tui/internal/commands"
	"github.com/jeranaias/kestrel-tui/internal/contextmgr"
	"github.com/jeranaias/kestrel-tui/internal/model"
	"github.com/jeranaias/kestrel-tui/internal/provider"
	"github.com/jeranaias/kestrel-tui/internal/ui/styles"
)

// =============================================================================
// UPDATE LOOP
// =============================================================================

// Update handles all incoming messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m, m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if m.state != StateStreaming {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case StreamSnapshotMsg:
		return m, m.applySnapshot(msg.Snapshot)

	case streamStartFailedMsg:
		m.state = StateError
		m.lastError = provider.UserMessage(msg.Err)
		m.refreshTranscript()
		return m, nil

	// Slash command results.
	case commands.InfoMsg:
		m.active().AddMessage(model.NewSystemMessage(msg.Text))
		m.refreshTranscript()
		return m, nil

	case commands.ErrorMsg:
		m.lastError = msg.Text
		return m, nil

	case commands.SwitchModelMsg:
		m.activeModel = msg.ModelID
		m.statusMsg = "Switched to " + msg.ModelID
		m.refreshTranscript()
		return m, nil

	case commands.NewConversationMsg:
		m.conversations[m.activeModel] = model.NewConversation(m.activeModel)
		if cfg, ok := m.models.Lookup(m.activeModel); ok {
			m.conversations[m.activeModel].SetMaxTokens(cfg.ContextWindowTokens)
		}
		m.statusMsg = "New conversation"
		m.refreshTranscript()
		return m, nil

	case commands.ClearHistoryMsg:
		m.active().ClearHistory()
		m.statusMsg = "History cleared"
		m.refreshTranscript()
		return m, nil

	case commands.ConversationSavedMsg:
		m.statusMsg = "Saved " + msg.ID
		return m, nil

	case commands.LoadConversationMsg:
		conv := msg.Conversation
		m.conversations[conv.ModelID] = conv
		m.activeModel = conv.ModelID
		if cfg, ok := m.models.Lookup(conv.ModelID); ok {
			conv.SetMaxTokens(cfg.ContextWindowTokens)
		}
		m.statusMsg = "Loaded " + conv.GetTitle()
		m.refreshTranscript()
		return m, nil

	case commands.FileAttachedMsg:
		m.pendingFiles = append(m.pendingFiles, contextmgr.FileContent{Path: msg.Path, Content: msg.Content})
		m.statusMsg = "Attached " + msg.Path
		return m, nil

	case commands.FileDetachedMsg:
		m.pendingFiles = nil
		m.statusMsg = "File context cleared"
		return m, nil

	case ConfigReloadedMsg:
		m.cfg = msg.Config
		m.theme = styles.NewTheme(m.cfg.UI.Theme)
		m.spin.Style = m.theme.Spinner
		m.input.Prompt = m.theme.InputPrompt.Render("> ")
		m.statusMsg = "Config reloaded"
		m.refreshTranscript()
		return m, nil
	}

	return m, m.updateComponents(msg)
}

// handleResize recomputes the layout and rebuilds the markdown renderer
// at the new wrap width.
func (m *Model) handleResize(msg tea.WindowSizeMsg) tea.Cmd {
	m.width = msg.Width
	m.height = msg.Height

	// Header, input line and status bar each take one row.
	contentHeight := m.height - 3
	if contentHeight < 1 {
		contentHeight = 1
	}

	if !m.ready {
		m.viewport = viewport.New(m.width, contentHeight)
		m.ready = true
	} else {
		m.viewport.Width = m.width
		m.viewport.Height = contentHeight
	}
	m.input.Width = m.width - 4

	if m.cfg.UI.Markdown {
		wrap := m.width - 4
		if wrap < 20 {
			wrap = 20
		}
		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wrap),
		)
		if err != nil {
			m.logger.Warn("markdown renderer unavailable", zap.Error(err))
		} else {
			m.renderer = renderer
		}
	}

	m.refreshTranscript()
	return nil
}

// handleKey processes keyboard input.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Any key acknowledges an error state.
	if m.state == StateError {
		m.state = StateReady
	}

	switch msg.String() {
	case "ctrl+c":
		if m.state == StateStreaming {
			m.cancelActiveStream()
			return m, nil
		}
		return m, tea.Quit

	case "esc":
		m.cancelActiveStream()
		return m, nil

	case "enter":
		return m, m.handleSubmit()

	case "pgup", "pgdown", "ctrl+u", "ctrl+d":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleSubmit dispatches the input line as a command or a chat message.
func (m *Model) handleSubmit() tea.Cmd {
	value := strings.TrimSpace(m.input.Value())
	if value == "" {
		return nil
	}

	m.input.Reset()
	m.lastError = ""

	// Commands stay available while streaming; snapshots land on the
	// conversation captured at stream start, so even /model or /clear
	// cannot misroute the in-flight response.
	if commands.IsCommand(value) {
		return m.commands.Execute(m.commandContext(), value)
	}

	if m.state == StateStreaming {
		m.lastError = "Wait for the current response to finish, or press Esc to cancel."
		return nil
	}
	return tea.Batch(m.startStream(value), m.spin.Tick)
}

// updateComponents forwards unhandled messages to the child components.
func (m *Model) updateComponents(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	if m.ready {
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}
