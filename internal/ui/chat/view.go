// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/kestrel-tui/internal/model"
	"github.com/jeranaias/kestrel-tui/internal/util"
)

// =============================================================================
// VIEW RENDERING
// =============================================================================

// View renders the full interface.
func (m *Model) View() string {
	if !m.ready {
		return "Starting kestrel..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	if m.lastError != "" {
		b.WriteString(m.theme.ErrorBox.Render(m.theme.ErrorTitle.Render("Error: ") + m.lastError))
		b.WriteString("\n")
	}

	b.WriteString(m.renderInputLine())
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	return b.String()
}

// renderHeader shows the application name and the active model.
func (m *Model) renderHeader() string {
	title := m.theme.Header.Render("kestrel")
	modelTag := m.theme.HeaderModel.Render(m.activeModel)
	switch len(m.pendingFiles) {
	case 0:
	case 1:
		modelTag += m.theme.HeaderModel.Render("  [" + util.TruncateWidth(m.pendingFiles[0].Path, 32) + "]")
	default:
		modelTag += m.theme.HeaderModel.Render(fmt.Sprintf("  [%d files]", len(m.pendingFiles)))
	}
	return title + " " + modelTag
}

// renderInputLine shows the prompt, with a spinner while streaming.
func (m *Model) renderInputLine() string {
	if m.state == StateStreaming {
		return m.spin.View() + " " + m.theme.StreamingTag.Render("generating... (Esc to cancel)")
	}
	return m.input.View()
}

// renderStatusBar shows model stats and context usage, width-padded.
func (m *Model) renderStatusBar() string {
	conv := m.active()

	parts := []string{
		m.theme.StatusKey.Render(m.activeModel),
		m.theme.StatusValue.Render(fmt.Sprintf("%d msgs", conv.MessageCount())),
	}

	ctxPart := fmt.Sprintf("ctx %.0f%%", conv.GetContextPercent())
	if conv.IsContextNearLimit() {
		parts = append(parts, m.theme.StatusWarn.Render(ctxPart))
	} else {
		parts = append(parts, m.theme.StatusValue.Render(ctxPart))
	}

	if m.cfg.UI.ShowStats && m.stats != nil && m.stats.TotalDuration > 0 {
		parts = append(parts, m.theme.StatusValue.Render(fmt.Sprintf(
			"ttft %dms", m.stats.TTFT.Milliseconds())))
		parts = append(parts, m.theme.StatusValue.Render(fmt.Sprintf(
			"%.1f tok/s", m.stats.TokensPerSecond)))
	}

	if m.statusMsg != "" {
		parts = append(parts, m.theme.StatusValue.Render(m.statusMsg))
	}

	bar := strings.Join(parts, m.theme.StatusValue.Render(" | "))
	// lipgloss.Width ignores the embedded escape sequences.
	if pad := m.width - lipgloss.Width(bar); pad > 0 {
		bar += strings.Repeat(" ", pad)
	}
	return m.theme.StatusBar.Render(bar)
}

// refreshTranscript re-renders the conversation into the viewport and
// scrolls to the bottom.
func (m *Model) refreshTranscript() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

// renderTranscript formats every message in the active conversation.
func (m *Model) renderTranscript() string {
	conv := m.active()
	if conv.IsEmpty() {
		return m.theme.SystemText.Render("No messages yet. Type something, or /help for commands.")
	}

	var b strings.Builder
	for i, msg := range conv.GetHistory() {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.renderMessage(msg))
		b.WriteString("\n")
	}
	return b.String()
}

// renderMessage formats one message with its role label and timestamp.
func (m *Model) renderMessage(msg *model.Message) string {
	ts := m.theme.Timestamp.Render(msg.Timestamp.Format("15:04:05"))

	switch msg.Role {
	case model.RoleUser:
		label := m.theme.UserLabel.Render(msg.Role.DisplayName())
		return label + " " + ts + "\n" + msg.GetDisplayContent()

	case model.RoleAssistant:
		label := m.theme.AssistantLabel.Render(msg.Role.DisplayName())
		content := msg.GetDisplayContent()
		// PERFORMANCE: markdown rendering only on finalized messages.
		// Re-rendering a growing document 30 times a second is wasteful
		// and makes partial markdown flicker.
		if !msg.IsStreaming {
			content = m.renderMarkdown(content)
		}
		return label + " " + ts + "\n" + content

	default:
		return m.theme.SystemText.Render(msg.GetDisplayContent())
	}
}

// renderMarkdown renders assistant content through glamour when enabled,
// falling back to plain text on any failure.
func (m *Model) renderMarkdown(content string) string {
	if m.renderer == nil || !m.cfg.UI.Markdown {
		return content
	}
	out, err := m.renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(out, "\n")
}
