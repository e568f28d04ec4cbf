// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// HANDLER IMPLEMENTATIONS
// =============================================================================

func handleHelp(ctx *Context, args []string) tea.Cmd {
	reg := NewRegistry()
	var b strings.Builder
	b.WriteString("Available commands:\n")
	for _, cmd := range reg.All() {
		usage := cmd.Name
		if cmd.Usage != "" {
			usage = cmd.Usage
		}
		fmt.Fprintf(&b, "  %-18s %s", usage, cmd.Description)
		if len(cmd.Aliases) > 0 {
			fmt.Fprintf(&b, " (%s)", strings.Join(cmd.Aliases, ", "))
		}
		b.WriteString("\n")
	}
	return infoCmd(b.String())
}

func handleQuit(ctx *Context, args []string) tea.Cmd {
	return tea.Quit
}

func handleModel(ctx *Context, args []string) tea.Cmd {
	if len(args) == 0 {
		current := ctx.ActiveModelID()
		if cfg, ok := ctx.Models.Lookup(current); ok {
			return infoCmd(fmt.Sprintf("Current model: %s (%s, %dk context)",
				cfg.ID, cfg.Provider, cfg.ContextWindowTokens/1000))
		}
		return infoCmd("Current model: " + current)
	}

	target := args[0]
	if _, ok := ctx.Models.Lookup(target); !ok {
		return errorCmd("Unknown model " + target + ". Use /models to list available models.")
	}
	return func() tea.Msg { return SwitchModelMsg{ModelID: target} }
}

func handleModels(ctx *Context, args []string) tea.Cmd {
	var b strings.Builder
	b.WriteString("Available models:\n")
	current := ctx.ActiveModelID()
	for _, m := range ctx.Models.All() {
		marker := "  "
		if m.ID == current {
			marker = "* "
		}
		fmt.Fprintf(&b, "%s%-22s %-10s %dk context\n",
			marker, m.ID, m.Provider, m.ContextWindowTokens/1000)
	}
	return infoCmd(b.String())
}

func handleProviders(ctx *Context, args []string) tea.Cmd {
	providers := ctx.AvailableProviders()
	if len(providers) == 0 {
		return errorCmd("No providers configured. Set ANTHROPIC_API_KEY or OPENAI_API_KEY.")
	}
	var b strings.Builder
	b.WriteString("Configured providers:\n")
	for _, p := range providers {
		models := ctx.Models.ByProvider(p)
		fmt.Fprintf(&b, "  %-12s %d models\n", p, len(models))
	}
	return infoCmd(b.String())
}

func handleNew(ctx *Context, args []string) tea.Cmd {
	return func() tea.Msg { return NewConversationMsg{} }
}

func handleClear(ctx *Context, args []string) tea.Cmd {
	return func() tea.Msg { return ClearHistoryMsg{} }
}

func handleSave(ctx *Context, args []string) tea.Cmd {
	conv := ctx.ActiveConversation()
	if conv == nil || conv.IsEmpty() {
		return errorCmd("Nothing to save yet.")
	}
	if err := ctx.Store.Save(conv); err != nil {
		return errorCmd("Save failed: " + err.Error())
	}
	return func() tea.Msg { return ConversationSavedMsg{ID: conv.ID} }
}

func handleSessions(ctx *Context, args []string) tea.Cmd {
	metas, err := ctx.Store.List()
	if err != nil {
		return errorCmd("Failed to list sessions: " + err.Error())
	}
	if len(metas) == 0 {
		return infoCmd("No saved conversations.")
	}
	var b strings.Builder
	b.WriteString("Saved conversations:\n")
	for _, meta := range metas {
		fmt.Fprintf(&b, "  %s  %-22s %3d msgs  %s\n",
			meta.UpdatedAt.Format("2006-01-02 15:04"),
			meta.ModelID,
			meta.MessageCount,
			meta.Title,
		)
		fmt.Fprintf(&b, "    id: %s\n", meta.ID)
	}
	return infoCmd(b.String())
}

func handleLoad(ctx *Context, args []string) tea.Cmd {
	if len(args) == 0 {
		return errorCmd("Usage: /load <id>")
	}
	conv, err := ctx.Store.Load(args[0])
	if err != nil {
		return errorCmd("Load failed: " + err.Error())
	}
	return func() tea.Msg { return LoadConversationMsg{Conversation: conv} }
}

// maxFileBytes caps attached files. Anything larger would blow most of the
// context budget on a single attachment.
const maxFileBytes = 256 * 1024

func handleFile(ctx *Context, args []string) tea.Cmd {
	if len(args) == 0 {
		return func() tea.Msg { return FileDetachedMsg{} }
	}

	path := args[0]
	info, err := os.Stat(path)
	if err != nil {
		return errorCmd("Cannot read " + path + ": " + err.Error())
	}
	if info.Size() > maxFileBytes {
		return errorCmd(fmt.Sprintf("%s is too large (%d KB, limit %d KB)",
			path, info.Size()/1024, maxFileBytes/1024))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return errorCmd("Cannot read " + path + ": " + err.Error())
	}
	return func() tea.Msg { return FileAttachedMsg{Path: path, Content: string(data)} }
}

func handleExport(ctx *Context, args []string) tea.Cmd {
	if len(args) == 0 {
		return errorCmd("Usage: /export <path>")
	}
	conv := ctx.ActiveConversation()
	if conv == nil || conv.IsEmpty() {
		return errorCmd("Nothing to export yet.")
	}
	if err := ctx.Store.ExportMarkdown(conv, args[0]); err != nil {
		return errorCmd("Export failed: " + err.Error())
	}
	return infoCmd("Exported to " + args[0])
}
