// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the slash command system for the TUI.
package commands

import (
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/kestrel-tui/internal/config"
	"github.com/jeranaias/kestrel-tui/internal/model"
	"github.com/jeranaias/kestrel-tui/internal/registry"
	"github.com/jeranaias/kestrel-tui/internal/storage"
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// Command represents a slash command that can be executed.
type Command struct {
	// Name is the primary command name (e.g., "/help")
	Name string

	// Aliases are alternative names (e.g., "/h", "/?")
	Aliases []string

	// Description is shown in help output
	Description string

	// Usage shows argument syntax (e.g., "/model <name>")
	Usage string

	// Handler executes the command
	Handler func(ctx *Context, args []string) tea.Cmd

	// Category for grouping in help display
	Category string
}

// =============================================================================
// CONTEXT TYPE
// =============================================================================

// Context gives handlers access to application state without coupling them
// to the UI model. Fields may be nil; handlers check before use.
type Context struct {
	// Config is the loaded application configuration.
	Config *config.Config

	// Models is the model catalog.
	Models *registry.Registry

	// Store handles conversation persistence.
	Store *storage.Store

	// ActiveModelID returns the currently selected model.
	ActiveModelID func() string

	// ActiveConversation returns the conversation for the active model.
	ActiveConversation func() *model.Conversation

	// AvailableProviders lists providers with a configured client.
	AvailableProviders func() []string
}

// =============================================================================
// COMMAND REGISTRY
// =============================================================================

// Registry holds all registered commands.
type Registry struct {
	commands map[string]*Command
	aliases  map[string]*Command
}

// NewRegistry creates a registry with all built-in commands.
func NewRegistry() *Registry {
	r := &Registry{
		commands: make(map[string]*Command),
		aliases:  make(map[string]*Command),
	}
	r.registerBuiltins()
	return r
}

// Register adds a command to the registry.
func (r *Registry) Register(cmd *Command) {
	r.commands[cmd.Name] = cmd
	for _, alias := range cmd.Aliases {
		r.aliases[alias] = cmd
	}
}

// Get retrieves a command by name or alias.
func (r *Registry) Get(name string) *Command {
	if cmd, ok := r.commands[name]; ok {
		return cmd
	}
	if cmd, ok := r.aliases[name]; ok {
		return cmd
	}
	return nil
}

// All returns all registered commands sorted by name.
func (r *Registry) All() []*Command {
	cmds := make([]*Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		cmds = append(cmds, cmd)
	}
	sort.Slice(cmds, func(i, j int) bool {
		return cmds[i].Name < cmds[j].Name
	})
	return cmds
}

// IsCommand reports whether the input line is a slash command.
func IsCommand(input string) bool {
	return strings.HasPrefix(strings.TrimSpace(input), "/")
}

// Parse splits an input line into command name and arguments.
func Parse(input string) (name string, args []string) {
	fields := strings.Fields(strings.TrimSpace(input))
	if len(fields) == 0 {
		return "", nil
	}
	return fields[0], fields[1:]
}

// Execute parses and dispatches a command line. Unknown commands produce
// an error message Cmd.
func (r *Registry) Execute(ctx *Context, input string) tea.Cmd {
	name, args := Parse(input)
	cmd := r.Get(name)
	if cmd == nil {
		return errorCmd("Unknown command " + name + ". Type /help for a list.")
	}
	return cmd.Handler(ctx, args)
}

// =============================================================================
// BUILT-IN COMMANDS
// =============================================================================

func (r *Registry) registerBuiltins() {
	r.Register(&Command{
		Name:        "/help",
		Aliases:     []string{"/h", "/?"},
		Description: "Show available commands",
		Category:    "Navigation",
		Handler:     handleHelp,
	})
	r.Register(&Command{
		Name:        "/quit",
		Aliases:     []string{"/q", "/exit"},
		Description: "Exit kestrel",
		Category:    "Navigation",
		Handler:     handleQuit,
	})
	r.Register(&Command{
		Name:        "/model",
		Aliases:     []string{"/m"},
		Description: "Switch or show current model",
		Usage:       "/model [name]",
		Category:    "Model",
		Handler:     handleModel,
	})
	r.Register(&Command{
		Name:        "/models",
		Description: "List available models",
		Category:    "Model",
		Handler:     handleModels,
	})
	r.Register(&Command{
		Name:        "/providers",
		Description: "List configured providers",
		Category:    "Model",
		Handler:     handleProviders,
	})
	r.Register(&Command{
		Name:        "/new",
		Aliases:     []string{"/n"},
		Description: "Start a new conversation",
		Category:    "Conversation",
		Handler:     handleNew,
	})
	r.Register(&Command{
		Name:        "/clear",
		Aliases:     []string{"/c"},
		Description: "Clear conversation history",
		Category:    "Conversation",
		Handler:     handleClear,
	})
	r.Register(&Command{
		Name:        "/save",
		Aliases:     []string{"/s"},
		Description: "Save current conversation",
		Category:    "Conversation",
		Handler:     handleSave,
	})
	r.Register(&Command{
		Name:        "/sessions",
		Aliases:     []string{"/list"},
		Description: "List saved conversations",
		Category:    "Conversation",
		Handler:     handleSessions,
	})
	r.Register(&Command{
		Name:        "/load",
		Aliases:     []string{"/l", "/resume"},
		Description: "Load a saved conversation",
		Usage:       "/load <id>",
		Category:    "Conversation",
		Handler:     handleLoad,
	})
	r.Register(&Command{
		Name:        "/file",
		Aliases:     []string{"/f"},
		Description: "Attach a file as pinned context (no argument clears it)",
		Usage:       "/file [path]",
		Category:    "Conversation",
		Handler:     handleFile,
	})
	r.Register(&Command{
		Name:        "/export",
		Description: "Export conversation as markdown",
		Usage:       "/export <path>",
		Category:    "Conversation",
		Handler:     handleExport,
	})
}
