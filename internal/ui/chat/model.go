// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the main chat interface as a Bubble Tea model.
package chat

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"github.com/jeranaias/kestrel-tui/internal/commands"
	"github.com/jeranaias/kestrel-tui/internal/config"
	"github.com/jeranaias/kestrel-tui/internal/contextmgr"
	"github.com/jeranaias/kestrel-tui/internal/model"
	"github.com/jeranaias/kestrel-tui/internal/registry"
	"github.com/jeranaias/kestrel-tui/internal/router"
	"github.com/jeranaias/kestrel-tui/internal/storage"
	"github.com/jeranaias/kestrel-tui/internal/stream"
	"github.com/jeranaias/kestrel-tui/internal/ui/styles"
)

// =============================================================================
// STATE TYPE
// =============================================================================

// State represents the current UI state.
type State int

const (
	// StateReady means waiting for user input.
	StateReady State = iota

	// StateStreaming means a response is being generated.
	StateStreaming

	// StateError means the last request failed; any key returns to ready.
	StateError
)

// maxInputChars caps the input field length.
const maxInputChars = 4096

// =============================================================================
// DEPENDENCIES
// =============================================================================

// Deps carries the services the chat model needs. All fields are required
// except Logger, which defaults to a no-op.
type Deps struct {
	Config *config.Config
	Models *registry.Registry
	Router *router.Router
	Store  *storage.Store
	Logger *zap.Logger
}

// =============================================================================
// MODEL TYPE
// =============================================================================

// Model is the Bubble Tea model for the chat interface. One conversation
// exists per model id; switching models swaps the visible conversation.
type Model struct {
	// Services
	cfg      *config.Config
	models   *registry.Registry
	router   *router.Router
	store    *storage.Store
	logger   *zap.Logger
	commands *commands.Registry

	// UI components
	theme    *styles.Theme
	viewport viewport.Model
	input    textinput.Model
	spin     spinner.Model
	renderer *glamour.TermRenderer

	// Layout
	width  int
	height int
	ready  bool

	// Conversation state
	state         State
	activeModel   string
	conversations map[string]*model.Conversation
	pendingFiles  []contextmgr.FileContent

	// Streaming state. The conversation and message are captured when the
	// stream starts so snapshots land on the right turn even if the user
	// switches models or clears history mid-stream.
	snapshots    chan stream.Snapshot
	cancelStream context.CancelFunc
	stats        *model.Statistics
	streamConv   *model.Conversation
	streamMsg    *model.Message

	// Transient display state
	lastError string
	statusMsg string
}

// New creates the chat model.
func New(deps Deps) *Model {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	theme := styles.NewTheme(deps.Config.UI.Theme)

	ti := textinput.New()
	ti.Placeholder = "Type a message or /help..."
	ti.Prompt = theme.InputPrompt.Render("> ")
	ti.CharLimit = maxInputChars
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Spinner

	return &Model{
		cfg:           deps.Config,
		models:        deps.Models,
		router:        deps.Router,
		store:         deps.Store,
		logger:        logger,
		commands:      commands.NewRegistry(),
		theme:         theme,
		input:         ti,
		spin:          sp,
		state:         StateReady,
		activeModel:   deps.Config.DefaultModel,
		conversations: make(map[string]*model.Conversation),
	}
}

// Init starts the cursor blink and spinner.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spin.Tick)
}

// active returns the conversation for the active model, creating it on
// first use and sizing it to the model's context window.
func (m *Model) active() *model.Conversation {
	conv, ok := m.conversations[m.activeModel]
	if !ok {
		conv = model.NewConversation(m.activeModel)
		if cfg, found := m.models.Lookup(m.activeModel); found {
			conv.SetMaxTokens(cfg.ContextWindowTokens)
		}
		m.conversations[m.activeModel] = conv
	}
	return conv
}

// commandContext builds the execution context for slash commands.
func (m *Model) commandContext() *commands.Context {
	return &commands.Context{
		Config:             m.cfg,
		Models:             m.models,
		Store:              m.store,
		ActiveModelID:      func() string { return m.activeModel },
		ActiveConversation: func() *model.Conversation { return m.active() },
		AvailableProviders: m.router.AvailableProviders,
	}
}
