// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package contextmgr builds the token-budgeted message slice sent to providers.
package contextmgr

import (
	"go.uber.org/zap"

	"github.com/jeranaias/kestrel-tui/internal/model"
)

// ResponseReserve is the number of tokens held back from the context budget
// so the model always has room to generate a response.
const ResponseReserve = 1000

// =============================================================================
// CONFIGURATION
// =============================================================================

// Config controls how much conversation history fits into a request.
type Config struct {
	// MaxTokens is the model's total context window size.
	MaxTokens int

	// SlidingWindowSize caps the token budget of the recent-message window.
	// The window is filled newest-first; older history beyond it competes
	// for whatever budget remains.
	SlidingWindowSize int

	// SystemPromptTokens is the pre-computed cost of the system prompt.
	// Zero means "estimate from content".
	SystemPromptTokens int

	// FileContentTokens caps the token cost of attached file context.
	// Content past the cap is cut with a truncation marker. Zero means
	// no cap.
	FileContentTokens int
}

// DefaultConfig returns conservative defaults sized for a 128k model.
func DefaultConfig() Config {
	return Config{
		MaxTokens:         128000,
		SlidingWindowSize: 4000,
	}
}

// FileContent is one attached file. All attached files are consolidated
// into a single pinned message near the top of the request.
type FileContent struct {
	Path    string
	Content string
}

// =============================================================================
// MANAGER
// =============================================================================

// Manager selects which messages accompany a request. Selection runs in two
// phases over a fixed budget:
//
//  1. Sliding window: newest messages first, capped by SlidingWindowSize,
//     restored to chronological order.
//  2. Backfill: oldest remaining messages, inserted between the pinned
//     context and the window, consuming whatever budget the window left.
//
// Both phases stop at the first message that would exceed their allowance.
type Manager struct {
	config Config
	logger *zap.Logger
}

// NewManager creates a context manager. A nil logger disables logging.
func NewManager(config Config, logger *zap.Logger) *Manager {
	if config.MaxTokens <= 0 {
		config.MaxTokens = DefaultConfig().MaxTokens
	}
	if config.SlidingWindowSize <= 0 {
		config.SlidingWindowSize = DefaultConfig().SlidingWindowSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{config: config, logger: logger}
}

// Result describes one prepared request context.
type Result struct {
	// Messages is the final ordered slice: system prompt, optional file
	// context, backfilled older history, then the sliding window.
	Messages []*model.Message

	// WindowCount and BackfillCount report how many history messages each
	// phase admitted.
	WindowCount   int
	BackfillCount int

	// DroppedCount is the number of history messages that did not fit.
	DroppedCount int

	// HistoryTokens is the token cost of the admitted history messages.
	HistoryTokens int

	// Budget is the token allowance history competed for.
	Budget int
}

// PrepareContext assembles the message slice for a provider request.
// History is never mutated; the same inputs always produce the same output.
func (m *Manager) PrepareContext(systemPrompt string, files []FileContent, history []*model.Message) *Result {
	systemTokens := m.config.SystemPromptTokens
	if systemTokens <= 0 {
		systemTokens = EstimateTokens(systemPrompt)
	}

	fileMsg := buildFileContext(files, m.config.FileContentTokens)
	fileTokens := 0
	if fileMsg != nil {
		fileTokens = fileMsg.TokenCount
	}

	budget := m.config.MaxTokens - systemTokens - fileTokens - ResponseReserve

	result := &Result{Budget: budget}

	pinned := make([]*model.Message, 0, 2)
	pinned = append(pinned, model.NewSystemMessage(systemPrompt))
	if fileMsg != nil {
		pinned = append(pinned, fileMsg)
	}

	// Degenerate budget: only the pinned context goes out.
	candidates := selectable(history)
	if budget <= 0 {
		result.Messages = pinned
		result.DroppedCount = len(candidates)
		m.logResult(result)
		return result
	}

	// Phase 1: sliding window, newest first. The window never exceeds its
	// own size cap nor the overall budget.
	windowAllowance := m.config.SlidingWindowSize
	if windowAllowance > budget {
		windowAllowance = budget
	}

	windowStart := len(candidates)
	windowTokens := 0
	for i := len(candidates) - 1; i >= 0; i-- {
		cost := candidates[i].EffectiveTokens()
		if windowTokens+cost > windowAllowance {
			break
		}
		windowTokens += cost
		windowStart = i
	}
	window := candidates[windowStart:]

	// Phase 2: backfill older history oldest-first with the leftover budget.
	remaining := budget - windowTokens
	backfill := make([]*model.Message, 0)
	backfillTokens := 0
	for i := 0; i < windowStart; i++ {
		cost := candidates[i].EffectiveTokens()
		if backfillTokens+cost > remaining {
			break
		}
		backfillTokens += cost
		backfill = append(backfill, candidates[i])
	}

	messages := make([]*model.Message, 0, len(pinned)+len(backfill)+len(window))
	messages = append(messages, pinned...)
	messages = append(messages, backfill...)
	messages = append(messages, window...)

	result.Messages = messages
	result.WindowCount = len(window)
	result.BackfillCount = len(backfill)
	result.DroppedCount = len(candidates) - len(window) - len(backfill)
	result.HistoryTokens = windowTokens + backfillTokens
	m.logResult(result)
	return result
}

// Config returns the manager's effective configuration.
func (m *Manager) Config() Config {
	return m.config
}

// logResult emits a debug line describing the selection outcome.
func (m *Manager) logResult(r *Result) {
	m.logger.Debug("prepared request context",
		zap.Int("window", r.WindowCount),
		zap.Int("backfill", r.BackfillCount),
		zap.Int("dropped", r.DroppedCount),
		zap.Int("history_tokens", r.HistoryTokens),
		zap.Int("budget", r.Budget),
	)
}

// selectable filters history down to the user and assistant messages that
// compete for budget. Pinned system context is supplied separately and
// empty messages cost budget without adding signal.
func selectable(history []*model.Message) []*model.Message {
	out := make([]*model.Message, 0, len(history))
	for _, msg := range history {
		if msg == nil || msg.Role == model.RoleSystem || msg.IsEmpty() {
			continue
		}
		out = append(out, msg)
	}
	return out
}
