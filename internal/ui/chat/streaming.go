// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/kestrel-tui/internal/contextmgr"
	"github.com/jeranaias/kestrel-tui/internal/model"
	"github.com/jeranaias/kestrel-tui/internal/provider"
	"github.com/jeranaias/kestrel-tui/internal/registry"
	"github.com/jeranaias/kestrel-tui/internal/stream"
)

// snapshotBuffer sizes the snapshot channel. The UI drains promptly, so a
// small buffer is enough to absorb flush jitter without blocking the
// consumer's publish callback.
const snapshotBuffer = 16

// =============================================================================
// STREAM LIFECYCLE
// =============================================================================

// startStream sends the prompt and begins streaming the response. The
// returned command blocks on the snapshot channel; each applied snapshot
// re-arms it until the final Done snapshot arrives.
func (m *Model) startStream(prompt string) tea.Cmd {
	conv := m.active()
	conv.AddUserMessage(prompt)
	m.refreshTranscript()

	mgr := contextmgr.NewManager(contextmgr.Config{
		MaxTokens:         conv.MaxTokens,
		SlidingWindowSize: m.cfg.Context.SlidingWindowTokens,
	}, m.logger)
	prepared := mgr.PrepareContext(registry.SystemPrompt(m.activeModel), m.pendingFiles, conv.GetHistory())

	ctx, cancel := context.WithCancel(context.Background())
	chunks, err := m.router.StreamCompletion(ctx, prepared.Messages, m.activeModel)
	if err != nil {
		cancel()
		return func() tea.Msg { return streamStartFailedMsg{Err: err} }
	}

	m.streamConv = conv
	m.streamMsg = conv.AddAssistantMessage()
	m.stats = model.NewStatistics()
	m.state = StateStreaming
	m.cancelStream = cancel
	m.lastError = ""
	m.statusMsg = ""

	snapshots := make(chan stream.Snapshot, snapshotBuffer)
	m.snapshots = snapshots

	consumer := stream.NewConsumer(time.Duration(m.cfg.Stream.FlushIntervalMs)*time.Millisecond, m.logger)
	go func() {
		defer close(snapshots)
		if err := consumer.Run(ctx, chunks, func(s stream.Snapshot) { snapshots <- s }); err != nil {
			m.logger.Warn("stream ended with error", zap.Error(err))
		}
	}()

	return m.waitForSnapshot()
}

// waitForSnapshot returns a command that blocks until the next snapshot.
// It captures the channel so a stale command from a finished stream can
// never deliver into a newer one.
func (m *Model) waitForSnapshot() tea.Cmd {
	ch := m.snapshots
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return nil
		}
		return StreamSnapshotMsg{Snapshot: s}
	}
}

// applySnapshot updates the streaming assistant message from a snapshot
// and finalizes the turn when the stream completes. It works on the
// conversation and message captured at stream start, not the active ones,
// so a mid-stream model switch cannot orphan the in-flight turn.
func (m *Model) applySnapshot(s stream.Snapshot) tea.Cmd {
	conv := m.streamConv
	last := m.streamMsg
	if last != nil && last.IsStreaming {
		if s.Content != "" && m.stats != nil {
			m.stats.RecordFirstToken()
		}
		last.SetStreamContent(s.Content, s.TokenCount)
	}

	if !s.Done {
		m.refreshTranscript()
		return m.waitForSnapshot()
	}

	// Final snapshot: complete content, possibly with an error attached.
	// Partial output is kept either way.
	if m.stats != nil {
		m.stats.Finalize(s.TokenCount)
	}
	if last != nil {
		last.FinishReason = s.FinishReason
	}
	if conv != nil {
		conv.FinalizeLast(m.stats)
	}
	// A cleared history detaches the message from its conversation;
	// finalize it directly so it never stays marked streaming.
	if last != nil && last.IsStreaming {
		last.FinalizeStream(m.stats)
	}

	if m.cancelStream != nil {
		m.cancelStream()
		m.cancelStream = nil
	}
	m.snapshots = nil
	m.streamConv = nil
	m.streamMsg = nil

	if s.Err != nil {
		m.state = StateError
		m.lastError = provider.UserMessage(s.Err)
	} else {
		m.state = StateReady
		m.autosave(conv)
	}
	m.refreshTranscript()
	return nil
}

// cancelActiveStream aborts an in-flight stream. The consumer observes the
// context cancellation and still delivers a final snapshot, so teardown
// happens through the normal applySnapshot path.
func (m *Model) cancelActiveStream() {
	if m.state == StateStreaming && m.cancelStream != nil {
		m.cancelStream()
	}
}

// autosave persists the conversation after each completed turn.
func (m *Model) autosave(conv *model.Conversation) {
	if conv == nil || conv.IsEmpty() {
		return
	}
	if err := m.store.Save(conv); err != nil {
		m.logger.Warn("autosave failed", zap.Error(err))
		return
	}
	m.statusMsg = "Saved"
}
