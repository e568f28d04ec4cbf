// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jeranaias/kestrel-tui/internal/commands"
	"github.com/jeranaias/kestrel-tui/internal/config"
	"github.com/jeranaias/kestrel-tui/internal/contextmgr"
	"github.com/jeranaias/kestrel-tui/internal/model"
	"github.com/jeranaias/kestrel-tui/internal/provider"
	"github.com/jeranaias/kestrel-tui/internal/registry"
	"github.com/jeranaias/kestrel-tui/internal/router"
	"github.com/jeranaias/kestrel-tui/internal/storage"
)

// fakeClient serves a canned chunk channel.
type fakeClient struct {
	name   string
	chunks <-chan provider.StreamChunk
}

func (f *fakeClient) Provider() string { return f.name }

func (f *fakeClient) StreamCompletion(ctx context.Context, msgs []*model.Message, modelID string) (<-chan provider.StreamChunk, error) {
	return f.chunks, nil
}

func (f *fakeClient) ValidateConfig(ctx context.Context) bool { return true }

func newTestModel(t *testing.T, clients ...provider.Client) *Model {
	t.Helper()

	cfg := config.Default()
	cfg.DefaultModel = "gpt-4o"
	cfg.UI.Markdown = false
	cfg.Stream.FlushIntervalMs = 5

	store, err := storage.NewStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	reg := registry.NewRegistry()
	m := New(Deps{
		Config: cfg,
		Models: reg,
		Router: router.New(reg, clients, zap.NewNop()),
		Store:  store,
		Logger: zap.NewNop(),
	})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return m
}

// pump drives the command queue until it drains, the way the Bubble Tea
// runtime would.
func pump(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	queue := []tea.Cmd{cmd}
	deadline := time.Now().Add(5 * time.Second)
	for len(queue) > 0 {
		require.True(t, time.Now().Before(deadline), "stream did not finish in time")

		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		msg := next()
		if msg == nil {
			continue
		}
		if batch, ok := msg.(tea.BatchMsg); ok {
			queue = append(queue, batch...)
			continue
		}
		_, c := m.Update(msg)
		queue = append(queue, c)
	}
}

func send(t *testing.T, m *Model, text string) tea.Cmd {
	t.Helper()
	m.input.SetValue(text)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return cmd
}

func TestStreamingRoundTrip(t *testing.T) {
	chunks := make(chan provider.StreamChunk, 4)
	chunks <- provider.StreamChunk{Delta: "Hello, ", TokenCount: 2}
	chunks <- provider.StreamChunk{Delta: "world", TokenCount: 3}
	chunks <- provider.StreamChunk{Done: true, FinishReason: "stop"}
	close(chunks)

	m := newTestModel(t, &fakeClient{name: registry.ProviderOpenAI, chunks: chunks})
	cmd := send(t, m, "hi")
	require.NotNil(t, cmd)
	assert.Equal(t, StateStreaming, m.state)

	pump(t, m, cmd)

	assert.Equal(t, StateReady, m.state)
	conv := m.active()
	require.Equal(t, 2, conv.MessageCount())

	last := conv.GetLastMessage()
	assert.Equal(t, "Hello, world", last.Content)
	assert.False(t, last.IsStreaming)
	assert.Equal(t, "stop", last.FinishReason)
	assert.Equal(t, 3, last.TokenCount)

	// Completed turns are autosaved.
	metas, err := m.store.List()
	require.NoError(t, err)
	assert.Len(t, metas, 1)
}

func TestStreamErrorKeepsPartialContent(t *testing.T) {
	chunks := make(chan provider.StreamChunk, 2)
	chunks <- provider.StreamChunk{Delta: "partial answer", TokenCount: 4}
	chunks <- provider.StreamChunk{Err: provider.NewStreamError("openai", "server dropped", nil)}
	close(chunks)

	m := newTestModel(t, &fakeClient{name: registry.ProviderOpenAI, chunks: chunks})
	pump(t, m, send(t, m, "hi"))

	assert.Equal(t, StateError, m.state)
	assert.NotEmpty(t, m.lastError)
	assert.Equal(t, "partial answer", m.active().GetLastMessage().Content)
}

func TestEscCancelsStream(t *testing.T) {
	chunks := make(chan provider.StreamChunk, 1)
	chunks <- provider.StreamChunk{Delta: "so far", TokenCount: 2}
	// Never closed: only cancellation ends this stream.

	m := newTestModel(t, &fakeClient{name: registry.ProviderOpenAI, chunks: chunks})
	cmd := send(t, m, "hi")
	require.Equal(t, StateStreaming, m.state)

	// Let the consumer ingest the buffered delta before cancelling.
	time.Sleep(50 * time.Millisecond)
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	pump(t, m, cmd)

	assert.Equal(t, StateError, m.state)
	assert.NotEmpty(t, m.lastError)
	assert.Equal(t, "so far", m.active().GetLastMessage().Content)
}

func TestStartFailureWithoutClient(t *testing.T) {
	// No clients registered at all.
	m := newTestModel(t)
	pump(t, m, send(t, m, "hi"))

	assert.Equal(t, StateError, m.state)
	assert.NotEmpty(t, m.lastError)
}

func TestSwitchModelKeepsConversationsSeparate(t *testing.T) {
	m := newTestModel(t)

	first := m.active()
	first.AddUserMessage("for gpt")

	m.Update(commands.SwitchModelMsg{ModelID: "claude-3-5-haiku"})
	assert.Equal(t, "claude-3-5-haiku", m.activeModel)

	second := m.active()
	assert.NotSame(t, first, second)
	assert.True(t, second.IsEmpty())
	assert.Equal(t, 200000, second.MaxTokens)

	m.Update(commands.SwitchModelMsg{ModelID: "gpt-4o"})
	assert.Same(t, first, m.active())
	assert.Equal(t, 1, m.active().MessageCount())
}

func TestModelSwitchMidStreamFinalizesOriginal(t *testing.T) {
	chunks := make(chan provider.StreamChunk, 4)
	chunks <- provider.StreamChunk{Delta: "first half ", TokenCount: 3}
	chunks <- provider.StreamChunk{Delta: "second half", TokenCount: 6}
	chunks <- provider.StreamChunk{Done: true, FinishReason: "stop"}
	close(chunks)

	m := newTestModel(t, &fakeClient{name: registry.ProviderOpenAI, chunks: chunks})
	cmd := send(t, m, "hi")
	require.Equal(t, StateStreaming, m.state)
	original := m.active()

	// Switch models while the response is still in flight.
	m.Update(commands.SwitchModelMsg{ModelID: "claude-3-5-haiku"})
	assert.Equal(t, "claude-3-5-haiku", m.activeModel)

	pump(t, m, cmd)

	// The response still lands on the conversation that sent the prompt.
	assert.Equal(t, StateReady, m.state)
	last := original.GetLastMessage()
	require.NotNil(t, last)
	assert.False(t, last.IsStreaming)
	assert.Equal(t, "first half second half", last.Content)
	assert.Equal(t, "stop", last.FinishReason)

	// The conversation now in view is untouched.
	assert.True(t, m.active().IsEmpty())
}

func TestClearHistoryMidStreamFinalizesDetachedMessage(t *testing.T) {
	chunks := make(chan provider.StreamChunk, 2)
	chunks <- provider.StreamChunk{Delta: "answer", TokenCount: 2}
	chunks <- provider.StreamChunk{Done: true, FinishReason: "stop"}
	close(chunks)

	m := newTestModel(t, &fakeClient{name: registry.ProviderOpenAI, chunks: chunks})
	cmd := send(t, m, "hi")
	require.Equal(t, StateStreaming, m.state)
	msg := m.streamMsg
	require.NotNil(t, msg)

	m.Update(commands.ClearHistoryMsg{})
	pump(t, m, cmd)

	// The detached message never stays marked streaming.
	assert.Equal(t, StateReady, m.state)
	assert.False(t, msg.IsStreaming)
	assert.Equal(t, "answer", msg.Content)
}

func TestSlashCommandDispatch(t *testing.T) {
	m := newTestModel(t)

	cmd := send(t, m, "/model claude-3-5-haiku")
	require.NotNil(t, cmd)
	m.Update(cmd())
	assert.Equal(t, "claude-3-5-haiku", m.activeModel)
}

func TestFileAttachAndDetach(t *testing.T) {
	m := newTestModel(t)

	m.Update(commands.FileAttachedMsg{Path: "notes.txt", Content: "pinned"})
	m.Update(commands.FileAttachedMsg{Path: "main.go", Content: "package main"})
	require.Len(t, m.pendingFiles, 2)
	assert.Equal(t, contextmgr.FileContent{Path: "notes.txt", Content: "pinned"}, m.pendingFiles[0])

	m.Update(commands.FileDetachedMsg{})
	assert.Nil(t, m.pendingFiles)
}

func TestNewConversationResets(t *testing.T) {
	m := newTestModel(t)
	m.active().AddUserMessage("old")

	m.Update(commands.NewConversationMsg{})
	assert.True(t, m.active().IsEmpty())
	assert.Equal(t, 128000, m.active().MaxTokens)
}
