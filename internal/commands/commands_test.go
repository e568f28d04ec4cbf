// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jeranaias/kestrel-tui/internal/config"
	"github.com/jeranaias/kestrel-tui/internal/model"
	"github.com/jeranaias/kestrel-tui/internal/registry"
	"github.com/jeranaias/kestrel-tui/internal/storage"
)

func testContext(t *testing.T) *Context {
	t.Helper()
	store, err := storage.NewStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	conv := model.NewConversation("gpt-4o")
	conv.AddUserMessage("hello")

	return &Context{
		Config:             config.Default(),
		Models:             registry.NewRegistry(),
		Store:              store,
		ActiveModelID:      func() string { return "gpt-4o" },
		ActiveConversation: func() *model.Conversation { return conv },
		AvailableProviders: func() []string { return []string{"openai"} },
	}
}

// runCmd executes a tea.Cmd and returns the produced message.
func runCmd(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	require.NotNil(t, cmd)
	return cmd()
}

func TestParse(t *testing.T) {
	name, args := Parse("/model gpt-4o")
	assert.Equal(t, "/model", name)
	assert.Equal(t, []string{"gpt-4o"}, args)

	name, args = Parse("  /help  ")
	assert.Equal(t, "/help", name)
	assert.Empty(t, args)

	assert.True(t, IsCommand("/quit"))
	assert.True(t, IsCommand("  /quit"))
	assert.False(t, IsCommand("hello /quit"))
}

func TestAliasesResolve(t *testing.T) {
	reg := NewRegistry()
	assert.Same(t, reg.Get("/help"), reg.Get("/h"))
	assert.Same(t, reg.Get("/quit"), reg.Get("/exit"))
	assert.Nil(t, reg.Get("/nonsense"))
}

func TestUnknownCommand(t *testing.T) {
	reg := NewRegistry()
	msg := runCmd(t, reg.Execute(testContext(t), "/bogus"))
	errMsg, ok := msg.(ErrorMsg)
	require.True(t, ok)
	assert.Contains(t, errMsg.Text, "/bogus")
}

func TestModelSwitch(t *testing.T) {
	reg := NewRegistry()
	ctx := testContext(t)

	msg := runCmd(t, reg.Execute(ctx, "/model claude-3-5-haiku"))
	switchMsg, ok := msg.(SwitchModelMsg)
	require.True(t, ok)
	assert.Equal(t, "claude-3-5-haiku", switchMsg.ModelID)

	// Unknown model is rejected with a suggestion.
	msg = runCmd(t, reg.Execute(ctx, "/model made-up"))
	errMsg, ok := msg.(ErrorMsg)
	require.True(t, ok)
	assert.Contains(t, errMsg.Text, "/models")

	// No argument shows the current model.
	msg = runCmd(t, reg.Execute(ctx, "/model"))
	infoMsg, ok := msg.(InfoMsg)
	require.True(t, ok)
	assert.Contains(t, infoMsg.Text, "gpt-4o")
}

func TestModelsListsCatalog(t *testing.T) {
	reg := NewRegistry()
	msg := runCmd(t, reg.Execute(testContext(t), "/models"))
	infoMsg, ok := msg.(InfoMsg)
	require.True(t, ok)
	assert.Contains(t, infoMsg.Text, "claude-3-5-sonnet")
	assert.Contains(t, infoMsg.Text, "* gpt-4o")
}

func TestSaveAndSessionsAndLoad(t *testing.T) {
	reg := NewRegistry()
	ctx := testContext(t)

	msg := runCmd(t, reg.Execute(ctx, "/save"))
	saved, ok := msg.(ConversationSavedMsg)
	require.True(t, ok)
	assert.NotEmpty(t, saved.ID)

	msg = runCmd(t, reg.Execute(ctx, "/sessions"))
	infoMsg, ok := msg.(InfoMsg)
	require.True(t, ok)
	assert.Contains(t, infoMsg.Text, saved.ID)

	msg = runCmd(t, reg.Execute(ctx, "/load "+saved.ID))
	loadMsg, ok := msg.(LoadConversationMsg)
	require.True(t, ok)
	assert.Equal(t, saved.ID, loadMsg.Conversation.ID)

	msg = runCmd(t, reg.Execute(ctx, "/load conv_missing"))
	_, ok = msg.(ErrorMsg)
	assert.True(t, ok)
}

func TestNewAndClear(t *testing.T) {
	reg := NewRegistry()
	ctx := testContext(t)

	msg := runCmd(t, reg.Execute(ctx, "/new"))
	_, ok := msg.(NewConversationMsg)
	assert.True(t, ok)

	msg = runCmd(t, reg.Execute(ctx, "/clear"))
	_, ok = msg.(ClearHistoryMsg)
	assert.True(t, ok)
}

func TestFileAttachAndDetach(t *testing.T) {
	reg := NewRegistry()
	ctx := testContext(t)

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("some notes"), 0644))

	msg := runCmd(t, reg.Execute(ctx, "/file "+path))
	attached, ok := msg.(FileAttachedMsg)
	require.True(t, ok)
	assert.Equal(t, path, attached.Path)
	assert.Equal(t, "some notes", attached.Content)

	msg = runCmd(t, reg.Execute(ctx, "/file"))
	_, ok = msg.(FileDetachedMsg)
	assert.True(t, ok)

	msg = runCmd(t, reg.Execute(ctx, "/file /no/such/file"))
	_, ok = msg.(ErrorMsg)
	assert.True(t, ok)
}

func TestHelpListsEveryCommand(t *testing.T) {
	reg := NewRegistry()
	msg := runCmd(t, reg.Execute(testContext(t), "/help"))
	infoMsg, ok := msg.(InfoMsg)
	require.True(t, ok)
	for _, cmd := range reg.All() {
		assert.Contains(t, infoMsg.Text, cmd.Name)
	}
}
