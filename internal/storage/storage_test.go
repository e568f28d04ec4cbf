// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jeranaias/kestrel-tui/internal/model"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	return store
}

func sampleConversation(modelID, question string) *model.Conversation {
	conv := model.NewConversation(modelID)
	conv.AddUserMessage(question)
	msg := conv.AddAssistantMessage()
	msg.SetStreamContent("an answer", 2)
	conv.FinalizeLast(nil)
	return conv
}

func TestSaveAndLoad(t *testing.T) {
	store := testStore(t)
	conv := sampleConversation("claude-3-5-sonnet", "What is Go?")

	require.NoError(t, store.Save(conv))

	loaded, err := store.Load(conv.ID)
	require.NoError(t, err)
	assert.Equal(t, conv.ID, loaded.ID)
	assert.Equal(t, "claude-3-5-sonnet", loaded.ModelID)
	require.Equal(t, 2, loaded.MessageCount())
	assert.Equal(t, "What is Go?", loaded.Messages[0].Content)
	assert.Equal(t, "an answer", loaded.Messages[1].Content)
}

func TestLoadMissing(t *testing.T) {
	store := testStore(t)
	_, err := store.Load("conv_missing")
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestSaveSkipsEmptyConversation(t *testing.T) {
	store := testStore(t)
	require.NoError(t, store.Save(model.NewConversation("gpt-4o")))

	metas, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, metas)
}

func TestListNewestFirst(t *testing.T) {
	store := testStore(t)

	older := sampleConversation("gpt-4o", "first question")
	require.NoError(t, store.Save(older))

	newer := sampleConversation("gpt-4o", "second question")
	newer.UpdatedAt = time.Now().Add(time.Hour)
	require.NoError(t, store.Save(newer))

	metas, err := store.List()
	require.NoError(t, err)
	require.Len(t, metas, 2)
	assert.Equal(t, newer.ID, metas[0].ID)
	assert.Equal(t, older.ID, metas[1].ID)
	assert.Equal(t, 2, metas[0].MessageCount)
}

func TestListByModel(t *testing.T) {
	store := testStore(t)
	require.NoError(t, store.Save(sampleConversation("gpt-4o", "a")))
	require.NoError(t, store.Save(sampleConversation("claude-3-5-sonnet", "b")))

	metas, err := store.ListByModel("gpt-4o")
	require.NoError(t, err)
	require.Len(t, metas, 1)
	assert.Equal(t, "gpt-4o", metas[0].ModelID)
}

func TestListSkipsCorruptFiles(t *testing.T) {
	store := testStore(t)
	require.NoError(t, store.Save(sampleConversation("gpt-4o", "ok")))
	require.NoError(t, os.WriteFile(filepath.Join(store.BaseDir, "bad.json"), []byte("{broken"), 0644))

	metas, err := store.List()
	require.NoError(t, err)
	assert.Len(t, metas, 1)
}

func TestDelete(t *testing.T) {
	store := testStore(t)
	conv := sampleConversation("gpt-4o", "bye")
	require.NoError(t, store.Save(conv))

	require.NoError(t, store.Delete(conv.ID))
	_, err := store.Load(conv.ID)
	assert.ErrorIs(t, err, ErrConversationNotFound)

	// Deleting again is not an error.
	assert.NoError(t, store.Delete(conv.ID))
}

func TestSearch(t *testing.T) {
	store := testStore(t)
	require.NoError(t, store.Save(sampleConversation("gpt-4o", "how do goroutines work")))
	require.NoError(t, store.Save(sampleConversation("gpt-4o", "explain monads")))

	matches, err := store.Search("GOROUTINES")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Contains(t, matches[0].Title, "goroutines")

	matches, err = store.Search("")
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestEnforceLimit(t *testing.T) {
	store := testStore(t)
	store.MaxConversations = 2

	var ids []string
	for i, q := range []string{"one", "two", "three"} {
		conv := sampleConversation("gpt-4o", q)
		conv.UpdatedAt = time.Now().Add(time.Duration(i) * time.Hour)
		require.NoError(t, store.Save(conv))
		ids = append(ids, conv.ID)
	}

	metas, err := store.List()
	require.NoError(t, err)
	require.Len(t, metas, 2)

	// The oldest conversation was pruned.
	_, err = store.Load(ids[0])
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestExportMarkdown(t *testing.T) {
	store := testStore(t)
	conv := sampleConversation("claude-3-5-haiku", "what is a kestrel")

	path := filepath.Join(t.TempDir(), "export.md")
	require.NoError(t, store.ExportMarkdown(conv, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "what is a kestrel")
	assert.Contains(t, text, "## You")
	assert.Contains(t, text, "## Assistant")
	assert.Contains(t, text, "claude-3-5-haiku")
}
