// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package contextmgr

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jeranaias/kestrel-tui/internal/model"
)

// historyOf builds an alternating user/assistant history where every
// message carries a recorded token count.
func historyOf(count, tokensEach int) []*model.Message {
	msgs := make([]*model.Message, 0, count)
	for i := 0; i < count; i++ {
		role := model.RoleUser
		if i%2 == 1 {
			role = model.RoleAssistant
		}
		msg := model.NewMessage(role, fmt.Sprintf("message %d", i))
		msg.TokenCount = tokensEach
		msgs = append(msgs, msg)
	}
	return msgs
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"", 0},
		{"a", 1},
		{"abcd", 1},
		{"abcde", 2},
		{"abcdefgh", 2},
		{"abcdefghi", 3},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, EstimateTokens(tt.input), "input %q", tt.input)
	}
}

func TestSlidingWindowAdmitsNewestSix(t *testing.T) {
	// Ten messages of 600 tokens each against a 4000-token window: six
	// newest fit (3600), the seventh would overflow.
	history := historyOf(10, 600)
	mgr := NewManager(Config{
		MaxTokens:          5100,
		SlidingWindowSize:  4000,
		SystemPromptTokens: 100,
	}, zap.NewNop())

	res := mgr.PrepareContext("You are helpful.", nil, history)

	assert.Equal(t, 6, res.WindowCount)
	assert.Equal(t, 0, res.BackfillCount)
	assert.Equal(t, 4, res.DroppedCount)

	// System prompt first, then the six newest in chronological order.
	require.Len(t, res.Messages, 7)
	assert.Equal(t, model.RoleSystem, res.Messages[0].Role)
	for i := 0; i < 6; i++ {
		assert.Same(t, history[4+i], res.Messages[1+i])
	}
}

func TestBackfillFillsLeftoverBudget(t *testing.T) {
	// Window caps at 4000 (six messages, 3600 tokens); a 5000-token budget
	// leaves 1400 for backfill, admitting the two oldest messages.
	history := historyOf(10, 600)
	mgr := NewManager(Config{
		MaxTokens:          6100,
		SlidingWindowSize:  4000,
		SystemPromptTokens: 100,
	}, zap.NewNop())

	res := mgr.PrepareContext("You are helpful.", nil, history)

	assert.Equal(t, 6, res.WindowCount)
	assert.Equal(t, 2, res.BackfillCount)
	assert.Equal(t, 2, res.DroppedCount)

	// Order: system, backfill (oldest first), then the window block.
	require.Len(t, res.Messages, 9)
	assert.Same(t, history[0], res.Messages[1])
	assert.Same(t, history[1], res.Messages[2])
	assert.Same(t, history[4], res.Messages[3])
	assert.Same(t, history[9], res.Messages[8])
}

func TestHistoryTokensNeverExceedBudget(t *testing.T) {
	history := historyOf(40, 350)
	for _, maxTokens := range []int{2000, 5000, 9000, 20000} {
		mgr := NewManager(Config{
			MaxTokens:          maxTokens,
			SlidingWindowSize:  4000,
			SystemPromptTokens: 200,
		}, zap.NewNop())

		res := mgr.PrepareContext("prompt", nil, history)
		assert.LessOrEqual(t, res.HistoryTokens, res.Budget,
			"maxTokens=%d", maxTokens)
	}
}

func TestExhaustedBudgetKeepsOnlySystemPrompt(t *testing.T) {
	history := historyOf(4, 600)
	mgr := NewManager(Config{
		MaxTokens:          1050,
		SlidingWindowSize:  4000,
		SystemPromptTokens: 100,
	}, zap.NewNop())

	res := mgr.PrepareContext("You are helpful.", nil, history)

	require.Len(t, res.Messages, 1)
	assert.Equal(t, model.RoleSystem, res.Messages[0].Role)
	assert.Equal(t, 4, res.DroppedCount)
}

func TestFileContextPinnedAfterSystemPrompt(t *testing.T) {
	history := historyOf(4, 100)
	mgr := NewManager(Config{
		MaxTokens:          8000,
		SlidingWindowSize:  4000,
		SystemPromptTokens: 100,
		FileContentTokens:  500,
	}, zap.NewNop())

	files := []FileContent{
		{Path: "main.go", Content: "package main\n"},
		{Path: "notes.txt", Content: "remember the thing"},
	}
	res := mgr.PrepareContext("You are helpful.", files, history)

	require.GreaterOrEqual(t, len(res.Messages), 2)
	assert.Equal(t, model.RoleSystem, res.Messages[0].Role)
	assert.Equal(t, model.RoleSystem, res.Messages[1].Role)
	assert.Contains(t, res.Messages[1].Content, "main.go")
	assert.Contains(t, res.Messages[1].Content, "```go\npackage main")
	assert.Contains(t, res.Messages[1].Content, "notes.txt")
	assert.Equal(t, 4, res.WindowCount)
}

func TestFileContextTruncation(t *testing.T) {
	mgr := NewManager(Config{
		MaxTokens:         8000,
		SlidingWindowSize: 4000,
		FileContentTokens: 10, // 40 chars of content
	}, zap.NewNop())

	long := strings.Repeat("x", 200)
	res := mgr.PrepareContext("p", []FileContent{{Path: "big.txt", Content: long}}, nil)

	require.Len(t, res.Messages, 2)
	assert.Contains(t, res.Messages[1].Content, strings.Repeat("x", 40))
	assert.NotContains(t, res.Messages[1].Content, strings.Repeat("x", 41))
	assert.Contains(t, res.Messages[1].Content, "... [truncated]")
}

func TestFileContextShrinksBudget(t *testing.T) {
	history := historyOf(10, 600)
	base := Config{
		MaxTokens:          6100,
		SlidingWindowSize:  4000,
		SystemPromptTokens: 100,
	}

	without := NewManager(base, zap.NewNop()).
		PrepareContext("p", nil, history)

	files := []FileContent{{Path: "a.txt", Content: strings.Repeat("x", 5600)}}
	with := NewManager(base, zap.NewNop()).
		PrepareContext("p", files, history)

	// The budget shrinks by exactly the consolidated message's cost.
	fileMsgTokens := with.Messages[1].EffectiveTokens()
	assert.Equal(t, without.Budget-fileMsgTokens, with.Budget)
	assert.Less(t, with.WindowCount+with.BackfillCount,
		without.WindowCount+without.BackfillCount)
}

func TestPrepareContextIsDeterministic(t *testing.T) {
	history := historyOf(20, 300)
	mgr := NewManager(Config{
		MaxTokens:          7000,
		SlidingWindowSize:  3000,
		SystemPromptTokens: 150,
	}, zap.NewNop())

	first := mgr.PrepareContext("prompt", nil, history)
	second := mgr.PrepareContext("prompt", nil, history)

	require.Equal(t, len(first.Messages), len(second.Messages))
	assert.Equal(t, first.WindowCount, second.WindowCount)
	assert.Equal(t, first.BackfillCount, second.BackfillCount)
	assert.Equal(t, first.HistoryTokens, second.HistoryTokens)
	// History itself is untouched.
	assert.Len(t, history, 20)
}

func TestRecordedTokenCountWinsOverEstimate(t *testing.T) {
	// Content estimates tiny but the recorded count is huge, so the
	// message must be treated as expensive and dropped.
	big := model.NewUserMessage("hi")
	big.TokenCount = 50000
	small := model.NewUserMessage("hello there")

	mgr := NewManager(Config{
		MaxTokens:          2000,
		SlidingWindowSize:  500,
		SystemPromptTokens: 100,
	}, zap.NewNop())

	res := mgr.PrepareContext("p", nil, []*model.Message{big, small})

	require.Len(t, res.Messages, 2)
	assert.Same(t, small, res.Messages[1])
	assert.Equal(t, 1, res.DroppedCount)
}

func TestEmptyAndSystemHistorySkipped(t *testing.T) {
	history := []*model.Message{
		model.NewSystemMessage("stale system entry"),
		model.NewUserMessage(""),
		model.NewUserMessage("real question"),
	}
	mgr := NewManager(Config{
		MaxTokens:          5000,
		SlidingWindowSize:  4000,
		SystemPromptTokens: 100,
	}, zap.NewNop())

	res := mgr.PrepareContext("p", nil, history)

	require.Len(t, res.Messages, 2)
	assert.Equal(t, "real question", res.Messages[1].Content)
}

func TestEmptyHistory(t *testing.T) {
	mgr := NewManager(DefaultConfig(), zap.NewNop())
	res := mgr.PrepareContext("You are helpful.", nil, nil)

	require.Len(t, res.Messages, 1)
	assert.Equal(t, 0, res.WindowCount)
	assert.Equal(t, 0, res.DroppedCount)
}

func TestCalculateTotalTokens(t *testing.T) {
	msgs := historyOf(3, 250)
	assert.Equal(t, 750, CalculateTotalTokens(msgs))
	assert.Equal(t, 0, CalculateTotalTokens(nil))
}

func TestExceedsContextWindow(t *testing.T) {
	msgs := historyOf(2, 500)
	assert.True(t, ExceedsContextWindow(msgs, 1500))
	assert.False(t, ExceedsContextWindow(msgs, 2500))
}
