// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	reg := NewRegistry()

	cfg, ok := reg.Lookup("claude-3-5-sonnet")
	require.True(t, ok)
	assert.Equal(t, ProviderAnthropic, cfg.Provider)
	assert.Equal(t, 200000, cfg.ContextWindowTokens)

	cfg, ok = reg.Lookup("gpt-4o")
	require.True(t, ok)
	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.Equal(t, 128000, cfg.ContextWindowTokens)

	_, ok = reg.Lookup("no-such-model")
	assert.False(t, ok)
}

func TestAllSorted(t *testing.T) {
	reg := NewRegistry()
	all := reg.All()
	require.NotEmpty(t, all)

	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].ID, all[i].ID)
	}
}

func TestByProvider(t *testing.T) {
	reg := NewRegistry()

	anthropic := reg.ByProvider(ProviderAnthropic)
	require.NotEmpty(t, anthropic)
	for _, m := range anthropic {
		assert.Equal(t, ProviderAnthropic, m.Provider)
	}

	assert.Empty(t, reg.ByProvider("unknown"))
}

func TestProviders(t *testing.T) {
	reg := NewRegistry()
	assert.Equal(t, []string{ProviderAnthropic, ProviderOpenAI}, reg.Providers())
}

func TestHasCapability(t *testing.T) {
	m := &ModelConfig{Capabilities: []string{"code", "vision"}}
	assert.True(t, m.HasCapability("vision"))
	assert.False(t, m.HasCapability("audio"))
}

func TestSystemPromptFallback(t *testing.T) {
	// Models without an override share the baseline prompt.
	assert.Equal(t, SystemPrompt("claude-3-5-sonnet"), SystemPrompt("gpt-4o"))

	// Overridden models get their own prompt.
	assert.NotEqual(t, SystemPrompt("gpt-4o-mini"), SystemPrompt("gpt-4o"))
	assert.NotEmpty(t, SystemPrompt("totally-unknown"))
}
