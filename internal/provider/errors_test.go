// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStreamErrorWrapping(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewStreamError("anthropic", "connection lost mid-stream", cause)

	assert.True(t, IsStreamError(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "anthropic")
	assert.Contains(t, err.Error(), "connection reset")

	wrapped := fmt.Errorf("send failed: %w", err)
	assert.True(t, IsStreamError(wrapped))
}

func TestConfigurationErrorWrapping(t *testing.T) {
	err := &ConfigurationError{
		Provider: "openai",
		Message:  "API key not set",
		Cause:    ErrNotConfigured,
	}

	assert.True(t, IsConfigurationError(err))
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Contains(t, err.Error(), "openai")
	assert.False(t, IsStreamError(err))
}

func TestUserMessage(t *testing.T) {
	assert.Contains(t, UserMessage(ErrInvalidModel), "/models")
	assert.Contains(t, UserMessage(ErrNotConfigured), "API key")
	assert.Contains(t, UserMessage(fmt.Errorf("wrapped: %w", ErrRateLimited)), "Rate limited")
	assert.Equal(t, "boom", UserMessage(errors.New("boom")))
}
