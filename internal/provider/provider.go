// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package provider defines the streaming client contract for LLM backends.
package provider

import (
	"context"

	"github.com/jeranaias/kestrel-tui/internal/model"
)

// =============================================================================
// STREAM CHUNK
// =============================================================================

// StreamChunk is one increment of a streaming completion. Chunks carry
// either a content delta, a terminal Done marker, or an error; the channel
// closes after the terminal chunk.
type StreamChunk struct {
	// Delta is the new text fragment in this chunk.
	Delta string

	// Done marks the final chunk of a successful stream.
	Done bool

	// TokenCount is a running estimate of completion tokens so far.
	TokenCount int

	// FinishReason is set on the final chunk when the provider reports one
	// (e.g. "stop", "length").
	FinishReason string

	// Err is set instead of Delta when the stream fails mid-flight. At
	// most one error chunk is delivered and it terminates the stream.
	Err error
}

// =============================================================================
// CLIENT INTERFACE
// =============================================================================

// Client is a streaming adapter for one provider's completion API.
// Implementations are safe for concurrent use.
type Client interface {
	// Provider returns the provider name (e.g. "anthropic", "openai").
	Provider() string

	// StreamCompletion starts a streaming completion over the prepared
	// messages. It returns immediately with a channel of chunks; the
	// producing goroutine closes the channel when the stream ends.
	// Mid-stream failures arrive as a chunk with Err set. An error return
	// means the request could not be started at all.
	StreamCompletion(ctx context.Context, messages []*model.Message, modelID string) (<-chan StreamChunk, error)

	// ValidateConfig reports whether the client is usable: credentials
	// present and, where the provider supports it, reachable.
	ValidateConfig(ctx context.Context) bool
}
