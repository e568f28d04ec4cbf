// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package anthropic implements the provider.Client adapter for the
// Anthropic messages API.
//
// The adapter translates prepared conversation messages into a streaming
// messages request. Anthropic takes the system prompt as a top-level
// request field rather than a message, so system messages are lifted out
// of the slice before sending. The SSE response is parsed event by event
// (content_block_delta, message_delta, message_stop) into provider
// StreamChunk values.
//
// # Usage
//
//	client := anthropic.New(anthropic.Config{APIKey: key}, logger)
//	chunks, err := client.StreamCompletion(ctx, messages, "claude-3-5-sonnet")
package anthropic
