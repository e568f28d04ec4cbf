// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package anthropic

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/jeranaias/kestrel-tui/internal/provider"
)

// STREAMING: Robust SSE parsing with error handling

// maxLineSize bounds a single SSE line (64KB).
const maxLineSize = 64 * 1024

// =============================================================================
// SSE EVENT TYPES
// =============================================================================

// streamEvent is the union of event payloads the messages API emits. Only
// the fields kestrel consumes are decoded; the rest are ignored.
type streamEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type       string `json:"type"`
		Text       string `json:"text"`
		StopReason string `json:"stop_reason"`
	} `json:"delta"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// =============================================================================
// STREAM READER
// =============================================================================

// readStream parses the SSE response body and forwards chunks. It owns the
// body and the channel: both are closed when it returns. A mid-stream
// failure produces exactly one error chunk and ends the stream; partial
// content already delivered stands.
func (c *Client) readStream(ctx context.Context, body io.ReadCloser, chunks chan<- provider.StreamChunk) {
	defer close(chunks)
	defer body.Close()

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 4096), maxLineSize)

	totalChars := 0
	finishReason := ""

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			c.send(ctx, chunks, provider.StreamChunk{
				Err: provider.NewStreamError("anthropic", "stream cancelled", ctx.Err()),
			})
			return
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			// event: lines are redundant with the JSON type field
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" {
			continue
		}

		var event streamEvent
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			// Skip malformed events rather than killing the stream
			c.logger.Debug("skipping malformed stream event", zap.Error(err))
			continue
		}

		switch event.Type {
		case "content_block_delta":
			if event.Delta.Type != "text_delta" || event.Delta.Text == "" {
				continue
			}
			totalChars += len(event.Delta.Text)
			if !c.send(ctx, chunks, provider.StreamChunk{
				Delta:      event.Delta.Text,
				TokenCount: (totalChars + 3) / 4,
			}) {
				return
			}

		case "message_delta":
			if event.Delta.StopReason != "" {
				finishReason = event.Delta.StopReason
			}

		case "message_stop":
			c.send(ctx, chunks, provider.StreamChunk{
				Done:         true,
				TokenCount:   (totalChars + 3) / 4,
				FinishReason: finishReason,
			})
			return

		case "error":
			c.send(ctx, chunks, provider.StreamChunk{
				Err: provider.NewStreamError("anthropic", event.Error.Message, nil),
			})
			return
		}
	}

	if err := scanner.Err(); err != nil {
		c.send(ctx, chunks, provider.StreamChunk{
			Err: provider.NewStreamError("anthropic", "connection lost mid-stream", err),
		})
		return
	}

	// EOF without message_stop still terminates the message cleanly.
	c.send(ctx, chunks, provider.StreamChunk{
		Done:         true,
		TokenCount:   (totalChars + 3) / 4,
		FinishReason: finishReason,
	})
}

// send delivers a chunk unless the context is cancelled first.
// Returns false when the stream should stop.
func (c *Client) send(ctx context.Context, chunks chan<- provider.StreamChunk, chunk provider.StreamChunk) bool {
	select {
	case chunks <- chunk:
		return true
	case <-ctx.Done():
		return false
	}
}
