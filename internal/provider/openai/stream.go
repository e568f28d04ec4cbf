// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package openai

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/jeranaias/kestrel-tui/internal/provider"
)

// maxLineSize bounds a single SSE line (64KB).
const maxLineSize = 64 * 1024

// =============================================================================
// SSE CHUNK TYPE
// =============================================================================

// streamChunk is one decoded SSE payload from the chat completions stream.
type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// =============================================================================
// STREAM READER
// =============================================================================

// readStream parses the SSE response body and forwards chunks. The stream
// ends at the "[DONE]" sentinel. It owns the body and the channel; a
// mid-stream failure produces exactly one error chunk.
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
				Err: provider.NewStreamError("openai", "stream cancelled", ctx.Err()),
			})
			return
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" {
			continue
		}

		if data == "[DONE]" {
			c.send(ctx, chunks, provider.StreamChunk{
				Done:         true,
				TokenCount:   (totalChars + 3) / 4,
				FinishReason: finishReason,
			})
			return
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			c.logger.Debug("skipping malformed stream chunk", zap.Error(err))
			continue
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		choice := chunk.Choices[0]
		if choice.FinishReason != "" {
			finishReason = choice.FinishReason
		}
		if choice.Delta.Content == "" {
			continue
		}

		totalChars += len(choice.Delta.Content)
		if !c.send(ctx, chunks, provider.StreamChunk{
			Delta:      choice.Delta.Content,
			TokenCount: (totalChars + 3) / 4,
		}) {
			return
		}
	}

	if err := scanner.Err(); err != nil {
		c.send(ctx, chunks, provider.StreamChunk{
			Err: provider.NewStreamError("openai", "connection lost mid-stream", err),
		})
		return
	}

	// EOF without [DONE] still terminates the message cleanly.
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
