// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jeranaias/kestrel-tui/internal/provider"
)

// DefaultFlushInterval is the UI refresh cadence. ~30fps is smooth enough
// for reading while keeping terminal redraw cost low.
const DefaultFlushInterval = 33 * time.Millisecond

// =============================================================================
// CONSUMER
// =============================================================================

// Consumer runs the dual-loop bridge between a provider chunk stream and a
// display callback. Chunks arrive at network rate on one goroutine; the
// publish callback fires at a fixed cadence on another. After both loops
// stop, exactly one final snapshot is published with Done set, carrying
// the complete content regardless of ticker phase.
type Consumer struct {
	flushInterval time.Duration
	logger        *zap.Logger
}

// NewConsumer creates a consumer. A non-positive interval uses the
// default; a nil logger disables logging.
func NewConsumer(flushInterval time.Duration, logger *zap.Logger) *Consumer {
	if flushInterval <= 0 {
		flushInterval = DefaultFlushInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Consumer{flushInterval: flushInterval, logger: logger}
}

// Run consumes the chunk channel until it terminates, invoking publish with
// intermediate snapshots on the flush cadence and a final Done snapshot
// once afterwards. Publish is never called concurrently. Run returns the
// stream error, if any; the same error also rides on the final snapshot.
func (c *Consumer) Run(ctx context.Context, chunks <-chan provider.StreamChunk, publish func(Snapshot)) error {
	acc := NewAccumulator()
	stop := make(chan struct{})
	var streamErr error

	g, gctx := errgroup.WithContext(ctx)

	// Ingest loop: drain chunks at network rate.
	g.Go(func() error {
		defer close(stop)
		for {
			select {
			case <-gctx.Done():
				streamErr = provider.NewStreamError("stream", "cancelled", gctx.Err())
				return nil
			case chunk, ok := <-chunks:
				if !ok {
					return nil
				}
				if chunk.Err != nil {
					streamErr = chunk.Err
					return nil
				}
				if chunk.Delta != "" {
					acc.Append(chunk.Delta, chunk.TokenCount)
				}
				if chunk.FinishReason != "" {
					acc.SetFinishReason(chunk.FinishReason)
				}
				if chunk.Done {
					return nil
				}
			}
		}
	})

	// Flush loop: publish on a fixed cadence, only when content changed.
	g.Go(func() error {
		ticker := time.NewTicker(c.flushInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return nil
			case <-ticker.C:
				if acc.Dirty() {
					publish(acc.Snapshot())
				}
			}
		}
	})

	if err := g.Wait(); err != nil {
		// Loops only return nil; keep the contract explicit anyway.
		streamErr = err
	}

	// Exactly one final publish with the complete content. This is what
	// guarantees the last fragment is never lost to ticker phase.
	final := acc.Snapshot()
	final.Done = true
	final.Err = streamErr

	c.logger.Debug("stream consumed",
		zap.Int("tokens", final.TokenCount),
		zap.Int("bytes", len(final.Content)),
		zap.Bool("failed", streamErr != nil),
	)
	publish(final)
	return streamErr
}
