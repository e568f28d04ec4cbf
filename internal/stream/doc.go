// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream bridges provider chunk streams to the UI.
//
// Providers emit chunks at network rate, often far faster than a terminal
// can usefully redraw. The consumer runs two loops: an ingest goroutine
// that drains chunks into a mutex-guarded accumulator, and a flush
// goroutine that publishes whole-content snapshots on a fixed cadence
// (33ms by default). When the stream ends, one final snapshot with Done
// set delivers the complete content, so no trailing fragment is ever lost
// between ticks.
//
// # Key Types
//
//   - Consumer: Dual-loop chunk-to-snapshot bridge
//   - Accumulator: Concurrent content accumulator
//   - Snapshot: Whole-content view published to the UI
//
// # Usage
//
//	consumer := stream.NewConsumer(stream.DefaultFlushInterval, logger)
//	err := consumer.Run(ctx, chunks, func(s stream.Snapshot) {
//	    program.Send(snapshotMsg{s})
//	})
package stream
