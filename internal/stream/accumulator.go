// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream decouples network-rate chunk ingest from UI-rate flushes.
package stream

import (
	"strings"
	"sync"
)

// =============================================================================
// SNAPSHOT
// =============================================================================

// Snapshot is one published view of an in-flight completion. Snapshots
// carry the whole accumulated content, not a delta, so a consumer can
// always replace its display state wholesale.
type Snapshot struct {
	// Content is everything received so far.
	Content string

	// TokenCount is the latest running token estimate.
	TokenCount int

	// Done marks the final snapshot of the stream.
	Done bool

	// FinishReason is set on the final snapshot when known.
	FinishReason string

	// Err is set on the final snapshot when the stream failed. Content
	// still holds whatever arrived before the failure.
	Err error
}

// =============================================================================
// ACCUMULATOR
// =============================================================================

// Accumulator collects deltas from the ingest goroutine while the flush
// goroutine reads snapshots on its own cadence. All methods are safe for
// concurrent use.
//
// PERFORMANCE: strings.Builder avoids quadratic allocations during streaming
type Accumulator struct {
	mu           sync.Mutex
	content      strings.Builder
	tokenCount   int
	finishReason string
	dirty        bool
}

// NewAccumulator creates an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Append adds a delta and updates the running token count.
func (a *Accumulator) Append(delta string, tokenCount int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.content.WriteString(delta)
	if tokenCount > a.tokenCount {
		a.tokenCount = tokenCount
	}
	a.dirty = true
}

// SetFinishReason records the provider's stop reason.
func (a *Accumulator) SetFinishReason(reason string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if reason != "" {
		a.finishReason = reason
	}
}

// Snapshot returns the current accumulated state and clears the dirty flag.
func (a *Accumulator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.dirty = false
	return Snapshot{
		Content:      a.content.String(),
		TokenCount:   a.tokenCount,
		FinishReason: a.finishReason,
	}
}

// Dirty reports whether new content arrived since the last Snapshot call.
func (a *Accumulator) Dirty() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dirty
}

// Len returns the accumulated content length in bytes.
func (a *Accumulator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.content.Len()
}
