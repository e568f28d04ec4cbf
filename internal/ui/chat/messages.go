// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/kestrel-tui/internal/config"
	"github.com/jeranaias/kestrel-tui/internal/stream"
)

// =============================================================================
// MESSAGE TYPES
// =============================================================================

// StreamSnapshotMsg delivers an accumulated snapshot from the stream
// consumer to the UI loop. Snapshots arrive on the flush cadence; the
// final one has Done set.
type StreamSnapshotMsg struct {
	Snapshot stream.Snapshot
}

// streamStartFailedMsg reports that a request failed before any chunk
// arrived, for example an unknown model or a missing API key.
type streamStartFailedMsg struct {
	Err error
}

// ConfigReloadedMsg delivers a fresh config from the file watcher. Display
// settings take effect immediately; provider credentials require a restart.
type ConfigReloadedMsg struct {
	Config *config.Config
}
