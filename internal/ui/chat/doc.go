// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the interactive chat interface as a Bubble Tea
// model. It owns one conversation per model id, dispatches slash commands,
// and bridges provider streams into the UI through snapshot messages.
//
// # Key Types
//
//   - Model: the Bubble Tea model holding all UI and conversation state
//   - Deps: the services injected at construction
//   - StreamSnapshotMsg: carries accumulated stream content into Update
//
// # Streaming
//
// A send spawns the stream consumer on its own goroutine; it publishes
// snapshots into a channel that a blocking tea.Cmd drains one at a time.
// Each applied snapshot re-arms the command, so the UI repaints at the
// consumer's flush cadence rather than at network chunk rate. The final
// snapshot carries the complete content and tears the stream down.
//
// # Usage
//
//	m := chat.New(chat.Deps{Config: cfg, Models: reg, Router: r, Store: store, Logger: logger})
//	p := tea.NewProgram(m, tea.WithAltScreen())
//	_, err := p.Run()
package chat
