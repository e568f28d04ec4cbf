// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package contextmgr selects which conversation history accompanies each
// provider request.
//
// Models have a finite context window; long conversations do not fit. The
// manager spends a fixed token budget in two phases: a sliding window of the
// newest messages (capped by its own size limit), then a backfill pass that
// admits the oldest remaining messages into whatever budget is left. A
// reserve is always held back so the model has room to respond.
//
// # Key Types
//
//   - Config: Window size and budget knobs for one model
//   - Manager: Two-phase message selector
//   - Result: The prepared message slice plus selection counts
//
// # Usage
//
//	mgr := contextmgr.NewManager(contextmgr.Config{
//	    MaxTokens:         128000,
//	    SlidingWindowSize: 4000,
//	}, logger)
//	res := mgr.PrepareContext(systemPrompt, nil, conv.GetHistory())
//	// res.Messages is ready to send
package contextmgr
