// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package registry holds the static catalog of models kestrel can talk to.
//
// The catalog maps model ids to their provider, context window size, and
// output limits. It is built once at startup and read-only afterwards, so
// lookups need no locking.
//
// # Key Types
//
//   - ModelConfig: Static descriptor for one hosted model
//   - Registry: Read-only id-to-config catalog with provider filtering
//
// # Usage
//
//	reg := registry.NewRegistry()
//	cfg, ok := reg.Lookup("claude-3-5-sonnet")
//	if !ok {
//	    // unknown model
//	}
//	prompt := registry.SystemPrompt(cfg.ID)
package registry
