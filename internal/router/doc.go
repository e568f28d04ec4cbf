// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package router maps model ids to provider clients.
//
// The router owns a read-only view of the model catalog and the set of
// provider clients built at startup. Requests for unknown models are
// rejected before any client is touched; requests for known models whose
// provider lacks a client (missing API key) fail with
// ErrNoClientForProvider.
//
// # Usage
//
//	r := router.New(reg, []provider.Client{anthropicClient, openaiClient}, logger)
//	chunks, err := r.StreamCompletion(ctx, messages, "gpt-4o")
package router
