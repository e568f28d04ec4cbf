// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package provider defines the contract between kestrel and LLM backends.
//
// Each backend implements Client: start a streaming completion, emit
// StreamChunk values on a channel, close the channel when done. Mid-stream
// failures travel on the same channel as an error chunk so consumers have a
// single place to watch.
//
// Concrete adapters live in the subpackages anthropic and openai.
//
// # Key Types
//
//   - Client: Streaming adapter interface implemented per provider
//   - StreamChunk: One increment of a streaming completion
//   - StreamError: Mid-stream failure carrying the provider name
//   - ConfigurationError: Misconfiguration detail for startup validation
package provider
