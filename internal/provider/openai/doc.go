// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package openai implements the provider.Client adapter for the OpenAI
// chat completions API.
//
// System prompts ride inline as ordinary messages, message order is
// preserved as prepared, and the SSE stream terminates at the "[DONE]"
// sentinel. ValidateConfig does a live GET /models round trip since that
// endpoint is a cheap authenticated probe.
package openai
