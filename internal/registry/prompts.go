// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package registry

// =============================================================================
// SYSTEM PROMPTS
// =============================================================================

// baselinePrompt is used when no model-specific prompt is registered.
const baselinePrompt = `You are a helpful assistant running inside a terminal chat client. ` +
	`Answer concisely. Format code in fenced blocks with a language tag.`

// modelPrompts holds per-model system prompt overrides. Most models share
// the baseline; entries here exist only where a model needs different
// steering.
var modelPrompts = map[string]string{
	"claude-3-5-haiku": `You are a fast, helpful assistant in a terminal chat client. ` +
		`Prefer short, direct answers. Format code in fenced blocks with a language tag.`,
	"gpt-4o-mini": `You are a fast, helpful assistant in a terminal chat client. ` +
		`Prefer short, direct answers. Format code in fenced blocks with a language tag.`,
}

// SystemPrompt returns the system prompt for a model, falling back to the
// baseline prompt for models without an override.
func SystemPrompt(modelID string) string {
	if p, ok := modelPrompts[modelID]; ok {
		return p
	}
	return baselinePrompt
}
