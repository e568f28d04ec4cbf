// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package registry provides the static model registry for kestrel.
package registry

import (
	"sort"
)

// =============================================================================
// PROVIDER NAMES
// =============================================================================

// Provider identifiers used to route a model to its streaming client.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// =============================================================================
// MODEL CONFIG
// =============================================================================

// ModelConfig is the static descriptor for a hosted model. Configs are
// loaded once at process start and never mutated.
type ModelConfig struct {
	// ID is the model identifier as sent on the wire (e.g. "gpt-4o").
	ID string

	// Name is the human-readable display name.
	Name string

	// Provider selects the streaming client for this model.
	Provider string

	// ContextWindowTokens is the model's maximum input token budget.
	ContextWindowTokens int

	// MaxOutputTokens caps the completion length requested from the provider.
	MaxOutputTokens int

	// Capabilities lists coarse feature tags (e.g. "vision", "code").
	Capabilities []string
}

// HasCapability reports whether the model advertises the given tag.
func (m *ModelConfig) HasCapability(tag string) bool {
	for _, c := range m.Capabilities {
		if c == tag {
			return true
		}
	}
	return false
}

// =============================================================================
// REGISTRY
// =============================================================================

// Registry holds the fixed set of known models. It is built once at
// startup and is read-only thereafter, so it is safe for concurrent use.
type Registry struct {
	models map[string]*ModelConfig
}

// builtinModels is the fixed model catalog.
var builtinModels = []*ModelConfig{
	{
		ID:                  "claude-3-5-sonnet",
		Name:                "Claude 3.5 Sonnet",
		Provider:            ProviderAnthropic,
		ContextWindowTokens: 200000,
		MaxOutputTokens:     8192,
		Capabilities:        []string{"code", "vision"},
	},
	{
		ID:                  "claude-3-5-haiku",
		Name:                "Claude 3.5 Haiku",
		Provider:            ProviderAnthropic,
		ContextWindowTokens: 200000,
		MaxOutputTokens:     8192,
		Capabilities:        []string{"code"},
	},
	{
		ID:                  "claude-3-opus",
		Name:                "Claude 3 Opus",
		Provider:            ProviderAnthropic,
		ContextWindowTokens: 200000,
		MaxOutputTokens:     4096,
		Capabilities:        []string{"code", "vision"},
	},
	{
		ID:                  "gpt-4o",
		Name:                "GPT-4o",
		Provider:            ProviderOpenAI,
		ContextWindowTokens: 128000,
		MaxOutputTokens:     16384,
		Capabilities:        []string{"code", "vision"},
	},
	{
		ID:                  "gpt-4o-mini",
		Name:                "GPT-4o mini",
		Provider:            ProviderOpenAI,
		ContextWindowTokens: 128000,
		MaxOutputTokens:     16384,
		Capabilities:        []string{"code"},
	},
	{
		ID:                  "gpt-4-turbo",
		Name:                "GPT-4 Turbo",
		Provider:            ProviderOpenAI,
		ContextWindowTokens: 128000,
		MaxOutputTokens:     4096,
		Capabilities:        []string{"code", "vision"},
	},
}

// NewRegistry creates a registry populated with the built-in model catalog.
func NewRegistry() *Registry {
	return NewRegistryWithModels(builtinModels)
}

// NewRegistryWithModels creates a registry from an explicit model list.
// Used by tests and by config-driven catalog extension.
func NewRegistryWithModels(models []*ModelConfig) *Registry {
	r := &Registry{
		models: make(map[string]*ModelConfig, len(models)),
	}
	for _, m := range models {
		r.models[m.ID] = m
	}
	return r
}

// Lookup returns the config for a model id, or false when unknown.
func (r *Registry) Lookup(modelID string) (*ModelConfig, bool) {
	m, ok := r.models[modelID]
	return m, ok
}

// All returns every known model, sorted by id for stable display.
func (r *Registry) All() []*ModelConfig {
	models := make([]*ModelConfig, 0, len(r.models))
	for _, m := range r.models {
		models = append(models, m)
	}
	sort.Slice(models, func(i, j int) bool {
		return models[i].ID < models[j].ID
	})
	return models
}

// ByProvider returns the models served by one provider, sorted by id.
func (r *Registry) ByProvider(provider string) []*ModelConfig {
	var models []*ModelConfig
	for _, m := range r.models {
		if m.Provider == provider {
			models = append(models, m)
		}
	}
	sort.Slice(models, func(i, j int) bool {
		return models[i].ID < models[j].ID
	})
	return models
}

// Providers returns the distinct provider names present in the catalog.
func (r *Registry) Providers() []string {
	seen := make(map[string]bool)
	var providers []string
	for _, m := range r.models {
		if !seen[m.Provider] {
			seen[m.Provider] = true
			providers = append(providers, m.Provider)
		}
	}
	sort.Strings(providers)
	return providers
}
