// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package router dispatches completion requests to the right provider client.
package router

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/jeranaias/kestrel-tui/internal/model"
	"github.com/jeranaias/kestrel-tui/internal/provider"
	"github.com/jeranaias/kestrel-tui/internal/registry"
)

// ErrNoClientForProvider indicates a cataloged model whose provider has no
// registered client, usually because its API key is missing.
var ErrNoClientForProvider = errors.New("no client registered for provider")

// =============================================================================
// ROUTER
// =============================================================================

// Router resolves a model id to its provider client. The client map is
// built once at startup and read-only afterwards, so Router is safe for
// concurrent use without locking.
type Router struct {
	registry *registry.Registry
	clients  map[string]provider.Client
	logger   *zap.Logger
}

// New creates a router over the given catalog and clients. Clients are
// keyed by their Provider() name. A nil logger disables logging.
func New(reg *registry.Registry, clients []provider.Client, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	byName := make(map[string]provider.Client, len(clients))
	for _, c := range clients {
		byName[c.Provider()] = c
	}
	return &Router{
		registry: reg,
		clients:  byName,
		logger:   logger,
	}
}

// StreamCompletion looks up the model, resolves its client, and starts the
// stream. Unknown models fail here, before any network activity.
func (r *Router) StreamCompletion(ctx context.Context, messages []*model.Message, modelID string) (<-chan provider.StreamChunk, error) {
	cfg, ok := r.registry.Lookup(modelID)
	if !ok {
		r.logger.Warn("rejected request for unknown model", zap.String("model", modelID))
		return nil, fmt.Errorf("%w: %s", provider.ErrInvalidModel, modelID)
	}

	client, ok := r.clients[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoClientForProvider, cfg.Provider)
	}

	r.logger.Debug("routing completion",
		zap.String("model", modelID),
		zap.String("provider", cfg.Provider),
		zap.Int("messages", len(messages)),
	)
	return client.StreamCompletion(ctx, messages, modelID)
}

// Lookup exposes catalog lookups so callers can size context windows.
func (r *Router) Lookup(modelID string) (*registry.ModelConfig, bool) {
	return r.registry.Lookup(modelID)
}

// AvailableProviders returns the provider names with a registered client,
// sorted for stable display. Clients are only constructed for configured
// credentials; this does no live probing, which belongs to
// ValidateAllClients so the UI path stays off the network.
func (r *Router) AvailableProviders() []string {
	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasClient reports whether a client is registered for the provider.
func (r *Router) HasClient(providerName string) bool {
	_, ok := r.clients[providerName]
	return ok
}

// ValidateAllClients probes every registered client and returns the
// result per provider name. Used at startup to surface misconfiguration
// before the first request.
func (r *Router) ValidateAllClients(ctx context.Context) map[string]bool {
	results := make(map[string]bool, len(r.clients))
	for name, client := range r.clients {
		ok := client.ValidateConfig(ctx)
		results[name] = ok
		if !ok {
			r.logger.Warn("provider failed validation", zap.String("provider", name))
		}
	}
	return results
}
