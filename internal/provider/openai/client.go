// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package openai implements the streaming client for the OpenAI API.
package openai

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jeranaias/kestrel-tui/internal/model"
	"github.com/jeranaias/kestrel-tui/internal/provider"
	"github.com/jeranaias/kestrel-tui/internal/registry"
)

// Configuration constants for the OpenAI API.
const (
	// DefaultBaseURL is the base URL for the OpenAI API.
	DefaultBaseURL = "https://api.openai.com/v1"

	// DefaultTimeout bounds non-streaming requests, including the
	// ValidateConfig probe.
	DefaultTimeout = 60 * time.Second

	// MaxResponseSize limits error response bodies.
	// SECURITY: Response size limit prevents memory exhaustion.
	MaxResponseSize = 10 * 1024 * 1024

	// chunkBuffer is the stream channel capacity.
	chunkBuffer = 64

	// validateTimeout bounds the ValidateConfig round trip.
	validateTimeout = 10 * time.Second
)

var (
	// PERFORMANCE: Connection pooling reduces TCP handshake overhead.
	// SECURITY: TLS 1.2+ enforced.
	sharedHTTPClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
		Timeout: DefaultTimeout,
	}

	// sharedStreamingClient has no timeout; streams are context-controlled.
	sharedStreamingClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
)

// Config holds the settings needed to build a Client.
type Config struct {
	// APIKey authenticates requests. Empty means not configured.
	APIKey string

	// BaseURL overrides the API endpoint, mainly for tests and proxies.
	BaseURL string

	// RequestsPerMinute throttles outbound requests. Zero disables
	// client-side throttling.
	RequestsPerMinute float64

	// MaxOutputTokens overrides the per-model completion cap when set.
	// Zero uses the model's catalog cap.
	MaxOutputTokens int

	// Models resolves model ids to their catalog entries. Nil uses the
	// built-in catalog.
	Models *registry.Registry
}

// Client streams completions from the OpenAI chat completions API.
type Client struct {
	apiKey          string
	baseURL         string
	maxOutputTokens int
	models          *registry.Registry
	limiter         *rate.Limiter
	logger          *zap.Logger
}

// New creates an OpenAI client. A nil logger disables logging.
func New(cfg Config, logger *zap.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	models := cfg.Models
	if models == nil {
		models = registry.NewRegistry()
	}
	var limiter *rate.Limiter
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerMinute/60), 1)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		apiKey:          strings.TrimSpace(cfg.APIKey),
		baseURL:         strings.TrimSuffix(baseURL, "/"),
		maxOutputTokens: cfg.MaxOutputTokens,
		models:          models,
		limiter:         limiter,
		logger:          logger,
	}
}

// Provider implements provider.Client.
func (c *Client) Provider() string {
	return "openai"
}

// ValidateConfig checks the key by listing models. Unlike the Anthropic
// adapter this does a live round trip, because the models endpoint is a
// cheap authenticated probe.
func (c *Client) ValidateConfig(ctx context.Context) bool {
	if c.apiKey == "" {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, validateTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := sharedHTTPClient.Do(req)
	if err != nil {
		c.logger.Debug("openai validation probe failed", zap.Error(err))
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, MaxResponseSize))

	return resp.StatusCode == http.StatusOK
}

// =============================================================================
// WIRE TYPES
// =============================================================================

// wireMessage is one conversation turn. System prompts ride inline as
// ordinary messages, unlike the Anthropic API.
type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest is the request body for the chat completions endpoint.
type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []wireMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
	Stream    bool          `json:"stream"`
}

// apiErrorResponse is the error body shape.
type apiErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// =============================================================================
// STREAMING
// =============================================================================

// StreamCompletion implements provider.Client. The model id must resolve
// to an OpenAI catalog entry; anything else is rejected before the request
// leaves the process.
func (c *Client) StreamCompletion(ctx context.Context, messages []*model.Message, modelID string) (<-chan provider.StreamChunk, error) {
	if c.apiKey == "" {
		return nil, &provider.ConfigurationError{
			Provider: "openai",
			Message:  "API key not set",
			Cause:    provider.ErrNotConfigured,
		}
	}

	modelCfg, ok := c.models.Lookup(modelID)
	if !ok || modelCfg.Provider != registry.ProviderOpenAI {
		return nil, fmt.Errorf("%w: %s", provider.ErrInvalidModel, modelID)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	reqBody := c.buildRequest(messages, modelID, c.outputCap(modelCfg))
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := sharedStreamingClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
		resp.Body.Close()
		return nil, c.handleErrorResponse(resp.StatusCode, body)
	}

	c.logger.Debug("openai stream started", zap.String("model", modelID))

	chunks := make(chan provider.StreamChunk, chunkBuffer)
	go c.readStream(ctx, resp.Body, chunks)
	return chunks, nil
}

// outputCap returns the max_tokens value for a request. A configured
// client-level cap wins, then the model's catalog cap. Zero omits the
// field and lets the provider decide.
func (c *Client) outputCap(modelCfg *registry.ModelConfig) int {
	if c.maxOutputTokens > 0 {
		return c.maxOutputTokens
	}
	return modelCfg.MaxOutputTokens
}

// buildRequest converts prepared messages into the wire request. Message
// order is preserved; system prompts stay inline.
func (c *Client) buildRequest(messages []*model.Message, modelID string, maxTokens int) *chatRequest {
	req := &chatRequest{
		Model:     modelID,
		MaxTokens: maxTokens,
		Stream:    true,
	}
	for _, msg := range messages {
		content := msg.GetDisplayContent()
		if content == "" {
			continue
		}
		req.Messages = append(req.Messages, wireMessage{
			Role:    msg.Role.String(),
			Content: content,
		})
	}
	return req
}

// handleErrorResponse converts HTTP error responses to Go errors.
func (c *Client) handleErrorResponse(statusCode int, body []byte) error {
	message := string(body)
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		message = apiErr.Error.Message
	}

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", provider.ErrAuthFailed, message)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", provider.ErrRateLimited, message)
	default:
		return fmt.Errorf("openai error (HTTP %d): %s", statusCode, message)
	}
}
