// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package anthropic implements the streaming client for the Anthropic API.
package anthropic

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jeranaias/kestrel-tui/internal/model"
	"github.com/jeranaias/kestrel-tui/internal/provider"
	"github.com/jeranaias/kestrel-tui/internal/registry"
)

// Configuration constants for the Anthropic API.
const (
	// DefaultBaseURL is the base URL for the Anthropic API.
	DefaultBaseURL = "https://api.anthropic.com/v1"

	// apiVersion is the required anthropic-version header value.
	apiVersion = "2023-06-01"

	// DefaultTimeout bounds non-streaming requests.
	DefaultTimeout = 60 * time.Second

	// DefaultMaxOutputTokens is the completion cap when the model config
	// does not provide one.
	DefaultMaxOutputTokens = 4096

	// MaxResponseSize limits error response bodies.
	// SECURITY: Response size limit prevents memory exhaustion.
	MaxResponseSize = 10 * 1024 * 1024

	// chunkBuffer is the stream channel capacity. Bounded so a stalled
	// consumer applies backpressure instead of growing memory.
	chunkBuffer = 64
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
	MaxOutputTokens int

	// Models resolves model ids to their catalog entries. Nil uses the
	// built-in catalog.
	Models *registry.Registry
}

// Client streams completions from the Anthropic messages API.
type Client struct {
	apiKey          string
	baseURL         string
	maxOutputTokens int
	models          *registry.Registry
	limiter         *rate.Limiter
	logger          *zap.Logger
}

// New creates an Anthropic client. A nil logger disables logging.
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
	return "anthropic"
}

// ValidateConfig reports whether the client has a key and a parseable
// endpoint. The Anthropic API has no cheap unauthenticated probe, so no
// network round trip is made here.
func (c *Client) ValidateConfig(ctx context.Context) bool {
	if c.apiKey == "" {
		return false
	}
	u, err := url.Parse(c.baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return false
	}
	return true
}

// =============================================================================
// WIRE TYPES
// =============================================================================

// wireMessage is one conversation turn in the request body.
type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// messagesRequest is the request body for the messages endpoint. The system
// prompt travels out-of-band in the top-level System field, not in Messages.
type messagesRequest struct {
	Model     string        `json:"model"`
	System    string        `json:"system,omitempty"`
	Messages  []wireMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
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

// StreamCompletion implements provider.Client. The system prompt is lifted
// out of the message slice into the request's top-level system field. The
// model id must resolve to an Anthropic catalog entry; anything else is
// rejected before the request leaves the process.
func (c *Client) StreamCompletion(ctx context.Context, messages []*model.Message, modelID string) (<-chan provider.StreamChunk, error) {
	if c.apiKey == "" {
		return nil, &provider.ConfigurationError{
			Provider: "anthropic",
			Message:  "API key not set",
			Cause:    provider.ErrNotConfigured,
		}
	}

	modelCfg, ok := c.models.Lookup(modelID)
	if !ok || modelCfg.Provider != registry.ProviderAnthropic {
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

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	// PERFORMANCE: Streaming client has no timeout, lifetime is ctx-bound
	resp, err := sharedStreamingClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
		resp.Body.Close()
		return nil, c.handleErrorResponse(resp.StatusCode, body)
	}

	c.logger.Debug("anthropic stream started", zap.String("model", modelID))

	chunks := make(chan provider.StreamChunk, chunkBuffer)
	go c.readStream(ctx, resp.Body, chunks)
	return chunks, nil
}

// outputCap returns the max_tokens value for a request. A configured
// client-level cap wins, then the model's catalog cap. The messages API
// requires the field, so a default backstops both.
func (c *Client) outputCap(modelCfg *registry.ModelConfig) int {
	if c.maxOutputTokens > 0 {
		return c.maxOutputTokens
	}
	if modelCfg.MaxOutputTokens > 0 {
		return modelCfg.MaxOutputTokens
	}
	return DefaultMaxOutputTokens
}

// buildRequest converts prepared messages into the wire request.
func (c *Client) buildRequest(messages []*model.Message, modelID string, maxTokens int) *messagesRequest {
	req := &messagesRequest{
		Model:     modelID,
		MaxTokens: maxTokens,
		Stream:    true,
	}

	var system strings.Builder
	for _, msg := range messages {
		content := msg.GetDisplayContent()
		if content == "" {
			continue
		}
		switch msg.Role {
		case model.RoleSystem:
			if system.Len() > 0 {
				system.WriteString("\n\n")
			}
			system.WriteString(content)
		case model.RoleUser:
			req.Messages = append(req.Messages, wireMessage{Role: "user", Content: content})
		case model.RoleAssistant:
			req.Messages = append(req.Messages, wireMessage{Role: "assistant", Content: content})
		}
	}
	req.System = system.String()
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
		return fmt.Errorf("anthropic error (HTTP %d): %s", statusCode, message)
	}
}
