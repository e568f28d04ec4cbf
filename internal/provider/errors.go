// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"errors"
	"fmt"
)

// =============================================================================
// ERROR TAXONOMY
// =============================================================================

// Sentinel errors for common failure classes.
var (
	// ErrInvalidModel indicates the requested model id is not in the catalog.
	ErrInvalidModel = errors.New("invalid model")

	// ErrNotConfigured indicates the provider's API key is not set.
	ErrNotConfigured = errors.New("provider not configured")

	// ErrAuthFailed indicates the provider rejected the credentials.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrRateLimited indicates the provider throttled the request.
	ErrRateLimited = errors.New("rate limited")
)

// ConfigurationError describes a misconfigured provider client with enough
// detail to tell the user what to fix.
type ConfigurationError struct {
	Provider string
	Message  string
	Cause    error
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s configuration error: %s: %v", e.Provider, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s configuration error: %s", e.Provider, e.Message)
}

// Unwrap returns the underlying cause.
func (e *ConfigurationError) Unwrap() error {
	return e.Cause
}

// StreamError describes a failure that occurred after a stream started.
// Partial output delivered before the failure is kept, not retracted, so
// the message names the provider for the user-facing error banner.
type StreamError struct {
	Provider string
	Message  string
	Cause    error
}

// Error implements the error interface.
func (e *StreamError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s stream error: %s: %v", e.Provider, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s stream error: %s", e.Provider, e.Message)
}

// Unwrap returns the underlying cause.
func (e *StreamError) Unwrap() error {
	return e.Cause
}

// NewStreamError wraps a mid-stream failure with its provider name.
func NewStreamError(provider, message string, cause error) *StreamError {
	return &StreamError{Provider: provider, Message: message, Cause: cause}
}

// IsStreamError reports whether err is (or wraps) a StreamError.
func IsStreamError(err error) bool {
	var se *StreamError
	return errors.As(err, &se)
}

// IsConfigurationError reports whether err is (or wraps) a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// UserMessage converts a provider error into a short actionable string for
// display. Unknown errors fall through to their Error text.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrInvalidModel):
		return "Unknown model. Use /models to list available models."
	case errors.Is(err, ErrNotConfigured):
		return "Provider not configured. Set the API key in config or environment."
	case errors.Is(err, ErrAuthFailed):
		return "Authentication failed. Check your API key."
	case errors.Is(err, ErrRateLimited):
		return "Rate limited by the provider. Wait a moment and retry."
	default:
		return err.Error()
	}
}
