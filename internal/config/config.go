// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for kestrel.
//
// Configuration is TOML with sensible defaults and environment variable
// overrides. There is no global config object; the loaded Config is passed
// explicitly to the components that need it.
//
// Locations (in order of precedence):
//   - KESTREL_CONFIG environment variable (explicit path)
//   - ~/.kestrel/config.toml
//   - Built-in defaults
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/kestrel-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete kestrel configuration.
type Config struct {
	// DefaultModel is the model selected at startup.
	DefaultModel string `toml:"default_model"`

	// Context controls history selection per request.
	Context ContextConfig `toml:"context"`

	// Stream controls UI flush behavior.
	Stream StreamConfig `toml:"stream"`

	// Providers holds per-provider credentials and endpoints.
	Providers ProvidersConfig `toml:"providers"`

	// UI holds display settings.
	UI UIConfig `toml:"ui"`
}

// ContextConfig tunes the context window manager.
type ContextConfig struct {
	// SlidingWindowTokens caps the recent-message window budget.
	SlidingWindowTokens int `toml:"sliding_window_tokens"`
}

// StreamConfig tunes the stream consumer.
type StreamConfig struct {
	// FlushIntervalMs is the UI flush cadence in milliseconds.
	// Clamped to [16, 500].
	FlushIntervalMs int `toml:"flush_interval_ms"`
}

// ProvidersConfig groups the provider credential blocks.
type ProvidersConfig struct {
	Anthropic ProviderConfig `toml:"anthropic"`
	OpenAI    ProviderConfig `toml:"openai"`
}

// ProviderConfig holds one provider's connection settings.
type ProviderConfig struct {
	// APIKey authenticates requests. Prefer the environment variable over
	// storing keys in the file.
	APIKey string `toml:"api_key"`

	// BaseURL overrides the provider endpoint (proxies, gateways).
	BaseURL string `toml:"base_url"`

	// RequestsPerMinute throttles outbound requests. Zero disables.
	RequestsPerMinute float64 `toml:"requests_per_minute"`
}

// UIConfig holds display settings.
type UIConfig struct {
	// Theme selects the color theme: "dark" or "light".
	Theme string `toml:"theme"`

	// ShowStats displays per-response timing in the status bar.
	ShowStats bool `toml:"show_stats"`

	// Markdown enables glamour rendering of assistant messages.
	Markdown bool `toml:"markdown"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DefaultModel: "claude-3-5-sonnet",
		Context: ContextConfig{
			SlidingWindowTokens: 4000,
		},
		Stream: StreamConfig{
			FlushIntervalMs: 33,
		},
		UI: UIConfig{
			Theme:     "dark",
			ShowStats: true,
			Markdown:  true,
		},
	}
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns the kestrel configuration directory (~/.kestrel).
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".kestrel"), nil
}

// ConfigPath returns the path of the TOML config file.
func ConfigPath() (string, error) {
	if p := os.Getenv("KESTREL_CONFIG"); p != "" {
		return p, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConversationsDir returns the directory for persisted conversations.
func ConversationsDir() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "conversations"), nil
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads the config file, applies environment overrides, and validates.
// A missing file is not an error; defaults are used.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from an explicit path.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.Clamp()
	return cfg, nil
}

// ApplyEnvOverrides applies environment variables over file values.
// API keys come from the conventional provider variables.
func (c *Config) ApplyEnvOverrides() {
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		c.Providers.Anthropic.APIKey = key
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.Providers.OpenAI.APIKey = key
	}
	if model := os.Getenv("KESTREL_DEFAULT_MODEL"); model != "" {
		c.DefaultModel = model
	}
	if ms := os.Getenv("KESTREL_FLUSH_MS"); ms != "" {
		if v, err := strconv.Atoi(ms); err == nil {
			c.Stream.FlushIntervalMs = v
		}
	}
}

// Clamp forces out-of-range values back to usable bounds rather than
// failing startup over a typo.
func (c *Config) Clamp() {
	if c.Stream.FlushIntervalMs < 16 {
		c.Stream.FlushIntervalMs = 16
	}
	if c.Stream.FlushIntervalMs > 500 {
		c.Stream.FlushIntervalMs = 500
	}
	if c.Context.SlidingWindowTokens <= 0 {
		c.Context.SlidingWindowTokens = Default().Context.SlidingWindowTokens
	}
	if c.UI.Theme != "dark" && c.UI.Theme != "light" {
		c.UI.Theme = "dark"
	}
	if c.DefaultModel == "" {
		c.DefaultModel = Default().DefaultModel
	}
}

// HasAnyProvider reports whether at least one provider has credentials.
func (c *Config) HasAnyProvider() bool {
	return c.Providers.Anthropic.APIKey != "" || c.Providers.OpenAI.APIKey != ""
}

// =============================================================================
// SAVING
// =============================================================================

// Save writes the configuration atomically with owner-only permissions,
// since the file may hold API keys.
func Save(cfg *Config, path string) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	// SECURITY: 0600, config may contain API keys
	return util.AtomicWriteFile(path, buf.Bytes(), 0600)
}
