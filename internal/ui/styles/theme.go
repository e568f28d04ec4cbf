// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the kestrel TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds the styled components for the application. It detects the
// terminal's color capability and degrades gracefully on dumb terminals.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	ColorProfile termenv.Profile

	// Header
	Header      lipgloss.Style
	HeaderModel lipgloss.Style

	// Message labels
	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	SystemText     lipgloss.Style
	Timestamp      lipgloss.Style

	// Streaming indicator
	Spinner      lipgloss.Style
	StreamingTag lipgloss.Style

	// Error banner
	ErrorBox   lipgloss.Style
	ErrorTitle lipgloss.Style

	// Status bar
	StatusBar   lipgloss.Style
	StatusKey   lipgloss.Style
	StatusValue lipgloss.Style
	StatusWarn  lipgloss.Style

	// Input
	InputPrompt lipgloss.Style
}

// color palettes, dark first.
var (
	darkAccent  = lipgloss.Color("#7D56F4")
	darkUser    = lipgloss.Color("#43BF6D")
	darkAssist  = lipgloss.Color("#5A9BD5")
	darkMuted   = lipgloss.Color("#6B6B6B")
	darkError   = lipgloss.Color("#E05252")
	darkWarning = lipgloss.Color("#D5A021")

	lightAccent  = lipgloss.Color("#5A32C8")
	lightUser    = lipgloss.Color("#1E7A3E")
	lightAssist  = lipgloss.Color("#2A6CB0")
	lightMuted   = lipgloss.Color("#8A8A8A")
	lightError   = lipgloss.Color("#B02E2E")
	lightWarning = lipgloss.Color("#9A6E00")
)

// NewTheme builds a theme for the given variant ("dark" or "light").
func NewTheme(variant string) *Theme {
	dark := variant != "light"

	accent, user, assist, muted, errc, warn := darkAccent, darkUser, darkAssist, darkMuted, darkError, darkWarning
	if !dark {
		accent, user, assist, muted, errc, warn = lightAccent, lightUser, lightAssist, lightMuted, lightError, lightWarning
	}

	return &Theme{
		IsDark:       dark,
		ColorProfile: termenv.ColorProfile(),

		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(accent).
			Padding(0, 1),
		HeaderModel: lipgloss.NewStyle().
			Foreground(muted),

		UserLabel: lipgloss.NewStyle().
			Bold(true).
			Foreground(user),
		AssistantLabel: lipgloss.NewStyle().
			Bold(true).
			Foreground(assist),
		SystemText: lipgloss.NewStyle().
			Foreground(muted).
			Italic(true),
		Timestamp: lipgloss.NewStyle().
			Foreground(muted),

		Spinner: lipgloss.NewStyle().
			Foreground(accent),
		StreamingTag: lipgloss.NewStyle().
			Foreground(accent).
			Italic(true),

		ErrorBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(errc).
			Foreground(errc).
			Padding(0, 1),
		ErrorTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(errc),

		StatusBar: lipgloss.NewStyle().
			Foreground(muted),
		StatusKey: lipgloss.NewStyle().
			Bold(true).
			Foreground(accent),
		StatusValue: lipgloss.NewStyle().
			Foreground(muted),
		StatusWarn: lipgloss.NewStyle().
			Bold(true).
			Foreground(warn),

		InputPrompt: lipgloss.NewStyle().
			Bold(true).
			Foreground(accent),
	}
}
