// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThemeVariants(t *testing.T) {
	assert.True(t, NewTheme("dark").IsDark)
	assert.False(t, NewTheme("light").IsDark)

	// Anything unrecognized falls back to dark.
	assert.True(t, NewTheme("").IsDark)
	assert.True(t, NewTheme("solarized").IsDark)
}
