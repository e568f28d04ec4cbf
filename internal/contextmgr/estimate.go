// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package contextmgr

import (
	"github.com/jeranaias/kestrel-tui/internal/model"
)

// =============================================================================
// TOKEN ESTIMATION
// =============================================================================

// EstimateTokens approximates the token count of a string at roughly four
// characters per token, rounding up. Partial tokens count as whole ones.
// Exact tokenization varies per provider; this estimate is deliberately
// simple and errs toward overcounting short strings.
func EstimateTokens(s string) int {
	return (len(s) + 3) / 4
}

// CalculateTotalTokens sums the effective token counts of a message slice.
// Messages with a recorded count use it; the rest are estimated from content.
func CalculateTotalTokens(messages []*model.Message) int {
	total := 0
	for _, msg := range messages {
		if msg == nil {
			continue
		}
		total += msg.EffectiveTokens()
	}
	return total
}

// ExceedsContextWindow reports whether a message slice plus the response
// reserve would overflow the given context window.
func ExceedsContextWindow(messages []*model.Message, maxTokens int) bool {
	return CalculateTotalTokens(messages)+ResponseReserve > maxTokens
}
