// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package contextmgr

import (
	"path/filepath"
	"strings"

	"github.com/jeranaias/kestrel-tui/internal/model"
)

// langTags maps file extensions to fence language tags so models see
// attached code with its language identified.
var langTags = map[string]string{
	".go":   "go",
	".py":   "python",
	".js":   "javascript",
	".ts":   "typescript",
	".rs":   "rust",
	".c":    "c",
	".h":    "c",
	".cpp":  "cpp",
	".java": "java",
	".rb":   "ruby",
	".sh":   "bash",
	".json": "json",
	".yaml": "yaml",
	".yml":  "yaml",
	".toml": "toml",
	".md":   "markdown",
	".html": "html",
	".css":  "css",
	".sql":  "sql",
}

// langTag returns the fence language tag for a path, or "" when unknown.
func langTag(path string) string {
	return langTags[strings.ToLower(filepath.Ext(path))]
}

// buildFileContext consolidates attached files into one system message,
// one fenced code block per file. A positive tokenCap bounds the total
// cost; content past the cap is cut and marked as truncated. Returns nil
// when there is nothing to attach.
func buildFileContext(files []FileContent, tokenCap int) *model.Message {
	var b strings.Builder
	b.WriteString("File context:\n")

	remaining := -1
	if tokenCap > 0 {
		// The estimator is chars/4, so the cap translates to a char budget.
		remaining = tokenCap * 4
	}

	wrote := false
	for _, f := range files {
		if f.Content == "" {
			continue
		}

		content := f.Content
		truncated := false
		if remaining >= 0 {
			if len(content) > remaining {
				content = content[:remaining]
				truncated = true
			}
			remaining -= len(content)
		}

		b.WriteString("\n" + f.Path + ":\n")
		b.WriteString("```" + langTag(f.Path) + "\n")
		b.WriteString(content)
		if truncated {
			b.WriteString("\n... [truncated]")
		}
		b.WriteString("\n```\n")
		wrote = true
	}

	if !wrote {
		return nil
	}

	msg := model.NewSystemMessage(b.String())
	msg.TokenCount = EstimateTokens(msg.Content)
	return msg
}
