// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists conversations as JSON files.
//
// Each conversation lives in its own file under the store's base directory
// (~/.kestrel/conversations/ by default). Writes go through an atomic
// temp-file-and-rename so a crash mid-save never corrupts history. The
// store also supports listing, case-insensitive search, pruning to a
// maximum count, and markdown export.
//
// # Key Types
//
//   - Store: File-per-conversation JSON store with pruning
//   - ConversationMeta: Lightweight listing view
//
// # Usage
//
//	store, err := storage.NewStore(dir, logger)
//	_ = store.Save(conv)
//	metas, _ := store.List()
package storage
