// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides conversation persistence for kestrel.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/kestrel-tui/internal/model"
	"github.com/jeranaias/kestrel-tui/internal/util"
)

// ErrConversationNotFound indicates no stored conversation has the given id.
var ErrConversationNotFound = errors.New("conversation not found")

// =============================================================================
// CONVERSATION META
// =============================================================================

// ConversationMeta is the listing view of a stored conversation, cheap
// enough to build for every file in the store.
type ConversationMeta struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	ModelID      string    `json:"model_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
}

// =============================================================================
// STORE
// =============================================================================

// Store persists conversations as one JSON file each under a base
// directory. Writes are atomic so a crash never corrupts a session.
type Store struct {
	// BaseDir is the directory holding conversation files.
	BaseDir string

	// MaxConversations limits stored conversations (0 = unlimited).
	// The oldest by update time are pruned first.
	MaxConversations int

	logger *zap.Logger
}

// NewStore creates a store rooted at baseDir, creating it if needed.
func NewStore(baseDir string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create conversations directory: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		BaseDir:          baseDir,
		MaxConversations: 100,
		logger:           logger,
	}, nil
}

// filePath returns the on-disk path for a conversation id.
func (s *Store) filePath(id string) string {
	// Sanitize: ids are generated internally but never trust them in paths
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, id)
	return filepath.Join(s.BaseDir, safe+".json")
}

// =============================================================================
// SAVE / LOAD
// =============================================================================

// Save persists a conversation. Empty conversations are skipped silently
// so autosave does not litter the store.
func (s *Store) Save(conv *model.Conversation) error {
	if conv == nil || conv.IsEmpty() {
		return nil
	}

	data, err := json.MarshalIndent(conv, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal conversation: %w", err)
	}

	// RELIABILITY: Atomic write with fsync prevents data loss on crash
	if err := util.AtomicWriteFile(s.filePath(conv.ID), data, 0644); err != nil {
		return err
	}
	s.logger.Debug("conversation saved",
		zap.String("id", conv.ID),
		zap.Int("messages", conv.MessageCount()),
	)

	if s.MaxConversations > 0 {
		s.enforceLimit()
	}
	return nil
}

// Load retrieves a conversation by id.
func (s *Store) Load(id string) (*model.Conversation, error) {
	data, err := os.ReadFile(s.filePath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}

	var conv model.Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, fmt.Errorf("failed to parse conversation %s: %w", id, err)
	}
	return &conv, nil
}

// Delete removes a stored conversation. Deleting a missing id is not an
// error.
func (s *Store) Delete(id string) error {
	err := os.Remove(s.filePath(id))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// =============================================================================
// LISTING AND SEARCH
// =============================================================================

// List returns metadata for all stored conversations, newest first.
func (s *Store) List() ([]ConversationMeta, error) {
	entries, err := os.ReadDir(s.BaseDir)
	if err != nil {
		return nil, err
	}

	metas := make([]ConversationMeta, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		conv, err := s.loadFile(filepath.Join(s.BaseDir, entry.Name()))
		if err != nil {
			// A single corrupt file must not hide the rest
			s.logger.Warn("skipping unreadable conversation file",
				zap.String("file", entry.Name()),
				zap.Error(err),
			)
			continue
		}
		metas = append(metas, ConversationMeta{
			ID:           conv.ID,
			Title:        conv.GetTitle(),
			ModelID:      conv.ModelID,
			CreatedAt:    conv.CreatedAt,
			UpdatedAt:    conv.UpdatedAt,
			MessageCount: conv.MessageCount(),
		})
	}

	sort.Slice(metas, func(i, j int) bool {
		return metas[i].UpdatedAt.After(metas[j].UpdatedAt)
	})
	return metas, nil
}

// ListByModel returns metadata for conversations belonging to one model.
func (s *Store) ListByModel(modelID string) ([]ConversationMeta, error) {
	all, err := s.List()
	if err != nil {
		return nil, err
	}
	metas := all[:0:0]
	for _, m := range all {
		if m.ModelID == modelID {
			metas = append(metas, m)
		}
	}
	return metas, nil
}

// Search returns conversations whose title or message content contains the
// query, case-insensitive, newest first.
func (s *Store) Search(query string) ([]ConversationMeta, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return s.List()
	}

	all, err := s.List()
	if err != nil {
		return nil, err
	}

	var matches []ConversationMeta
	for _, meta := range all {
		if strings.Contains(strings.ToLower(meta.Title), query) {
			matches = append(matches, meta)
			continue
		}
		conv, err := s.Load(meta.ID)
		if err != nil {
			continue
		}
		for _, msg := range conv.Messages {
			if strings.Contains(strings.ToLower(msg.Content), query) {
				matches = append(matches, meta)
				break
			}
		}
	}
	return matches, nil
}

// loadFile reads one conversation file.
func (s *Store) loadFile(path string) (*model.Conversation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var conv model.Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// enforceLimit prunes the oldest conversations past MaxConversations.
func (s *Store) enforceLimit() {
	metas, err := s.List()
	if err != nil || len(metas) <= s.MaxConversations {
		return
	}

	// List is newest first; prune from the tail
	for _, meta := range metas[s.MaxConversations:] {
		if err := s.Delete(meta.ID); err != nil {
			s.logger.Warn("failed to prune conversation",
				zap.String("id", meta.ID),
				zap.Error(err),
			)
		}
	}
}
