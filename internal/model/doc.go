// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// This package defines the core domain types used throughout the application
// for representing chat conversations and their messages.
//
// # Key Types
//
//   - Conversation: Container for one model's chat session with messages and metadata
//   - Message: Single message with role, content, timestamp, and token statistics
//   - Role: Message role enumeration (user, assistant, system)
//   - Statistics: Timing and token metrics for a streamed generation
//
// # Usage
//
// Create a new conversation and add messages:
//
//	conv := model.NewConversation("claude-3-5-sonnet")
//	conv.AddUserMessage("Hello!")
//	msg := conv.AddAssistantMessage()
//	msg.SetStreamContent("Hi there", 2)
//	conv.FinalizeLast(nil)
package model
