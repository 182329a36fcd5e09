// Package domain contains core concepts of the chat system.
// This file defines Message events and related rules.
// Messages are immutable once produced by the store.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message represents an immutable, persisted chat message between two users.
type Message struct {
	ID             uuid.UUID
	ConversationID ConversationID
	SenderID       UserID
	ReceiverID     UserID
	Body           string
	CreatedAt      time.Time
}
