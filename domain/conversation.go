package domain

import (
	"strings"
	"time"
)

// ConversationID identifies the conversation between two participants.
// It does not depend on who started the conversation.
type ConversationID string

func (c ConversationID) String() string { return string(c) }

const conversationSeparator = ":"

// NewConversationID builds the order-independent id of the pair (a, b).
func NewConversationID(a, b UserID) ConversationID {
	if b < a {
		a, b = b, a
	}
	return ConversationID(string(a) + conversationSeparator + string(b))
}

// Participants returns both users of the conversation, in id order.
// ok is false if the id was not produced by NewConversationID.
func (c ConversationID) Participants() (first, second UserID, ok bool) {
	parts := strings.SplitN(string(c), conversationSeparator, 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return UserID(parts[0]), UserID(parts[1]), true
}

// Conversation groups every message exchanged by a pair of users.
type Conversation struct {
	ID           ConversationID
	Participants [2]UserID
	CreatedAt    time.Time
}

// Peer returns the participant that is not userID.
func (c Conversation) Peer(userID UserID) UserID {
	if c.Participants[0] == userID {
		return c.Participants[1]
	}
	return c.Participants[0]
}
