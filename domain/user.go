// Package domain contains core concepts of the chat system.
// This file defines user identities and accounts.
// No runtime, network, or transport logic should be added here.
package domain

import (
	"strings"
	"time"
)

// UserID is the opaque identifier of an account.
// The presence core never generates one, it only receives it at connection time.
type UserID string

func (u UserID) String() string { return string(u) }

// User is a registered account as seen by the rest of the system.
type User struct {
	ID          UserID
	Email       string
	DisplayName string
	CreatedAt   time.Time
}

// Contact is a directory entry returned to a requester.
type Contact struct {
	User
	Online bool
}

// Valid reports whether the id can be used as a conversation participant.
// The separator of conversation ids is reserved.
func (u UserID) Valid() bool {
	return u != "" && !strings.Contains(string(u), conversationSeparator)
}
