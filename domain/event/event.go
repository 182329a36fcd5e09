// Package event defines the frames pushed from the server to connected clients.
package event

import "direct-chat/domain"

type Kind string

const (
	KindPresenceUpdate Kind = "presenceUpdate"
	KindNewMessage     Kind = "newMessage"
)

// Event is anything that can be pushed over a connection handle.
type Event interface {
	Kind() Kind
}

// PresenceUpdate carries the full set of users online at the time of the broadcast.
// Order is not meaningful.
type PresenceUpdate struct {
	UserIDs []domain.UserID
}

func (PresenceUpdate) Kind() Kind { return KindPresenceUpdate }

// NewMessage carries a message that was already persisted.
type NewMessage struct {
	Message domain.Message
}

func (NewMessage) Kind() Kind { return KindNewMessage }
