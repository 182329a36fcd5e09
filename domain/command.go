package domain

import "time"

// SendMessageCommand is the intent of a sender to write to a receiver.
type SendMessageCommand struct {
	SenderID   UserID `validate:"required"`
	ReceiverID UserID `validate:"required,nefield=SenderID"`
	Body       string `validate:"required"`
	At         time.Time
}

// FetchConversationCommand asks for the history shared by a requester and a peer.
type FetchConversationCommand struct {
	RequesterID UserID
	PeerID      UserID
	Cursor      *string
}
