package event

import (
	"direct-chat/domain"
	"fmt"
	"time"

	"github.com/samber/lo"
)

// Frame is the wire envelope of an event.
type Frame struct {
	Type    Kind `json:"type"`
	Payload any  `json:"payload"`
}

type PresencePayload struct {
	UserIDs []string `json:"userIds"`
}

type MessagePayload struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	SenderID       string    `json:"senderId"`
	ReceiverID     string    `json:"receiverId"`
	Body           string    `json:"body"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ToFrame converts an event to its wire envelope.
func ToFrame(e Event) (Frame, error) {
	switch evt := e.(type) {
	case PresenceUpdate:
		return Frame{
			Type: evt.Kind(),
			Payload: PresencePayload{
				UserIDs: lo.Map(evt.UserIDs, func(item domain.UserID, _ int) string {
					return item.String()
				}),
			},
		}, nil
	case NewMessage:
		return Frame{Type: evt.Kind(), Payload: ToMessagePayload(evt.Message)}, nil
	default:
		return Frame{}, fmt.Errorf("unsupported event %T", e)
	}
}

func ToMessagePayload(m domain.Message) MessagePayload {
	return MessagePayload{
		ID:             m.ID.String(),
		ConversationID: m.ConversationID.String(),
		SenderID:       m.SenderID.String(),
		ReceiverID:     m.ReceiverID.String(),
		Body:           m.Body,
		CreatedAt:      m.CreatedAt,
	}
}
