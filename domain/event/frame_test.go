package event

import (
	"direct-chat/domain"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestToFrame_PresenceUpdate(t *testing.T) {
	req := require.New(t)

	frame, err := ToFrame(PresenceUpdate{UserIDs: []domain.UserID{"A", "B"}})

	req.NoError(err)
	raw, err := json.Marshal(frame)
	req.NoError(err)
	req.JSONEq(`{"type":"presenceUpdate","payload":{"userIds":["A","B"]}}`, string(raw))
}

func TestToFrame_Empty_Presence_Is_An_Empty_List(t *testing.T) {
	req := require.New(t)

	frame, err := ToFrame(PresenceUpdate{})

	req.NoError(err)
	raw, err := json.Marshal(frame)
	req.NoError(err)
	req.JSONEq(`{"type":"presenceUpdate","payload":{"userIds":[]}}`, string(raw))
}

func TestToFrame_NewMessage(t *testing.T) {
	req := require.New(t)
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	message := domain.Message{
		ID:             uuid.MustParse("7b0c2f3e-59c5-4bb8-9d0a-2f0a1c7e2b11"),
		ConversationID: domain.NewConversationID("A", "B"),
		SenderID:       "A",
		ReceiverID:     "B",
		Body:           "hi",
		CreatedAt:      at,
	}

	frame, err := ToFrame(NewMessage{Message: message})

	req.NoError(err)
	req.Equal(KindNewMessage, frame.Type)
	raw, err := json.Marshal(frame)
	req.NoError(err)
	req.JSONEq(`{"type":"newMessage","payload":{
		"id":"7b0c2f3e-59c5-4bb8-9d0a-2f0a1c7e2b11",
		"conversationId":"A:B",
		"senderId":"A",
		"receiverId":"B",
		"body":"hi",
		"createdAt":"2026-01-02T03:04:05Z"}}`, string(raw))
}
