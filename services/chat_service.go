//go:generate go run go.uber.org/mock/mockgen -source=chat_service.go -destination=../mocks/mock_chat_service.go -package=mocks
package services

import (
	"context"
	"direct-chat/auth"
	"direct-chat/contract"
	"direct-chat/domain"
	"direct-chat/errors"
	"direct-chat/repositories"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"
)

type IChatService interface {
	SendMessage(ctx context.Context, cmd domain.SendMessageCommand) (domain.Message, error)
	FetchConversation(ctx context.Context, cmd domain.FetchConversationCommand) ([]domain.Message, *string, error)
	ListConversations(ctx context.Context, userID domain.UserID) ([]domain.Conversation, error)
}

// ChatService is the send and fetch path sitting in front of the store.
// A message is handed to the dispatcher only after the store acknowledged it.
type ChatService struct {
	log                    *slog.Logger
	conversationRepository repositories.IConversationRepository
	userRepository         repositories.IUserRepository
	dispatcher             contract.IDispatcher
	maxContentLength       int
	contentFilter          ContentFilter
}

// ContentFilter refuses a body before anything is stored.
type ContentFilter interface {
	Rejects(body string) bool
}

func NewChatService(log *slog.Logger, conversationRepository repositories.IConversationRepository,
	userRepository repositories.IUserRepository, dispatcher contract.IDispatcher,
	maxContentLength int, contentFilter ContentFilter) *ChatService {
	return &ChatService{
		log:                    log,
		conversationRepository: conversationRepository,
		userRepository:         userRepository,
		dispatcher:             dispatcher,
		maxContentLength:       maxContentLength,
		contentFilter:          contentFilter,
	}
}

func (s *ChatService) SendMessage(ctx context.Context, cmd domain.SendMessageCommand) (domain.Message, error) {
	if err := s.validate(cmd); err != nil {
		return domain.Message{}, err
	}

	if _, err := s.userRepository.GetUserByID(cmd.ReceiverID); err != nil {
		return domain.Message{}, fmt.Errorf("receiver %s: %w", cmd.ReceiverID, err)
	}

	conversationID, err := s.conversationRepository.CreateOrGetConversation(cmd.SenderID, cmd.ReceiverID)
	if err != nil {
		return domain.Message{}, err
	}

	message, err := s.conversationRepository.AppendMessage(conversationID, cmd.SenderID, cmd.ReceiverID, cmd.Body)
	if err != nil {
		// Nothing was persisted, so nothing may be delivered.
		return domain.Message{}, err
	}

	s.log.Debug("Message persisted", "message_id", message.ID, "conversation_id", conversationID)

	// The sender may hang up right after its request, the push must still happen.
	s.dispatcher.Dispatch(context.WithoutCancel(ctx), message)
	return message, nil
}

func (s *ChatService) validate(cmd domain.SendMessageCommand) error {
	switch {
	case strings.TrimSpace(cmd.Body) == "":
		return errors.ErrEmptyBody
	case cmd.SenderID == cmd.ReceiverID:
		return errors.ErrSelfMessage
	case s.maxContentLength > 0 && utf8.RuneCountInString(cmd.Body) > s.maxContentLength:
		return errors.ErrContentTooLong
	case !cmd.SenderID.Valid() || !cmd.ReceiverID.Valid():
		return errors.ErrInvalidRequest
	case s.contentFilter != nil && s.contentFilter.Rejects(cmd.Body):
		return errors.ErrBannedContent
	}
	return auth.ValidateStruct(cmd)
}

// FetchConversation is the pull path used by clients that missed realtime delivery.
func (s *ChatService) FetchConversation(_ context.Context, cmd domain.FetchConversationCommand) ([]domain.Message, *string, error) {
	if !cmd.RequesterID.Valid() || !cmd.PeerID.Valid() {
		return nil, nil, errors.ErrInvalidConversationKey
	}
	conversationID := domain.NewConversationID(cmd.RequesterID, cmd.PeerID)
	return s.conversationRepository.FetchMessages(conversationID, cmd.Cursor)
}

func (s *ChatService) ListConversations(_ context.Context, userID domain.UserID) ([]domain.Conversation, error) {
	return s.conversationRepository.ListConversations(userID)
}
