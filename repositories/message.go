//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"direct-chat/domain"
	"direct-chat/errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protowire"
)

type IConversationRepository interface {
	CreateOrGetConversation(userA, userB domain.UserID) (domain.ConversationID, error)
	AppendMessage(conversationID domain.ConversationID, senderID, receiverID domain.UserID, body string) (domain.Message, error)
	FetchMessages(conversationID domain.ConversationID, cursor *string) ([]domain.Message, *string, error)
	ListConversations(userID domain.UserID) ([]domain.Conversation, error)
}

const (
	conversationPrefix     = "conv:"
	userConversationPrefix = "uconv:"
	messagePrefix          = "msg:"
)

type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) MessageRepository {
	return MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

// CreateOrGetConversation is idempotent: both participants always resolve
// to the same conversation, whoever asks first.
func (m MessageRepository) CreateOrGetConversation(userA, userB domain.UserID) (domain.ConversationID, error) {
	if !userA.Valid() || !userB.Valid() {
		return "", errors.ErrInvalidConversationKey
	}
	conversationID := domain.NewConversationID(userA, userB)
	key := []byte(conversationPrefix + conversationID.String())

	err := m.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		switch {
		case err == nil:
			return nil
		case err != badger.ErrKeyNotFound:
			return err
		}

		first, second, _ := conversationID.Participants()
		conversation := domain.Conversation{
			ID:           conversationID,
			Participants: [2]domain.UserID{first, second},
			CreatedAt:    time.Now().UTC(),
		}
		if err = txn.Set(key, encodeConversation(conversation)); err != nil {
			return err
		}
		for _, participant := range conversation.Participants {
			if err = txn.Set(userConversationKey(participant, conversationID), []byte{}); err != nil {
				return err
			}
		}
		m.log.Debug("Conversation created", "conversation_id", conversationID)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("create conversation %s: %w", conversationID, err)
	}
	return conversationID, nil
}

// AppendMessage persists a message in BadgerDB and returns it once committed.
// The key is formatted as "msg:{conversation_id}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  2. Prevent data loss by using UUID as a collision disconnector if two messages
//     arrive at the same nanosecond.
func (m MessageRepository) AppendMessage(conversationID domain.ConversationID,
	senderID, receiverID domain.UserID, body string) (domain.Message, error) {
	message := domain.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		SenderID:       senderID,
		ReceiverID:     receiverID,
		Body:           body,
		CreatedAt:      time.Now().UTC(),
	}
	key := fmt.Sprintf("%s%s:%019d:%s",
		messagePrefix,
		conversationID,
		message.CreatedAt.UnixNano(),
		message.ID,
	)

	err := m.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte(conversationPrefix + conversationID.String())); err != nil {
			if err == badger.ErrKeyNotFound {
				return errors.ErrConversationNotFound
			}
			return err
		}
		return txn.Set([]byte(key), encodeMessage(message))
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("append message to %s: %w", conversationID, err)
	}
	return message, nil
}

// FetchMessages returns the history of a conversation, oldest first.
// When limitMessages is set, the returned cursor points after the last
// message of the page and can be passed back to read the next one.
// A nil cursor means the history is exhausted.
func (m MessageRepository) FetchMessages(conversationID domain.ConversationID,
	cursor *string) ([]domain.Message, *string, error) {
	var messages []domain.Message
	var nextCursor *string

	err := m.db.View(func(txn *badger.Txn) error {
		prefixStr := messagePrefix + conversationID.String() + ":"
		prefix := []byte(prefixStr)
		prefixLen := len(prefixStr)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		seekKey := prefix
		if cursor != nil {
			seekKey = append([]byte(prefixStr), []byte(*cursor)...)
		}
		it.Seek(seekKey)

		// The cursor is the last key already returned
		if cursor != nil && it.ValidForPrefix(prefix) && string(it.Item().Key()[prefixLen:]) == *cursor {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if m.limitMessages != nil && len(messages) == *m.limitMessages {
				m.log.Debug(fmt.Sprintf("Maximum of %d message reached", *m.limitMessages))
				lastKey := lastCursor(messages)
				nextCursor = &lastKey
				break
			}
			item := it.Item()
			err := item.Value(func(value []byte) error {
				message, err := decodeMessage(value)
				if err != nil {
					return err
				}
				messages = append(messages, message)
				return nil
			})
			if err != nil {
				return fmt.Errorf("decode %s: %w", item.Key(), err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return messages, nextCursor, nil
}

// ListConversations returns every conversation a user takes part in.
func (m MessageRepository) ListConversations(userID domain.UserID) ([]domain.Conversation, error) {
	var conversations []domain.Conversation
	err := m.db.View(func(txn *badger.Txn) error {
		prefixStr := userConversationPrefix + userID.String() + ":"
		prefix := []byte(prefixStr)
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			conversationID := strings.TrimPrefix(string(it.Item().Key()), prefixStr)
			item, err := txn.Get([]byte(conversationPrefix + conversationID))
			if err != nil {
				return fmt.Errorf("conversation %s: %w", conversationID, err)
			}
			err = item.Value(func(value []byte) error {
				conversation, err := decodeConversation(value)
				if err != nil {
					return err
				}
				conversations = append(conversations, conversation)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return conversations, err
}

func userConversationKey(userID domain.UserID, conversationID domain.ConversationID) []byte {
	return []byte(userConversationPrefix + userID.String() + ":" + conversationID.String())
}

// lastCursor rebuilds the key suffix of the last message of a page.
func lastCursor(messages []domain.Message) string {
	last := messages[len(messages)-1]
	return fmt.Sprintf("%019d:%s", last.CreatedAt.UnixNano(), last.ID)
}

const (
	messageFieldID protowire.Number = iota + 1
	messageFieldConversation
	messageFieldSender
	messageFieldReceiver
	messageFieldBody
	messageFieldAt
)

func encodeMessage(message domain.Message) []byte {
	var b []byte
	b = appendString(b, messageFieldID, message.ID.String())
	b = appendString(b, messageFieldConversation, message.ConversationID.String())
	b = appendString(b, messageFieldSender, message.SenderID.String())
	b = appendString(b, messageFieldReceiver, message.ReceiverID.String())
	b = appendString(b, messageFieldBody, message.Body)
	b = appendVarint(b, messageFieldAt, uint64(message.CreatedAt.UnixNano()))
	return b
}

func decodeMessage(b []byte) (domain.Message, error) {
	var message domain.Message
	var rawID string
	err := fieldVisitor{
		onString: func(num protowire.Number, v string) {
			switch num {
			case messageFieldID:
				rawID = v
			case messageFieldConversation:
				message.ConversationID = domain.ConversationID(v)
			case messageFieldSender:
				message.SenderID = domain.UserID(v)
			case messageFieldReceiver:
				message.ReceiverID = domain.UserID(v)
			case messageFieldBody:
				message.Body = v
			}
		},
		onVarint: func(num protowire.Number, v uint64) {
			if num == messageFieldAt {
				message.CreatedAt = time.Unix(0, int64(v)).UTC()
			}
		},
	}.consume(b)
	if err != nil {
		return domain.Message{}, err
	}
	parsedID, err := uuid.Parse(rawID)
	if err != nil {
		return domain.Message{}, err
	}
	message.ID = parsedID
	return message, nil
}

const (
	conversationFieldID protowire.Number = iota + 1
	conversationFieldFirst
	conversationFieldSecond
	conversationFieldAt
)

func encodeConversation(conversation domain.Conversation) []byte {
	var b []byte
	b = appendString(b, conversationFieldID, conversation.ID.String())
	b = appendString(b, conversationFieldFirst, conversation.Participants[0].String())
	b = appendString(b, conversationFieldSecond, conversation.Participants[1].String())
	b = appendVarint(b, conversationFieldAt, uint64(conversation.CreatedAt.UnixNano()))
	return b
}

func decodeConversation(b []byte) (domain.Conversation, error) {
	var conversation domain.Conversation
	err := fieldVisitor{
		onString: func(num protowire.Number, v string) {
			switch num {
			case conversationFieldID:
				conversation.ID = domain.ConversationID(v)
			case conversationFieldFirst:
				conversation.Participants[0] = domain.UserID(v)
			case conversationFieldSecond:
				conversation.Participants[1] = domain.UserID(v)
			}
		},
		onVarint: func(num protowire.Number, v uint64) {
			if num == conversationFieldAt {
				conversation.CreatedAt = time.Unix(0, int64(v)).UTC()
			}
		},
	}.consume(b)
	return conversation, err
}

// DecodeMessage exposes the record codec to offline tools.
func DecodeMessage(b []byte) (domain.Message, error) { return decodeMessage(b) }

// DecodeConversation exposes the record codec to offline tools.
func DecodeConversation(b []byte) (domain.Conversation, error) { return decodeConversation(b) }
