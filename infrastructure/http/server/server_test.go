package server

import (
	"bytes"
	"context"
	"direct-chat/auth"
	"direct-chat/contract"
	"direct-chat/domain"
	"direct-chat/domain/event"
	"direct-chat/errors"
	"direct-chat/mocks"
	"direct-chat/services"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const testSecret = "a-test-secret-of-at-least-32-bytes!!"

type fixture struct {
	server      *HTTPServer
	tokenizer   *auth.Tokenizer
	lifecycle   *mocks.MockILifecycle
	authService *mocks.MockIAuthService
	directory   *mocks.MockIDirectoryService
	chat        *mocks.MockIChatService
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	tokenizer, err := auth.NewTokenizer(testSecret, time.Hour)
	require.NoError(t, err)
	f := fixture{
		tokenizer:   tokenizer,
		lifecycle:   mocks.NewMockILifecycle(ctrl),
		authService: mocks.NewMockIAuthService(ctrl),
		directory:   mocks.NewMockIDirectoryService(ctrl),
		chat:        mocks.NewMockIChatService(ctrl),
	}
	f.server = NewHTTPServer(logs.GetLoggerFromLevel(slog.LevelDebug),
		Options{ConnectionBufferSize: 4, PingInterval: time.Minute},
		f.lifecycle, f.authService, f.directory, f.chat, tokenizer)
	return f
}

func (f fixture) do(t *testing.T, method, path string, body any, userID domain.UserID) *httptest.ResponseRecorder {
	t.Helper()
	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}
	r := httptest.NewRequest(method, path, &payload)
	if userID != "" {
		token, err := f.tokenizer.GenerateToken(userID, []string{"user"})
		require.NoError(t, err)
		r.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, r)
	return w
}

func TestHTTPServer_Register_Returns_Token(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	f.authService.EXPECT().Register("alice@example.com", "Alice", "S3cure!pass").Return(services.Token("jwt"), nil).Times(1)

	w := f.do(t, http.MethodPost, "/api/auth/register",
		credentialsRequest{Email: "alice@example.com", DisplayName: "Alice", Password: "S3cure!pass"}, "")

	req.Equal(http.StatusCreated, w.Code)
	var body tokenResponse
	req.NoError(json.NewDecoder(w.Body).Decode(&body))
	req.Equal("jwt", body.Token)
}

func TestHTTPServer_Register_Conflict(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	f.authService.EXPECT().Register(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(services.Token(""), errors.ErrUserAlreadyExists).Times(1)

	w := f.do(t, http.MethodPost, "/api/auth/register", credentialsRequest{Email: "a@b.c"}, "")

	req.Equal(http.StatusConflict, w.Code)
}

func TestHTTPServer_Login_Invalid_Credentials(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	f.authService.EXPECT().Login("alice@example.com", "wrong").Return(services.Token(""), errors.ErrInvalidCredentials).Times(1)

	w := f.do(t, http.MethodPost, "/api/auth/login", credentialsRequest{Email: "alice@example.com", Password: "wrong"}, "")

	req.Equal(http.StatusUnauthorized, w.Code)
}

func TestHTTPServer_Malformed_Body(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	r := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader("{not json"))
	w := httptest.NewRecorder()

	f.server.Handler().ServeHTTP(w, r)

	req.Equal(http.StatusBadRequest, w.Code)
}

func TestHTTPServer_Protected_Routes_Require_Token(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	for _, path := range []string{"/api/users", "/api/conversations", "/api/conversations/bob/messages"} {
		w := f.do(t, http.MethodGet, path, nil, "")
		req.Equal(http.StatusUnauthorized, w.Code, path)
	}
}

func TestHTTPServer_Me(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/api/me", nil, "alice")

	req.Equal(http.StatusOK, w.Code)
	var body meResponse
	req.NoError(json.NewDecoder(w.Body).Decode(&body))
	req.Equal("alice", body.ID)
}

func TestHTTPServer_ListUsers(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	f.directory.EXPECT().ListUsers(domain.UserID("alice")).Return([]domain.Contact{
		{User: domain.User{ID: "bob", Email: "bob@example.com", DisplayName: "Bob"}, Online: true},
	}, nil).Times(1)

	w := f.do(t, http.MethodGet, "/api/users", nil, "alice")

	req.Equal(http.StatusOK, w.Code)
	var body []contactResponse
	req.NoError(json.NewDecoder(w.Body).Decode(&body))
	req.Equal([]contactResponse{{ID: "bob", Email: "bob@example.com", DisplayName: "Bob", Online: true}}, body)
}

func TestHTTPServer_SendMessage_Uses_Authenticated_Sender(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	message := domain.Message{
		ID:             uuid.New(),
		ConversationID: domain.NewConversationID("alice", "bob"),
		SenderID:       "alice",
		ReceiverID:     "bob",
		Body:           "hello",
		CreatedAt:      time.Now().UTC(),
	}
	f.chat.EXPECT().SendMessage(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, cmd domain.SendMessageCommand) (domain.Message, error) {
			req.EqualValues("alice", cmd.SenderID)
			req.EqualValues("bob", cmd.ReceiverID)
			req.Equal("hello", cmd.Body)
			return message, nil
		}).Times(1)

	w := f.do(t, http.MethodPost, "/api/messages", sendMessageRequest{ReceiverID: "bob", Body: "hello"}, "alice")

	req.Equal(http.StatusCreated, w.Code)
	var body event.MessagePayload
	req.NoError(json.NewDecoder(w.Body).Decode(&body))
	req.Equal(message.ID.String(), body.ID)
	req.Equal("alice:bob", body.ConversationID)
}

func TestHTTPServer_SendMessage_Errors(t *testing.T) {
	testCases := []struct {
		name   string
		err    error
		status int
	}{
		{"empty body", errors.ErrEmptyBody, http.StatusBadRequest},
		{"self message", errors.ErrSelfMessage, http.StatusBadRequest},
		{"too long", errors.ErrContentTooLong, http.StatusRequestEntityTooLarge},
		{"banned word", errors.ErrBannedContent, http.StatusUnprocessableEntity},
		{"unknown receiver", errors.ErrUserNotFound, http.StatusNotFound},
		{"store failure", context.DeadlineExceeded, http.StatusInternalServerError},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := require.New(t)
			f := newFixture(t)
			f.chat.EXPECT().SendMessage(gomock.Any(), gomock.Any()).Return(domain.Message{}, tc.err).Times(1)

			w := f.do(t, http.MethodPost, "/api/messages", sendMessageRequest{ReceiverID: "bob"}, "alice")

			req.Equal(tc.status, w.Code)
		})
	}
}

func TestHTTPServer_FetchConversation_With_Cursor(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	f.chat.EXPECT().FetchConversation(gomock.Any(), domain.FetchConversationCommand{
		RequesterID: "alice",
		PeerID:      "bob",
		Cursor:      lo.ToPtr("0001:abc"),
	}).Return([]domain.Message{{ID: uuid.New(), Body: "hi"}}, lo.ToPtr("0002:def"), nil).Times(1)

	w := f.do(t, http.MethodGet, "/api/conversations/bob/messages?cursor=0001:abc", nil, "alice")

	req.Equal(http.StatusOK, w.Code)
	var body historyResponse
	req.NoError(json.NewDecoder(w.Body).Decode(&body))
	req.Len(body.Messages, 1)
	req.Equal("hi", body.Messages[0].Body)
	req.Equal(lo.ToPtr("0002:def"), body.NextCursor)
}

func TestHTTPServer_ListConversations_Reports_Peer(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	f.chat.EXPECT().ListConversations(gomock.Any(), domain.UserID("bob")).Return([]domain.Conversation{
		{ID: domain.NewConversationID("alice", "bob"), Participants: [2]domain.UserID{"alice", "bob"}},
	}, nil).Times(1)

	w := f.do(t, http.MethodGet, "/api/conversations", nil, "bob")

	req.Equal(http.StatusOK, w.Code)
	var body []conversationResponse
	req.NoError(json.NewDecoder(w.Body).Decode(&body))
	req.Len(body, 1)
	req.Equal("alice", body[0].PeerID)
}

func TestHTTPServer_Websocket_Lifecycle(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	disconnected := make(chan struct{})

	// Given the lifecycle accepts the connection
	f.lifecycle.EXPECT().OnConnect(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, h contract.Handshake, _ contract.ConnectionHandle) (domain.UserID, error) {
			req.Equal("alice", h.Get("userId"))
			return "alice", nil
		}).Times(1)
	// Then the disconnect is reported with the same user
	f.lifecycle.EXPECT().OnDisconnect(gomock.Any(), domain.UserID("alice"), gomock.Any()).
		Do(func(context.Context, domain.UserID, contract.ConnectionHandle) { close(disconnected) }).Times(1)

	server := httptest.NewServer(f.server.Handler())
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?userId=alice"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	req.NoError(err)
	req.NoError(conn.Close())

	select {
	case <-disconnected:
	case <-time.After(2 * time.Second):
		req.Fail("disconnect was never reported")
	}
}

func TestHTTPServer_Websocket_Rejected(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	f.lifecycle.EXPECT().OnConnect(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ contract.Handshake, handle contract.ConnectionHandle) (domain.UserID, error) {
			_ = handle.Close()
			return "", errors.ErrUnidentifiedConnection
		}).Times(1)
	f.lifecycle.EXPECT().OnDisconnect(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	server := httptest.NewServer(f.server.Handler())
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	req.NoError(err)
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	_, _, err = conn.ReadMessage()
	req.Error(err)
	req.True(websocket.IsCloseError(err, websocket.CloseNormalClosure))
}
