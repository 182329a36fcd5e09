package server

import (
	"direct-chat/auth"
	"direct-chat/domain"
	"direct-chat/domain/event"
	"direct-chat/errors"
	"encoding/json"
	"net/http"
	"time"

	"github.com/samber/lo"
)

const maxRequestSize = 1 << 20

type credentialsRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
	Password    string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type sendMessageRequest struct {
	ReceiverID string `json:"receiverId"`
	Body       string `json:"body"`
}

type contactResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Online      bool   `json:"online"`
}

type conversationResponse struct {
	ID        string    `json:"id"`
	PeerID    string    `json:"peerId"`
	CreatedAt time.Time `json:"createdAt"`
}

type historyResponse struct {
	Messages   []event.MessagePayload `json:"messages"`
	NextCursor *string                `json:"nextCursor,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *HTTPServer) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) register(w http.ResponseWriter, r *http.Request) {
	var body credentialsRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	token, err := s.authService.Register(body.Email, body.DisplayName, body.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tokenResponse{Token: token.String()})
}

func (s *HTTPServer) login(w http.ResponseWriter, r *http.Request) {
	var body credentialsRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	token, err := s.authService.Login(body.Email, body.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token.String()})
}

type meResponse struct {
	ID string `json:"id"`
}

func (s *HTTPServer) me(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	writeJSON(w, http.StatusOK, meResponse{ID: userID.String()})
}

func (s *HTTPServer) listUsers(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	contacts, err := s.directoryService.ListUsers(userID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lo.Map(contacts, func(item domain.Contact, _ int) contactResponse {
		return contactResponse{
			ID:          item.ID.String(),
			Email:       item.Email,
			DisplayName: item.DisplayName,
			Online:      item.Online,
		}
	}))
}

func (s *HTTPServer) sendMessage(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	var body sendMessageRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	message, err := s.chatService.SendMessage(r.Context(), domain.SendMessageCommand{
		SenderID:   userID,
		ReceiverID: domain.UserID(body.ReceiverID),
		Body:       body.Body,
		At:         time.Now().UTC(),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, event.ToMessagePayload(message))
}

func (s *HTTPServer) listConversations(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	conversations, err := s.chatService.ListConversations(r.Context(), userID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lo.Map(conversations, func(item domain.Conversation, _ int) conversationResponse {
		return conversationResponse{
			ID:        item.ID.String(),
			PeerID:    item.Peer(userID).String(),
			CreatedAt: item.CreatedAt,
		}
	}))
}

func (s *HTTPServer) fetchConversation(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	var cursor *string
	if c := r.URL.Query().Get("cursor"); c != "" {
		cursor = lo.ToPtr(c)
	}
	messages, next, err := s.chatService.FetchConversation(r.Context(), domain.FetchConversationCommand{
		RequesterID: userID,
		PeerID:      domain.UserID(r.PathValue("peerId")),
		Cursor:      cursor,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{
		Messages:   lo.Map(messages, func(item domain.Message, _ int) event.MessagePayload { return event.ToMessagePayload(item) }),
		NextCursor: next,
	})
}

func (s *HTTPServer) writeError(w http.ResponseWriter, err error) {
	status := errors.MapToHTTPStatus(err)
	if status == http.StatusInternalServerError {
		s.log.Error("Request failed", "error", err)
		writeJSON(w, status, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: errors.ErrInvalidRequest.Error()})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
