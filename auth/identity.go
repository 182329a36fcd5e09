package auth

import (
	"direct-chat/contract"
	"direct-chat/domain"
	"direct-chat/errors"
	"fmt"
	"strings"
)

const (
	IdentityModeToken = "token"
	IdentityModeQuery = "query"

	UserIDParam  = "userId"
	UserIDHeader = "X-User-ID"
	TokenParam   = "token"
)

// QueryIdentity trusts the user id sent in the handshake as is.
// It is meant for trusted networks and local development.
type QueryIdentity struct{}

func (QueryIdentity) Extract(h contract.Handshake) (domain.UserID, error) {
	userID := domain.UserID(strings.TrimSpace(h.Get(UserIDParam)))
	if userID == "" {
		userID = domain.UserID(strings.TrimSpace(h.Get(UserIDHeader)))
	}
	if !userID.Valid() {
		return "", errors.ErrUnidentifiedConnection
	}
	return userID, nil
}

// TokenIdentity reads the user from a signed session token, sent either as
// the `token` parameter or as an `Authorization: Bearer` header.
type TokenIdentity struct {
	tokenizer *Tokenizer
}

func NewTokenIdentity(tokenizer *Tokenizer) TokenIdentity {
	return TokenIdentity{tokenizer: tokenizer}
}

func (t TokenIdentity) Extract(h contract.Handshake) (domain.UserID, error) {
	token := h.Get(TokenParam)
	if token == "" {
		token = BearerToken(h.Get("Authorization"))
	}
	if token == "" {
		return "", errors.ErrUnidentifiedConnection
	}
	claims, err := t.tokenizer.ValidateToken(token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrInvalidToken, err)
	}
	return domain.UserID(claims.UserID), nil
}

// NewIdentityExtractor selects the handshake identity strategy by name.
func NewIdentityExtractor(mode string, tokenizer *Tokenizer) (contract.IdentityExtractor, error) {
	switch mode {
	case IdentityModeToken, "":
		return NewTokenIdentity(tokenizer), nil
	case IdentityModeQuery:
		return QueryIdentity{}, nil
	default:
		return nil, fmt.Errorf("unknown identity mode %q", mode)
	}
}

// BearerToken extracts the token of a standard "Bearer <token>" header value.
func BearerToken(header string) string {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}
