package auth

import (
	"direct-chat/errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testSecret = "a-test-secret-that-is-long-enough-for-hs256"

func TestHashAndCompare(t *testing.T) {
	req := require.New(t)
	password := "MyPasswordIsTo0Strong!"

	hash, err := HashPassword(password)
	req.NoError(err)
	req.True(strings.HasPrefix(hash, "$argon2id$"))

	match, err := ComparePassword(password, hash)
	req.NoError(err)
	req.True(match)

	match, err = ComparePassword("WrongPassword", hash)
	req.NoError(err)
	req.False(match)
}

func TestCompareRejectsMalformedHash(t *testing.T) {
	req := require.New(t)

	_, err := ComparePassword("whatever", "$bcrypt$nope")
	req.Error(err)
}

func TestRegistrationValidation(t *testing.T) {
	tests := []struct {
		name    string
		req     RegisterRequest
		wantErr bool
	}{
		{"Valid request", RegisterRequest{"test@example.com", "Test", "ComplexPass123!"}, false},
		{"Invalid email", RegisterRequest{"notanemail", "Test", "ComplexPass123!"}, true},
		{"Missing display name", RegisterRequest{"test@example.com", "", "ComplexPass123!"}, true},
		{"Password too short", RegisterRequest{"test@example.com", "Test", "Short1!"}, true},
		{"Missing digit", RegisterRequest{"test@example.com", "Test", "NoDigitPass!"}, true},
		{"Missing special char", RegisterRequest{"test@example.com", "Test", "NoSpecialChar123"}, true},
		{"Missing uppercase", RegisterRequest{"test@example.com", "Test", "nouppercase123!"}, true},
		{"Password too long (edge case)", RegisterRequest{"test@example.com", "Test", strings.Repeat("a", 73)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			err := ValidateRegister(tt.req)
			if tt.wantErr {
				req.Error(err)
			} else {
				req.NoError(err)
			}
		})
	}
}

func TestTokenRoundTrip(t *testing.T) {
	req := require.New(t)
	tokenizer, err := NewTokenizer(testSecret, time.Hour)
	req.NoError(err)

	token, err := tokenizer.GenerateToken("user-123", []string{"user"})
	req.NoError(err)

	claims, err := tokenizer.ValidateToken(token)
	req.NoError(err)
	req.Equal("user-123", claims.UserID)
	req.Equal([]string{"user"}, claims.Roles)
}

func TestTokenFromAnotherSecretIsRejected(t *testing.T) {
	req := require.New(t)
	issuer, err := NewTokenizer(testSecret, time.Hour)
	req.NoError(err)
	verifier, err := NewTokenizer(strings.Repeat("x", 32), time.Hour)
	req.NoError(err)

	token, err := issuer.GenerateToken("user-123", nil)
	req.NoError(err)

	_, err = verifier.ValidateToken(token)
	req.Error(err)
}

func TestExpiredTokenIsRejected(t *testing.T) {
	req := require.New(t)
	tokenizer, err := NewTokenizer(testSecret, -time.Minute)
	req.NoError(err)

	token, err := tokenizer.GenerateToken("user-123", nil)
	req.NoError(err)

	_, err = tokenizer.ValidateToken(token)
	req.Error(err)
}

func TestShortSecretIsRefused(t *testing.T) {
	_, err := NewTokenizer("short", time.Hour)
	require.Error(t, err)
}

type handshake map[string]string

func (h handshake) Get(key string) string { return h[key] }

func TestQueryIdentity(t *testing.T) {
	req := require.New(t)

	userID, err := QueryIdentity{}.Extract(handshake{UserIDParam: "alice"})
	req.NoError(err)
	req.EqualValues("alice", userID)

	userID, err = QueryIdentity{}.Extract(handshake{UserIDHeader: "bob"})
	req.NoError(err)
	req.EqualValues("bob", userID)

	_, err = QueryIdentity{}.Extract(handshake{})
	req.ErrorIs(err, errors.ErrUnidentifiedConnection)

	_, err = QueryIdentity{}.Extract(handshake{UserIDParam: "a:b"})
	req.ErrorIs(err, errors.ErrUnidentifiedConnection)
}

func TestTokenIdentity(t *testing.T) {
	req := require.New(t)
	tokenizer, err := NewTokenizer(testSecret, time.Hour)
	req.NoError(err)
	identity := NewTokenIdentity(tokenizer)
	token, err := tokenizer.GenerateToken("alice", nil)
	req.NoError(err)

	userID, err := identity.Extract(handshake{TokenParam: token})
	req.NoError(err)
	req.EqualValues("alice", userID)

	userID, err = identity.Extract(handshake{"Authorization": "Bearer " + token})
	req.NoError(err)
	req.EqualValues("alice", userID)

	_, err = identity.Extract(handshake{})
	req.ErrorIs(err, errors.ErrUnidentifiedConnection)

	_, err = identity.Extract(handshake{TokenParam: "garbage"})
	req.ErrorIs(err, errors.ErrInvalidToken)
}

func TestNewIdentityExtractor(t *testing.T) {
	req := require.New(t)
	tokenizer, err := NewTokenizer(testSecret, time.Hour)
	req.NoError(err)

	extractor, err := NewIdentityExtractor(IdentityModeQuery, tokenizer)
	req.NoError(err)
	req.IsType(QueryIdentity{}, extractor)

	extractor, err = NewIdentityExtractor(IdentityModeToken, tokenizer)
	req.NoError(err)
	req.IsType(TokenIdentity{}, extractor)

	_, err = NewIdentityExtractor("cookie", tokenizer)
	req.Error(err)
}
