package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

var (
	ErrWorkerPanic            = fmt.Errorf("worker panic")
	ErrUnidentifiedConnection = fmt.Errorf("unidentified connection")
	ErrHandleClosed           = fmt.Errorf("connection handle closed")
	ErrBackpressure           = fmt.Errorf("connection handle buffer full")

	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrUserNotFound       = fmt.Errorf("user not found")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity requirements")
	ErrInvalidRequest     = fmt.Errorf("invalid request")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
	ErrInvalidToken       = fmt.Errorf("invalid or expired token")

	ErrEmptyBody              = fmt.Errorf("message body is empty")
	ErrContentTooLong         = fmt.Errorf("message body is too long")
	ErrSelfMessage            = fmt.Errorf("sender and receiver are the same user")
	ErrBannedContent          = fmt.Errorf("message body contains a banned word")
	ErrConversationNotFound   = fmt.Errorf("conversation not found")
	ErrInvalidConversationKey = fmt.Errorf("invalid conversation id")
)

// MapToHTTPStatus translates a domain error into the status code returned by the API.
func MapToHTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case stderrors.Is(err, ErrUserAlreadyExists):
		return http.StatusConflict
	case stderrors.Is(err, ErrUserNotFound), stderrors.Is(err, ErrConversationNotFound):
		return http.StatusNotFound
	case stderrors.Is(err, ErrInvalidCredentials), stderrors.Is(err, ErrInvalidToken),
		stderrors.Is(err, ErrUnidentifiedConnection):
		return http.StatusUnauthorized
	case stderrors.Is(err, ErrInvalidPassword), stderrors.Is(err, ErrInvalidRequest),
		stderrors.Is(err, ErrEmptyBody), stderrors.Is(err, ErrSelfMessage),
		stderrors.Is(err, ErrInvalidConversationKey):
		return http.StatusBadRequest
	case stderrors.Is(err, ErrBannedContent):
		return http.StatusUnprocessableEntity
	case stderrors.Is(err, ErrContentTooLong):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}
