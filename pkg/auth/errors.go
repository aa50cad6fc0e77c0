package auth

import (
	"errors"
	"net/http"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionPersistence = errors.New("session persistence failed")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrStoreUnavailable   = errors.New("user store unavailable")
)

// Messages shown to clients. Credential failures share one message so a
// response never tells whether an account exists.
const (
	MsgInvalidCredentials = "invalid credentials"
	MsgNotAuthenticated   = "please log in"
	MsgUnavailable        = "service unavailable"
	MsgInternal           = "internal server error"
)

func PublicMessage(err error) string {
	switch {
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrInvalidCredentials):
		return MsgInvalidCredentials
	case errors.Is(err, ErrNotAuthenticated):
		return MsgNotAuthenticated
	case errors.Is(err, ErrStoreUnavailable):
		return MsgUnavailable
	default:
		return MsgInternal
	}
}

func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
