package domain

import (
	"errors"
	"net/http"
)

// Kind classifies an Error for the transport layer.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindNotAllowed
	KindConflict
	KindUpstream
)

// Error is a failure whose message is safe to show to the client.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind and Message so wrapped copies of a sentinel still compare equal.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

// Status returns the HTTP status for the error's kind.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindNotAllowed:
		return http.StatusMethodNotAllowed
	case KindConflict:
		return http.StatusConflict
	case KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func Validation(msg string) *Error { return &Error{Kind: KindValidation, Message: msg} }

// Upstream wraps a failure of a third-party service.
func Upstream(msg string, err error) *Error {
	return &Error{Kind: KindUpstream, Message: msg, Err: err}
}

// AsError extracts a *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

var (
	ErrNotAuthorized      = &Error{Kind: KindUnauthenticated, Message: "Not authorized"}
	ErrInvalidCredentials = &Error{Kind: KindUnauthenticated, Message: "Email or password is invalid"}
	ErrPasswordInvalid    = &Error{Kind: KindUnauthenticated, Message: "Password invalid"}
	ErrSecretKeyInvalid   = &Error{Kind: KindUnauthenticated, Message: "Secret key is invalid"}
	ErrRefreshInvalid     = &Error{Kind: KindForbidden, Message: "Token is invalid"}
	ErrOAuthState         = &Error{Kind: KindForbidden, Message: "OAuth state mismatch"}
	ErrEmailTaken         = &Error{Kind: KindConflict, Message: "Email already exist"}
	ErrEmailInUse         = &Error{Kind: KindConflict, Message: "Email already in use"}
	ErrUserNotFound       = &Error{Kind: KindNotFound, Message: "User does not exist"}
	ErrSamePassword       = &Error{Kind: KindValidation, Message: "New and old password cant be equals"}
	ErrPasswordTooLong    = &Error{Kind: KindValidation, Message: "Password must not be more than 72 bytes"}
	ErrRouteNotFound      = &Error{Kind: KindNotFound, Message: "Route not found"}
)
