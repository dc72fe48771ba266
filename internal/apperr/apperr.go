// Package apperr provides the tagged error type returned by the service
// layer.  Each error carries a Kind for programmatic handling, a
// client-facing message, optional detail strings and the underlying cause.
// The cause is for logs only; the HTTP boundary renders Message and Errors.
//
// Example usage:
//
//	u, err := users.GetByID(ctx, id)
//	if err != nil {
//	    return apperr.Internal("failed to load user", err)
//	}
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error.
type Kind string

const (
	// KindValidation indicates missing or malformed input.
	KindValidation Kind = "VALIDATION_ERROR"
	// KindConflict indicates a duplicate identity.
	KindConflict Kind = "CONFLICT"
	// KindNotFound indicates the requested record does not exist.
	KindNotFound Kind = "NOT_FOUND"
	// KindForbidden indicates the caller does not own the resource.
	KindForbidden Kind = "FORBIDDEN"
	// KindInvalidCredentials indicates a password mismatch.
	KindInvalidCredentials Kind = "INVALID_CREDENTIALS"
	// KindUnauthenticated indicates no token was presented.
	KindUnauthenticated Kind = "UNAUTHENTICATED"
	// KindInvalidToken indicates a signature, expiry or lookup failure.
	KindInvalidToken Kind = "INVALID_TOKEN"
	// KindTokenReuseOrExpired indicates a refresh token that no longer
	// matches the one stored for its user.
	KindTokenReuseOrExpired Kind = "TOKEN_REUSE_OR_EXPIRED"
	// KindInternal indicates a persistence or other server-side failure.
	KindInternal Kind = "INTERNAL"
)

// Status maps the kind to an HTTP status code.
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindInvalidCredentials, KindUnauthenticated, KindInvalidToken, KindTokenReuseOrExpired:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Error is the tagged error value.
type Error struct {
	Kind    Kind
	Message string
	Errors  []string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause for errors.Is and errors.As support.
func (e *Error) Unwrap() error { return e.Cause }

// New creates an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an Error of the given kind that keeps cause for logging.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf reports the kind of err.  Errors that are not *Error are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

func Validation(message string, details ...string) *Error {
	return &Error{Kind: KindValidation, Message: message, Errors: details}
}

func Conflict(message string) *Error { return New(KindConflict, message) }

func NotFound(message string) *Error { return New(KindNotFound, message) }

func Forbidden(message string) *Error { return New(KindForbidden, message) }

func InvalidCredentials(message string) *Error { return New(KindInvalidCredentials, message) }

func Unauthenticated(message string) *Error { return New(KindUnauthenticated, message) }

func InvalidToken(message string, cause error) *Error {
	return Wrap(KindInvalidToken, message, cause)
}

func TokenReuseOrExpired(message string) *Error { return New(KindTokenReuseOrExpired, message) }

func Internal(message string, cause error) *Error { return Wrap(KindInternal, message, cause) }
