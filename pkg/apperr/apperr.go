// Package apperr defines the business error taxonomy shared by HTTP
// handlers and the realtime hub. An Error carries a Kind that callers map
// to a transport-level outcome (HTTP status, ErrorOccurred event).
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindValidation
	KindConflict
)

type Error struct {
	Kind  Kind
	Msg   string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.cause)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.cause
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying error while keeping it
// reachable through errors.Is/errors.As.
func Wrap(err error, kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg, cause: err}
}

func Authentication(msg string) *Error { return New(KindAuthentication, msg) }
func Authorization(msg string) *Error  { return New(KindAuthorization, msg) }
func NotFound(msg string) *Error       { return New(KindNotFound, msg) }
func Validation(msg string) *Error     { return New(KindValidation, msg) }
func Conflict(msg string) *Error       { return New(KindConflict, msg) }

// KindOf extracts the kind from an error chain. Unclassified errors are
// treated as internal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus maps a business error to the status code handlers respond with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
