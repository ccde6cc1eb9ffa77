package service

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/Marga-Ghale/ora-training-backend/internal/repository"
	"github.com/Marga-Ghale/ora-training-backend/internal/storage"
)

// Kind classifies a failure for the HTTP layer.
type Kind string

const (
	KindBadRequest      Kind = "BadRequest"
	KindUnauthenticated Kind = "Unauthenticated"
	KindForbidden       Kind = "Forbidden"
	KindNotFound        Kind = "NotFound"
	KindConflict        Kind = "Conflict"
	KindUpstream        Kind = "UpstreamFailure"
	KindUnexpected      Kind = "Unexpected"
)

// Status maps a kind to its HTTP status code.
func (k Kind) Status() int {
	switch k {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error is the typed failure every service returns. Message and Details are
// shown to the caller; Err is logged only.
type Error struct {
	Kind    Kind
	Message string
	Details string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrForbidden) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Message == "" && t.Kind == e.Kind
}

// Kind sentinels for errors.Is.
var (
	ErrBadRequest      = &Error{Kind: KindBadRequest}
	ErrUnauthenticated = &Error{Kind: KindUnauthenticated}
	ErrForbidden       = &Error{Kind: KindForbidden}
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrConflict        = &Error{Kind: KindConflict}
	ErrUpstream        = &Error{Kind: KindUpstream}
)

func BadRequest(format string, args ...interface{}) *Error {
	return &Error{Kind: KindBadRequest, Message: fmt.Sprintf(format, args...)}
}

func Unauthenticated(msg string) *Error {
	return &Error{Kind: KindUnauthenticated, Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

func NotFound(what string) *Error {
	return &Error{Kind: KindNotFound, Message: what + " not found"}
}

func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

// Upstream wraps a store failure. The cause is kept for logs and never
// rendered to the caller.
func Upstream(op string, err error) *Error {
	if errors.Is(err, repository.ErrDuplicate) {
		return &Error{Kind: KindConflict, Message: "already exists", Err: err}
	}
	return &Error{Kind: KindUpstream, Message: op + " failed", Err: err}
}

// Wrap converts any error into an *Error, keeping typed errors as they are.
func Wrap(err error) *Error {
	if err == nil {
		return nil
	}
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr
	}
	if errors.Is(err, repository.ErrDuplicate) {
		return &Error{Kind: KindConflict, Message: "already exists", Err: err}
	}
	if errors.Is(err, storage.ErrNotFound) {
		return &Error{Kind: KindNotFound, Message: "blob not found", Err: err}
	}
	return &Error{Kind: KindUnexpected, Message: "internal error", Err: err}
}

// KindOf returns the kind of err, or KindUnexpected.
func KindOf(err error) Kind {
	return Wrap(err).Kind
}

// validID reports whether id can name a stored row. Malformed ids cannot
// exist, so callers answer NotFound without asking the store.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
