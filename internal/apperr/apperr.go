// Package apperr defines the error kinds the service layer raises and the
// HTTP status each one maps to.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindForbidden
	KindFileNotExist
	KindNoImagesToDelete
	KindUpstream
	KindBadRequest
	KindUnauthorized
	KindConflict
)

var kindNames = map[Kind]string{
	KindInternal:         "internal",
	KindNotFound:         "not found",
	KindForbidden:        "forbidden",
	KindFileNotExist:     "file does not exist",
	KindNoImagesToDelete: "no images to delete",
	KindUpstream:         "upstream failure",
	KindBadRequest:       "bad request",
	KindUnauthorized:     "unauthorized",
	KindConflict:         "conflict",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	switch k {
	case KindNotFound, KindFileNotExist:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindNoImagesToDelete, KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error is an application error carrying a kind and a client-safe message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the bare sentinels below by kind, so
// errors.Is(err, apperr.ErrNotFound) holds for any not-found error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

var (
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrForbidden        = &Error{Kind: KindForbidden}
	ErrFileNotExist     = &Error{Kind: KindFileNotExist}
	ErrNoImagesToDelete = &Error{Kind: KindNoImagesToDelete}
	ErrUpstream         = &Error{Kind: KindUpstream}
	ErrBadRequest       = &Error{Kind: KindBadRequest}
	ErrUnauthorized     = &Error{Kind: KindUnauthorized}
	ErrConflict         = &Error{Kind: KindConflict}
)

// New creates an error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports a missing entity, e.g. NotFound("car").
func NotFound(entity string) *Error {
	return &Error{Kind: KindNotFound, Message: entity + " not found"}
}

// Forbidden reports an ownership mismatch.
func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

// BadRequest reports invalid client input.
func BadRequest(format string, args ...any) *Error {
	return New(KindBadRequest, format, args...)
}

// Upstream wraps a failure of the media host or another external API.
func Upstream(err error, message string) *Error {
	return &Error{Kind: KindUpstream, Message: message, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// PublicMessage returns the message safe to show a client.
// Internal and upstream failures never expose their cause.
func PublicMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return "internal server error"
	}
	switch e.Kind {
	case KindInternal, KindUpstream:
		if e.Message != "" {
			return e.Message
		}
		return "internal server error"
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Kind.String()
}
