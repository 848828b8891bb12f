// Package apperr carries the error kinds surfaced by the API.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	Unauthenticated   Kind = "unauthenticated"
	InvalidCredential Kind = "invalid_credential"
	Forbidden         Kind = "forbidden"
	NotFound          Kind = "not_found"
	Conflict          Kind = "conflict"
	BadRequest        Kind = "bad_request"
	InvalidTransition Kind = "invalid_transition"
	Internal          Kind = "internal"
)

var statusByKind = map[Kind]int{
	Unauthenticated:   http.StatusUnauthorized,
	InvalidCredential: http.StatusUnauthorized,
	Forbidden:         http.StatusForbidden,
	NotFound:          http.StatusNotFound,
	Conflict:          http.StatusConflict,
	BadRequest:        http.StatusBadRequest,
	InvalidTransition: http.StatusUnprocessableEntity,
	Internal:          http.StatusInternalServerError,
}

// Error is a classified failure. Message is safe to show to the client;
// Err, when set, is only logged.
type Error struct {
	Kind    Kind
	Message string
	Err     error
	Status  int
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus returns the override status if one was set, otherwise the
// default status for the kind.
func (e *Error) HTTPStatus() int {
	if e.Status != 0 {
		return e.Status
	}
	if s, ok := statusByKind[e.Kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// WithStatus returns a copy of e reported with the given HTTP status.
func (e *Error) WithStatus(status int) *Error {
	cp := *e
	cp.Status = status
	return &cp
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func NewUnauthenticated(msg string) *Error   { return New(Unauthenticated, msg) }
func NewInvalidCredential(msg string) *Error { return New(InvalidCredential, msg) }
func NewForbidden(msg string) *Error         { return New(Forbidden, msg) }
func NewNotFound(msg string) *Error          { return New(NotFound, msg) }
func NewConflict(msg string) *Error          { return New(Conflict, msg) }
func NewBadRequest(msg string) *Error        { return New(BadRequest, msg) }
func NewInvalidTransition(msg string) *Error { return New(InvalidTransition, msg) }

// NewInternal hides err behind a generic message.
func NewInternal(err error) *Error {
	return Wrap(Internal, "Server error", err)
}

// KindOf reports the kind of err, or Internal for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
