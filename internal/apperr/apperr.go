// Package apperr classifies every failure the service can report to a client.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the failure classification surfaced to clients.
type Kind string

const (
	KindInvalidInput    Kind = "InvalidInput"
	KindUpstreamFailure Kind = "UpstreamFailure"
	KindUpstreamTimeout Kind = "UpstreamTimeout"
	KindInternal        Kind = "InternalError"
)

// Error is a classified failure. Message is safe to show to the user,
// Err carries the underlying cause for diagnostics.
type Error struct {
	Kind           Kind
	Message        string
	UpstreamStatus int
	Err            error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Details returns diagnostic text for the response body, or "" when there is none.
func (e *Error) Details() string {
	switch {
	case e.Err != nil && e.UpstreamStatus != 0:
		return fmt.Sprintf("upstream status %d: %v", e.UpstreamStatus, e.Err)
	case e.Err != nil:
		return e.Err.Error()
	case e.UpstreamStatus != 0:
		return fmt.Sprintf("upstream status %d", e.UpstreamStatus)
	}
	return ""
}

// HTTPStatus maps the kind onto the status code returned to the client.
func (e *Error) HTTPStatus() int {
	if e.Kind == KindInvalidInput {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func InvalidInput(message string) *Error {
	return &Error{Kind: KindInvalidInput, Message: message}
}

func UpstreamFailure(message string, status int, err error) *Error {
	return &Error{Kind: KindUpstreamFailure, Message: message, UpstreamStatus: status, Err: err}
}

func UpstreamTimeout(message string, err error) *Error {
	return &Error{Kind: KindUpstreamTimeout, Message: message, Err: err}
}

func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// From returns err as an *Error, wrapping unclassified errors as internal.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("internal server error", err)
}

// KindOf reports the classification of err, or "" for nil.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	return From(err).Kind
}
