// Package httperr holds transport-layer errors: failures produced by the
// HTTP plumbing itself (unmatched routes, oversized bodies) rather than by
// the domain.
package httperr

import (
	"fmt"
	"net/http"
)

// Error is an HTTP-layer failure carrying its status.
type Error struct {
	Status  int
	Message string
}

// New returns an Error; an empty message defaults to the status text.
func New(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

// Newf formats the message.
func Newf(status int, format string, args ...any) *Error {
	return New(status, fmt.Sprintf(format, args...))
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if t := http.StatusText(e.Status); t != "" {
		return t
	}
	return fmt.Sprintf("HTTP %d", e.Status)
}

func (e *Error) HTTPStatus() int {
	if e.Status == 0 {
		return http.StatusInternalServerError
	}
	return e.Status
}

var (
	ErrNotFound         = New(http.StatusNotFound, "")
	ErrMethodNotAllowed = New(http.StatusMethodNotAllowed, "")
)
