package domainerrors

import (
	"fmt"
	"net/http"
	"strings"
)

// Issue is a single violated field. Path holds the keys leading to the
// field, outermost first; array indexes appear as decimal strings.
type Issue struct {
	Path    []string
	Message string
}

// JoinedPath returns the dot-joined field location, e.g. "items.2.price".
func (i Issue) JoinedPath() string {
	return strings.Join(i.Path, ".")
}

// IssueDetail is the envelope shape of one Issue.
type IssueDetail struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationError reports one or more invalid input fields, in the order
// they were found.
type ValidationError struct {
	Message string
	Issues  []Issue
}

func NewValidation(issues ...Issue) *ValidationError {
	return &ValidationError{Issues: issues}
}

// Add appends an issue for the field at path.
func (e *ValidationError) Add(message string, path ...string) *ValidationError {
	e.Issues = append(e.Issues, Issue{Path: path, Message: message})
	return e
}

// HasIssues reports whether anything was added.
func (e *ValidationError) HasIssues() bool {
	return len(e.Issues) > 0
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return e.summary()
	}
	msgs := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		if p := is.JoinedPath(); p != "" {
			msgs = append(msgs, fmt.Sprintf("%s: %s", p, is.Message))
			continue
		}
		msgs = append(msgs, is.Message)
	}
	return fmt.Sprintf("%s: %s", strings.ToLower(e.summary()), strings.Join(msgs, "; "))
}

// Summary is the client-facing message.
func (e *ValidationError) Summary() string { return e.summary() }

func (e *ValidationError) summary() string {
	if e.Message != "" {
		return e.Message
	}
	return "Validation failed"
}

func (e *ValidationError) HTTPStatus() int { return http.StatusBadRequest }

func (e *ValidationError) Code() string { return CodeValidation }

// Details returns one IssueDetail per issue, preserving order.
func (e *ValidationError) Details() any {
	out := make([]IssueDetail, 0, len(e.Issues))
	for _, is := range e.Issues {
		out = append(out, IssueDetail{Path: is.JoinedPath(), Message: is.Message})
	}
	return out
}
