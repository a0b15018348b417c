package domainerrors

import (
	"errors"
	"math"
	"net/http"
	"time"
)

// Kind classifies an error for the HTTP boundary.
type Kind string

const (
	KindResourceNotFound     Kind = "resource-not-found"
	KindResourceExpired      Kind = "resource-expired"
	KindResourceAlreadyUsed  Kind = "resource-already-used"
	KindDuplicateAssociation Kind = "duplicate-association"
	KindRateLimitExceeded    Kind = "rate-limit-exceeded"
	KindValidationFailed     Kind = "validation-failed"
	KindApplication          Kind = "application-error"
	KindTransport            Kind = "transport-error"
	KindUnknown              Kind = "unknown"
)

// Stable machine-readable codes clients can branch on.
const (
	CodeResourceNotFound     = "RESOURCE_NOT_FOUND"
	CodeResourceExpired      = "RESOURCE_EXPIRED"
	CodeResourceAlreadyUsed  = "RESOURCE_ALREADY_USED"
	CodeDuplicateAssociation = "DUPLICATE_ASSOCIATION"
	CodeRateLimitExceeded    = "RATE_LIMIT_EXCEEDED"
	CodeValidation           = "VALIDATION_ERROR"
	CodeHTTPException        = "HTTP_EXCEPTION"
	CodeInternal             = "INTERNAL_ERROR"
)

type resourceKind struct {
	status  int
	code    string
	message string
}

// resourceKinds holds the fixed status/code pair of every resource error kind.
var resourceKinds = map[Kind]resourceKind{
	KindResourceNotFound:     {http.StatusBadRequest, CodeResourceNotFound, "Resource not found"},
	KindResourceExpired:      {http.StatusBadRequest, CodeResourceExpired, "Resource has expired"},
	KindResourceAlreadyUsed:  {http.StatusBadRequest, CodeResourceAlreadyUsed, "Resource has already been used"},
	KindDuplicateAssociation: {http.StatusConflict, CodeDuplicateAssociation, "Association already exists"},
}

// ResourceError is a domain error about a named resource whose status and
// code are fixed by its Kind.
type ResourceError struct {
	Kind     Kind
	Resource string
	Message  string
	Err      error
}

func (e *ResourceError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if rk, ok := resourceKinds[e.Kind]; ok {
		return rk.message
	}
	return string(e.Kind)
}

func (e *ResourceError) Unwrap() error { return e.Err }

// Known reports whether the Kind is one of the resource kinds.
func (e *ResourceError) Known() bool {
	_, ok := resourceKinds[e.Kind]
	return ok
}

func (e *ResourceError) HTTPStatus() int {
	if rk, ok := resourceKinds[e.Kind]; ok {
		return rk.status
	}
	return http.StatusInternalServerError
}

func (e *ResourceError) Code() string {
	if rk, ok := resourceKinds[e.Kind]; ok {
		return rk.code
	}
	return CodeInternal
}

// ResourceDetails is the details payload of a resource error.
type ResourceDetails struct {
	Resource string `json:"resource"`
}

// Details returns nil when no resource name is known.
func (e *ResourceError) Details() any {
	if e.Resource == "" {
		return nil
	}
	return ResourceDetails{Resource: e.Resource}
}

func NotFound(resource, message string) *ResourceError {
	return &ResourceError{Kind: KindResourceNotFound, Resource: resource, Message: message}
}

func Expired(resource, message string) *ResourceError {
	return &ResourceError{Kind: KindResourceExpired, Resource: resource, Message: message}
}

func AlreadyUsed(resource, message string) *ResourceError {
	return &ResourceError{Kind: KindResourceAlreadyUsed, Resource: resource, Message: message}
}

func DuplicateAssociation(resource, message string) *ResourceError {
	return &ResourceError{Kind: KindDuplicateAssociation, Resource: resource, Message: message}
}

// IsKind reports whether any error in err's chain is a ResourceError of kind k.
func IsKind(err error, k Kind) bool {
	var re *ResourceError
	return errors.As(err, &re) && re.Kind == k
}

func IsNotFound(err error) bool { return IsKind(err, KindResourceNotFound) }

// RateLimitError reports that a caller exceeded its quota.
type RateLimitError struct {
	Message    string
	RetryAfter time.Duration
}

func RateLimited(retryAfter time.Duration) *RateLimitError {
	return &RateLimitError{RetryAfter: retryAfter}
}

func (e *RateLimitError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "Too many requests"
}

func (e *RateLimitError) HTTPStatus() int { return http.StatusTooManyRequests }

func (e *RateLimitError) Code() string { return CodeRateLimitExceeded }

// RetryAfterSeconds rounds RetryAfter up to whole seconds.
func (e *RateLimitError) RetryAfterSeconds() int {
	if e.RetryAfter <= 0 {
		return 0
	}
	if e.RetryAfter > math.MaxInt64-time.Second {
		return int(e.RetryAfter / time.Second)
	}
	return int((e.RetryAfter + time.Second - 1) / time.Second)
}

// RetryAfterDetails is the details payload of a rate limit error.
type RetryAfterDetails struct {
	RetryAfter int `json:"retryAfter"`
}

func (e *RateLimitError) Details() any {
	return RetryAfterDetails{RetryAfter: e.RetryAfterSeconds()}
}

// AppError is an application-level error whose status, code and details are
// chosen by its author and passed through to the client as-is.
type AppError struct {
	Status  int
	ErrCode string
	Message string
	Detail  any
	Err     error
}

func New(status int, code, message string) *AppError {
	return &AppError{Status: status, ErrCode: code, Message: message}
}

// Wrap returns an AppError that keeps err as its cause.
func Wrap(err error, status int, code, message string) *AppError {
	return &AppError{Status: status, ErrCode: code, Message: message, Err: err}
}

// WithDetails returns a copy of e carrying details.
func (e *AppError) WithDetails(details any) *AppError {
	cp := *e
	cp.Detail = details
	return &cp
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.HTTPStatus())
}

func (e *AppError) Unwrap() error { return e.Err }

func (e *AppError) HTTPStatus() int {
	if e.Status == 0 {
		return http.StatusInternalServerError
	}
	return e.Status
}

func (e *AppError) Code() string {
	if e.ErrCode == "" {
		return CodeInternal
	}
	return e.ErrCode
}

func (e *AppError) Details() any { return e.Detail }

// WithStatus attaches an HTTP status to an otherwise unclassified error.
// The boundary still reports it as INTERNAL_ERROR, with this status.
func WithStatus(err error, status int) error {
	return &statusError{err: err, status: status}
}

type statusError struct {
	err    error
	status int
}

func (e *statusError) Error() string {
	if e.err == nil {
		return ""
	}
	return e.err.Error()
}

func (e *statusError) Unwrap() error { return e.err }

func (e *statusError) HTTPStatus() int { return e.status }

var (
	ErrMissingAPIKey = New(http.StatusUnauthorized, "MISSING_API_KEY", "API key is required")
	ErrInvalidAPIKey = New(http.StatusUnauthorized, "INVALID_API_KEY", "Invalid API key")
	ErrForbidden     = New(http.StatusForbidden, "FORBIDDEN", "Insufficient permissions")
)

