package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"lending-admin-api/internal/logger"
)

// HandlerFunc is an HTTP handler that reports failure by returning an error.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// ErrorEnvelope is the JSON body of every error response.
type ErrorEnvelope struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Code      string `json:"code"`
	Details   any    `json:"details,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// ErrorHandler is the single failure boundary of the API: it turns any error
// raised while handling a request into one log entry and one JSON envelope.
// It holds no per-request state and is safe for concurrent use.
type ErrorHandler struct {
	log              *zap.Logger
	includeTimestamp bool
	exposeInternal   bool
	now              func() time.Time
}

// ErrorHandlerOption configures an ErrorHandler.
type ErrorHandlerOption func(*ErrorHandler)

// WithTimestamp adds an RFC 3339 timestamp to every envelope.
func WithTimestamp(enabled bool) ErrorHandlerOption {
	return func(h *ErrorHandler) { h.includeTimestamp = enabled }
}

// WithInternalMessages lets unclassified errors report their own message
// instead of the generic one. Intended for development only.
func WithInternalMessages(enabled bool) ErrorHandlerOption {
	return func(h *ErrorHandler) { h.exposeInternal = enabled }
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) ErrorHandlerOption {
	return func(h *ErrorHandler) { h.now = now }
}

// NewErrorHandler returns a boundary logging to l. A nil l disables logging.
func NewErrorHandler(l *zap.Logger, opts ...ErrorHandlerOption) *ErrorHandler {
	if l == nil {
		l = zap.NewNop()
	}
	h := &ErrorHandler{log: l, now: time.Now}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Wrap adapts fn to http.Handler. A returned error or a panic inside fn is
// passed to Handle; a successful fn is left untouched.
func (h *ErrorHandler) Wrap(fn HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := newResponseWrapper(w)
		if err := runHandler(fn, rw, r); err != nil {
			h.Handle(rw, r, err)
		}
	})
}

// WrapFunc is Wrap for use with mux.Router.HandleFunc style registration.
func (h *ErrorHandler) WrapFunc(fn HandlerFunc) http.HandlerFunc {
	return h.Wrap(fn).ServeHTTP
}

// Handle logs err once and writes its envelope. Middleware that rejects a
// request calls it directly instead of writing its own error body.
func (h *ErrorHandler) Handle(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}
	c := h.translate(w, r, err)
	h.write(w, c)
}

// translate logs and classifies err. Any failure in either step yields the
// generic internal classification.
func (h *ErrorHandler) translate(w http.ResponseWriter, r *http.Request, err error) (c classification) {
	defer func() {
		if rec := recover(); rec != nil {
			c = internalClassification()
		}
	}()
	h.logError(w, r, err)
	return classify(err, h.exposeInternal)
}

func (h *ErrorHandler) logError(w http.ResponseWriter, r *http.Request, err error) {
	fields := []zap.Field{
		logger.Event(logger.EventRequestError),
		zap.String("error", err.Error()),
		zap.String("error_type", fmt.Sprintf("%T", err)),
		zap.String("request_id", requestIDOf(r)),
	}
	if r != nil {
		fields = append(fields, zap.String("method", r.Method))
		if r.URL != nil {
			fields = append(fields, zap.String("url", r.URL.String()))
		}
	}
	if st := stackOf(err); st != "" {
		fields = append(fields, zap.String("stack", st))
	}
	if cause := causeOf(err); cause != "" {
		fields = append(fields, zap.String("cause", cause))
	}
	if committed(w) {
		fields = append(fields, zap.Bool("response_committed", true))
	}
	h.log.Error("request failed", fields...)
}

func (h *ErrorHandler) write(w http.ResponseWriter, c classification) {
	defer func() {
		// The client connection is the only thing left to fail here.
		_ = recover()
	}()
	if committed(w) {
		return
	}

	env := ErrorEnvelope{
		Success: false,
		Message: c.message,
		Code:    c.code,
		Details: c.details,
	}
	if h.includeTimestamp {
		env.Timestamp = h.now().UTC().Format(time.RFC3339)
	}
	body, err := json.Marshal(env)
	if err != nil {
		c = internalClassification()
		body = mustMarshalInternal(h.includeTimestamp, h.now)
	}

	w.Header().Set("Content-Type", "application/json")
	if c.retryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(c.retryAfter))
	}
	w.WriteHeader(c.status)
	_, _ = w.Write(append(body, '\n'))
}

func mustMarshalInternal(withTimestamp bool, now func() time.Time) []byte {
	c := internalClassification()
	env := ErrorEnvelope{Message: c.message, Code: c.code}
	if withTimestamp {
		env.Timestamp = now().UTC().Format(time.RFC3339)
	}
	b, err := json.Marshal(env)
	if err != nil {
		return []byte(`{"success":false,"message":"Internal Server Error","code":"INTERNAL_ERROR"}`)
	}
	return b
}

// PanicError is a panic recovered from a handler. It unwraps to the panic
// value when that value is an error, so a panicking domain error keeps its kind.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

func (e *PanicError) StackTrace() string { return string(e.Stack) }

// causeOf describes the errors err directly wraps. Joined causes are
// separated by "; ".
func causeOf(err error) string {
	switch u := err.(type) {
	case interface{ Unwrap() error }:
		if cause := u.Unwrap(); cause != nil {
			return cause.Error()
		}
	case interface{ Unwrap() []error }:
		msgs := make([]string, 0, len(u.Unwrap()))
		for _, cause := range u.Unwrap() {
			if cause != nil {
				msgs = append(msgs, cause.Error())
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}

type stackTracer interface {
	StackTrace() string
}

func stackOf(err error) string {
	var st stackTracer
	if errors.As(err, &st) {
		return st.StackTrace()
	}
	return ""
}

func runHandler(fn HandlerFunc, w http.ResponseWriter, r *http.Request) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			err = &PanicError{Value: rec, Stack: debug.Stack()}
		}
	}()
	return fn(w, r)
}

func requestIDOf(r *http.Request) string {
	if r == nil {
		return UnknownRequestID
	}
	if id := RequestIDFromContext(r.Context()); id != "" {
		return id
	}
	return UnknownRequestID
}
