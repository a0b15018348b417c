package logger

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EventCode represents structured event types
type EventCode string

const (
	EventAPIRequest    EventCode = "API_REQUEST"
	EventAPIResponse   EventCode = "API_RESPONSE"
	EventRequestError  EventCode = "REQUEST_ERROR"
	EventAuthError     EventCode = "AUTH_ERROR"
	EventConnectCode   EventCode = "CONNECT_CODE"
	EventSystemStart   EventCode = "SYSTEM_START"
	EventSystemStop    EventCode = "SYSTEM_STOP"
	EventSystemFailure EventCode = "SYSTEM_FAILURE"
)

// Event tags an entry with its event code.
func Event(code EventCode) zap.Field {
	return zap.String("event_code", string(code))
}

// Config selects level and encoding.
type Config struct {
	Level   string
	Format  string // "json" or "console"
	Service string
}

// New builds the process logger. Every entry carries the service name, the
// host and a per-process instance id. Callers own the returned logger and
// must Sync it before exit.
func New(cfg Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	var zc zap.Config
	switch strings.ToLower(cfg.Format) {
	case "", "json":
		zc = zap.NewProductionConfig()
		zc.EncoderConfig.TimeKey = "timestamp"
		zc.EncoderConfig.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	case "console":
		zc = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("invalid log format %q", cfg.Format)
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.DisableStacktrace = true

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	service := cfg.Service
	if service == "" {
		service = "lending-admin-api"
	}

	l, err := zc.Build(zap.Fields(
		zap.String("service", service),
		zap.String("hostname", hostname),
		zap.String("instance", uuid.NewString()),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return l, nil
}

// WithRequest scopes l to a single request.
func WithRequest(l *zap.Logger, r *http.Request, requestID string) *zap.Logger {
	return l.With(
		zap.String("request_id", requestID),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	)
}
