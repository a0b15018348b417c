package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"lending-admin-api/internal/logger"
)

// LoggingMiddleware writes one access log entry per request once it completes.
func LoggingMiddleware(l *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapper := newResponseWrapper(w)

			next.ServeHTTP(wrapper, r)

			duration := time.Since(start)
			level := zapcore.InfoLevel
			switch {
			case wrapper.statusCode >= 500:
				level = zapcore.ErrorLevel
			case wrapper.statusCode >= 400:
				level = zapcore.WarnLevel
			}

			if ce := l.Check(level, fmt.Sprintf("API response: %s %s [%d]", r.Method, r.URL.Path, wrapper.statusCode)); ce != nil {
				ce.Write(
					logger.Event(logger.EventAPIResponse),
					zap.String("request_id", requestIDOf(r)),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status_code", wrapper.statusCode),
					zap.Int64("response_time_ms", duration.Milliseconds()),
					zap.String("remote_addr", getClientIP(r)),
					zap.String("user_agent", r.UserAgent()),
				)
			}
		})
	}
}

// getClientIP returns the caller address, preferring proxy headers.
func getClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		ips := strings.Split(forwarded, ",")
		return strings.TrimSpace(ips[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	ip := r.RemoteAddr
	if colonIndex := strings.LastIndex(ip, ":"); colonIndex != -1 {
		ip = ip[:colonIndex]
	}
	return ip
}
