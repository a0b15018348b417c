package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"lending-admin-api/internal/apikey"
	domainerrors "lending-admin-api/internal/domain/errors"
)

// Principal identifies the admin key that authenticated a request.
type Principal struct {
	Name string
	Role string
}

const principalKey ctxKey = "principal"

// PrincipalFromContext returns the authenticated principal, if any.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}

// APIKeyAuthMiddleware requires a valid admin API key in the Authorization
// header (Bearer or ApiKey scheme) or in X-API-Key.
func APIKeyAuthMiddleware(keys *apikey.Registry, eh *ErrorHandler) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := extractAPIKey(r)
			if raw == "" {
				eh.Handle(w, r, domainerrors.ErrMissingAPIKey)
				return
			}
			key, err := keys.Authenticate(raw)
			if err != nil {
				eh.Handle(w, r, domainerrors.Wrap(err, http.StatusUnauthorized,
					domainerrors.ErrInvalidAPIKey.Code(), domainerrors.ErrInvalidAPIKey.Message))
				return
			}
			ctx := context.WithValue(r.Context(), principalKey, Principal{Name: key.Name, Role: key.Role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractAPIKey(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		switch {
		case strings.HasPrefix(authHeader, "Bearer "):
			return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		case strings.HasPrefix(authHeader, "ApiKey "):
			return strings.TrimSpace(strings.TrimPrefix(authHeader, "ApiKey "))
		default:
			return strings.TrimSpace(authHeader)
		}
	}
	return strings.TrimSpace(r.Header.Get("X-API-Key"))
}
