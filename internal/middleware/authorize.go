package middleware

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"lending-admin-api/internal/authz"
	domainerrors "lending-admin-api/internal/domain/errors"
)

// AuthorizeMiddleware enforces the casbin policy for the authenticated
// principal. It must run after APIKeyAuthMiddleware.
func AuthorizeMiddleware(en *authz.Enforcer, eh *ErrorHandler) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				eh.Handle(w, r, domainerrors.ErrMissingAPIKey)
				return
			}
			allowed, err := en.Allowed(p.Role, r.URL.Path, r.Method)
			if err != nil {
				eh.Handle(w, r, fmt.Errorf("authorization check failed: %w", err))
				return
			}
			if !allowed {
				eh.Handle(w, r, domainerrors.ErrForbidden.WithDetails(map[string]string{"role": p.Role}))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
