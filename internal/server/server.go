package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"lending-admin-api/internal/apikey"
	"lending-admin-api/internal/authz"
	"lending-admin-api/internal/handler"
	"lending-admin-api/internal/httperr"
	"lending-admin-api/internal/middleware"
)

// Deps are the collaborators the HTTP server is assembled from.
type Deps struct {
	Handler        *handler.Handler
	Errors         *middleware.ErrorHandler
	Keys           *apikey.Registry
	Enforcer       *authz.Enforcer
	Logger         *zap.Logger
	AllowedOrigins []string
}

// Server represents the HTTP server with configured middleware
type Server struct {
	Router  *mux.Router
	handler http.Handler
}

// New creates a new server instance and attaches middlewares
func New(d Deps) *Server {
	router := mux.NewRouter()
	router.NotFoundHandler = d.Errors.Wrap(func(w http.ResponseWriter, r *http.Request) error {
		return httperr.ErrNotFound
	})
	router.MethodNotAllowedHandler = d.Errors.Wrap(func(w http.ResponseWriter, r *http.Request) error {
		return httperr.ErrMethodNotAllowed
	})

	// Public routes must be registered before the admin prefix so that
	// /api/v1/connect is matched without the admin middleware.
	d.Handler.RegisterPublicRoutes(router, d.Errors)

	admin := router.PathPrefix("/api/v1").Subrouter()
	admin.Use(middleware.APIKeyAuthMiddleware(d.Keys, d.Errors))
	admin.Use(middleware.AuthorizeMiddleware(d.Enforcer, d.Errors))
	d.Handler.RegisterAdminRoutes(admin, d.Errors)

	// Order matters: request id first so every later layer can log it.
	var h http.Handler = router
	h = middleware.CorsMiddleware(d.AllowedOrigins)(h)
	h = middleware.LoggingMiddleware(d.Logger)(h)
	h = middleware.RequestIDMiddleware(h)

	return &Server{Router: router, handler: h}
}

// Handler returns the fully wrapped root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}
