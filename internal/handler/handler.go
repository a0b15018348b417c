package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"lending-admin-api/internal/application/usecases"
	"lending-admin-api/internal/middleware"
	"lending-admin-api/internal/presentation/http/validation"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Response is the success envelope.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// Handler serves the API routes. Route functions return errors and never
// write error bodies themselves.
type Handler struct {
	clients   *usecases.ClientUseCase
	codes     *usecases.ConnectCodeUseCase
	validator *validation.Validator
	log       *zap.Logger
}

func New(clients *usecases.ClientUseCase, codes *usecases.ConnectCodeUseCase, v *validation.Validator, l *zap.Logger) *Handler {
	if l == nil {
		l = zap.NewNop()
	}
	return &Handler{clients: clients, codes: codes, validator: v, log: l}
}

// RegisterPublicRoutes mounts the unauthenticated routes.
func (h *Handler) RegisterPublicRoutes(r *mux.Router, eh *middleware.ErrorHandler) {
	r.HandleFunc("/healthz", eh.WrapFunc(h.healthCheck)).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/connect", eh.WrapFunc(h.redeemConnectCode)).Methods(http.MethodPost)
}

// RegisterAdminRoutes mounts the admin routes on a router already guarded
// by API key authentication and authorization.
func (h *Handler) RegisterAdminRoutes(admin *mux.Router, eh *middleware.ErrorHandler) {
	admin.HandleFunc("/clients", eh.WrapFunc(h.createClient)).Methods(http.MethodPost)
	admin.HandleFunc("/clients", eh.WrapFunc(h.listClients)).Methods(http.MethodGet)
	admin.HandleFunc("/clients/{id}", eh.WrapFunc(h.getClient)).Methods(http.MethodGet)
	admin.HandleFunc("/clients/{id}/connect-codes", eh.WrapFunc(h.issueConnectCode)).Methods(http.MethodPost)
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) error {
	return writeJSONResponse(w, http.StatusOK, Response{
		Success: true,
		Data:    map[string]string{"status": "ok"},
	})
}

// writeJSONResponse encodes data before touching w so that an encoding
// failure can still be reported by the error handler.
func writeJSONResponse(w http.ResponseWriter, status int, data interface{}) error {
	body, err := json.Marshal(data)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(append(body, '\n'))
	return err
}
