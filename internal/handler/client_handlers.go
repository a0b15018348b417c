package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"lending-admin-api/internal/presentation/http/validation"
)

type createClientRequest struct {
	Name  string `json:"name" validate:"required,min=1,max=100"`
	Phone string `json:"phone" validate:"required,e164"`
}

type clientPage struct {
	Items interface{} `json:"items"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
	Total int         `json:"total"`
}

func (h *Handler) createClient(w http.ResponseWriter, r *http.Request) error {
	var req createClientRequest
	if err := h.validator.DecodeJSON(w, r, &req); err != nil {
		return err
	}
	c, err := h.clients.Create(r.Context(), req.Name, req.Phone)
	if err != nil {
		return err
	}
	return writeJSONResponse(w, http.StatusCreated, Response{Success: true, Data: c})
}

func (h *Handler) getClient(w http.ResponseWriter, r *http.Request) error {
	c, err := h.clients.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		return err
	}
	return writeJSONResponse(w, http.StatusOK, Response{Success: true, Data: c})
}

func (h *Handler) listClients(w http.ResponseWriter, r *http.Request) error {
	p, err := validation.ParsePagination(r.URL.Query(), defaultPageSize, maxPageSize)
	if err != nil {
		return err
	}
	items, total, err := h.clients.List(r.Context(), p.Limit, p.Offset())
	if err != nil {
		return err
	}
	return writeJSONResponse(w, http.StatusOK, Response{
		Success: true,
		Data:    clientPage{Items: items, Page: p.Page, Limit: p.Limit, Total: total},
	})
}
