package handler

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"lending-admin-api/internal/logger"
	"lending-admin-api/internal/middleware"
)

type redeemRequest struct {
	Code       string `json:"code" validate:"required,alphanum,max=32"`
	LineUserID string `json:"lineUserId" validate:"required,startswith=U,len=33"`
}

func (h *Handler) issueConnectCode(w http.ResponseWriter, r *http.Request) error {
	cc, err := h.codes.Issue(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		return err
	}
	logger.WithRequest(h.log, r, middleware.RequestIDFromContext(r.Context())).Info("connect code issued",
		logger.Event(logger.EventConnectCode),
		zap.String("client_id", cc.ClientID),
		zap.Time("expires_at", cc.ExpiresAt),
	)
	return writeJSONResponse(w, http.StatusCreated, Response{Success: true, Data: cc})
}

// redeemConnectCode is called by the LIFF app on behalf of a LINE user.
func (h *Handler) redeemConnectCode(w http.ResponseWriter, r *http.Request) error {
	var req redeemRequest
	if err := h.validator.DecodeJSON(w, r, &req); err != nil {
		return err
	}
	c, err := h.codes.Redeem(r.Context(), strings.ToUpper(req.Code), req.LineUserID)
	if err != nil {
		return err
	}
	logger.WithRequest(h.log, r, middleware.RequestIDFromContext(r.Context())).Info("connect code redeemed",
		logger.Event(logger.EventConnectCode),
		zap.String("client_id", c.ID),
	)
	return writeJSONResponse(w, http.StatusOK, Response{Success: true, Message: "Connected", Data: c})
}
