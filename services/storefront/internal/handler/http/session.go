package http

import (
	"log/slog"
	"net/http"

	"github.com/malikadeel12/TheGiftOasis-Frontend/pkg/httputil"
	"github.com/malikadeel12/TheGiftOasis-Frontend/pkg/validator"
	"github.com/malikadeel12/TheGiftOasis-Frontend/services/storefront/internal/service"
)

// SessionHandler stores and clears the bearer token issued by the remote
// login endpoint.
type SessionHandler struct {
	service *service.SessionService
	logger  *slog.Logger
}

// NewSessionHandler creates a new session HTTP handler.
func NewSessionHandler(svc *service.SessionService, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{service: svc, logger: logger}
}

// Login handles PUT /api/v1/session
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginInput
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, badRequest(err), h.logger)
		return
	}

	sess, err := h.service.Login(r.Context(), clientID(r), req.Token)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, sess)
}

// Current handles GET /api/v1/session
func (h *SessionHandler) Current(w http.ResponseWriter, r *http.Request) {
	sess, err := h.service.Current(r.Context(), clientID(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, sess)
}

// Logout handles DELETE /api/v1/session
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context(), clientID(r)); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
