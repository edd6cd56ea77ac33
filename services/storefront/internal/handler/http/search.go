package http

import (
	"log/slog"
	"net/http"

	"github.com/malikadeel12/TheGiftOasis-Frontend/pkg/httputil"
	"github.com/malikadeel12/TheGiftOasis-Frontend/pkg/validator"
	"github.com/malikadeel12/TheGiftOasis-Frontend/services/storefront/internal/service"
)

// SearchHandler serves the recent-searches list shown under the search box.
type SearchHandler struct {
	service *service.SearchService
	logger  *slog.Logger
}

// NewSearchHandler creates a new search HTTP handler.
func NewSearchHandler(svc *service.SearchService, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{service: svc, logger: logger}
}

// Recent handles GET /api/v1/search/recent
func (h *SearchHandler) Recent(w http.ResponseWriter, r *http.Request) {
	terms, err := h.service.Recent(r.Context(), clientID(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, nonNil(terms))
}

// Record handles POST /api/v1/search/recent
func (h *SearchHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req service.RecordSearchInput
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, badRequest(err), h.logger)
		return
	}

	terms, err := h.service.Record(r.Context(), clientID(r), req.Term)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, nonNil(terms))
}

// Clear handles DELETE /api/v1/search/recent
func (h *SearchHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Clear(r.Context(), clientID(r)); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func nonNil(terms []string) []string {
	if terms == nil {
		return []string{}
	}
	return terms
}
