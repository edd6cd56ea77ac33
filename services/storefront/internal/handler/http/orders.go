package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/malikadeel12/TheGiftOasis-Frontend/pkg/httputil"
	"github.com/malikadeel12/TheGiftOasis-Frontend/pkg/validator"
	"github.com/malikadeel12/TheGiftOasis-Frontend/services/storefront/internal/domain"
	"github.com/malikadeel12/TheGiftOasis-Frontend/services/storefront/internal/service"
)

// OrderHandler handles order history, tracking and the admin order views.
type OrderHandler struct {
	service *service.OrderService
	logger  *slog.Logger
}

// NewOrderHandler creates a new order HTTP handler.
func NewOrderHandler(svc *service.OrderService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{service: svc, logger: logger}
}

// MyOrders handles GET /api/v1/orders/mine
func (h *OrderHandler) MyOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.History(r.Context(), clientID(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	httputil.WriteData(w, http.StatusOK, orders)
}

// Track handles GET /api/v1/orders/{identifier}
func (h *OrderHandler) Track(w http.ResponseWriter, r *http.Request) {
	tracked, err := h.service.Track(r.Context(), clientID(r), chi.URLParam(r, "identifier"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, tracked)
}

// ListAll handles GET /api/v1/admin/orders?status=&page=&limit=
func (h *OrderHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.OrderFilter{Status: domain.OrderStatus(q.Get("status"))}
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))

	page, err := h.service.ListAll(r.Context(), clientID(r), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, page)
}

// UpdateStatus handles PUT /api/v1/admin/orders/{id}/status
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateStatusInput
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, badRequest(err), h.logger)
		return
	}

	tracked, err := h.service.UpdateStatus(r.Context(), clientID(r), chi.URLParam(r, "id"), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, tracked)
}

// Stats handles GET /api/v1/admin/orders/stats
func (h *OrderHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context(), clientID(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, stats)
}
