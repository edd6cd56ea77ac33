package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/malikadeel12/TheGiftOasis-Frontend/pkg/errors"
	"github.com/malikadeel12/TheGiftOasis-Frontend/pkg/httputil"
	"github.com/malikadeel12/TheGiftOasis-Frontend/pkg/validator"
	"github.com/malikadeel12/TheGiftOasis-Frontend/services/storefront/internal/domain"
	"github.com/malikadeel12/TheGiftOasis-Frontend/services/storefront/internal/service"
)

// CartHandler handles HTTP requests for cart endpoints.
type CartHandler struct {
	service *service.CartService
	logger  *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(svc *service.CartService, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		service: svc,
		logger:  logger,
	}
}

// CartResponse is the cart as the browser renders it.
type CartResponse struct {
	Items        []domain.LineItem `json:"items"`
	ItemCount    int               `json:"itemCount"`
	Total        domain.Money      `json:"total"`
	TotalDisplay string            `json:"totalDisplay"`
}

func newCartResponse(c *domain.Cart) CartResponse {
	items := c.Items
	if items == nil {
		items = []domain.LineItem{}
	}
	total := c.Total()
	return CartResponse{
		Items:        items,
		ItemCount:    c.ItemCount(),
		Total:        total,
		TotalDisplay: total.String(),
	}
}

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.GetCart(r.Context(), clientID(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, newCartResponse(cart))
}

// AddItem handles POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req service.AddItemInput
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, badRequest(err), h.logger)
		return
	}

	delta := 1
	if req.Quantity != nil {
		delta = *req.Quantity
	}

	cart, err := h.service.AddItem(r.Context(), clientID(r), req.Product, delta)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, newCartResponse(cart))
}

// UpdateItemQuantity handles PUT /api/v1/cart/items/{productId}
func (h *CartHandler) UpdateItemQuantity(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateQuantityInput
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, badRequest(err), h.logger)
		return
	}

	cart, err := h.service.SetQuantity(r.Context(), clientID(r), chi.URLParam(r, "productId"), req.Quantity)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, newCartResponse(cart))
}

// RemoveItem handles DELETE /api/v1/cart/items/{productId}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.RemoveItem(r.Context(), clientID(r), chi.URLParam(r, "productId"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, newCartResponse(cart))
}

// ClearCart handles DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Clear(r.Context(), clientID(r)); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// badRequest turns a JSON decoding failure into INVALID_INPUT. Validation
// errors pass through so their field details reach the client.
func badRequest(err error) error {
	if _, ok := err.(*validator.ValidationError); ok {
		return err
	}
	return apperrors.InvalidInput("invalid request body: " + err.Error())
}
