package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/malikadeel12/TheGiftOasis-Frontend/services/storefront/internal/domain"
)

const orderService = "order"

// OrderClient calls the remote order endpoints.
type OrderClient struct {
	http    HTTPDoer
	baseURL string
	logger  *slog.Logger
}

// NewOrderClient creates an order API client rooted at baseURL
// (for example "https://api.example.com/api").
func NewOrderClient(doer HTTPDoer, baseURL string, logger *slog.Logger) *OrderClient {
	return &OrderClient{http: doer, baseURL: baseURL, logger: logger}
}

// orderEnvelope matches responses that wrap the order in an "order" key.
type orderEnvelope struct {
	Order json.RawMessage `json:"order"`
}

// CreateOrder submits an order. The response must carry both the order id
// and the order number; anything less is reported as domain.ErrOrderFailed.
func (c *OrderClient) CreateOrder(ctx context.Context, token string, order domain.OrderRequest) (*domain.CreatedOrder, error) {
	body, err := json.Marshal(order)
	if err != nil {
		return nil, fmt.Errorf("marshal order request: %w", err)
	}

	req, err := newRequest(ctx, http.MethodPost, joinURL(c.baseURL, "/orders/create"), token, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create order request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var env struct {
		Order *domain.CreatedOrder `json:"order"`
	}
	if err := do(ctx, c.http, req, orderService, &env); err != nil {
		return nil, err
	}
	if err := env.Order.Validate(); err != nil {
		return nil, err
	}

	c.logger.InfoContext(ctx, "order created",
		slog.String("order_id", env.Order.ID),
		slog.String("order_number", env.Order.OrderNumber),
	)
	return env.Order, nil
}

// History returns the orders placed by the token's owner.
func (c *OrderClient) History(ctx context.Context, token string) ([]domain.Order, error) {
	req, err := newRequest(ctx, http.MethodGet, joinURL(c.baseURL, "/orders/user/history"), token, nil)
	if err != nil {
		return nil, fmt.Errorf("create history request: %w", err)
	}

	var resp struct {
		Orders []domain.Order `json:"orders"`
	}
	if err := do(ctx, c.http, req, orderService, &resp); err != nil {
		return nil, err
	}
	if resp.Orders == nil {
		resp.Orders = []domain.Order{}
	}
	return resp.Orders, nil
}

// GetOrder looks an order up by id or order number.
func (c *OrderClient) GetOrder(ctx context.Context, token, identifier string) (*domain.Order, error) {
	req, err := newRequest(ctx, http.MethodGet, joinURL(c.baseURL, "/orders/"+url.PathEscape(identifier)), token, nil)
	if err != nil {
		return nil, fmt.Errorf("create get order request: %w", err)
	}

	var raw json.RawMessage
	if err := do(ctx, c.http, req, orderService, &raw); err != nil {
		return nil, err
	}
	return decodeOrder(raw)
}

// ListAll returns one page of all orders. Admin only.
func (c *OrderClient) ListAll(ctx context.Context, token string, filter domain.OrderFilter) (*domain.OrderPage, error) {
	q := url.Values{}
	if filter.Status != "" {
		q.Set("status", string(filter.Status))
	}
	if filter.Page > 0 {
		q.Set("page", strconv.Itoa(filter.Page))
	}
	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}
	u := joinURL(c.baseURL, "/orders/admin/all")
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := newRequest(ctx, http.MethodGet, u, token, nil)
	if err != nil {
		return nil, fmt.Errorf("create list orders request: %w", err)
	}

	var page domain.OrderPage
	if err := do(ctx, c.http, req, orderService, &page); err != nil {
		return nil, err
	}
	if page.Orders == nil {
		page.Orders = []domain.Order{}
	}
	return &page, nil
}

// UpdateStatus changes an order's status. Admin only.
func (c *OrderClient) UpdateStatus(ctx context.Context, token, orderID string, status domain.OrderStatus, notes string) (*domain.Order, error) {
	body, err := json.Marshal(struct {
		Status domain.OrderStatus `json:"status"`
		Notes  string             `json:"notes,omitempty"`
	}{status, notes})
	if err != nil {
		return nil, fmt.Errorf("marshal status update: %w", err)
	}

	u := joinURL(c.baseURL, "/orders/admin/update-status/"+url.PathEscape(orderID))
	req, err := newRequest(ctx, http.MethodPut, u, token, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create status update request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var raw json.RawMessage
	if err := do(ctx, c.http, req, orderService, &raw); err != nil {
		return nil, err
	}
	return decodeOrder(raw)
}

// Stats returns the admin dashboard counters. Admin only.
func (c *OrderClient) Stats(ctx context.Context, token string) (*domain.OrderStats, error) {
	req, err := newRequest(ctx, http.MethodGet, joinURL(c.baseURL, "/orders/admin/stats"), token, nil)
	if err != nil {
		return nil, fmt.Errorf("create stats request: %w", err)
	}

	var stats domain.OrderStats
	if err := do(ctx, c.http, req, orderService, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// decodeOrder accepts both {"order": {...}} and a bare order object.
func decodeOrder(raw json.RawMessage) (*domain.Order, error) {
	var env orderEnvelope
	if err := json.Unmarshal(raw, &env); err == nil && len(env.Order) > 0 && string(env.Order) != "null" {
		raw = env.Order
	}
	var order domain.Order
	if err := json.Unmarshal(raw, &order); err != nil {
		return nil, fmt.Errorf("decode order: %w", err)
	}
	return &order, nil
}
