package service

import (
	"context"
	"log/slog"

	apperrors "github.com/malikadeel12/TheGiftOasis-Frontend/pkg/errors"
	"github.com/malikadeel12/TheGiftOasis-Frontend/pkg/httpclient"
	"github.com/malikadeel12/TheGiftOasis-Frontend/pkg/logger"
	"github.com/malikadeel12/TheGiftOasis-Frontend/services/storefront/internal/domain"
)

// OrderAPI is the remote order API beyond order creation.
type OrderAPI interface {
	History(ctx context.Context, token string) ([]domain.Order, error)
	GetOrder(ctx context.Context, token, identifier string) (*domain.Order, error)
	ListAll(ctx context.Context, token string, filter domain.OrderFilter) (*domain.OrderPage, error)
	UpdateStatus(ctx context.Context, token, orderID string, status domain.OrderStatus, notes string) (*domain.Order, error)
	Stats(ctx context.Context, token string) (*domain.OrderStats, error)
}

// TrackedOrder is an order with its rendered status timeline.
type TrackedOrder struct {
	Order    *domain.Order         `json:"order"`
	Timeline []domain.TimelineStep `json:"timeline"`
}

// UpdateStatusInput is an admin status change.
type UpdateStatusInput struct {
	Status domain.OrderStatus `json:"status" validate:"required,oneof=pending confirmed processing dispatched delivered cancelled"`
	Notes  string             `json:"notes" validate:"max=1000"`
}

// Admin listing bounds.
const (
	DefaultOrderPageSize = 10
	MaxOrderPageSize     = 100
)

// OrderService proxies order lookups with the client's bearer token. A
// remote 401 or 403 ends the client's session.
type OrderService struct {
	api      OrderAPI
	sessions *SessionService
	logger   *slog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(api OrderAPI, sessions *SessionService, logger *slog.Logger) *OrderService {
	return &OrderService{api: api, sessions: sessions, logger: logger}
}

// History returns the signed-in customer's orders.
func (s *OrderService) History(ctx context.Context, clientID string) ([]domain.Order, error) {
	token, _, err := s.sessions.RequireToken(ctx, clientID)
	if err != nil {
		return nil, err
	}

	orders, err := s.api.History(ctx, token)
	if err != nil {
		return nil, s.remoteFailure(ctx, clientID, "load order history", MsgOrdersFailed, err)
	}
	return orders, nil
}

// Track looks an order up by id or order number and renders its timeline.
// It works without a session; the token is forwarded when there is one.
func (s *OrderService) Track(ctx context.Context, clientID, identifier string) (*TrackedOrder, error) {
	if identifier == "" {
		return nil, apperrors.InvalidInput("order id or number is required")
	}

	token, err := s.sessions.OptionalToken(ctx, clientID)
	if err != nil {
		return nil, err
	}

	order, err := s.api.GetOrder(ctx, token, identifier)
	if err != nil {
		return nil, s.remoteFailure(ctx, clientID, "track order", "Order not found. Please check the order number.", err)
	}
	return &TrackedOrder{Order: order, Timeline: domain.Timeline(order.Status)}, nil
}

// ListAll returns one page of all orders. Admin only.
func (s *OrderService) ListAll(ctx context.Context, clientID string, filter domain.OrderFilter) (*domain.OrderPage, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperrors.InvalidInput("unknown order status")
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = DefaultOrderPageSize
	}
	if filter.Limit > MaxOrderPageSize {
		filter.Limit = MaxOrderPageSize
	}

	token, err := s.sessions.RequireAdmin(ctx, clientID)
	if err != nil {
		return nil, err
	}

	page, err := s.api.ListAll(ctx, token, filter)
	if err != nil {
		return nil, s.remoteFailure(ctx, clientID, "list orders", MsgOrdersFailed, err)
	}
	return page, nil
}

// UpdateStatus changes an order's status. Admin only.
func (s *OrderService) UpdateStatus(ctx context.Context, clientID, orderID string, input UpdateStatusInput) (*TrackedOrder, error) {
	if !input.Status.Valid() {
		return nil, apperrors.InvalidInput("unknown order status")
	}

	token, err := s.sessions.RequireAdmin(ctx, clientID)
	if err != nil {
		return nil, err
	}

	order, err := s.api.UpdateStatus(ctx, token, orderID, input.Status, input.Notes)
	if err != nil {
		return nil, s.remoteFailure(ctx, clientID, "update order status", "Failed to update order status.", err)
	}

	logger.WithContext(ctx, s.logger).Info("order status updated",
		slog.String("order_id", orderID),
		slog.String("status", string(input.Status)),
	)
	if order.Status == "" {
		order.Status = input.Status
	}
	return &TrackedOrder{Order: order, Timeline: domain.Timeline(order.Status)}, nil
}

// Stats returns the admin dashboard counters. Admin only.
func (s *OrderService) Stats(ctx context.Context, clientID string) (*domain.OrderStats, error) {
	token, err := s.sessions.RequireAdmin(ctx, clientID)
	if err != nil {
		return nil, err
	}

	stats, err := s.api.Stats(ctx, token)
	if err != nil {
		return nil, s.remoteFailure(ctx, clientID, "load order stats", "Failed to load order statistics.", err)
	}
	return stats, nil
}

// remoteFailure maps a failed remote call. Auth failures end the session;
// AppErrors from the remote API pass through; anything else becomes a 502
// with fallback as the message.
func (s *OrderService) remoteFailure(ctx context.Context, clientID, op, fallback string, err error) error {
	log := logger.WithContext(ctx, s.logger)

	if httpclient.IsAuthFailure(err) {
		log.Info("remote rejected token", slog.String("op", op))
		if invErr := s.sessions.Invalidate(ctx, clientID); invErr != nil {
			return invErr
		}
		return errAuthRequired(MsgSessionExpired)
	}

	log.Warn(op+" failed", slog.String("error", err.Error()))
	if appErr, ok := asAppError(err); ok {
		return appErr
	}
	return apperrors.BadGateway("UPSTREAM_ERROR", fallback, err)
}
