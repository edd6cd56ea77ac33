package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	apperrors "github.com/malikadeel12/TheGiftOasis-Frontend/pkg/errors"
	"github.com/malikadeel12/TheGiftOasis-Frontend/pkg/logger"
	"github.com/malikadeel12/TheGiftOasis-Frontend/services/storefront/internal/domain"
	"github.com/malikadeel12/TheGiftOasis-Frontend/services/storefront/internal/event"
	"github.com/malikadeel12/TheGiftOasis-Frontend/services/storefront/internal/repository"
)

// Cart operation upper-bound limits to prevent abuse.
const (
	// MaxQuantityPerItem is the maximum quantity allowed for a single line.
	MaxQuantityPerItem = 100
	// MaxItemsPerCart is the maximum number of distinct lines in a cart.
	MaxItemsPerCart = 50
)

// AddItemInput holds the parameters for adding a product to the cart. The
// product is the catalog entry as the browser received it.
type AddItemInput struct {
	Product  domain.Product `json:"product"`
	Quantity *int           `json:"quantity,omitempty" validate:"omitempty,gte=-100,lte=100"`
}

// UpdateQuantityInput holds the parameters for replacing a line's quantity.
// The upper bound is checked against an existing line only.
type UpdateQuantityInput struct {
	Quantity int `json:"quantity"`
}

// CartService implements the cart operations. All mutations of one client's
// cart are serialised, and a mutation is visible only once it is persisted.
type CartService struct {
	repo     repository.CartRepository
	producer *event.Producer
	logger   *slog.Logger
	locks    *keyedMutex
	now      func() time.Time
}

// NewCartService creates a new cart service.
func NewCartService(repo repository.CartRepository, producer *event.Producer, logger *slog.Logger) *CartService {
	return &CartService{
		repo:     repo,
		producer: producer,
		logger:   logger,
		locks:    newKeyedMutex(),
		now:      time.Now,
	}
}

// GetCart returns the client's cart. A missing or unreadable snapshot yields
// an empty cart.
func (s *CartService) GetCart(ctx context.Context, clientID string) (*domain.Cart, error) {
	if clientID == "" {
		return nil, apperrors.InvalidInput("client id is required")
	}
	cart, err := s.repo.Load(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return cart, nil
}

// Total returns the cart total, recomputed from the persisted lines.
func (s *CartService) Total(ctx context.Context, clientID string) (domain.Money, error) {
	cart, err := s.GetCart(ctx, clientID)
	if err != nil {
		return 0, err
	}
	return cart.Total(), nil
}

// AddItem merges delta units of product into the cart. An existing line is
// incremented; a new line starts at max(1, delta) with the product's
// effective price at the time of the call.
func (s *CartService) AddItem(ctx context.Context, clientID string, product domain.Product, delta int) (*domain.Cart, error) {
	p, err := domain.NewCartProduct(product, s.now())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrMissingProductID):
			return nil, apperrors.InvalidInput("product id is required")
		case errors.Is(err, domain.ErrMissingPrice), errors.Is(err, domain.ErrNegativePrice):
			return nil, apperrors.InvalidInput("product price is invalid")
		default:
			return nil, apperrors.InvalidInput(err.Error())
		}
	}

	return s.mutate(ctx, clientID, func(cart *domain.Cart) (bool, error) {
		i := cart.FindItemIndex(p.ID())
		if i < 0 && len(cart.Items) >= MaxItemsPerCart {
			return false, apperrors.InvalidInput(fmt.Sprintf("cart must not contain more than %d items", MaxItemsPerCart))
		}
		resulting := delta
		if i >= 0 {
			resulting += cart.Items[i].Quantity
		}
		if resulting > MaxQuantityPerItem {
			return false, apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", MaxQuantityPerItem))
		}
		cart.Add(p, delta)
		return true, nil
	})
}

// RemoveItem drops the line with productID. Removing an absent line is a
// no-op.
func (s *CartService) RemoveItem(ctx context.Context, clientID, productID string) (*domain.Cart, error) {
	return s.mutate(ctx, clientID, func(cart *domain.Cart) (bool, error) {
		return cart.Remove(productID), nil
	})
}

// SetQuantity replaces the line's quantity; q <= 0 removes the line. An
// absent productID is a no-op.
func (s *CartService) SetQuantity(ctx context.Context, clientID, productID string, q int) (*domain.Cart, error) {
	return s.mutate(ctx, clientID, func(cart *domain.Cart) (bool, error) {
		if cart.FindItemIndex(productID) < 0 {
			return false, nil
		}
		if q > MaxQuantityPerItem {
			return false, apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", MaxQuantityPerItem))
		}
		return cart.SetQuantity(productID, q), nil
	})
}

// Clear empties the cart and erases the persisted snapshot.
func (s *CartService) Clear(ctx context.Context, clientID string) error {
	return s.clear(ctx, clientID, event.ClearReasonManual)
}

func (s *CartService) clear(ctx context.Context, clientID, reason string) error {
	if clientID == "" {
		return apperrors.InvalidInput("client id is required")
	}

	unlock := s.locks.Lock(clientID)
	defer unlock()

	return s.deleteLocked(ctx, clientID, reason)
}

// settleOrdered takes the ordered lines out of the cart. Lines added after
// the order snapshot, and units topped up on an ordered line, stay behind.
// The snapshot is erased when nothing remains.
func (s *CartService) settleOrdered(ctx context.Context, clientID string, ordered *domain.Cart) error {
	unlock := s.locks.Lock(clientID)
	defer unlock()

	current, err := s.repo.Load(ctx, clientID)
	if err != nil {
		return fmt.Errorf("load cart: %w", err)
	}

	remaining := current.Clone()
	for _, li := range ordered.Items {
		if i := remaining.FindItemIndex(li.ID); i >= 0 {
			remaining.SetQuantity(li.ID, remaining.Items[i].Quantity-li.Quantity)
		}
	}
	if remaining.IsEmpty() {
		return s.deleteLocked(ctx, clientID, event.ClearReasonCheckout)
	}

	if err := s.repo.Save(ctx, clientID, remaining); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}

	logger.WithContext(ctx, s.logger).Info("ordered lines removed, newer lines kept",
		slog.Int("lines", len(remaining.Items)),
	)
	if err := s.producer.PublishCartUpdated(ctx, clientID, remaining); err != nil {
		logger.WithContext(ctx, s.logger).Warn("failed to publish cart.updated event",
			slog.String("error", err.Error()),
		)
	}
	return nil
}

func (s *CartService) deleteLocked(ctx context.Context, clientID, reason string) error {
	if err := s.repo.Delete(ctx, clientID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}

	logger.WithContext(ctx, s.logger).Info("cart cleared", slog.String("reason", reason))
	if err := s.producer.PublishCartCleared(ctx, clientID, reason); err != nil {
		logger.WithContext(ctx, s.logger).Warn("failed to publish cart.cleared event",
			slog.String("error", err.Error()),
		)
	}
	return nil
}

// mutate runs fn on a copy of the persisted cart under the client's lock and
// persists the result when fn reports a change.
func (s *CartService) mutate(ctx context.Context, clientID string, fn func(*domain.Cart) (bool, error)) (*domain.Cart, error) {
	if clientID == "" {
		return nil, apperrors.InvalidInput("client id is required")
	}

	unlock := s.locks.Lock(clientID)
	defer unlock()

	current, err := s.repo.Load(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	next := current.Clone()
	changed, err := fn(next)
	if err != nil {
		return nil, err
	}
	if !changed {
		return current, nil
	}

	if err := s.repo.Save(ctx, clientID, next); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}

	logger.WithContext(ctx, s.logger).Debug("cart updated",
		slog.Int("lines", len(next.Items)),
		slog.Int("item_count", next.ItemCount()),
		slog.Int64("total", int64(next.Total())),
	)
	if err := s.producer.PublishCartUpdated(ctx, clientID, next); err != nil {
		logger.WithContext(ctx, s.logger).Warn("failed to publish cart.updated event",
			slog.String("error", err.Error()),
		)
	}
	return next, nil
}
