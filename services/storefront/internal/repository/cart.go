package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/malikadeel12/TheGiftOasis-Frontend/pkg/logger"
	"github.com/malikadeel12/TheGiftOasis-Frontend/services/storefront/internal/domain"
	"github.com/malikadeel12/TheGiftOasis-Frontend/services/storefront/internal/storage"
)

// StoreCartRepository keeps the cart as a JSON array of line items under
// storage.KeyCartItems.
type StoreCartRepository struct {
	store  storage.Store
	logger *slog.Logger
}

// NewCartRepository creates a cart repository over store.
func NewCartRepository(store storage.Store, logger *slog.Logger) *StoreCartRepository {
	return &StoreCartRepository{store: store, logger: logger}
}

// Load reads the snapshot. A payload that does not parse or violates the
// cart invariants is logged and replaced by an empty cart; only backend
// failures are returned.
func (r *StoreCartRepository) Load(ctx context.Context, clientID string) (*domain.Cart, error) {
	raw, ok, err := r.store.Get(ctx, clientID, storage.KeyCartItems)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if !ok || raw == "" {
		return domain.NewCart(), nil
	}

	var items []domain.LineItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		logger.WithContext(ctx, r.logger).Warn("discarding unreadable cart snapshot",
			slog.String("error", err.Error()),
		)
		return domain.NewCart(), nil
	}

	cart := &domain.Cart{Items: items}
	if cart.Items == nil {
		cart.Items = []domain.LineItem{}
	}
	if err := cart.Validate(); err != nil {
		logger.WithContext(ctx, r.logger).Warn("discarding invalid cart snapshot",
			slog.String("error", err.Error()),
		)
		return domain.NewCart(), nil
	}
	return cart, nil
}

// Save writes the snapshot.
func (r *StoreCartRepository) Save(ctx context.Context, clientID string, cart *domain.Cart) error {
	items := cart.Items
	if items == nil {
		items = []domain.LineItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}
	if err := r.store.Set(ctx, clientID, storage.KeyCartItems, string(data)); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

// Delete removes the snapshot.
func (r *StoreCartRepository) Delete(ctx context.Context, clientID string) error {
	if err := r.store.Remove(ctx, clientID, storage.KeyCartItems); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}
