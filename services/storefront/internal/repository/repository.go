package repository

import (
	"context"

	"github.com/malikadeel12/TheGiftOasis-Frontend/services/storefront/internal/domain"
)

// CartRepository persists a client's cart snapshot.
type CartRepository interface {
	// Load returns the persisted cart, or an empty cart when nothing usable
	// is stored.
	Load(ctx context.Context, clientID string) (*domain.Cart, error)

	// Save writes the full line-item array.
	Save(ctx context.Context, clientID string, cart *domain.Cart) error

	// Delete erases the persisted snapshot.
	Delete(ctx context.Context, clientID string) error
}

// TokenRepository persists a client's bearer token.
type TokenRepository interface {
	Get(ctx context.Context, clientID string) (string, bool, error)
	Save(ctx context.Context, clientID, token string) error
	Delete(ctx context.Context, clientID string) error
}

// SearchRepository persists a client's recent search terms, most recent first.
type SearchRepository interface {
	List(ctx context.Context, clientID string) ([]string, error)
	Save(ctx context.Context, clientID string, terms []string) error
	Delete(ctx context.Context, clientID string) error
}
