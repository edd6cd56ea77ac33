package repository

import (
	"context"
	"fmt"

	"github.com/malikadeel12/TheGiftOasis-Frontend/services/storefront/internal/storage"
)

// StoreTokenRepository keeps the bearer token under storage.KeyToken.
type StoreTokenRepository struct {
	store storage.Store
}

// NewTokenRepository creates a token repository over store.
func NewTokenRepository(store storage.Store) *StoreTokenRepository {
	return &StoreTokenRepository{store: store}
}

// Get returns the stored token.
func (r *StoreTokenRepository) Get(ctx context.Context, clientID string) (string, bool, error) {
	tok, ok, err := r.store.Get(ctx, clientID, storage.KeyToken)
	if err != nil {
		return "", false, fmt.Errorf("get token: %w", err)
	}
	return tok, ok && tok != "", nil
}

// Save stores the token.
func (r *StoreTokenRepository) Save(ctx context.Context, clientID, token string) error {
	if err := r.store.Set(ctx, clientID, storage.KeyToken, token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// Delete removes the token.
func (r *StoreTokenRepository) Delete(ctx context.Context, clientID string) error {
	if err := r.store.Remove(ctx, clientID, storage.KeyToken); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}
