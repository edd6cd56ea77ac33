package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/malikadeel12/TheGiftOasis-Frontend/services/storefront/internal/storage"
)

// StoreSearchRepository keeps recent searches as a JSON string array under
// storage.KeyRecentSearches.
type StoreSearchRepository struct {
	store storage.Store
}

// NewSearchRepository creates a recent-search repository over store.
func NewSearchRepository(store storage.Store) *StoreSearchRepository {
	return &StoreSearchRepository{store: store}
}

// List returns the stored terms. An unreadable payload yields an empty list.
func (r *StoreSearchRepository) List(ctx context.Context, clientID string) ([]string, error) {
	raw, ok, err := r.store.Get(ctx, clientID, storage.KeyRecentSearches)
	if err != nil {
		return nil, fmt.Errorf("list recent searches: %w", err)
	}
	if !ok {
		return []string{}, nil
	}
	var terms []string
	if err := json.Unmarshal([]byte(raw), &terms); err != nil || terms == nil {
		return []string{}, nil
	}
	return terms, nil
}

// Save replaces the stored terms.
func (r *StoreSearchRepository) Save(ctx context.Context, clientID string, terms []string) error {
	data, err := json.Marshal(terms)
	if err != nil {
		return fmt.Errorf("marshal recent searches: %w", err)
	}
	if err := r.store.Set(ctx, clientID, storage.KeyRecentSearches, string(data)); err != nil {
		return fmt.Errorf("save recent searches: %w", err)
	}
	return nil
}

// Delete removes all stored terms.
func (r *StoreSearchRepository) Delete(ctx context.Context, clientID string) error {
	if err := r.store.Remove(ctx, clientID, storage.KeyRecentSearches); err != nil {
		return fmt.Errorf("delete recent searches: %w", err)
	}
	return nil
}
