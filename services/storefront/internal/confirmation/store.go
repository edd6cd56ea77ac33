// Package confirmation keeps the transient "order placed" state that the
// success page reads exactly once.
package confirmation

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/malikadeel12/TheGiftOasis-Frontend/services/storefront/internal/domain"
	"github.com/malikadeel12/TheGiftOasis-Frontend/services/storefront/internal/storage"
)

// Store holds at most one pending confirmation per client.
type Store struct {
	kv  storage.Store
	ttl time.Duration
	now func() time.Time

	mu sync.Mutex
}

// NewStore creates a confirmation store over kv. Confirmations older than
// ttl are treated as absent.
func NewStore(kv storage.Store, ttl time.Duration) *Store {
	return &Store{kv: kv, ttl: ttl, now: time.Now}
}

// Put records c for clientID, replacing any unread confirmation.
func (s *Store) Put(ctx context.Context, clientID string, c *domain.Confirmation) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal confirmation: %w", err)
	}
	if err := s.kv.Set(ctx, clientID, storage.KeyOrderConfirmation, string(data)); err != nil {
		return fmt.Errorf("save confirmation: %w", err)
	}
	return nil
}

// Take returns the confirmation with reference ref and deletes it. It
// returns false when there is none, the reference does not match, or it
// has expired.
func (s *Store) Take(ctx context.Context, clientID, ref string) (*domain.Confirmation, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok, err := s.kv.Get(ctx, clientID, storage.KeyOrderConfirmation)
	if err != nil {
		return nil, false, fmt.Errorf("load confirmation: %w", err)
	}
	if !ok {
		return nil, false, nil
	}

	var c domain.Confirmation
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		_ = s.kv.Remove(ctx, clientID, storage.KeyOrderConfirmation)
		return nil, false, nil
	}
	if c.Reference != ref {
		return nil, false, nil
	}

	if err := s.kv.Remove(ctx, clientID, storage.KeyOrderConfirmation); err != nil {
		return nil, false, fmt.Errorf("consume confirmation: %w", err)
	}
	if s.ttl > 0 && s.now().Sub(c.CreatedAt) > s.ttl {
		return nil, false, nil
	}
	return &c, true, nil
}
