// Package storage holds the per-client key-value persistence the storefront
// keeps its client state in (cart snapshot, bearer token, recent searches).
package storage

import (
	"context"
	"errors"
)

// Keys under which client state is persisted. They match the keys the
// browser storefront used, so exported snapshots stay interchangeable.
const (
	KeyCartItems      = "cartItems"
	KeyToken          = "token"
	KeyRecentSearches = "recentSearches"

	KeyOrderConfirmation = "orderConfirmation"
)

// ErrInvalidKey is returned when the namespace or key is empty.
var ErrInvalidKey = errors.New("storage: namespace and key are required")

// Store is a string key-value store partitioned by namespace (the client id).
type Store interface {
	// Get returns the value and true, or "" and false when the key is absent.
	Get(ctx context.Context, namespace, key string) (string, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, namespace, key, value string) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, namespace, key string) error

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
}

// CheckKey validates a namespace/key pair. Backends call it before touching
// the underlying store.
func CheckKey(namespace, key string) error {
	if namespace == "" || key == "" {
		return ErrInvalidKey
	}
	return nil
}
