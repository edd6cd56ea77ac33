package storage

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store. State is lost on restart; it is meant
// for local development and tests.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[string]string)}
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, namespace, key string) (string, bool, error) {
	if err := CheckKey(namespace, key); err != nil {
		return "", false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[namespace][key]
	return v, ok, nil
}

// Set implements Store.
func (s *MemoryStore) Set(_ context.Context, namespace, key, value string) error {
	if err := CheckKey(namespace, key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ns, ok := s.data[namespace]
	if !ok {
		ns = make(map[string]string)
		s.data[namespace] = ns
	}
	ns[key] = value
	return nil
}

// Remove implements Store.
func (s *MemoryStore) Remove(_ context.Context, namespace, key string) error {
	if err := CheckKey(namespace, key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data[namespace], key)
	if len(s.data[namespace]) == 0 {
		delete(s.data, namespace)
	}
	return nil
}

// Ping implements Store.
func (s *MemoryStore) Ping(context.Context) error { return nil }
