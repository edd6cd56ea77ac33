package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/malikadeel12/TheGiftOasis-Frontend/services/storefront/internal/storage"
)

const keyPrefix = "storefront:"

// Store implements storage.Store using Redis. Every write refreshes the TTL so
// abandoned client state eventually expires.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore creates a Redis-backed store. A zero ttl keeps keys forever.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{
		client: client,
		ttl:    ttl,
	}
}

func redisKey(namespace, key string) string {
	return keyPrefix + namespace + ":" + key
}

// Get retrieves a value from Redis.
func (s *Store) Get(ctx context.Context, namespace, key string) (string, bool, error) {
	if err := storage.CheckKey(namespace, key); err != nil {
		return "", false, err
	}

	val, err := s.client.Get(ctx, redisKey(namespace, key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, true, nil
}

// Set writes a value with the configured TTL.
func (s *Store) Set(ctx context.Context, namespace, key, value string) error {
	if err := storage.CheckKey(namespace, key); err != nil {
		return err
	}

	if err := s.client.Set(ctx, redisKey(namespace, key), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Remove deletes a key.
func (s *Store) Remove(ctx context.Context, namespace, key string) error {
	if err := storage.CheckKey(namespace, key); err != nil {
		return err
	}

	if err := s.client.Del(ctx, redisKey(namespace, key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// Ping checks the Redis connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
