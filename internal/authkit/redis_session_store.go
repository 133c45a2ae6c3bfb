package authkit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSessionStore keeps session records in Redis with per-key TTLs.
type RedisSessionStore struct {
	client *redis.Client
}

// NewRedisSessionStore dials Redis and verifies connectivity before use.
func NewRedisSessionStore(ctx context.Context, addr string, password string, db int) (*RedisSessionStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("session_store.redis.ping: %w: %s", ErrDependencyUnavailable, err)
	}
	return &RedisSessionStore{client: client}, nil
}

// Put stores a token under the session key, overwriting any prior value.
func (store *RedisSessionStore) Put(ctx context.Context, userID string, kind TokenKind, token string, ttl time.Duration) error {
	if err := store.client.Set(ctx, SessionKey(kind, userID), token, ttl).Err(); err != nil {
		return fmt.Errorf("session_store.redis.put: %w: %s", ErrDependencyUnavailable, err)
	}
	return nil
}

// Get returns the stored token, or absence if the key is missing or expired.
func (store *RedisSessionStore) Get(ctx context.Context, userID string, kind TokenKind) (string, bool, error) {
	value, err := store.client.Get(ctx, SessionKey(kind, userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("session_store.redis.get: %w: %s", ErrDependencyUnavailable, err)
	}
	return value, true, nil
}

// Delete removes the stored token. Deleting an absent key is not an error.
func (store *RedisSessionStore) Delete(ctx context.Context, userID string, kind TokenKind) error {
	if err := store.client.Del(ctx, SessionKey(kind, userID)).Err(); err != nil {
		return fmt.Errorf("session_store.redis.delete: %w: %s", ErrDependencyUnavailable, err)
	}
	return nil
}

// Close releases the underlying Redis connection pool.
func (store *RedisSessionStore) Close() error {
	return store.client.Close()
}
