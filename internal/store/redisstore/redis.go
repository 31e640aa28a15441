package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "chatbot:binding:"

// Store keeps cookie key -> chat session id bindings in Redis.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func New(ctx context.Context, addr, password string, db int, ttl time.Duration) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return &Store{client: client, ttl: ttl}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func bindingKey(key string) string {
	return keyPrefix + key
}

// Lookup returns the session bound to key. A hit refreshes the TTL.
func (s *Store) Lookup(ctx context.Context, key string) (string, bool, error) {
	sid, err := s.client.GetEx(ctx, bindingKey(key), s.ttl).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return sid, true, nil
}

func (s *Store) Bind(ctx context.Context, key, sessionID string) error {
	return s.client.Set(ctx, bindingKey(key), sessionID, s.ttl).Err()
}

func (s *Store) Unbind(ctx context.Context, key string) error {
	return s.client.Del(ctx, bindingKey(key)).Err()
}
