package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"smm-studio/internal/domain"
)

// Redis реализует domain.KV поверх Redis.
type Redis struct {
	client *redis.Client
}

var _ domain.KV = (*Redis)(nil)

// NewRedis создаёт хранилище.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// Get возвращает значение ключа или domain.ErrNotFound.
func (s *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, nil
}

// Set записывает значение ключа без TTL.
func (s *Redis) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}
