package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"act-companion/internal/domain"
	"act-companion/internal/domain/ports/repository"
)

var _ repository.StateStore = (*KV)(nil)

// KV stores session and history records in Redis, for deployments where
// several API replicas share one user's state.
type KV struct {
	client RedisClient
	prefix string
	ttl    time.Duration
}

// NewKV returns a store namespaced under prefix. ttl 0 keeps keys until they are deleted.
func NewKV(client RedisClient, prefix string, ttl time.Duration) *KV {
	return &KV{client: client, prefix: prefix, ttl: ttl}
}

func (s *KV) key(k string) string {
	return fmt.Sprintf("%s:%s", s.prefix, k)
}

func (s *KV) Get(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, s.key(key))
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrNotFound
	}
	return v, err
}

func (s *KV) Set(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, s.key(key), value, s.ttl)
}

func (s *KV) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key))
}
