package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/learningneeds/shop/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	defaultTTL    = 15 * time.Minute
	defaultJitter = 5 * time.Minute
)

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	jitter time.Duration
}

type Option func(*RedisCache)

// WithTTL sets the base expiry and the maximum random extension added to it.
// Spreading expiries keeps carts written together from expiring together.
func WithTTL(ttl, jitter time.Duration) Option {
	return func(c *RedisCache) {
		c.ttl = ttl
		c.jitter = jitter
	}
}

func NewRedisCache(client *redis.Client, opts ...Option) *RedisCache {
	c := &RedisCache{
		client: client,
		ttl:    defaultTTL,
		jitter: defaultJitter,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (r *RedisCache) Get(ctx context.Context, userID string) (*domain.CartRecord, error) {
	data, err := r.client.Get(ctx, cartKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var rec domain.CartRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	return &rec, nil
}

func (r *RedisCache) Set(ctx context.Context, rec *domain.CartRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}

	if err := r.client.Set(ctx, cartKey(rec.UserID), data, r.expiry()).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, cartKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (r *RedisCache) expiry() time.Duration {
	if r.jitter <= 0 {
		return r.ttl
	}
	return r.ttl + time.Duration(rand.Int63n(int64(r.jitter)))
}

func cartKey(userID string) string {
	return fmt.Sprintf("cart:%s", userID)
}
