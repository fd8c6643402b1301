package cache

import (
	"context"
	"errors"

	"github.com/learningneeds/shop/internal/domain"
)

// CartCache holds the persisted form of carts keyed by user. A cached record
// carries no prices; lines are re-resolved against the catalog on every read.
type CartCache interface {
	Get(ctx context.Context, userID string) (*domain.CartRecord, error)
	Set(ctx context.Context, rec *domain.CartRecord) error
	Delete(ctx context.Context, userID string) error
}

var ErrCacheMiss = errors.New("cache miss")
