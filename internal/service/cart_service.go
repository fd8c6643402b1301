package service

import (
	"context"
	"errors"
	"time"

	"github.com/learningneeds/shop/internal/cache"
	"github.com/learningneeds/shop/internal/domain"
	"github.com/learningneeds/shop/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// CartService loads carts through the cache, resolves their lines against the
// catalog and writes every mutation back to the store.
type CartService struct {
	repo    repository.CartRepository
	cache   cache.CartCache
	catalog repository.CatalogRepository
	logger  *zap.Logger
	sfg     singleflight.Group
}

func NewCartService(
	repo repository.CartRepository,
	cache cache.CartCache,
	catalog repository.CatalogRepository,
	logger *zap.Logger,
) *CartService {
	return &CartService{
		repo:    repo,
		cache:   cache,
		catalog: catalog,
		logger:  logger,
	}
}

// GetCart returns the hydrated cart with its pricing. A user without a stored
// cart gets an empty one.
func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.Cart, domain.PricingSummary, error) {
	cart, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, domain.PricingSummary{}, err
	}
	return cart, domain.ComputeSummary(cart), nil
}

func (s *CartService) AddItem(ctx context.Context, userID string, itemID int64, quantity int) (*domain.Cart, error) {
	if quantity < 1 {
		return nil, domain.ErrQuantityBelowMinimum
	}
	if quantity > domain.MaxLineQuantity {
		return nil, domain.ErrQuantityAboveMaximum
	}

	item, err := s.catalog.GetItem(ctx, itemID)
	if errors.Is(err, repository.ErrItemNotFound) {
		return nil, domain.NewNotFoundError("catalog item", itemID)
	}
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, userID, func(c *domain.Cart) error {
		return c.AddItem(*item, quantity)
	})
}

func (s *CartService) UpdateQuantity(ctx context.Context, userID string, itemID int64, quantity int) (*domain.Cart, error) {
	return s.mutate(ctx, userID, func(c *domain.Cart) error {
		return c.UpdateQuantity(itemID, quantity)
	})
}

func (s *CartService) RemoveItem(ctx context.Context, userID string, itemID int64) (*domain.Cart, error) {
	return s.mutate(ctx, userID, func(c *domain.Cart) error {
		c.RemoveItem(itemID)
		return nil
	})
}

// ClearCart drops the stored cart. Clearing a cart that does not exist is not an error.
func (s *CartService) ClearCart(ctx context.Context, userID string) error {
	err := s.repo.DeleteCart(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrCartNotFound) {
		s.logger.Error("repo delete cart failed", zap.String("user_id", userID), zap.Error(err))
		return err
	}

	s.invalidate(userID)
	return nil
}

func (s *CartService) mutate(ctx context.Context, userID string, apply func(*domain.Cart) error) (*domain.Cart, error) {
	cart, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := apply(cart); err != nil {
		return nil, err
	}

	if err := s.repo.UpsertCart(ctx, cart.Record()); err != nil {
		s.logger.Error("repo upsert cart failed", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	s.invalidate(userID)
	return cart, nil
}

func (s *CartService) loadCart(ctx context.Context, userID string) (*domain.Cart, error) {
	rec, err := s.loadRecord(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.hydrate(ctx, rec)
}

// loadRecord is cache-aside with concurrent misses for one user collapsed into a
// single store read. The returned record is shared and must not be modified.
func (s *CartService) loadRecord(ctx context.Context, userID string) (*domain.CartRecord, error) {
	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {
		rec, err := s.cache.Get(ctx, userID)
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("cache get failed", zap.String("user_id", userID), zap.Error(err))
		}

		rec, err = s.repo.GetCart(ctx, userID)
		if errors.Is(err, repository.ErrCartNotFound) {
			now := time.Now()
			return &domain.CartRecord{UserID: userID, CreatedAt: now, UpdatedAt: now}, nil
		}
		if err != nil {
			return nil, err
		}

		// A mutation that lands between the store read and this Set can leave
		// the previous record cached until the TTL expires. Concurrent writers
		// for one user are not supported; carts are single-owner.
		if err := s.cache.Set(ctx, rec); err != nil {
			s.logger.Warn("cache set failed", zap.String("user_id", userID), zap.Error(err))
		}

		return rec, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.CartRecord), nil
}

// hydrate resolves the stored item ids against the catalog. Lines whose item has
// left the catalog are dropped.
func (s *CartService) hydrate(ctx context.Context, rec *domain.CartRecord) (*domain.Cart, error) {
	ids := make([]int64, 0, len(rec.Items))
	for _, it := range rec.Items {
		ids = append(ids, it.ProductID)
	}

	items, err := s.catalog.GetItems(ctx, ids)
	if err != nil {
		return nil, err
	}

	lines := make([]domain.CartLine, 0, len(rec.Items))
	for _, it := range rec.Items {
		item, ok := items[it.ProductID]
		if !ok {
			s.logger.Warn("dropping cart line for unknown catalog item",
				zap.String("user_id", rec.UserID), zap.Int64("item_id", it.ProductID))
			continue
		}
		lines = append(lines, domain.CartLine{Item: *item, Quantity: it.Quantity, AddedAt: it.AddedAt})
	}
	return domain.RestoreCart(rec, lines), nil
}

// invalidate drops the cached record and detaches any in-flight load so later
// readers go back to the store.
func (s *CartService) invalidate(userID string) {
	s.sfg.Forget(userID)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		s.logger.Warn("cache invalidate failed", zap.String("user_id", userID), zap.Error(err))
	}
}
