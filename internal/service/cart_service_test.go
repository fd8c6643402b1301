package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/learningneeds/shop/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func setupCartService(t *testing.T) (*CartService, *mockCartRepository, *mockCache, *mockCatalog) {
	repo := newMockCartRepository()
	c := newMockCache()
	catalog := newMockCatalog(
		catalogItem(1, "Book", "300"),
		catalogItem(2, domain.CategoryPDF, "200"),
		catalogItem(3, "Stationery", "250"),
	)
	return NewCartService(repo, c, catalog, zaptest.NewLogger(t)), repo, c, catalog
}

func TestCartService_GetCart_Empty(t *testing.T) {
	svc, _, _, _ := setupCartService(t)

	cart, summary, err := svc.GetCart(context.Background(), "user-1")
	require.NoError(t, err)

	assert.Equal(t, "user-1", cart.UserID)
	assert.True(t, cart.IsEmpty())
	assert.True(t, summary.Total.IsZero())
}

func TestCartService_AddItem_PersistsAndPrices(t *testing.T) {
	svc, repo, _, _ := setupCartService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "user-1", 1, 1)
	require.NoError(t, err)
	cart, err := svc.AddItem(ctx, "user-1", 1, 2)
	require.NoError(t, err)

	require.Equal(t, 1, cart.Len())
	assert.Equal(t, 3, cart.Lines()[0].Quantity)

	rec := repo.stored("user-1")
	require.NotNil(t, rec)
	require.Len(t, rec.Items, 1)
	assert.Equal(t, int64(1), rec.Items[0].ProductID)
	assert.Equal(t, 3, rec.Items[0].Quantity)

	_, summary, err := svc.GetCart(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "900", summary.Total.String())
}

func TestCartService_AddItem_UnknownItem(t *testing.T) {
	svc, repo, _, _ := setupCartService(t)

	_, err := svc.AddItem(context.Background(), "user-1", 42, 1)

	assert.True(t, domain.IsNotFound(err))
	assert.Nil(t, repo.stored("user-1"))
}

func TestCartService_AddItem_NonPositiveQuantity(t *testing.T) {
	svc, repo, _, _ := setupCartService(t)

	_, err := svc.AddItem(context.Background(), "user-1", 1, 0)

	assert.ErrorIs(t, err, domain.ErrQuantityBelowMinimum)
	assert.Nil(t, repo.stored("user-1"))
}

func TestCartService_UpdateQuantity(t *testing.T) {
	svc, repo, _, _ := setupCartService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "user-1", 3, 1)
	require.NoError(t, err)

	cart, err := svc.UpdateQuantity(ctx, "user-1", 3, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, cart.Lines()[0].Quantity)
	assert.Equal(t, 4, repo.stored("user-1").Items[0].Quantity)
}

func TestCartService_UpdateQuantity_BelowOneKeepsLine(t *testing.T) {
	svc, repo, _, _ := setupCartService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "user-1", 3, 2)
	require.NoError(t, err)

	_, err = svc.UpdateQuantity(ctx, "user-1", 3, 0)
	assert.ErrorIs(t, err, domain.ErrQuantityBelowMinimum)

	rec := repo.stored("user-1")
	require.Len(t, rec.Items, 1)
	assert.Equal(t, 2, rec.Items[0].Quantity)
}

func TestCartService_UpdateQuantity_UnknownLine(t *testing.T) {
	svc, _, _, _ := setupCartService(t)

	_, err := svc.UpdateQuantity(context.Background(), "user-1", 1, 2)

	assert.True(t, domain.IsNotFound(err))
}

func TestCartService_RemoveItem(t *testing.T) {
	svc, repo, _, _ := setupCartService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "user-1", 1, 1)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "user-1", 2, 1)
	require.NoError(t, err)

	cart, err := svc.RemoveItem(ctx, "user-1", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, cart.Len())

	cart, err = svc.RemoveItem(ctx, "user-1", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, cart.Len())
	assert.Len(t, repo.stored("user-1").Items, 1)
}

func TestCartService_ClearCart(t *testing.T) {
	svc, repo, c, _ := setupCartService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "user-1", 1, 1)
	require.NoError(t, err)

	require.NoError(t, svc.ClearCart(ctx, "user-1"))
	assert.Nil(t, repo.stored("user-1"))
	assert.False(t, c.has("user-1"))

	// nothing left to clear
	require.NoError(t, svc.ClearCart(ctx, "user-1"))
}

func TestCartService_ClearCart_RepoError(t *testing.T) {
	svc, repo, _, _ := setupCartService(t)
	repo.err = errors.New("mongo down")

	err := svc.ClearCart(context.Background(), "user-1")
	assert.EqualError(t, err, "mongo down")
}

func TestCartService_ReadPopulatesCache(t *testing.T) {
	svc, repo, c, _ := setupCartService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "user-1", 1, 1)
	require.NoError(t, err)
	assert.False(t, c.has("user-1"), "mutations invalidate the cache")

	_, _, err = svc.GetCart(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, c.has("user-1"))

	before := repo.getCalls()
	_, _, err = svc.GetCart(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, before, repo.getCalls(), "second read is served from cache")
}

func TestCartService_CacheErrorFallsBackToRepo(t *testing.T) {
	svc, _, c, _ := setupCartService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "user-1", 1, 2)
	require.NoError(t, err)
	c.getErr = errors.New("redis down")

	cart, _, err := svc.GetCart(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, cart.Lines()[0].Quantity)
}

func TestCartService_RepricesFromCatalog(t *testing.T) {
	svc, _, _, catalog := setupCartService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "user-1", 1, 1)
	require.NoError(t, err)

	catalog.setPrice(1, "550")

	_, summary, err := svc.GetCart(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "550", summary.Subtotal.String())
	assert.True(t, summary.DeliveryCharge.IsZero())
}

func TestCartService_DropsItemsMissingFromCatalog(t *testing.T) {
	svc, _, _, catalog := setupCartService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "user-1", 1, 1)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "user-1", 2, 1)
	require.NoError(t, err)

	catalog.remove(1)

	cart, _, err := svc.GetCart(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, 1, cart.Len())
	assert.Equal(t, int64(2), cart.Lines()[0].Item.ID)
}

func TestCartService_ConcurrentReads(t *testing.T) {
	svc, repo, _, _ := setupCartService(t)
	repo.carts["user-1"] = &domain.CartRecord{
		UserID: "user-1",
		Items:  []domain.CartRecordItem{{ProductID: 1, Quantity: 1, AddedAt: time.Now()}},
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cart, _, err := svc.GetCart(context.Background(), "user-1")
			assert.NoError(t, err)
			assert.Equal(t, 1, cart.Len())
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, repo.getCalls(), 20)
}

func TestCartService_QuantityBounds(t *testing.T) {
	tests := []struct {
		name    string
		run     func(svc *CartService) error
		wantQty int
	}{
		{"add above maximum", func(svc *CartService) error {
			_, err := svc.AddItem(context.Background(), "user-1", 1, domain.MaxLineQuantity+1)
			return err
		}, 2},
		{"add overflowing existing line", func(svc *CartService) error {
			_, err := svc.AddItem(context.Background(), "user-1", 1, domain.MaxLineQuantity-1)
			return err
		}, 2},
		{"update above maximum", func(svc *CartService) error {
			_, err := svc.UpdateQuantity(context.Background(), "user-1", 1, domain.MaxLineQuantity+1)
			return err
		}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _, _ := setupCartService(t)
			_, err := svc.AddItem(context.Background(), "user-1", 1, 2)
			require.NoError(t, err)

			err = tt.run(svc)
			assert.ErrorIs(t, err, domain.ErrQuantityAboveMaximum)

			rec := repo.stored("user-1")
			require.Len(t, rec.Items, 1)
			assert.Equal(t, tt.wantQty, rec.Items[0].Quantity)
		})
	}
}

func TestCartService_MutationRefreshesCachedRead(t *testing.T) {
	svc, _, c, _ := setupCartService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "user-1", 1, 1)
	require.NoError(t, err)
	_, _, err = svc.GetCart(ctx, "user-1")
	require.NoError(t, err)
	require.True(t, c.has("user-1"))

	_, err = svc.UpdateQuantity(ctx, "user-1", 1, 4)
	require.NoError(t, err)
	assert.False(t, c.has("user-1"))

	cart, _, err := svc.GetCart(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 4, cart.Lines()[0].Quantity)
}

func TestCartService_KeepsLineAddedAt(t *testing.T) {
	svc, repo, _, _ := setupCartService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "user-1", 1, 1)
	require.NoError(t, err)
	added := repo.stored("user-1").Items[0].AddedAt
	require.False(t, added.IsZero())

	time.Sleep(2 * time.Millisecond)
	_, err = svc.AddItem(ctx, "user-1", 2, 1)
	require.NoError(t, err)
	_, err = svc.UpdateQuantity(ctx, "user-1", 1, 3)
	require.NoError(t, err)

	rec := repo.stored("user-1")
	require.Len(t, rec.Items, 2)
	assert.True(t, added.Equal(rec.Items[0].AddedAt))
	assert.True(t, rec.Items[1].AddedAt.After(added))
}
