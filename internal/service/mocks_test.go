package service

import (
	"context"
	"sort"
	"sync"

	"github.com/learningneeds/shop/internal/cache"
	"github.com/learningneeds/shop/internal/domain"
	"github.com/learningneeds/shop/internal/repository"
	"github.com/shopspring/decimal"
)

type mockCartRepository struct {
	m       sync.RWMutex
	carts   map[string]*domain.CartRecord
	err     error
	gets    int
	deleted []string
}

func newMockCartRepository() *mockCartRepository {
	return &mockCartRepository{carts: map[string]*domain.CartRecord{}}
}

func (m *mockCartRepository) GetCart(_ context.Context, userID string) (*domain.CartRecord, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.gets++
	if m.err != nil {
		return nil, m.err
	}
	rec, ok := m.carts[userID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	cp := *rec
	cp.Items = append([]domain.CartRecordItem(nil), rec.Items...)
	return &cp, nil
}

func (m *mockCartRepository) UpsertCart(_ context.Context, rec *domain.CartRecord) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	m.carts[rec.UserID] = rec
	return nil
}

func (m *mockCartRepository) DeleteCart(_ context.Context, userID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.carts[userID]; !ok {
		return repository.ErrCartNotFound
	}
	delete(m.carts, userID)
	m.deleted = append(m.deleted, userID)
	return nil
}

func (m *mockCartRepository) stored(userID string) *domain.CartRecord {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.carts[userID]
}

func (m *mockCartRepository) getCalls() int {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.gets
}

type mockCache struct {
	m       sync.RWMutex
	data    map[string]*domain.CartRecord
	getErr  error
	deletes int
}

func newMockCache() *mockCache {
	return &mockCache{data: map[string]*domain.CartRecord{}}
}

func (c *mockCache) Get(_ context.Context, userID string) (*domain.CartRecord, error) {
	c.m.RLock()
	defer c.m.RUnlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	rec, ok := c.data[userID]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return rec, nil
}

func (c *mockCache) Set(_ context.Context, rec *domain.CartRecord) error {
	c.m.Lock()
	defer c.m.Unlock()
	c.data[rec.UserID] = rec
	return nil
}

func (c *mockCache) Delete(_ context.Context, userID string) error {
	c.m.Lock()
	defer c.m.Unlock()
	delete(c.data, userID)
	c.deletes++
	return nil
}

func (c *mockCache) has(userID string) bool {
	c.m.RLock()
	defer c.m.RUnlock()
	_, ok := c.data[userID]
	return ok
}

type mockCatalog struct {
	m     sync.RWMutex
	items map[int64]*domain.CatalogItem
}

func newMockCatalog(items ...domain.CatalogItem) *mockCatalog {
	c := &mockCatalog{items: map[int64]*domain.CatalogItem{}}
	for i := range items {
		item := items[i]
		c.items[item.ID] = &item
	}
	return c
}

func (c *mockCatalog) GetItem(_ context.Context, id int64) (*domain.CatalogItem, error) {
	c.m.RLock()
	defer c.m.RUnlock()
	item, ok := c.items[id]
	if !ok {
		return nil, repository.ErrItemNotFound
	}
	cp := *item
	return &cp, nil
}

func (c *mockCatalog) GetItems(_ context.Context, ids []int64) (map[int64]*domain.CatalogItem, error) {
	c.m.RLock()
	defer c.m.RUnlock()
	out := make(map[int64]*domain.CatalogItem, len(ids))
	for _, id := range ids {
		if item, ok := c.items[id]; ok {
			cp := *item
			out[id] = &cp
		}
	}
	return out, nil
}

func (c *mockCatalog) ListItems(context.Context) ([]*domain.CatalogItem, error) {
	c.m.RLock()
	defer c.m.RUnlock()
	out := make([]*domain.CatalogItem, 0, len(c.items))
	for _, item := range c.items {
		cp := *item
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (c *mockCatalog) setPrice(id int64, price string) {
	c.m.Lock()
	defer c.m.Unlock()
	c.items[id].DiscountPrice = decimal.RequireFromString(price)
}

func (c *mockCatalog) remove(id int64) {
	c.m.Lock()
	defer c.m.Unlock()
	delete(c.items, id)
}

type mockAddressRepository struct {
	m         sync.RWMutex
	addresses map[string]*domain.Address
	saveErr   error
}

func newMockAddressRepository(addrs ...*domain.Address) *mockAddressRepository {
	r := &mockAddressRepository{addresses: map[string]*domain.Address{}}
	for _, a := range addrs {
		r.addresses[a.ID] = a
	}
	return r
}

func (r *mockAddressRepository) SaveAddress(_ context.Context, a *domain.Address) (string, error) {
	r.m.Lock()
	defer r.m.Unlock()
	if r.saveErr != nil {
		return "", r.saveErr
	}
	hasAny := false
	for _, existing := range r.addresses {
		if existing.UserID == a.UserID {
			hasAny = true
			if a.IsDefault {
				existing.IsDefault = false
			}
		}
	}
	if !hasAny {
		a.IsDefault = true
	}
	cp := *a
	r.addresses[a.ID] = &cp
	return a.ID, nil
}

func (r *mockAddressRepository) GetAddress(_ context.Context, id string) (*domain.Address, error) {
	r.m.RLock()
	defer r.m.RUnlock()
	a, ok := r.addresses[id]
	if !ok {
		return nil, repository.ErrAddressNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *mockAddressRepository) ListAddresses(_ context.Context, userID string) ([]*domain.Address, error) {
	r.m.RLock()
	defer r.m.RUnlock()
	var out []*domain.Address
	for _, a := range r.addresses {
		if a.UserID == userID {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IsDefault && !out[j].IsDefault })
	return out, nil
}

type mockOrderRepository struct {
	m         sync.RWMutex
	orders    map[string]*domain.Order
	saveErr   error
	updateErr error
	saved     []*domain.Order
}

func newMockOrderRepository() *mockOrderRepository {
	return &mockOrderRepository{orders: map[string]*domain.Order{}}
}

func (r *mockOrderRepository) SaveOrder(_ context.Context, o *domain.Order) (string, error) {
	r.m.Lock()
	defer r.m.Unlock()
	if r.saveErr != nil {
		return "", r.saveErr
	}
	cp := *o
	cp.Items = append([]domain.OrderItem(nil), o.Items...)
	r.orders[o.ID] = &cp
	r.saved = append(r.saved, &cp)
	return o.ID, nil
}

func (r *mockOrderRepository) GetOrderByID(_ context.Context, id string) (*domain.Order, error) {
	r.m.RLock()
	defer r.m.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *mockOrderRepository) ListOrdersByUserID(_ context.Context, userID string) ([]*domain.Order, error) {
	r.m.RLock()
	defer r.m.RUnlock()
	var out []*domain.Order
	for _, o := range r.orders {
		if o.UserID == userID {
			cp := *o
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *mockOrderRepository) UpdateOrderStatus(_ context.Context, o *domain.Order, from domain.OrderStatus) error {
	r.m.Lock()
	defer r.m.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	stored, ok := r.orders[o.ID]
	if !ok || stored.OrderStatus != from {
		return repository.ErrStatusConflict
	}
	cp := *o
	r.orders[o.ID] = &cp
	return nil
}

func (r *mockOrderRepository) savedCount() int {
	r.m.RLock()
	defer r.m.RUnlock()
	return len(r.saved)
}

type mockCapturer struct {
	m      sync.RWMutex
	err    error
	calls  int
	amount decimal.Decimal
}

func (c *mockCapturer) Capture(_ context.Context, _ string, amount decimal.Decimal, _ PaymentDetails) (string, error) {
	c.m.Lock()
	defer c.m.Unlock()
	c.calls++
	c.amount = amount
	if c.err != nil {
		return "", c.err
	}
	return "TXN-mock", nil
}

func (c *mockCapturer) callCount() int {
	c.m.RLock()
	defer c.m.RUnlock()
	return c.calls
}
