package http

import (
	"context"
	"sync"
	"time"

	"github.com/learningneeds/shop/internal/domain"
	"github.com/learningneeds/shop/internal/service"
	"github.com/shopspring/decimal"
)

var testItems = map[int64]*domain.CatalogItem{
	1: {ID: 1, Category: domain.CategoryPDF, Title: "Ebook", OriginalPrice: decimal.NewFromInt(300), DiscountPrice: decimal.NewFromInt(200)},
	2: {ID: 2, Category: "Book", Title: "Paperback", OriginalPrice: decimal.NewFromInt(400), DiscountPrice: decimal.NewFromInt(300)},
}

type fakeCatalog struct {
	err error
}

func (f *fakeCatalog) ListItems(context.Context) ([]*domain.CatalogItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []*domain.CatalogItem{testItems[1], testItems[2]}, nil
}

func (f *fakeCatalog) GetItem(_ context.Context, id int64) (*domain.CatalogItem, error) {
	item, ok := testItems[id]
	if !ok {
		return nil, domain.NewNotFoundError("catalog item", id)
	}
	return item, nil
}

// fakeCarts keeps one ledger per user in memory.
type fakeCarts struct {
	m     sync.RWMutex
	carts map[string]*domain.Cart
}

func newFakeCarts() *fakeCarts {
	return &fakeCarts{carts: map[string]*domain.Cart{}}
}

func (f *fakeCarts) cart(userID string) *domain.Cart {
	c, ok := f.carts[userID]
	if !ok {
		c = domain.NewCart(userID)
		f.carts[userID] = c
	}
	return c
}

func (f *fakeCarts) GetCart(_ context.Context, userID string) (*domain.Cart, domain.PricingSummary, error) {
	f.m.Lock()
	defer f.m.Unlock()
	c := f.cart(userID)
	return c, domain.ComputeSummary(c), nil
}

func (f *fakeCarts) AddItem(_ context.Context, userID string, itemID int64, quantity int) (*domain.Cart, error) {
	f.m.Lock()
	defer f.m.Unlock()
	item, ok := testItems[itemID]
	if !ok {
		return nil, domain.NewNotFoundError("catalog item", itemID)
	}
	c := f.cart(userID)
	if err := c.AddItem(*item, quantity); err != nil {
		return nil, err
	}
	return c, nil
}

func (f *fakeCarts) UpdateQuantity(_ context.Context, userID string, itemID int64, quantity int) (*domain.Cart, error) {
	f.m.Lock()
	defer f.m.Unlock()
	c := f.cart(userID)
	if err := c.UpdateQuantity(itemID, quantity); err != nil {
		return nil, err
	}
	return c, nil
}

func (f *fakeCarts) RemoveItem(_ context.Context, userID string, itemID int64) (*domain.Cart, error) {
	f.m.Lock()
	defer f.m.Unlock()
	c := f.cart(userID)
	c.RemoveItem(itemID)
	return c, nil
}

func (f *fakeCarts) ClearCart(_ context.Context, userID string) error {
	f.m.Lock()
	defer f.m.Unlock()
	delete(f.carts, userID)
	return nil
}

type fakeAddresses struct {
	m     sync.RWMutex
	saved []*domain.Address
}

func (f *fakeAddresses) Save(_ context.Context, userID string, a domain.Address) (*domain.Address, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	f.m.Lock()
	defer f.m.Unlock()
	a.ID = "addr-new"
	a.UserID = userID
	f.saved = append(f.saved, &a)
	return &a, nil
}

func (f *fakeAddresses) List(_ context.Context, userID string) ([]*domain.Address, error) {
	f.m.RLock()
	defer f.m.RUnlock()
	var out []*domain.Address
	for _, a := range f.saved {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAddresses) Get(_ context.Context, userID, id string) (*domain.Address, error) {
	f.m.RLock()
	defer f.m.RUnlock()
	for _, a := range f.saved {
		if a.ID == id && a.UserID == userID {
			return a, nil
		}
	}
	return nil, domain.NewNotFoundError("address", id)
}

type fakeCheckout struct {
	m       sync.RWMutex
	lastReq service.CheckoutRequest
	err     error
}

func (f *fakeCheckout) Checkout(_ context.Context, userID string, req service.CheckoutRequest) (*domain.Order, error) {
	f.m.Lock()
	defer f.m.Unlock()
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	if !req.Payment.Method.Valid() {
		return nil, domain.NewValidationError("payment_method", "unsupported payment method")
	}
	return &domain.Order{
		ID:            "order-1",
		UserID:        userID,
		AddressID:     req.AddressID,
		TotalAmount:   decimal.NewFromInt(350),
		Currency:      domain.Currency,
		PaymentMethod: req.Payment.Method,
		PaymentStatus: domain.PaymentStatusCompleted,
		OrderStatus:   domain.OrderStatusProcessing,
		CreatedAt:     time.Now(),
	}, nil
}

type fakeOrders struct {
	m      sync.RWMutex
	orders map[string]*domain.Order
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{orders: map[string]*domain.Order{
		"o-1": {ID: "o-1", UserID: "user-1", OrderStatus: domain.OrderStatusProcessing, PaymentStatus: domain.PaymentStatusPending},
		"o-2": {ID: "o-2", UserID: "user-1", OrderStatus: domain.OrderStatusDelivered, PaymentStatus: domain.PaymentStatusCompleted},
		"o-3": {ID: "o-3", UserID: "user-2", OrderStatus: domain.OrderStatusConfirmed, PaymentStatus: domain.PaymentStatusCompleted},
	}}
}

func (f *fakeOrders) ListOrders(_ context.Context, userID string) ([]*domain.Order, error) {
	f.m.RLock()
	defer f.m.RUnlock()
	var out []*domain.Order
	for _, id := range []string{"o-1", "o-2", "o-3"} {
		if o := f.orders[id]; o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrders) GetOrder(_ context.Context, userID, orderID string) (*domain.Order, error) {
	f.m.RLock()
	defer f.m.RUnlock()
	o, ok := f.orders[orderID]
	if !ok || o.UserID != userID {
		return nil, domain.NewNotFoundError("order", orderID)
	}
	return o, nil
}

func (f *fakeOrders) CancelOrder(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	o, err := f.GetOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	f.m.Lock()
	defer f.m.Unlock()
	if err := o.Transition(domain.OrderStatusCancelled, time.Now()); err != nil {
		return nil, err
	}
	return o, nil
}

func (f *fakeOrders) UpdateStatus(_ context.Context, orderID string, status domain.OrderStatus) (*domain.Order, error) {
	if !status.Valid() {
		return nil, domain.NewValidationError("status", "unknown order status")
	}
	f.m.Lock()
	defer f.m.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return nil, domain.NewNotFoundError("order", orderID)
	}
	if err := o.Transition(status, time.Now()); err != nil {
		return nil, err
	}
	return o, nil
}
