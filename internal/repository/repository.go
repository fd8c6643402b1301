package repository

import (
	"context"
	"errors"
	"time"

	"github.com/learningneeds/shop/internal/domain"
)

var (
	ErrCartNotFound    = errors.New("cart not found")
	ErrItemNotFound    = errors.New("catalog item not found")
	ErrOrderNotFound   = errors.New("order not found")
	ErrDuplicateOrder  = errors.New("order already exists")
	ErrAddressNotFound = errors.New("address not found")
	ErrStatusConflict  = errors.New("order status changed concurrently")
)

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

// CartRepository stores cart records per user.
// Consumers define this interface, not the MongoDB implementation
type CartRepository interface {
	GetCart(ctx context.Context, userID string) (*domain.CartRecord, error)
	UpsertCart(ctx context.Context, cart *domain.CartRecord) error
	DeleteCart(ctx context.Context, userID string) error
}

type CatalogRepository interface {
	GetItem(ctx context.Context, id int64) (*domain.CatalogItem, error)
	GetItems(ctx context.Context, ids []int64) (map[int64]*domain.CatalogItem, error)
	ListItems(ctx context.Context) ([]*domain.CatalogItem, error)
}

// OrderRepository persists orders. SaveOrder writes the order, its items, the
// optional payment and an outbox event in one transaction.
type OrderRepository interface {
	SaveOrder(ctx context.Context, order *domain.Order) (string, error)
	GetOrderByID(ctx context.Context, id string) (*domain.Order, error)
	ListOrdersByUserID(ctx context.Context, userID string) ([]*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, order *domain.Order, from domain.OrderStatus) error
}

type AddressRepository interface {
	SaveAddress(ctx context.Context, address *domain.Address) (string, error)
	GetAddress(ctx context.Context, id string) (*domain.Address, error)
	ListAddresses(ctx context.Context, userID string) ([]*domain.Address, error)
}

type OutboxEvent struct {
	ID          string
	AggregateId string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
}

type OutboxRepository interface {
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id string) error
}
