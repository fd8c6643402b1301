package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentMethodCard       PaymentMethod = "card"
	PaymentMethodUPI        PaymentMethod = "upi"
	PaymentMethodNetBanking PaymentMethod = "netbanking"
	PaymentMethodCOD        PaymentMethod = "cod"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCard, PaymentMethodUPI, PaymentMethodNetBanking, PaymentMethodCOD:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

type OrderStatus string

const (
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusProcessing: {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:  {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusProcessing, OrderStatusConfirmed, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

func (s OrderStatus) String() string {
	return string(s)
}

func CanTransitionTo(from, to OrderStatus) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// OrderItem is a snapshot of a cart line taken when the order is placed. Later
// catalog edits never reach it.
type OrderItem struct {
	ProductID int64           `json:"product_id"`
	Title     string          `json:"title"`
	ImageRef  string          `json:"image_ref"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Category  Category        `json:"category"`
}

// Payment describes a capture that already happened upstream.
type Payment struct {
	ID             string          `json:"id"`
	OrderID        string          `json:"order_id"`
	Method         PaymentMethod   `json:"method"`
	Amount         decimal.Decimal `json:"amount"`
	CardLast4      string          `json:"card_last4,omitempty"`
	UPIHandle      string          `json:"upi_handle,omitempty"`
	TransactionRef string          `json:"transaction_ref,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

type Order struct {
	ID             string          `json:"id"`
	UserID         string          `json:"user_id"`
	AddressID      string          `json:"address_id"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DeliveryCharge decimal.Decimal `json:"delivery_charge"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	Currency       string          `json:"currency"`
	PaymentMethod  PaymentMethod   `json:"payment_method"`
	PaymentStatus  PaymentStatus   `json:"payment_status"`
	OrderStatus    OrderStatus     `json:"order_status"`
	Items          []OrderItem     `json:"items"`
	Payment        *Payment        `json:"payment,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Transition moves the order to next. A pending (cash on delivery) payment is
// cancelled with the order and completed on delivery.
func (o *Order) Transition(next OrderStatus, at time.Time) error {
	if !CanTransitionTo(o.OrderStatus, next) {
		return ErrIllegalTransition
	}
	o.OrderStatus = next
	if o.PaymentStatus == PaymentStatusPending {
		switch next {
		case OrderStatusCancelled:
			o.PaymentStatus = PaymentStatusCancelled
		case OrderStatusDelivered:
			o.PaymentStatus = PaymentStatusCompleted
		}
	}
	o.UpdatedAt = at
	return nil
}
