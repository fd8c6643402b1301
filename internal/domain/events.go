package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderPlaced        = "order.placed"
	EventOrderStatusChanged = "order.status_changed"
)

// OrderEvent is the payload published for order lifecycle changes.
type OrderEvent struct {
	EventType     string          `json:"event_type"`
	OrderID       string          `json:"order_id"`
	UserID        string          `json:"user_id"`
	Items         []OrderItem     `json:"items,omitempty"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Currency      string          `json:"currency"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
	OrderStatus   OrderStatus     `json:"order_status"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

func NewOrderEvent(eventType string, o *Order) OrderEvent {
	ev := OrderEvent{
		EventType:     eventType,
		OrderID:       o.ID,
		UserID:        o.UserID,
		TotalAmount:   o.TotalAmount,
		Currency:      o.Currency,
		PaymentMethod: o.PaymentMethod,
		PaymentStatus: o.PaymentStatus,
		OrderStatus:   o.OrderStatus,
		OccurredAt:    o.UpdatedAt,
	}
	if eventType == EventOrderPlaced {
		ev.Items = o.Items
		ev.OccurredAt = o.CreatedAt
	}
	return ev
}
