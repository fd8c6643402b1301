package service

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/learningneeds/shop/internal/domain"
)

// OrderComposer turns a priced cart into an order. It does no I/O and leaves the
// cart untouched; clearing it after a successful save is up to the caller.
type OrderComposer struct {
	now   func() time.Time
	newID func() string
}

type ComposerOption func(*OrderComposer)

func WithClock(now func() time.Time) ComposerOption {
	return func(c *OrderComposer) { c.now = now }
}

func WithIDGenerator(newID func() string) ComposerOption {
	return func(c *OrderComposer) { c.newID = newID }
}

func NewOrderComposer(opts ...ComposerOption) *OrderComposer {
	c := &OrderComposer{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// PlaceOrder validates every precondition before building anything, so a
// returned error never comes with a partial order.
func (c *OrderComposer) PlaceOrder(
	cart *domain.Cart,
	address *domain.Address,
	payment PaymentDetails,
	payerID string,
) (*domain.Order, error) {
	if cart == nil || cart.IsEmpty() {
		return nil, domain.ErrEmptyCart
	}
	if address == nil {
		return nil, domain.NewValidationError("address", "is required")
	}
	if err := address.Validate(); err != nil {
		return nil, err
	}
	if err := payment.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(payerID) == "" {
		return nil, domain.NewValidationError("payer_id", "is required")
	}

	summary := domain.ComputeSummary(cart)
	now := c.now().UTC()

	order := &domain.Order{
		ID:             c.newID(),
		UserID:         payerID,
		AddressID:      address.ID,
		Subtotal:       summary.Subtotal,
		DeliveryCharge: summary.DeliveryCharge,
		TotalAmount:    summary.Total,
		Currency:       domain.Currency,
		PaymentMethod:  payment.Method,
		PaymentStatus:  domain.PaymentStatusCompleted,
		OrderStatus:    domain.OrderStatusProcessing,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	lines := cart.Lines()
	order.Items = make([]domain.OrderItem, 0, len(lines))
	for _, l := range lines {
		order.Items = append(order.Items, domain.OrderItem{
			ProductID: l.Item.ID,
			Title:     l.Item.Title,
			ImageRef:  l.Item.ImageRef,
			Quantity:  l.Quantity,
			UnitPrice: l.Item.DiscountPrice,
			Category:  l.Item.Category,
		})
	}

	if payment.Method == domain.PaymentMethodCOD {
		order.PaymentStatus = domain.PaymentStatusPending
		return order, nil
	}

	p := &domain.Payment{
		ID:             c.newID(),
		OrderID:        order.ID,
		Method:         payment.Method,
		Amount:         summary.Total,
		TransactionRef: payment.TransactionRef,
		CreatedAt:      now,
	}
	switch payment.Method {
	case domain.PaymentMethodCard:
		p.CardLast4 = payment.cardLast4()
	case domain.PaymentMethodUPI:
		p.UPIHandle = strings.TrimSpace(payment.UPIID)
	}
	order.Payment = p

	return order, nil
}
