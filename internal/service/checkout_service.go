package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/learningneeds/shop/internal/domain"
	"github.com/learningneeds/shop/internal/repository"
	"go.uber.org/zap"
)

// CartProvider is the slice of CartService checkout depends on.
type CartProvider interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, domain.PricingSummary, error)
	ClearCart(ctx context.Context, userID string) error
}

type CheckoutRequest struct {
	AddressID string
	Payment   PaymentDetails
}

type CheckoutService struct {
	carts     CartProvider
	addresses repository.AddressRepository
	orders    repository.OrderRepository
	capturer  PaymentCapturer
	composer  *OrderComposer
	logger    *zap.Logger
}

func NewCheckoutService(
	carts CartProvider,
	addresses repository.AddressRepository,
	orders repository.OrderRepository,
	capturer PaymentCapturer,
	composer *OrderComposer,
	logger *zap.Logger,
) *CheckoutService {
	return &CheckoutService{
		carts:     carts,
		addresses: addresses,
		orders:    orders,
		capturer:  capturer,
		composer:  composer,
		logger:    logger,
	}
}

// Checkout places an order for the user's current cart. The order, its items,
// the payment and the order.placed event are written atomically; the cart is
// cleared afterwards and a failure to do so does not fail the checkout.
func (s *CheckoutService) Checkout(ctx context.Context, userID string, req CheckoutRequest) (*domain.Order, error) {
	cart, summary, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if cart.IsEmpty() {
		return nil, domain.ErrEmptyCart
	}

	address, err := loadOwnedAddress(ctx, s.addresses, userID, req.AddressID)
	if err != nil {
		return nil, err
	}
	if err := address.Validate(); err != nil {
		return nil, err
	}

	payment := req.Payment
	if err := payment.Validate(); err != nil {
		return nil, err
	}
	if payment.Method != domain.PaymentMethodCOD {
		ref, err := s.capturer.Capture(ctx, userID, summary.Total, payment)
		if err != nil {
			return nil, fmt.Errorf("capture payment: %w", err)
		}
		payment.TransactionRef = ref
	}

	order, err := s.composer.PlaceOrder(cart, address, payment, userID)
	if err != nil {
		return nil, err
	}

	if _, err := s.orders.SaveOrder(ctx, order); err != nil {
		if errors.Is(err, repository.ErrAddressNotFound) {
			return nil, domain.NewNotFoundError("address", req.AddressID)
		}
		s.logger.Error("save order failed",
			zap.String("user_id", userID),
			zap.String("order_id", order.ID),
			zap.String("transaction_ref", payment.TransactionRef),
			zap.Error(err))
		return nil, fmt.Errorf("save order: %w", err)
	}

	if err := s.carts.ClearCart(ctx, userID); err != nil {
		s.logger.Warn("clear cart after checkout failed",
			zap.String("user_id", userID), zap.String("order_id", order.ID), zap.Error(err))
	}

	s.logger.Info("order placed",
		zap.String("user_id", userID),
		zap.String("order_id", order.ID),
		zap.String("total", order.TotalAmount.StringFixed(2)),
		zap.String("payment_method", string(order.PaymentMethod)))
	return order, nil
}
