package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/learningneeds/shop/internal/domain"
	"github.com/learningneeds/shop/internal/repository"
	"go.uber.org/zap"
)

type OrderService struct {
	repo   repository.OrderRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewOrderService(repo repository.OrderRepository, logger *zap.Logger) *OrderService {
	return &OrderService{repo: repo, logger: logger, now: time.Now}
}

// ListOrders returns the user's orders, newest first.
func (s *OrderService) ListOrders(ctx context.Context, userID string) ([]*domain.Order, error) {
	return s.repo.ListOrdersByUserID(ctx, userID)
}

// GetOrder returns an order only to the user who placed it.
func (s *OrderService) GetOrder(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, domain.NewNotFoundError("order", orderID)
	}
	return order, nil
}

func (s *OrderService) CancelOrder(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	order, err := s.GetOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, order, domain.OrderStatusCancelled)
}

// UpdateStatus is the back-office path; it skips the ownership check.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) (*domain.Order, error) {
	if !status.Valid() {
		return nil, domain.NewValidationError("status", fmt.Sprintf("unknown order status %q", status))
	}

	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, order, status)
}

func (s *OrderService) getOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.repo.GetOrderByID(ctx, orderID)
	if errors.Is(err, repository.ErrOrderNotFound) {
		return nil, domain.NewNotFoundError("order", orderID)
	}
	return order, err
}

func (s *OrderService) transition(ctx context.Context, order *domain.Order, next domain.OrderStatus) (*domain.Order, error) {
	from := order.OrderStatus
	if err := order.Transition(next, s.now().UTC()); err != nil {
		return nil, fmt.Errorf("%w: %s -> %s", err, from, next)
	}

	err := s.repo.UpdateOrderStatus(ctx, order, from)
	if errors.Is(err, repository.ErrStatusConflict) {
		return nil, fmt.Errorf("%w: order %s is no longer %s", domain.ErrIllegalTransition, order.ID, from)
	}
	if err != nil {
		s.logger.Error("update order status failed",
			zap.String("order_id", order.ID), zap.Stringer("to", next), zap.Error(err))
		return nil, err
	}

	s.logger.Info("order status changed",
		zap.String("order_id", order.ID), zap.Stringer("from", from), zap.Stringer("to", next))
	return order, nil
}
