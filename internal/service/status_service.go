package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/wavecart/order-ledger/internal/domain"
	"github.com/wavecart/order-ledger/internal/events"
	"github.com/wavecart/order-ledger/internal/repository"
)

// StatusService is the status transition engine. Every status change goes
// through it; the version-guarded order write decides the winner between
// concurrent transitions, and only the winner applies the edge's side
// effects, so each edge's effects happen exactly once.
type StatusService struct {
	orders   repository.OrderStore
	products repository.ProductStore
	ledger   *LedgerService
	notifier events.Notifier
	logger   *zap.Logger
}

func NewStatusService(
	orders repository.OrderStore,
	products repository.ProductStore,
	ledger *LedgerService,
	notifier events.Notifier,
	logger *zap.Logger,
) *StatusService {
	return &StatusService{
		orders:   orders,
		products: products,
		ledger:   ledger,
		notifier: notifier,
		logger:   logger,
	}
}

// GetOrder reads one order by id.
func (s *StatusService) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.orders.Get(ctx, orderID)
}

// Transition moves the order along one permitted edge of the status graph.
// A concurrent transition that committed first makes this one fail with a
// conflict error and the order untouched; the caller may retry from fresh
// state.
func (s *StatusService) Transition(ctx context.Context, orderID string, target domain.OrderStatus, actor domain.Actor, note string) (*domain.Order, error) {
	if !target.IsValid() {
		return nil, domain.NewValidationError("unknown order status %q", target)
	}

	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !actor.CanManageOrder(order) {
		return nil, domain.NewForbiddenError("actor %s may not manage order %s", actor.ID, orderID)
	}

	return s.apply(ctx, order, target, actor.ID, note)
}

// CancelOrder cancels an order still in a cancellable state. Unlike
// Transition it also admits the order's own buyer.
func (s *StatusService) CancelOrder(ctx context.Context, orderID string, actor domain.Actor, reason string) (*domain.Order, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !actor.CanCancelOrder(order) {
		return nil, domain.NewForbiddenError("actor %s may not cancel order %s", actor.ID, orderID)
	}

	if order.Status != domain.OrderStatusPending && order.Status != domain.OrderStatusProcessing {
		return nil, domain.NewBusinessRuleError(domain.CodeNotCancellable,
			"order %s in status %s cannot be cancelled", orderID, order.Status)
	}

	return s.apply(ctx, order, domain.OrderStatusCancelled, actor.ID, reason)
}

// apply commits the status change and then runs the edge's side effects.
// The conditional write on the order version is the commit point: the loser
// of a race returns a conflict without having touched anything, and the
// winner is the only caller that applies the effects for this edge.
func (s *StatusService) apply(ctx context.Context, order *domain.Order, target domain.OrderStatus, actorID, note string) (*domain.Order, error) {
	if !order.Status.CanTransitionTo(target) {
		return nil, domain.NewInvalidTransitionError(order.Status, target)
	}

	from := order.Status
	now := time.Now().UTC()
	expected := order.Version

	order.Status = target
	order.StatusHistory = append(order.StatusHistory, domain.StatusHistoryEntry{
		Status:    target,
		Actor:     actorID,
		Note:      note,
		Timestamp: now,
	})

	switch target {
	case domain.OrderStatusCancelled, domain.OrderStatusRefunded:
		order.PaymentStatus = domain.PaymentStatusRefunded
		order.PaymentHistory = append(order.PaymentHistory, domain.PaymentHistoryEntry{
			Status:    domain.PaymentStatusRefunded,
			Details:   "order " + string(target),
			Timestamp: now,
		})
	case domain.OrderStatusCompleted:
		order.CompletedAt = &now
		order.PaymentStatus = domain.PaymentStatusPaid
		order.PaymentHistory = append(order.PaymentHistory, domain.PaymentHistoryEntry{
			Status:    domain.PaymentStatusPaid,
			Details:   "order completed",
			Timestamp: now,
		})
	}

	if err := s.orders.Update(ctx, order, expected); err != nil {
		return nil, err
	}

	switch target {
	case domain.OrderStatusCancelled:
		s.restoreStock(ctx, order)
		if err := s.ledger.CancelCommission(ctx, order); err != nil {
			s.logger.Error("Failed to cancel commission",
				zap.String("order_id", order.OrderID),
				zap.Error(err))
		}
	case domain.OrderStatusRefunded:
		// An already-approved commission is not clawed back on refund.
		s.restoreStock(ctx, order)
	case domain.OrderStatusCompleted:
		if err := s.ledger.ApproveCommission(ctx, order); err != nil {
			s.logger.Error("Failed to approve commission",
				zap.String("order_id", order.OrderID),
				zap.Error(err))
		}
	}

	if err := s.notifier.NotifyStatusUpdate(ctx, order, from, target, actorID); err != nil {
		s.logger.Warn("Failed to publish order-status-update event",
			zap.String("order_id", order.OrderID),
			zap.Error(err))
	}
	if target == domain.OrderStatusCancelled {
		if err := s.notifier.NotifyCancelled(ctx, order, note); err != nil {
			s.logger.Warn("Failed to publish order-cancelled event",
				zap.String("order_id", order.OrderID),
				zap.Error(err))
		}
	}

	s.logger.Info("Order status changed",
		zap.String("order_id", order.OrderID),
		zap.String("from", string(from)),
		zap.String("to", string(target)),
		zap.String("actor", actorID))

	return order, nil
}

// restoreStock returns every item's quantity to the catalog after a cancel
// or refund.
func (s *StatusService) restoreStock(ctx context.Context, order *domain.Order) {
	for _, item := range order.Items {
		if err := s.products.RestoreStock(ctx, item.ProductID, item.Quantity); err != nil {
			s.logger.Error("Failed to restore stock",
				zap.String("order_id", order.OrderID),
				zap.String("product_id", item.ProductID),
				zap.Error(err))
		}
	}
}
