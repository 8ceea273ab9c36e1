package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/wavecart/order-ledger/internal/domain"
	"github.com/wavecart/order-ledger/internal/repository"
)

// PaymentService reconciles externally-reported payment results onto orders.
// It only records what the gateway already decided; stock and commission
// effects stay with the status transition engine, so a payment update can
// never duplicate them.
type PaymentService struct {
	orders repository.OrderStore
	status *StatusService
	logger *zap.Logger
}

func NewPaymentService(orders repository.OrderStore, status *StatusService, logger *zap.Logger) *PaymentService {
	return &PaymentService{
		orders: orders,
		status: status,
		logger: logger,
	}
}

// ApplyPaymentStatus appends a payment history entry and sets the order's
// payment status. A completed payment on a still-pending order advances it
// to processing through the transition engine, with its own history entry.
func (s *PaymentService) ApplyPaymentStatus(ctx context.Context, orderID string, status domain.PaymentStatus, transactionID, details string) (*domain.Order, error) {
	if !status.IsValid() {
		return nil, domain.NewBusinessRuleError(domain.CodeInvalidPaymentStatus,
			"unknown payment status %q", status)
	}

	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	expected := order.Version
	order.PaymentStatus = status
	order.PaymentHistory = append(order.PaymentHistory, domain.PaymentHistoryEntry{
		Status:        status,
		TransactionID: transactionID,
		Details:       details,
		Timestamp:     time.Now().UTC(),
	})

	if err := s.orders.Update(ctx, order, expected); err != nil {
		return nil, err
	}

	s.logger.Info("Payment status applied",
		zap.String("order_id", orderID),
		zap.String("payment_status", string(status)),
		zap.String("transaction_id", transactionID))

	if status == domain.PaymentStatusPaid && order.Status == domain.OrderStatusPending {
		return s.status.Transition(ctx, orderID, domain.OrderStatusProcessing, domain.SystemActor(), "payment received")
	}

	return order, nil
}
