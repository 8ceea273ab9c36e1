package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/wavecart/order-ledger/internal/domain"
	"github.com/wavecart/order-ledger/internal/repository"
)

// LedgerService owns the revenue ledger and the commission lifecycle. Fee
// facts are appended once per order; afterwards only the commission status
// moves, together with the affiliate's earnings counters.
type LedgerService struct {
	revenue    repository.RevenueStore
	affiliates repository.AffiliateStore
	logger     *zap.Logger
}

func NewLedgerService(revenue repository.RevenueStore, affiliates repository.AffiliateStore, logger *zap.Logger) *LedgerService {
	return &LedgerService{
		revenue:    revenue,
		affiliates: affiliates,
		logger:     logger,
	}
}

// RecordPlatformFee appends the marketplace's cut for one order. The fee is
// collected regardless of the order's eventual outcome.
func (s *LedgerService) RecordPlatformFee(ctx context.Context, order *domain.Order, amount decimal.Decimal) error {
	return s.revenue.Append(ctx, &domain.RevenueRecord{
		RecordID:  uuid.New().String(),
		Type:      domain.RevenueTypePlatformFee,
		OrderID:   order.OrderID,
		SellerID:  order.SellerID,
		Amount:    amount,
		Status:    domain.RevenueStatusCollected,
		CreatedAt: time.Now().UTC(),
	})
}

// RecordAffiliateCommission appends the pending commission fact and the
// matching pending referral on the affiliate. The commission amount is fixed
// here and never recomputed.
func (s *LedgerService) RecordAffiliateCommission(ctx context.Context, order *domain.Order, commission decimal.Decimal) error {
	if err := s.affiliates.AddReferral(ctx, order.AffiliateCode, domain.AffiliateReferral{
		OrderID:    order.OrderID,
		SellerID:   order.SellerID,
		Commission: commission,
		Status:     domain.ReferralStatusPending,
		CreatedAt:  time.Now().UTC(),
	}); err != nil {
		return err
	}

	return s.revenue.Append(ctx, &domain.RevenueRecord{
		RecordID:      uuid.New().String(),
		Type:          domain.RevenueTypeAffiliateCommission,
		OrderID:       order.OrderID,
		SellerID:      order.SellerID,
		AffiliateCode: order.AffiliateCode,
		Amount:        commission,
		Status:        domain.RevenueStatusPending,
		CreatedAt:     time.Now().UTC(),
	})
}

// ApproveCommission moves the order's pending referral to approved and its
// commission from pending to paid earnings. Idempotent per order: a referral
// that is already resolved is left untouched.
func (s *LedgerService) ApproveCommission(ctx context.Context, order *domain.Order) error {
	return s.resolveCommission(ctx, order, domain.ReferralStatusApproved, domain.RevenueStatusApproved)
}

// CancelCommission moves the order's pending referral to cancelled and
// removes its commission from pending earnings. Idempotent per order.
func (s *LedgerService) CancelCommission(ctx context.Context, order *domain.Order) error {
	return s.resolveCommission(ctx, order, domain.ReferralStatusCancelled, domain.RevenueStatusCancelled)
}

func (s *LedgerService) resolveCommission(ctx context.Context, order *domain.Order, referralStatus domain.ReferralStatus, revenueStatus domain.RevenueStatus) error {
	if order.AffiliateCode == "" {
		return nil
	}

	commission, changed, err := s.affiliates.ResolveReferral(ctx, order.AffiliateCode, order.OrderID, referralStatus)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	s.logger.Info("Commission resolved",
		zap.String("order_id", order.OrderID),
		zap.String("affiliate_code", order.AffiliateCode),
		zap.String("status", string(referralStatus)),
		zap.String("commission", commission.String()))

	return s.revenue.UpdateCommissionStatus(ctx, order.OrderID, revenueStatus)
}
