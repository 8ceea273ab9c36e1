// Package repository persists the order-ledger aggregates. The production
// implementations live on DynamoDB; internal/repository/memory carries the
// same interfaces for tests and local development.
package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/wavecart/order-ledger/internal/domain"
)

// OrderStore persists Order aggregates. Update is guarded by optimistic
// versioning: a write whose expected version is stale fails with a conflict
// error and leaves the order untouched.
type OrderStore interface {
	Create(ctx context.Context, order *domain.Order) error
	Get(ctx context.Context, orderID string) (*domain.Order, error)
	Update(ctx context.Context, order *domain.Order, expectedVersion int64) error
}

// ProductStore reads the catalog and applies conditional atomic stock
// mutations. ReserveStock decrements stock and increments soldCount only
// when stock covers the quantity; RestoreStock is the inverse and cannot
// fail on business grounds.
type ProductStore interface {
	GetProduct(ctx context.Context, productID string) (*domain.Product, error)
	ReserveStock(ctx context.Context, productID string, quantity int) error
	RestoreStock(ctx context.Context, productID string, quantity int) error
}

// AffiliateStore reads the affiliate registry and applies atomic earnings
// updates. AddReferral appends a pending referral and adds its commission to
// pendingEarnings in one write. ResolveReferral moves a pending referral to
// approved or cancelled together with the matching earnings adjustment; it
// is idempotent — resolving an already resolved referral reports
// changed=false and touches nothing.
type AffiliateStore interface {
	GetByCode(ctx context.Context, code string) (*domain.Affiliate, error)
	AddReferral(ctx context.Context, code string, referral domain.AffiliateReferral) error
	ResolveReferral(ctx context.Context, code, orderID string, target domain.ReferralStatus) (commission decimal.Decimal, changed bool, err error)
}

// RevenueStore is the append-only revenue ledger. Records are immutable
// facts; only the status of a commission record moves when its referral is
// resolved.
type RevenueStore interface {
	Append(ctx context.Context, record *domain.RevenueRecord) error
	ListByOrder(ctx context.Context, orderID string) ([]domain.RevenueRecord, error)
	UpdateCommissionStatus(ctx context.Context, orderID string, status domain.RevenueStatus) error
}

var (
	_ OrderStore     = (*OrderRepository)(nil)
	_ ProductStore   = (*ProductRepository)(nil)
	_ AffiliateStore = (*AffiliateRepository)(nil)
	_ RevenueStore   = (*RevenueRepository)(nil)
)
