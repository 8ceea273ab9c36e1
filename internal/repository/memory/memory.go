// Package memory carries in-memory implementations of the repository
// interfaces for tests and local development. All mutations happen under a
// single mutex per store, which stands in for the conditional writes the
// DynamoDB implementations use.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wavecart/order-ledger/internal/domain"
	"github.com/wavecart/order-ledger/internal/repository"
)

var (
	_ repository.OrderStore     = (*Store)(nil)
	_ repository.ProductStore   = (*Store)(nil)
	_ repository.AffiliateStore = (*Store)(nil)
	_ repository.RevenueStore   = (*Store)(nil)
)

// Store implements every repository interface against process memory.
type Store struct {
	mu         sync.Mutex
	orders     map[string]*domain.Order
	products   map[string]*domain.Product
	affiliates map[string]*domain.Affiliate
	revenue    map[string][]domain.RevenueRecord
}

func NewStore() *Store {
	return &Store{
		orders:     make(map[string]*domain.Order),
		products:   make(map[string]*domain.Product),
		affiliates: make(map[string]*domain.Affiliate),
		revenue:    make(map[string][]domain.RevenueRecord),
	}
}

func cloneOrder(order *domain.Order) *domain.Order {
	clone := *order
	clone.Items = append([]domain.OrderItem(nil), order.Items...)
	clone.StatusHistory = append([]domain.StatusHistoryEntry(nil), order.StatusHistory...)
	clone.PaymentHistory = append([]domain.PaymentHistoryEntry(nil), order.PaymentHistory...)
	if order.CompletedAt != nil {
		at := *order.CompletedAt
		clone.CompletedAt = &at
	}
	return &clone
}

func cloneAffiliate(affiliate *domain.Affiliate) *domain.Affiliate {
	clone := *affiliate
	clone.Referrals = make(map[string]domain.AffiliateReferral, len(affiliate.Referrals))
	for orderID, ref := range affiliate.Referrals {
		if ref.ResolvedAt != nil {
			at := *ref.ResolvedAt
			ref.ResolvedAt = &at
		}
		clone.Referrals[orderID] = ref
	}
	return &clone
}

// SeedProduct loads a catalog entry; test setup only.
func (s *Store) SeedProduct(product *domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *product
	clone.Images = append([]string(nil), product.Images...)
	s.products[product.ProductID] = &clone
}

// SeedAffiliate loads a registry entry; test setup only.
func (s *Store) SeedAffiliate(affiliate *domain.Affiliate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := cloneAffiliate(affiliate)
	if clone.Referrals == nil {
		clone.Referrals = make(map[string]domain.AffiliateReferral)
	}
	s.affiliates[affiliate.Code] = clone
}

func (s *Store) Create(ctx context.Context, order *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[order.OrderID]; exists {
		return domain.NewConflictError("order %s already exists", order.OrderID)
	}
	s.orders[order.OrderID] = cloneOrder(order)

	return nil
}

func (s *Store) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[orderID]
	if !ok {
		return nil, domain.NewNotFoundError(domain.CodeOrderNotFound, "order %s not found", orderID)
	}

	return cloneOrder(order), nil
}

func (s *Store) Update(ctx context.Context, order *domain.Order, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.orders[order.OrderID]
	if !ok {
		return domain.NewNotFoundError(domain.CodeOrderNotFound, "order %s not found", order.OrderID)
	}
	if current.Version != expectedVersion {
		return domain.NewConflictError("order %s was modified concurrently", order.OrderID)
	}

	order.Version = expectedVersion + 1
	order.UpdatedAt = time.Now().UTC()
	s.orders[order.OrderID] = cloneOrder(order)

	return nil
}

func (s *Store) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, ok := s.products[productID]
	if !ok {
		return nil, domain.NewNotFoundError(domain.CodeProductNotFound, "product %s not found", productID)
	}

	clone := *product
	clone.Images = append([]string(nil), product.Images...)

	return &clone, nil
}

func (s *Store) ReserveStock(ctx context.Context, productID string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, ok := s.products[productID]
	if !ok {
		return domain.NewNotFoundError(domain.CodeProductNotFound, "product %s not found", productID)
	}
	if product.Stock < quantity {
		return domain.NewBusinessRuleError(domain.CodeInsufficientStock,
			"insufficient stock for product %s", productID)
	}

	product.Stock -= quantity
	product.SoldCount += quantity
	product.UpdatedAt = time.Now().UTC()

	return nil
}

func (s *Store) RestoreStock(ctx context.Context, productID string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, ok := s.products[productID]
	if !ok {
		return domain.NewNotFoundError(domain.CodeProductNotFound, "product %s not found", productID)
	}

	product.Stock += quantity
	product.SoldCount -= quantity
	product.UpdatedAt = time.Now().UTC()

	return nil
}

func (s *Store) GetByCode(ctx context.Context, code string) (*domain.Affiliate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	affiliate, ok := s.affiliates[code]
	if !ok {
		return nil, domain.NewNotFoundError(domain.CodeAffiliateNotFound, "affiliate %s not found", code)
	}

	return cloneAffiliate(affiliate), nil
}

func (s *Store) AddReferral(ctx context.Context, code string, referral domain.AffiliateReferral) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	affiliate, ok := s.affiliates[code]
	if !ok {
		return domain.NewNotFoundError(domain.CodeAffiliateNotFound, "affiliate %s not found", code)
	}
	if _, exists := affiliate.Referrals[referral.OrderID]; exists {
		return nil
	}

	affiliate.Referrals[referral.OrderID] = referral
	affiliate.PendingEarnings = affiliate.PendingEarnings.Add(referral.Commission)

	return nil
}

func (s *Store) ResolveReferral(ctx context.Context, code, orderID string, target domain.ReferralStatus) (decimal.Decimal, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	affiliate, ok := s.affiliates[code]
	if !ok {
		return decimal.Zero, false, domain.NewNotFoundError(domain.CodeAffiliateNotFound, "affiliate %s not found", code)
	}

	referral, ok := affiliate.Referrals[orderID]
	if !ok {
		return decimal.Zero, false, nil
	}
	if referral.Status != domain.ReferralStatusPending {
		return referral.Commission, false, nil
	}

	now := time.Now().UTC()
	referral.Status = target
	referral.ResolvedAt = &now
	affiliate.Referrals[orderID] = referral

	affiliate.PendingEarnings = affiliate.PendingEarnings.Sub(referral.Commission)
	if target == domain.ReferralStatusApproved {
		affiliate.PaidEarnings = affiliate.PaidEarnings.Add(referral.Commission)
	}

	return referral.Commission, true, nil
}

func (s *Store) Append(ctx context.Context, record *domain.RevenueRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.revenue[record.OrderID] {
		if existing.Type == record.Type {
			return nil
		}
	}
	s.revenue[record.OrderID] = append(s.revenue[record.OrderID], *record)

	return nil
}

func (s *Store) ListByOrder(ctx context.Context, orderID string) ([]domain.RevenueRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]domain.RevenueRecord(nil), s.revenue[orderID]...), nil
}

func (s *Store) UpdateCommissionStatus(ctx context.Context, orderID string, status domain.RevenueStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.revenue[orderID]
	for i := range records {
		if records[i].Type == domain.RevenueTypeAffiliateCommission {
			records[i].Status = status
		}
	}

	return nil
}
