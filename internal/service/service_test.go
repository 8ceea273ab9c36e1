package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wavecart/order-ledger/internal/domain"
	"github.com/wavecart/order-ledger/internal/events"
	"github.com/wavecart/order-ledger/internal/repository/memory"
)

// testEnv wires every service against one in-memory store.
type testEnv struct {
	store    *memory.Store
	ledger   *LedgerService
	checkout *CheckoutService
	status   *StatusService
	payments *PaymentService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memory.NewStore()
	logger := zap.NewNop()
	ledger := NewLedgerService(store, store, logger)
	status := NewStatusService(store, store, ledger, events.Nop{}, logger)

	return &testEnv{
		store:    store,
		ledger:   ledger,
		checkout: NewCheckoutService(store, store, store, ledger, events.Nop{}, logger),
		status:   status,
		payments: NewPaymentService(store, status, logger),
	}
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// seedCatalog loads the two-seller catalog used across the tests:
// product A (seller-x, price 60, stock 5) and product B (seller-y,
// price 40, stock 5), plus an affiliate with a 20% rate.
func (e *testEnv) seedCatalog() {
	e.store.SeedProduct(&domain.Product{
		ProductID: "prod-a",
		SellerID:  "seller-x",
		Name:      "Product A",
		Price:     dec("60"),
		Status:    domain.ProductStatusActive,
		Stock:     5,
	})
	e.store.SeedProduct(&domain.Product{
		ProductID: "prod-b",
		SellerID:  "seller-y",
		Name:      "Product B",
		Price:     dec("40"),
		Status:    domain.ProductStatusActive,
		Stock:     5,
	})
	e.store.SeedAffiliate(&domain.Affiliate{
		Code:           "ref-20",
		UserID:         "affiliate-user",
		Active:         true,
		CommissionRate: dec("0.20"),
	})
}

func twoSellerCart(affiliateCode string) domain.CreateOrderRequest {
	return domain.CreateOrderRequest{
		BuyerID: "buyer-1",
		Lines: []domain.CartLine{
			{ProductID: "prod-a", Quantity: 2, UnitPrice: dec("60")},
			{ProductID: "prod-b", Quantity: 1, UnitPrice: dec("40")},
		},
		ShippingAddress: domain.Address{Line1: "1 Market St", City: "Berlin", PostalCode: "10117", Country: "DE"},
		BillingAddress:  domain.Address{Line1: "1 Market St", City: "Berlin", PostalCode: "10117", Country: "DE"},
		PaymentMethod:   "card",
		AffiliateCode:   affiliateCode,
	}
}

// checkoutTwoSellers runs the shared two-seller checkout and returns the
// orders keyed by seller id.
func (e *testEnv) checkoutTwoSellers(t *testing.T, affiliateCode string) map[string]*domain.Order {
	t.Helper()

	result, err := e.checkout.CreateOrder(context.Background(), twoSellerCart(affiliateCode))
	require.NoError(t, err)
	require.Len(t, result.Orders, 2)

	bySeller := make(map[string]*domain.Order, 2)
	for _, order := range result.Orders {
		bySeller[order.SellerID] = order
	}
	return bySeller
}

func (e *testEnv) productStock(t *testing.T, productID string) int {
	t.Helper()

	product, err := e.store.GetProduct(context.Background(), productID)
	require.NoError(t, err)
	return product.Stock
}

func (e *testEnv) affiliate(t *testing.T, code string) *domain.Affiliate {
	t.Helper()

	affiliate, err := e.store.GetByCode(context.Background(), code)
	require.NoError(t, err)
	return affiliate
}
