package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wavecart/order-ledger/internal/domain"
)

func TestCreateOrder_SplitsCartAcrossSellers(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.seedCatalog()

	result, err := env.checkout.CreateOrder(context.Background(), twoSellerCart(""))
	require.NoError(t, err)

	// cartSubtotal=160 ⇒ free shipping, tax=16, total=176.
	assert.True(t, dec("160").Equal(result.Summary.CartSubtotal), "cart subtotal: %s", result.Summary.CartSubtotal)
	assert.True(t, result.Summary.Shipping.IsZero(), "shipping: %s", result.Summary.Shipping)
	assert.True(t, dec("16").Equal(result.Summary.Tax), "tax: %s", result.Summary.Tax)
	assert.True(t, dec("176").Equal(result.Summary.Total), "total: %s", result.Summary.Total)
	require.Len(t, result.Orders, 2)

	bySeller := make(map[string]*domain.Order)
	for _, order := range result.Orders {
		bySeller[order.SellerID] = order
	}

	x := bySeller["seller-x"]
	require.NotNil(t, x)
	assert.True(t, dec("120").Equal(x.Subtotal))
	assert.True(t, x.Shipping.IsZero())
	assert.True(t, dec("12").Equal(x.Tax))
	assert.True(t, dec("132").Equal(x.TotalAmount))

	y := bySeller["seller-y"]
	require.NotNil(t, y)
	assert.True(t, dec("40").Equal(y.Subtotal))
	assert.True(t, y.Shipping.IsZero())
	assert.True(t, dec("4").Equal(y.Tax))
	assert.True(t, dec("44").Equal(y.TotalAmount))

	// Per-order figures sum back to the cart figures.
	orderTotal := x.TotalAmount.Add(y.TotalAmount)
	assert.True(t, result.Summary.Total.Equal(orderTotal))

	// Stock after: A=3, B=4.
	assert.Equal(t, 3, env.productStock(t, "prod-a"))
	assert.Equal(t, 4, env.productStock(t, "prod-b"))

	for _, order := range result.Orders {
		assert.Equal(t, domain.OrderStatusPending, order.Status)
		assert.Equal(t, domain.PaymentStatusPending, order.PaymentStatus)
		require.Len(t, order.StatusHistory, 1)
		assert.Equal(t, domain.OrderStatusPending, order.StatusHistory[0].Status)

		var itemTotal decimal.Decimal
		for _, item := range order.Items {
			itemTotal = itemTotal.Add(item.Total)
		}
		assert.True(t, order.Subtotal.Equal(itemTotal), "sum(items) must equal subtotal")
	}
}

func TestCreateOrder_OrderNumbersShareRoot(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.seedCatalog()
	orders := env.checkoutTwoSellers(t, "")

	x, y := orders["seller-x"], orders["seller-y"]
	rootOf := func(number string) string {
		idx := strings.LastIndex(number, "-")
		require.Greater(t, idx, 0)
		return number[:idx]
	}
	assert.Equal(t, rootOf(x.OrderNumber), rootOf(y.OrderNumber))
	assert.NotEqual(t, x.OrderNumber, y.OrderNumber)
}

func TestCreateOrder_FlatShippingBelowThreshold(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.seedCatalog()

	req := twoSellerCart("")
	req.Lines = []domain.CartLine{
		{ProductID: "prod-b", Quantity: 2, UnitPrice: dec("40")},
	}
	result, err := env.checkout.CreateOrder(context.Background(), req)
	require.NoError(t, err)

	// cartSubtotal=80 ⇒ flat fee 10, tax 8.
	assert.True(t, dec("10").Equal(result.Summary.Shipping))
	assert.True(t, dec("8").Equal(result.Summary.Tax))
	require.Len(t, result.Orders, 1)
	assert.True(t, dec("98").Equal(result.Orders[0].TotalAmount))
}

func TestCreateOrder_AllocationAbsorbsRoundingRemainder(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	for _, seller := range []string{"seller-p", "seller-q", "seller-r"} {
		env.store.SeedProduct(&domain.Product{
			ProductID: "prod-" + seller,
			SellerID:  seller,
			Name:      "Product " + seller,
			Price:     dec("10.05"),
			Status:    domain.ProductStatusActive,
			Stock:     5,
		})
	}

	req := twoSellerCart("")
	req.Lines = []domain.CartLine{
		{ProductID: "prod-seller-p", Quantity: 1, UnitPrice: dec("10.05")},
		{ProductID: "prod-seller-q", Quantity: 1, UnitPrice: dec("10.05")},
		{ProductID: "prod-seller-r", Quantity: 1, UnitPrice: dec("10.05")},
	}
	result, err := env.checkout.CreateOrder(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, result.Orders, 3)

	// cartSubtotal=30.15 ⇒ flat fee 10, tax 3.02. Neither splits into
	// thirds at two decimal places.
	assert.True(t, dec("30.15").Equal(result.Summary.CartSubtotal))
	assert.True(t, dec("10").Equal(result.Summary.Shipping))
	assert.True(t, dec("3.02").Equal(result.Summary.Tax))
	assert.True(t, dec("43.17").Equal(result.Summary.Total))

	// First two sellers get the rounded proportional share; the last one
	// absorbs the remainder.
	for _, order := range result.Orders[:2] {
		assert.True(t, dec("3.33").Equal(order.Shipping), "shipping: %s", order.Shipping)
		assert.True(t, dec("1.01").Equal(order.Tax), "tax: %s", order.Tax)
	}
	last := result.Orders[2]
	assert.True(t, dec("3.34").Equal(last.Shipping), "shipping: %s", last.Shipping)
	assert.True(t, dec("1.00").Equal(last.Tax), "tax: %s", last.Tax)

	// Per-order figures sum exactly to the cart figures.
	shipping, tax, total := decimal.Zero, decimal.Zero, decimal.Zero
	for _, order := range result.Orders {
		shipping = shipping.Add(order.Shipping)
		tax = tax.Add(order.Tax)
		total = total.Add(order.TotalAmount)
	}
	assert.True(t, result.Summary.Shipping.Equal(shipping))
	assert.True(t, result.Summary.Tax.Equal(tax))
	assert.True(t, result.Summary.Total.Equal(total))
}

func TestCreateOrder_RecordsPlatformFees(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.seedCatalog()
	orders := env.checkoutTwoSellers(t, "")

	records, err := env.store.ListByOrder(context.Background(), orders["seller-x"].OrderID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, domain.RevenueTypePlatformFee, records[0].Type)
	assert.Equal(t, domain.RevenueStatusCollected, records[0].Status)
	assert.True(t, dec("9.6").Equal(records[0].Amount), "8%% of 120: %s", records[0].Amount)

	records, err = env.store.ListByOrder(context.Background(), orders["seller-y"].OrderID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, dec("3.2").Equal(records[0].Amount), "8%% of 40: %s", records[0].Amount)
}

func TestCreateOrder_AffiliateCommissions(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.seedCatalog()
	orders := env.checkoutTwoSellers(t, "ref-20")

	affiliate := env.affiliate(t, "ref-20")
	require.Len(t, affiliate.Referrals, 2)

	refX := affiliate.Referrals[orders["seller-x"].OrderID]
	assert.True(t, dec("24").Equal(refX.Commission), "20%% of 120: %s", refX.Commission)
	assert.Equal(t, domain.ReferralStatusPending, refX.Status)

	refY := affiliate.Referrals[orders["seller-y"].OrderID]
	assert.True(t, dec("8").Equal(refY.Commission), "20%% of 40: %s", refY.Commission)

	assert.True(t, dec("32").Equal(affiliate.PendingEarnings))
	assert.True(t, affiliate.PaidEarnings.IsZero())

	// Each order carries a pending commission revenue record next to the fee.
	records, err := env.store.ListByOrder(context.Background(), orders["seller-x"].OrderID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	var commission *domain.RevenueRecord
	for i := range records {
		if records[i].Type == domain.RevenueTypeAffiliateCommission {
			commission = &records[i]
		}
	}
	require.NotNil(t, commission)
	assert.Equal(t, domain.RevenueStatusPending, commission.Status)
	assert.True(t, dec("24").Equal(commission.Amount))
}

func TestCreateOrder_UnknownAffiliateCodeIgnored(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.seedCatalog()

	result, err := env.checkout.CreateOrder(context.Background(), twoSellerCart("no-such-code"))
	require.NoError(t, err)
	for _, order := range result.Orders {
		assert.Empty(t, order.AffiliateCode)
	}
}

func TestCreateOrder_InsufficientStockRejectsWholeCart(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.seedCatalog()

	req := twoSellerCart("")
	req.Lines[0].Quantity = 6 // prod-a has stock 5

	_, err := env.checkout.CreateOrder(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, domain.CodeInsufficientStock, domain.CodeOf(err))

	// No order and no stock mutation for any seller in the cart.
	assert.Equal(t, 5, env.productStock(t, "prod-a"))
	assert.Equal(t, 5, env.productStock(t, "prod-b"))
}

func TestCreateOrder_QuantityAggregatedAcrossLines(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.seedCatalog()

	req := twoSellerCart("")
	req.Lines = []domain.CartLine{
		{ProductID: "prod-a", Quantity: 3, UnitPrice: dec("60")},
		{ProductID: "prod-a", Quantity: 3, UnitPrice: dec("60")},
	}

	_, err := env.checkout.CreateOrder(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, domain.CodeInsufficientStock, domain.CodeOf(err))
	assert.Equal(t, 5, env.productStock(t, "prod-a"))
}

func TestCreateOrder_ProductNotFound(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.seedCatalog()

	req := twoSellerCart("")
	req.Lines[0].ProductID = "ghost"

	_, err := env.checkout.CreateOrder(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, domain.CodeProductNotFound, domain.CodeOf(err))
	assert.Equal(t, 5, env.productStock(t, "prod-b"))
}

func TestCreateOrder_InactiveProduct(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.seedCatalog()
	env.store.SeedProduct(&domain.Product{
		ProductID: "prod-c",
		SellerID:  "seller-x",
		Name:      "Product C",
		Price:     dec("5"),
		Status:    domain.ProductStatusInactive,
		Stock:     10,
	})

	req := twoSellerCart("")
	req.Lines = append(req.Lines, domain.CartLine{ProductID: "prod-c", Quantity: 1, UnitPrice: dec("5")})

	_, err := env.checkout.CreateOrder(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, domain.CodeProductUnavailable, domain.CodeOf(err))
	assert.Equal(t, 5, env.productStock(t, "prod-a"))
}

func TestCreateOrder_Validation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*domain.CreateOrderRequest)
	}{
		{"missing buyer", func(r *domain.CreateOrderRequest) { r.BuyerID = "" }},
		{"empty cart", func(r *domain.CreateOrderRequest) { r.Lines = nil }},
		{"zero quantity", func(r *domain.CreateOrderRequest) { r.Lines[0].Quantity = 0 }},
		{"negative price", func(r *domain.CreateOrderRequest) { r.Lines[0].UnitPrice = dec("-1") }},
		{"missing payment method", func(r *domain.CreateOrderRequest) { r.PaymentMethod = "" }},
		{"missing shipping address", func(r *domain.CreateOrderRequest) { r.ShippingAddress = domain.Address{} }},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			env := newTestEnv(t)
			env.seedCatalog()

			req := twoSellerCart("")
			tc.mutate(&req)

			_, err := env.checkout.CreateOrder(context.Background(), req)
			require.Error(t, err)
			assert.Equal(t, domain.KindValidation, domain.KindOf(err))
			assert.Equal(t, 5, env.productStock(t, "prod-a"))
		})
	}
}

func TestCreateOrder_ConcurrentCheckoutsNeverOversell(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.store.SeedProduct(&domain.Product{
		ProductID: "hot",
		SellerID:  "seller-x",
		Name:      "Hot Item",
		Price:     dec("25"),
		Status:    domain.ProductStatusActive,
		Stock:     5,
	})

	req := domain.CreateOrderRequest{
		BuyerID:         "buyer-1",
		Lines:           []domain.CartLine{{ProductID: "hot", Quantity: 1, UnitPrice: dec("25")}},
		ShippingAddress: domain.Address{Line1: "1 Market St"},
		BillingAddress:  domain.Address{Line1: "1 Market St"},
		PaymentMethod:   "card",
	}

	var wg sync.WaitGroup
	results := make(chan error, 12)
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.checkout.CreateOrder(context.Background(), req)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.Equal(t, domain.CodeInsufficientStock, domain.CodeOf(err))
		}
	}
	assert.Equal(t, 5, succeeded)
	assert.Equal(t, 0, env.productStock(t, "hot"))
}
