package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/wavecart/order-ledger/internal/domain"
	"github.com/wavecart/order-ledger/internal/events"
	"github.com/wavecart/order-ledger/internal/repository"
)

// Marketplace pricing rules applied at checkout.
var (
	freeShippingThreshold = decimal.NewFromInt(100)
	flatShippingFee       = decimal.NewFromInt(10)
	taxRate               = decimal.NewFromFloat(0.10)
	platformFeeRate       = decimal.NewFromFloat(0.08)
	defaultCommissionRate = decimal.NewFromFloat(0.20)
)

// CheckoutService is the order splitter: it turns one multi-seller cart into
// one seller-scoped Order per seller, allocating cart-level shipping and tax
// proportionally and recording the fee facts for each resulting order.
type CheckoutService struct {
	orders     repository.OrderStore
	products   repository.ProductStore
	affiliates repository.AffiliateStore
	ledger     *LedgerService
	notifier   events.Notifier
	logger     *zap.Logger
}

func NewCheckoutService(
	orders repository.OrderStore,
	products repository.ProductStore,
	affiliates repository.AffiliateStore,
	ledger *LedgerService,
	notifier events.Notifier,
	logger *zap.Logger,
) *CheckoutService {
	return &CheckoutService{
		orders:     orders,
		products:   products,
		affiliates: affiliates,
		ledger:     ledger,
		notifier:   notifier,
		logger:     logger,
	}
}

// sellerGroup collects one seller's share of the cart while splitting.
type sellerGroup struct {
	sellerID string
	items    []domain.OrderItem
	subtotal decimal.Decimal
}

// CreateOrder validates the whole cart up front, then creates one Order per
// seller. Validation failures reject the cart before anything is persisted;
// once per-seller units start, a failure in one unit rolls back that unit
// only and never corrupts an already-created sibling order.
func (s *CheckoutService) CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (*domain.CheckoutResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	products, err := s.validateCart(ctx, req.Lines)
	if err != nil {
		return nil, err
	}

	groups, cartSubtotal := groupBySeller(req.Lines, products)

	shipping := flatShippingFee
	if cartSubtotal.GreaterThan(freeShippingThreshold) {
		shipping = decimal.Zero
	}
	tax := cartSubtotal.Mul(taxRate).Round(2)

	affiliate := s.resolveAffiliate(ctx, req.AffiliateCode)

	rootToken := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:10])

	result := &domain.CheckoutResult{
		Summary: domain.CheckoutSummary{
			CartSubtotal: cartSubtotal,
			Shipping:     shipping,
			Tax:          tax,
			Total:        cartSubtotal.Add(shipping).Add(tax),
			OrderCount:   len(groups),
		},
	}

	allocatedShipping := decimal.Zero
	allocatedTax := decimal.Zero

	for i, group := range groups {
		// Proportional allocation; the last seller absorbs the rounding
		// remainder so the per-order figures always sum to the cart figures.
		var orderShipping, orderTax decimal.Decimal
		if i == len(groups)-1 {
			orderShipping = shipping.Sub(allocatedShipping)
			orderTax = tax.Sub(allocatedTax)
		} else {
			orderShipping = shipping.Mul(group.subtotal).Div(cartSubtotal).Round(2)
			orderTax = tax.Mul(group.subtotal).Div(cartSubtotal).Round(2)
		}
		allocatedShipping = allocatedShipping.Add(orderShipping)
		allocatedTax = allocatedTax.Add(orderTax)

		order, err := s.createSellerOrder(ctx, req, group, affiliate, orderShipping, orderTax,
			fmt.Sprintf("ORD-%s-%d", rootToken, i+1))
		if err != nil {
			return nil, err
		}
		result.Orders = append(result.Orders, order)
	}

	return result, nil
}

func validateRequest(req domain.CreateOrderRequest) error {
	if req.BuyerID == "" {
		return domain.NewValidationError("buyer id is required")
	}
	if len(req.Lines) == 0 {
		return domain.NewValidationError("cart has no lines")
	}
	for i, line := range req.Lines {
		if line.ProductID == "" {
			return domain.NewValidationError("line %d: product id is required", i)
		}
		if line.Quantity <= 0 {
			return domain.NewValidationError("line %d: quantity must be positive", i)
		}
		if !line.UnitPrice.IsPositive() {
			return domain.NewValidationError("line %d: unit price must be positive", i)
		}
	}
	if req.PaymentMethod == "" {
		return domain.NewValidationError("payment method is required")
	}
	if req.ShippingAddress.Line1 == "" {
		return domain.NewValidationError("shipping address is required")
	}

	return nil
}

// validateCart checks every line against the catalog before anything is
// written: the product must exist, be active, and have stock covering the
// cart-wide quantity for that product.
func (s *CheckoutService) validateCart(ctx context.Context, lines []domain.CartLine) (map[string]*domain.Product, error) {
	products := make(map[string]*domain.Product, len(lines))
	needed := make(map[string]int, len(lines))

	for _, line := range lines {
		if _, seen := products[line.ProductID]; !seen {
			product, err := s.products.GetProduct(ctx, line.ProductID)
			if err != nil {
				return nil, err
			}
			products[line.ProductID] = product
		}
		needed[line.ProductID] += line.Quantity
	}

	for productID, quantity := range needed {
		product := products[productID]
		if product.Status != domain.ProductStatusActive {
			return nil, domain.NewBusinessRuleError(domain.CodeProductUnavailable,
				"product %s is not available", productID)
		}
		if product.Stock < quantity {
			return nil, domain.NewBusinessRuleError(domain.CodeInsufficientStock,
				"insufficient stock for product %s: have %d, need %d", productID, product.Stock, quantity)
		}
	}

	return products, nil
}

// groupBySeller splits cart lines into per-seller item groups, preserving
// the order sellers first appear in the cart.
func groupBySeller(lines []domain.CartLine, products map[string]*domain.Product) ([]sellerGroup, decimal.Decimal) {
	index := make(map[string]int)
	groups := make([]sellerGroup, 0)
	cartSubtotal := decimal.Zero

	for _, line := range lines {
		product := products[line.ProductID]
		total := line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))

		item := domain.OrderItem{
			ProductID:    product.ProductID,
			ProductName:  product.Name,
			ProductImage: product.FirstImage(),
			SellerID:     product.SellerID,
			Quantity:     line.Quantity,
			UnitPrice:    line.UnitPrice,
			Total:        total,
		}

		pos, ok := index[product.SellerID]
		if !ok {
			pos = len(groups)
			index[product.SellerID] = pos
			groups = append(groups, sellerGroup{sellerID: product.SellerID, subtotal: decimal.Zero})
		}
		groups[pos].items = append(groups[pos].items, item)
		groups[pos].subtotal = groups[pos].subtotal.Add(total)
		cartSubtotal = cartSubtotal.Add(total)
	}

	return groups, cartSubtotal
}

func (s *CheckoutService) resolveAffiliate(ctx context.Context, code string) *domain.Affiliate {
	if code == "" {
		return nil
	}

	affiliate, err := s.affiliates.GetByCode(ctx, code)
	if err != nil {
		// An unresolvable code does not block checkout.
		s.logger.Warn("Affiliate code did not resolve",
			zap.String("affiliate_code", code),
			zap.Error(err))
		return nil
	}
	if !affiliate.Active {
		return nil
	}

	return affiliate
}

// createSellerOrder applies one seller's atomic unit: stock reservation for
// every contained item, the order itself, the platform-fee fact, and the
// affiliate commission when a code resolved. A reservation failure rolls
// back this unit's reservations and aborts.
func (s *CheckoutService) createSellerOrder(
	ctx context.Context,
	req domain.CreateOrderRequest,
	group sellerGroup,
	affiliate *domain.Affiliate,
	shipping, tax decimal.Decimal,
	orderNumber string,
) (*domain.Order, error) {
	reserved := make([]domain.OrderItem, 0, len(group.items))
	for _, item := range group.items {
		if err := s.products.ReserveStock(ctx, item.ProductID, item.Quantity); err != nil {
			s.releaseReservations(ctx, reserved)
			return nil, err
		}
		reserved = append(reserved, item)
	}

	now := time.Now().UTC()
	order := &domain.Order{
		OrderID:         uuid.New().String(),
		OrderNumber:     orderNumber,
		BuyerID:         req.BuyerID,
		SellerID:        group.sellerID,
		Items:           group.items,
		Subtotal:        group.subtotal,
		Shipping:        shipping,
		Tax:             tax,
		TotalAmount:     group.subtotal.Add(shipping).Add(tax),
		Status:          domain.OrderStatusPending,
		PaymentStatus:   domain.PaymentStatusPending,
		PaymentMethod:   req.PaymentMethod,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		StatusHistory: []domain.StatusHistoryEntry{{
			Status:    domain.OrderStatusPending,
			Actor:     req.BuyerID,
			Note:      "order created",
			Timestamp: now,
		}},
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if affiliate != nil {
		order.AffiliateCode = affiliate.Code
	}

	if err := s.orders.Create(ctx, order); err != nil {
		s.releaseReservations(ctx, reserved)
		return nil, err
	}

	platformFee := group.subtotal.Mul(platformFeeRate).Round(2)
	if err := s.ledger.RecordPlatformFee(ctx, order, platformFee); err != nil {
		s.logger.Error("Failed to record platform fee",
			zap.String("order_id", order.OrderID),
			zap.Error(err))
	}

	if affiliate != nil {
		rate := affiliate.CommissionRate
		if rate.IsZero() {
			rate = defaultCommissionRate
		}
		commission := group.subtotal.Mul(rate).Round(2)
		if err := s.ledger.RecordAffiliateCommission(ctx, order, commission); err != nil {
			s.logger.Error("Failed to record affiliate commission",
				zap.String("order_id", order.OrderID),
				zap.String("affiliate_code", affiliate.Code),
				zap.Error(err))
		}
	}

	if err := s.notifier.NotifyNewOrder(ctx, order); err != nil {
		s.logger.Warn("Failed to publish new-order event",
			zap.String("order_id", order.OrderID),
			zap.Error(err))
	}

	s.logger.Info("Order created",
		zap.String("order_id", order.OrderID),
		zap.String("order_number", order.OrderNumber),
		zap.String("seller_id", order.SellerID),
		zap.String("total_amount", order.TotalAmount.String()))

	return order, nil
}

func (s *CheckoutService) releaseReservations(ctx context.Context, items []domain.OrderItem) {
	for _, item := range items {
		if err := s.products.RestoreStock(ctx, item.ProductID, item.Quantity); err != nil {
			s.logger.Error("Failed to release stock reservation",
				zap.String("product_id", item.ProductID),
				zap.Error(err))
		}
	}
}
