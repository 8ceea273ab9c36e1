package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// statusGraph lists the permitted successors of every order status.
// cancelled and refunded are terminal.
var statusGraph = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
	OrderStatusDelivered:  {OrderStatusCompleted},
	OrderStatusCompleted:  {OrderStatusRefunded},
	OrderStatusCancelled:  {},
	OrderStatusRefunded:   {},
}

// IsValid reports whether s is one of the known order statuses.
func (s OrderStatus) IsValid() bool {
	_, ok := statusGraph[s]
	return ok
}

// CanTransitionTo reports whether target is a permitted successor of s.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	for _, next := range statusGraph[s] {
		if next == target {
			return true
		}
	}
	return false
}

// IsValid reports whether p is one of the known payment statuses.
func (p PaymentStatus) IsValid() bool {
	switch p {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

type Address struct {
	Line1      string `json:"line1"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type OrderItem struct {
	ProductID    string          `json:"product_id"`
	ProductName  string          `json:"product_name"`
	ProductImage string          `json:"product_image,omitempty"`
	SellerID     string          `json:"seller_id"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Total        decimal.Decimal `json:"total"`
}

type StatusHistoryEntry struct {
	Status    OrderStatus `json:"status"`
	Actor     string      `json:"actor"`
	Note      string      `json:"note,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

type PaymentHistoryEntry struct {
	Status        PaymentStatus `json:"status"`
	TransactionID string        `json:"transaction_id,omitempty"`
	Details       string        `json:"details,omitempty"`
	Timestamp     time.Time     `json:"timestamp"`
}

// Order is the seller-scoped aggregate produced by checkout. One cart yields
// one Order per seller present in it; the Order is the unit of fulfillment
// and status tracking. Histories are append-only and never rewritten.
type Order struct {
	OrderID         string                `json:"order_id"`
	OrderNumber     string                `json:"order_number"`
	BuyerID         string                `json:"buyer_id"`
	SellerID        string                `json:"seller_id"`
	Items           []OrderItem           `json:"items"`
	Subtotal        decimal.Decimal       `json:"subtotal"`
	Shipping        decimal.Decimal       `json:"shipping"`
	Tax             decimal.Decimal       `json:"tax"`
	TotalAmount     decimal.Decimal       `json:"total_amount"`
	Status          OrderStatus           `json:"status"`
	PaymentStatus   PaymentStatus         `json:"payment_status"`
	PaymentMethod   string                `json:"payment_method"`
	ShippingAddress Address               `json:"shipping_address"`
	BillingAddress  Address               `json:"billing_address"`
	AffiliateCode   string                `json:"affiliate_code,omitempty"`
	StatusHistory   []StatusHistoryEntry  `json:"status_history"`
	PaymentHistory  []PaymentHistoryEntry `json:"payment_history"`
	// Version guards concurrent updates; every successful write bumps it.
	Version     int64      `json:"version"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// CartLine is one line of the incoming multi-seller cart. UnitPrice is the
// price captured at cart time; product status, stock and the authoritative
// seller come from the catalog at checkout.
type CartLine struct {
	ProductID string          `json:"product_id" binding:"required"`
	Quantity  int             `json:"quantity" binding:"required,min=1"`
	UnitPrice decimal.Decimal `json:"unit_price" binding:"required"`
}

type CreateOrderRequest struct {
	BuyerID         string     `json:"buyer_id" binding:"required"`
	Lines           []CartLine `json:"lines" binding:"required,min=1"`
	ShippingAddress Address    `json:"shipping_address" binding:"required"`
	BillingAddress  Address    `json:"billing_address" binding:"required"`
	PaymentMethod   string     `json:"payment_method" binding:"required"`
	AffiliateCode   string     `json:"affiliate_code,omitempty"`
}

// CheckoutSummary reports the cart-level figures the per-seller orders were
// allocated from.
type CheckoutSummary struct {
	CartSubtotal decimal.Decimal `json:"cart_subtotal"`
	Shipping     decimal.Decimal `json:"shipping"`
	Tax          decimal.Decimal `json:"tax"`
	Total        decimal.Decimal `json:"total"`
	OrderCount   int             `json:"order_count"`
}

type CheckoutResult struct {
	Orders  []*Order        `json:"orders"`
	Summary CheckoutSummary `json:"summary"`
}
