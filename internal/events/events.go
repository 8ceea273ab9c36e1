package events

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TopicNewOrder          = "new-order"
	TopicOrderStatusUpdate = "order-status-update"
	TopicOrderCancelled    = "order-cancelled"
)

type NewOrderEvent struct {
	EventID     string          `json:"event_id"`
	OrderID     string          `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	BuyerID     string          `json:"buyer_id"`
	SellerID    string          `json:"seller_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Timestamp   time.Time       `json:"timestamp"`
}

type OrderStatusUpdateEvent struct {
	EventID    string    `json:"event_id"`
	OrderID    string    `json:"order_id"`
	BuyerID    string    `json:"buyer_id"`
	SellerID   string    `json:"seller_id"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	Actor      string    `json:"actor"`
	Timestamp  time.Time `json:"timestamp"`
}

type OrderCancelledEvent struct {
	EventID   string    `json:"event_id"`
	OrderID   string    `json:"order_id"`
	BuyerID   string    `json:"buyer_id"`
	SellerID  string    `json:"seller_id"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}
