package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type RevenueType string

const (
	RevenueTypePlatformFee         RevenueType = "platform_fee"
	RevenueTypeAffiliateCommission RevenueType = "affiliate_commission"
)

type RevenueStatus string

const (
	RevenueStatusCollected RevenueStatus = "collected"
	RevenueStatusPending   RevenueStatus = "pending"
	RevenueStatusApproved  RevenueStatus = "approved"
	RevenueStatusCancelled RevenueStatus = "cancelled"
)

// RevenueRecord is one immutable ledger fact for a fee-generating event.
// Type, Amount, OrderID, SellerID and AffiliateCode never change after
// creation; only Status may move.
type RevenueRecord struct {
	RecordID      string          `json:"record_id"`
	Type          RevenueType     `json:"type"`
	OrderID       string          `json:"order_id"`
	SellerID      string          `json:"seller_id"`
	AffiliateCode string          `json:"affiliate_code,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Status        RevenueStatus   `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
}
