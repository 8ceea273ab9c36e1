package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ReferralStatus string

const (
	ReferralStatusPending   ReferralStatus = "pending"
	ReferralStatusApproved  ReferralStatus = "approved"
	ReferralStatusCancelled ReferralStatus = "cancelled"
)

// AffiliateReferral records one commission owed to an affiliate for one
// referred order. Commission is fixed when the order is created and never
// recomputed; Status moves pending→approved or pending→cancelled, never both.
type AffiliateReferral struct {
	OrderID    string          `json:"order_id"`
	SellerID   string          `json:"seller_id"`
	Commission decimal.Decimal `json:"commission"`
	Status     ReferralStatus  `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
	ResolvedAt *time.Time      `json:"resolved_at,omitempty"`
}

// Affiliate is the registry entry this service reads and atomically updates.
// PendingEarnings plus PaidEarnings always equals the sum of commissions of
// referrals currently pending or approved.
type Affiliate struct {
	Code            string                       `json:"code"`
	UserID          string                       `json:"user_id"`
	Active          bool                         `json:"active"`
	CommissionRate  decimal.Decimal              `json:"commission_rate"`
	PendingEarnings decimal.Decimal              `json:"pending_earnings"`
	PaidEarnings    decimal.Decimal              `json:"paid_earnings"`
	Referrals       map[string]AffiliateReferral `json:"referrals,omitempty"`
}

// TotalEarnings is the sum of pending and paid earnings.
func (a *Affiliate) TotalEarnings() decimal.Decimal {
	return a.PendingEarnings.Add(a.PaidEarnings)
}
