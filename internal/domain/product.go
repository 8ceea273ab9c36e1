package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
)

// Product is the catalog view this service consumes. Stock and SoldCount are
// mutated only through conditional atomic updates; Stock never goes negative.
type Product struct {
	ProductID string          `json:"product_id"`
	SellerID  string          `json:"seller_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Status    ProductStatus   `json:"status"`
	Stock     int             `json:"stock"`
	SoldCount int             `json:"sold_count"`
	Images    []string        `json:"images,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// FirstImage returns the lead catalog image, or empty when none exists.
func (p *Product) FirstImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}
