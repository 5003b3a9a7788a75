package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ShopPrice is the live price record of one product at one shop. The pair
// (ProductID, ShopID) is its identity.
type ShopPrice struct {
	ProductID    int64            `db:"product_id" json:"product_id"`
	ShopID       int64            `db:"shop_id" json:"shop_id"`
	URL          string           `db:"url" json:"url"`
	CurrentPrice *decimal.Decimal `db:"current_price" json:"current_price"`
	RegularPrice *decimal.Decimal `db:"regular_price" json:"regular_price"`
	Hidden       *bool            `db:"hidden" json:"hidden"` // nil counts as visible
	UpdatedAt    *time.Time       `db:"updated_at" json:"updated_at"`
}

// IsHidden treats a nil flag as visible.
func (s ShopPrice) IsHidden() bool {
	return s.Hidden != nil && *s.Hidden
}

// HasPrice reports whether the shop currently lists the product with a price.
func (s ShopPrice) HasPrice() bool {
	return !s.IsHidden() && s.CurrentPrice != nil
}

// Key identifies the record in logs and maps.
type ShopPriceKey struct {
	ProductID int64
	ShopID    int64
}

func (s ShopPrice) Key() ShopPriceKey {
	return ShopPriceKey{ProductID: s.ProductID, ShopID: s.ShopID}
}

// Observation is what a shop adapter reports for one record.
type Observation struct {
	CurrentPrice *decimal.Decimal
	RegularPrice *decimal.Decimal
	Hidden       *bool // optional explicit visibility, e.g. out of stock
}

// SamePrice compares two nullable prices; nil equals only nil.
func SamePrice(a, b *decimal.Decimal) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
