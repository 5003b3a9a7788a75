package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceHistory rows are append-only. One row is written per observed price
// change, never per poll. Price is nil when the shop stopped reporting one.
type PriceHistory struct {
	ID        int64            `db:"id" json:"id"`
	ProductID int64            `db:"product_id" json:"product_id"`
	ShopID    int64            `db:"shop_id" json:"shop_id"`
	Price     *decimal.Decimal `db:"price" json:"price"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}
