package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Deal is a row of the todays_deals snapshot. Rows have no identity across
// refreshes; the whole table is rebuilt each time.
type Deal struct {
	ProductID        int64           `db:"product_id" json:"product_id"`
	ShopID           int64           `db:"shop_id" json:"shop_id"`
	PriceToday       decimal.Decimal `db:"price_today" json:"price_today"`
	PriceBeforeToday decimal.Decimal `db:"price_before_today" json:"price_before_today"`
	DropAmount       decimal.Decimal `db:"drop_amount" json:"drop_amount"`
	DropPercentage   decimal.Decimal `db:"drop_percentage" json:"drop_percentage"`
	Rank             int             `db:"rank" json:"rank"`
	AmountOfShops    int             `db:"amount_of_shops" json:"amount_of_shops"`
	DroppedAt        time.Time       `db:"dropped_at" json:"dropped_at"`
}

// DealView is a Deal joined with the product fields the web app renders.
type DealView struct {
	Deal
	ProductName string  `db:"product_name" json:"product_name"`
	Unit        *string `db:"unit" json:"unit"`
	CategoryID  *int64  `db:"category_id" json:"category_id"`
}
