package model

import "github.com/shopspring/decimal"

type Product struct {
	ID              int64            `db:"id" json:"id"`
	Name            string           `db:"name" json:"name"`
	Unit            *string          `db:"unit" json:"unit"` // free text, e.g. "500 GR"
	CategoryID      *int64           `db:"category_id" json:"category_id"`
	BrandID         *int64           `db:"brand_id" json:"brand_id"`
	PossibleBrandID *int64           `db:"possible_brand_id" json:"possible_brand_id"` // store or alternate brand
	BaseUnitAmount  *decimal.Decimal `db:"base_unit_amount" json:"base_unit_amount"`
	Rank            int              `db:"rank" json:"rank"`
	Deleted         bool             `db:"deleted" json:"deleted"`
}
