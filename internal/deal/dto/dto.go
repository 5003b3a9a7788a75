package dto

import (
	"github.com/fekuna/pricewatch-service/internal/model"
	"github.com/shopspring/decimal"
)

const (
	SortDefault   = ""
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortRecent    = "recent"
	SortRelevance = "relevance"

	DefaultLimit = 20
	MaxLimit     = 100
)

type DealFilters struct {
	ShopIDs     []int64          `json:"shop_ids,omitempty"`
	CategoryIDs []int64          `json:"category_ids,omitempty"`
	MinPrice    *decimal.Decimal `json:"min_price,omitempty"`
	MaxPrice    *decimal.Decimal `json:"max_price,omitempty"`
	MinDropPct  *decimal.Decimal `json:"min_drop_pct,omitempty"`
	Sort        string           `json:"sort,omitempty"`
	Offset      int              `json:"offset"`
	Limit       int              `json:"limit"`
}

// FacetCount is the number of matching deals for one facet value.
type FacetCount struct {
	Key   int64 `db:"facet_key" json:"key"`
	Count int   `db:"facet_count" json:"count"`
}

type Facets struct {
	Shops      []FacetCount `json:"shops"`
	Categories []FacetCount `json:"categories"`
}

type DealList struct {
	Deals  []model.DealView `json:"deals"`
	Total  int              `json:"total"`
	Facets Facets           `json:"facets"`
}
