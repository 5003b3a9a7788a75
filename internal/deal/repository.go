package deal

import (
	"context"

	"github.com/fekuna/pricewatch-service/internal/deal/dto"
	"github.com/fekuna/pricewatch-service/internal/model"
	"github.com/shopspring/decimal"
)

// ListedPrice is a visible shop record with a price, joined with the
// product rank. These are the only records that can carry a deal.
type ListedPrice struct {
	ProductID    int64           `db:"product_id"`
	ShopID       int64           `db:"shop_id"`
	CurrentPrice decimal.Decimal `db:"current_price"`
	Rank         int             `db:"rank"`
}

type Repository interface {
	ListedPrices(ctx context.Context) ([]ListedPrice, error)
	// ListedHistory returns the history of every listed record ordered by
	// product, shop, created_at, id.
	ListedHistory(ctx context.Context) ([]model.PriceHistory, error)
	ReplaceAll(ctx context.Context, deals []model.Deal) error

	List(ctx context.Context, f dto.DealFilters) ([]model.DealView, int, error)
	Facets(ctx context.Context, f dto.DealFilters) (dto.Facets, error)

	ProductHistory(ctx context.Context, productID int64) ([]model.PriceHistory, error)
	ProductRecords(ctx context.Context, productID int64) ([]model.ShopPrice, error)
	ProductExists(ctx context.Context, productID int64) (bool, error)
}
