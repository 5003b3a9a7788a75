package duplicate

import (
	"context"

	"github.com/fekuna/pricewatch-service/internal/model"
)

type Repository interface {
	// Pool lists listed products of a category at a shop, id ascending.
	Pool(ctx context.Context, categoryID, shopID int64, excludeIDs []int64, limit int) ([]model.Product, error)
	// Unlisted lists every live product without a record at the shop.
	Unlisted(ctx context.Context, shopID int64) ([]model.Product, error)
}
