package product

import (
	"context"

	"github.com/fekuna/pricewatch-service/internal/model"
	"github.com/fekuna/pricewatch-service/internal/product/dto"
)

type Repository interface {
	FindByID(ctx context.Context, id int64) (*model.Product, error)

	// Merge folds drop into keep inside one transaction.
	Merge(ctx context.Context, keepID, dropID int64) (*dto.MergeResult, error)
	UpsertShopURL(ctx context.Context, productID, shopID int64, url string) error
}
