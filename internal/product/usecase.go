package product

import (
	"context"
	"errors"

	"github.com/fekuna/pricewatch-service/internal/product/dto"
)

var (
	ErrNotFound     = errors.New("product not found")
	ErrInvalidInput = errors.New("invalid input")
)

// UseCase holds the admin write operations. Both are triggered by a human,
// never by the pipeline.
type UseCase interface {
	MergeProducts(ctx context.Context, input *dto.MergeProductsInput) (*dto.MergeResult, error)
	SetShopURL(ctx context.Context, input *dto.SetShopURLInput) error
}
