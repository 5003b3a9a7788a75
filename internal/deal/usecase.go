package deal

import (
	"context"
	"errors"
	"time"

	"github.com/fekuna/pricewatch-service/internal/deal/dto"
)

// ListCachePrefix namespaces cached deal lists; anything that changes the
// deals table flushes it.
const ListCachePrefix = "deals:list:"

var ErrProductNotFound = errors.New("deal: product not found")

type UseCase interface {
	// Refresh rebuilds the deals snapshot and returns the number of deals.
	Refresh(ctx context.Context) (int, error)
	ListDeals(ctx context.Context, f dto.DealFilters) (*dto.DealList, error)
	GetPriceTimeline(ctx context.Context, productID int64, now time.Time) ([]TimelinePoint, error)
}
