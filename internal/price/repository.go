package price

import (
	"context"
	"errors"
	"time"

	"github.com/fekuna/pricewatch-service/internal/model"
	"github.com/shopspring/decimal"
)

// ErrWriteConflict is returned when storage rejects a write with a constraint
// violation. The dispatcher logs and skips; it is not retried within a run.
var ErrWriteConflict = errors.New("price: write conflict")

// Cutoffs are the instants before which a record counts as stale.
type Cutoffs struct {
	Visible time.Time
	Hidden  time.Time
}

// ApplyResult describes the effect of one observation.
type ApplyResult struct {
	Changed  bool
	Previous *decimal.Decimal
	Current  *decimal.Decimal
	Unhidden bool
}

type Repository interface {
	// Selection
	SelectDue(ctx context.Context, c Cutoffs, limit int) ([]model.ShopPrice, error)
	DueShopIDs(ctx context.Context, c Cutoffs) ([]int64, error)
	SelectDueForShop(ctx context.Context, shopID int64, c Cutoffs, limit int) ([]model.ShopPrice, error)
	SelectForDealProducts(ctx context.Context) ([]model.ShopPrice, error)

	// Writes, each in its own transaction
	ApplyObservation(ctx context.Context, key model.ShopPriceKey, obs model.Observation, now time.Time) (ApplyResult, error)
	MarkHidden(ctx context.Context, key model.ShopPriceKey, now time.Time) error

	// Reads for the web application
	Cheapest(ctx context.Context, productID int64, shopIDs []int64) (*model.ShopPrice, error)
	ListByProduct(ctx context.Context, productID int64) ([]model.ShopPrice, error)
}
