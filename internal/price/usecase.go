package price

import (
	"context"
	"time"

	"github.com/fekuna/pricewatch-service/internal/model"
)

type UseCase interface {
	// Freshness selection
	SelectDue(ctx context.Context, now time.Time, limit int) ([]model.ShopPrice, error)
	SelectDueByShop(ctx context.Context, now time.Time, perShop int, exclude map[model.ShopPriceKey]struct{}) ([]model.ShopPrice, error)
	SelectDealRecords(ctx context.Context) ([]model.ShopPrice, error)

	// Price writer
	Apply(ctx context.Context, rec model.ShopPrice, obs model.Observation) (ApplyResult, error)
	MarkNotFound(ctx context.Context, rec model.ShopPrice) error

	GetCheapestPrice(ctx context.Context, productID int64, shopIDs []int64) (*model.ShopPrice, error)
}

// Windows are the staleness windows per visibility state.
type Windows struct {
	Visible time.Duration
	Hidden  time.Duration
}

func (w Windows) Cutoffs(now time.Time) Cutoffs {
	now = now.UTC()
	return Cutoffs{Visible: now.Add(-w.Visible), Hidden: now.Add(-w.Hidden)}
}

// IsDue is the staleness predicate the selection queries implement. A record
// that was never refreshed is always due.
func IsDue(rec model.ShopPrice, now time.Time, w Windows) bool {
	if rec.UpdatedAt == nil {
		return true
	}
	age := now.Sub(*rec.UpdatedAt)
	if rec.IsHidden() {
		return age > w.Hidden
	}
	return age > w.Visible
}
