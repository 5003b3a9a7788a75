package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fekuna/pricewatch-service/internal/model"
	"github.com/fekuna/pricewatch-service/internal/price"
	"github.com/fekuna/pricewatch-service/pkg/broker"
	"github.com/fekuna/pricewatch-service/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type priceUseCase struct {
	repo    price.Repository
	windows price.Windows
	events  broker.Publisher
	logger  logger.ZapLogger
	now     func() time.Time
}

// Option customizes the use case; mostly useful in tests.
type Option func(*priceUseCase)

func WithClock(now func() time.Time) Option {
	return func(uc *priceUseCase) { uc.now = now }
}

// WithPublisher enables price.changed events.
func WithPublisher(p broker.Publisher) Option {
	return func(uc *priceUseCase) { uc.events = p }
}

func NewPriceUseCase(repo price.Repository, windows price.Windows, log logger.ZapLogger, opts ...Option) price.UseCase {
	uc := &priceUseCase{
		repo:    repo,
		windows: windows,
		logger:  log,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

func (uc *priceUseCase) SelectDue(ctx context.Context, now time.Time, limit int) ([]model.ShopPrice, error) {
	if limit <= 0 {
		return nil, errors.New("limit must be positive")
	}
	return uc.repo.SelectDue(ctx, uc.windows.Cutoffs(now), limit)
}

// SelectDueByShop returns up to perShop due records for every shop with a
// backlog. Records in exclude were already attempted in the current job and
// are skipped so a failing row cannot occupy its shop's quota forever.
func (uc *priceUseCase) SelectDueByShop(ctx context.Context, now time.Time, perShop int, exclude map[model.ShopPriceKey]struct{}) ([]model.ShopPrice, error) {
	if perShop <= 0 {
		return nil, errors.New("perShop must be positive")
	}
	cutoffs := uc.windows.Cutoffs(now)

	shopIDs, err := uc.repo.DueShopIDs(ctx, cutoffs)
	if err != nil {
		return nil, err
	}

	excludedPerShop := make(map[int64]int)
	for k := range exclude {
		excludedPerShop[k.ShopID]++
	}

	var out []model.ShopPrice
	for _, shopID := range shopIDs {
		rows, err := uc.repo.SelectDueForShop(ctx, shopID, cutoffs, perShop+excludedPerShop[shopID])
		if err != nil {
			return nil, err
		}
		taken := 0
		for _, r := range rows {
			if _, skip := exclude[r.Key()]; skip {
				continue
			}
			out = append(out, r)
			taken++
			if taken == perShop {
				break
			}
		}
	}
	return out, nil
}

func (uc *priceUseCase) SelectDealRecords(ctx context.Context) ([]model.ShopPrice, error) {
	return uc.repo.SelectForDealProducts(ctx)
}

type PriceChangedEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	ProductID int64     `json:"product_id"`
	ShopID    int64     `json:"shop_id"`
	Previous  *string   `json:"previous_price"`
	Current   *string   `json:"current_price"`
	Timestamp time.Time `json:"timestamp"`
}

func (uc *priceUseCase) Apply(ctx context.Context, rec model.ShopPrice, obs model.Observation) (price.ApplyResult, error) {
	now := uc.now().UTC()
	res, err := uc.repo.ApplyObservation(ctx, rec.Key(), obs, now)
	if err != nil {
		return res, fmt.Errorf("apply observation %d/%d: %w", rec.ProductID, rec.ShopID, err)
	}

	if res.Changed {
		uc.logger.Debug("price changed",
			zap.Int64("product_id", rec.ProductID),
			zap.Int64("shop_id", rec.ShopID),
			zap.Stringp("previous", decimalString(res.Previous)),
			zap.Stringp("current", decimalString(res.Current)),
		)
		uc.publishChange(ctx, rec, res, now)
	}
	return res, nil
}

func (uc *priceUseCase) MarkNotFound(ctx context.Context, rec model.ShopPrice) error {
	if err := uc.repo.MarkHidden(ctx, rec.Key(), uc.now()); err != nil {
		return fmt.Errorf("mark hidden %d/%d: %w", rec.ProductID, rec.ShopID, err)
	}
	return nil
}

func (uc *priceUseCase) GetCheapestPrice(ctx context.Context, productID int64, shopIDs []int64) (*model.ShopPrice, error) {
	return uc.repo.Cheapest(ctx, productID, shopIDs)
}

func (uc *priceUseCase) publishChange(ctx context.Context, rec model.ShopPrice, res price.ApplyResult, now time.Time) {
	if uc.events == nil {
		return
	}
	ev := PriceChangedEvent{
		EventID:   uuid.New().String(),
		EventType: "PriceChanged",
		ProductID: rec.ProductID,
		ShopID:    rec.ShopID,
		Previous:  decimalString(res.Previous),
		Current:   decimalString(res.Current),
		Timestamp: now,
	}
	key := fmt.Sprintf("%d", rec.ProductID)
	if err := uc.events.PublishJSON(ctx, key, ev); err != nil {
		// The write already committed; a lost event only delays consumers.
		uc.logger.Warn("failed to publish price change", zap.Int64("product_id", rec.ProductID), zap.Error(err))
	}
}

func decimalString(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}
