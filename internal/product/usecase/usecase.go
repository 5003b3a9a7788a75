package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/pricewatch-service/internal/deal"
	"github.com/fekuna/pricewatch-service/internal/product"
	"github.com/fekuna/pricewatch-service/internal/product/dto"
	"github.com/fekuna/pricewatch-service/pkg/broker"
	"github.com/fekuna/pricewatch-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Invalidator drops cached entries under a key prefix.
type Invalidator interface {
	DeletePrefix(ctx context.Context, prefix string) error
}

type adminUseCase struct {
	repo   product.Repository
	cache  Invalidator
	events broker.Publisher
	logger logger.ZapLogger
	now    func() time.Time
}

type Option func(*adminUseCase)

func WithCache(c Invalidator) Option {
	return func(uc *adminUseCase) { uc.cache = c }
}

func WithPublisher(p broker.Publisher) Option {
	return func(uc *adminUseCase) { uc.events = p }
}

func WithClock(now func() time.Time) Option {
	return func(uc *adminUseCase) { uc.now = now }
}

func NewAdminUseCase(repo product.Repository, log logger.ZapLogger, opts ...Option) product.UseCase {
	uc := &adminUseCase{repo: repo, logger: log, now: time.Now}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

type AdminEvent struct {
	EventID   string      `json:"event_id"`
	EventType string      `json:"event_type"`
	Actor     string      `json:"actor,omitempty"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

func (uc *adminUseCase) MergeProducts(ctx context.Context, input *dto.MergeProductsInput) (*dto.MergeResult, error) {
	if err := input.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", product.ErrInvalidInput, err)
	}

	res, err := uc.repo.Merge(ctx, input.KeepID, input.DropID)
	if err != nil {
		return nil, err
	}
	uc.logger.Info("products merged",
		zap.Int64("keep_id", res.KeepID),
		zap.Int64("drop_id", res.DropID),
		zap.Int64("moved", res.MovedRecords),
		zap.Int64("discarded", res.DroppedRecords),
		zap.String("actor", input.Actor),
	)

	// deals of the dropped product are gone from the table
	if uc.cache != nil && res.DealsDeleted > 0 {
		if err := uc.cache.DeletePrefix(ctx, deal.ListCachePrefix); err != nil {
			uc.logger.Warn("failed to invalidate deals cache", zap.Error(err))
		}
	}
	uc.publish(ctx, "ProductsMerged", input.Actor, res)
	return res, nil
}

func (uc *adminUseCase) SetShopURL(ctx context.Context, input *dto.SetShopURLInput) error {
	if err := input.Validate(); err != nil {
		return fmt.Errorf("%w: %v", product.ErrInvalidInput, err)
	}

	p, err := uc.repo.FindByID(ctx, input.ProductID)
	if err != nil {
		return err
	}
	if p.Deleted {
		return fmt.Errorf("product %d: %w", input.ProductID, product.ErrNotFound)
	}

	if err := uc.repo.UpsertShopURL(ctx, input.ProductID, input.ShopID, input.URL); err != nil {
		return fmt.Errorf("set shop url: %w", err)
	}
	uc.logger.Info("shop url set",
		zap.Int64("product_id", input.ProductID),
		zap.Int64("shop_id", input.ShopID),
		zap.String("actor", input.Actor),
	)
	uc.publish(ctx, "ShopURLSet", input.Actor, input)
	return nil
}

func (uc *adminUseCase) publish(ctx context.Context, eventType, actor string, payload interface{}) {
	if uc.events == nil {
		return
	}
	ev := AdminEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Actor:     actor,
		Payload:   payload,
		Timestamp: uc.now().UTC(),
	}
	if err := uc.events.PublishJSON(ctx, "admin", ev); err != nil {
		uc.logger.Warn("failed to publish admin event", zap.String("event_type", eventType), zap.Error(err))
	}
}
