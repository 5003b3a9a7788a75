package usecase

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fekuna/pricewatch-service/internal/deal"
	"github.com/fekuna/pricewatch-service/internal/deal/dto"
	"github.com/fekuna/pricewatch-service/pkg/broker"
	"github.com/fekuna/pricewatch-service/pkg/cache"
	"github.com/fekuna/pricewatch-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Cache is the subset of *cache.RedisClient the deal reads use.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) error
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) error
}

type dealUseCase struct {
	repo   deal.Repository
	cache  Cache
	ttl    time.Duration
	events broker.Publisher
	logger logger.ZapLogger
	now    func() time.Time
}

type Option func(*dealUseCase)

// WithCache caches ListDeals results for ttl. The cache is flushed after
// every refresh.
func WithCache(c Cache, ttl time.Duration) Option {
	return func(uc *dealUseCase) {
		uc.cache = c
		uc.ttl = ttl
	}
}

func WithPublisher(p broker.Publisher) Option {
	return func(uc *dealUseCase) { uc.events = p }
}

func WithClock(now func() time.Time) Option {
	return func(uc *dealUseCase) { uc.now = now }
}

func NewDealUseCase(repo deal.Repository, log logger.ZapLogger, opts ...Option) deal.UseCase {
	uc := &dealUseCase{repo: repo, logger: log, now: time.Now}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

type DealsRefreshedEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Deals     int       `json:"deals"`
	Timestamp time.Time `json:"timestamp"`
}

func (uc *dealUseCase) Refresh(ctx context.Context) (int, error) {
	listed, err := uc.repo.ListedPrices(ctx)
	if err != nil {
		return 0, err
	}
	history, err := uc.repo.ListedHistory(ctx)
	if err != nil {
		return 0, err
	}

	deals := deal.Compute(listed, history)
	if err := uc.repo.ReplaceAll(ctx, deals); err != nil {
		return 0, fmt.Errorf("replace deals: %w", err)
	}
	uc.logger.Info("deals snapshot rebuilt", zap.Int("listed", len(listed)), zap.Int("deals", len(deals)))

	if uc.cache != nil {
		if err := uc.cache.DeletePrefix(ctx, deal.ListCachePrefix); err != nil {
			uc.logger.Warn("failed to invalidate deals cache", zap.Error(err))
		}
	}
	if uc.events != nil {
		ev := DealsRefreshedEvent{
			EventID:   uuid.New().String(),
			EventType: "DealsRefreshed",
			Deals:     len(deals),
			Timestamp: uc.now().UTC(),
		}
		if err := uc.events.PublishJSON(ctx, "deals", ev); err != nil {
			uc.logger.Warn("failed to publish deals refresh", zap.Error(err))
		}
	}
	return len(deals), nil
}

func (uc *dealUseCase) ListDeals(ctx context.Context, f dto.DealFilters) (*dto.DealList, error) {
	if err := f.Normalize(); err != nil {
		return nil, err
	}

	key := cacheKey(f)
	if uc.cache != nil {
		var cached dto.DealList
		err := uc.cache.GetJSON(ctx, key, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			uc.logger.Warn("deals cache read failed", zap.Error(err))
		}
	}

	deals, total, err := uc.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	facets, err := uc.repo.Facets(ctx, f)
	if err != nil {
		return nil, err
	}
	out := &dto.DealList{Deals: deals, Total: total, Facets: facets}

	if uc.cache != nil {
		if err := uc.cache.SetJSON(ctx, key, out, uc.ttl); err != nil {
			uc.logger.Warn("deals cache write failed", zap.Error(err))
		}
	}
	return out, nil
}

func (uc *dealUseCase) GetPriceTimeline(ctx context.Context, productID int64, now time.Time) ([]deal.TimelinePoint, error) {
	ok, err := uc.repo.ProductExists(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, deal.ErrProductNotFound
	}

	history, err := uc.repo.ProductHistory(ctx, productID)
	if err != nil {
		return nil, err
	}
	records, err := uc.repo.ProductRecords(ctx, productID)
	if err != nil {
		return nil, err
	}
	if now.IsZero() {
		now = uc.now()
	}
	return deal.BuildTimeline(history, deal.NewActiveSet(records), now), nil
}

func cacheKey(f dto.DealFilters) string {
	data, _ := json.Marshal(f)
	return fmt.Sprintf("%s%x", deal.ListCachePrefix, md5.Sum(data))
}
