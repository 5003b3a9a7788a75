package adapter

import (
	"context"
	"hash/fnv"
	"math/rand"
	"strconv"
	"time"

	"github.com/fekuna/pricewatch-service/internal/model"
	"github.com/fekuna/pricewatch-service/internal/shop"
	"github.com/shopspring/decimal"
)

// MockAdapter synthesizes deterministic prices for offline runs. The price of
// a record only changes between calendar days, and roughly one record in
// fifty is reported as delisted.
type MockAdapter struct {
	shopID  int64
	latency time.Duration
	now     func() time.Time
}

func NewMockAdapter(shopID int64, latency time.Duration) *MockAdapter {
	return &MockAdapter{shopID: shopID, latency: latency, now: time.Now}
}

func (a *MockAdapter) Name() string { return "mock" }

func (a *MockAdapter) Fetch(ctx context.Context, rec model.ShopPrice) (model.Observation, error) {
	if a.latency > 0 {
		select {
		case <-ctx.Done():
			return model.Observation{}, &shop.FetchError{ShopID: a.shopID, Err: ctx.Err()}
		case <-time.After(a.latency):
		}
	}

	h := fnv.New64a()
	h.Write([]byte(strconv.FormatInt(rec.ProductID, 10) + ":" + strconv.FormatInt(a.shopID, 10)))
	seed := int64(h.Sum64() >> 1)

	if seed%50 == 0 {
		return model.Observation{}, shop.NotFound(a.shopID, "mock_delisted")
	}

	day := a.now().UTC().YearDay()
	r := rand.New(rand.NewSource(seed + int64(day)))

	base := decimal.NewFromInt(50 + seed%950)
	// +-10% around the base, rounded to whole units like most grocery shelves.
	factor := decimal.NewFromFloat(0.9 + r.Float64()*0.2)
	price := base.Mul(factor).Round(0)

	return model.Observation{
		CurrentPrice: decimalPtr(price),
		RegularPrice: decimalPtr(base),
		Hidden:       boolPtr(false),
	}, nil
}
