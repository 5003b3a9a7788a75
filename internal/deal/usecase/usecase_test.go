package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fekuna/pricewatch-service/internal/deal"
	"github.com/fekuna/pricewatch-service/internal/deal/dto"
	"github.com/fekuna/pricewatch-service/internal/deal/repository"
	"github.com/fekuna/pricewatch-service/internal/model"
	"github.com/fekuna/pricewatch-service/internal/testutil"
	"github.com/fekuna/pricewatch-service/pkg/cache"
	"github.com/fekuna/pricewatch-service/pkg/logger"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	gets int
	dels []string
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) GetJSON(_ context.Context, key string, dst any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	b, ok := c.data[key]
	if !ok {
		return cache.ErrMiss
	}
	return json.Unmarshal(b, dst)
}

func (c *memCache) SetJSON(_ context.Context, key string, v any, _ time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = b
	return nil
}

func (c *memCache) DeletePrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dels = append(c.dels, prefix)
	for k := range c.data {
		if strings.HasPrefix(k, prefix) {
			delete(c.data, k)
		}
	}
	return nil
}

var (
	day1 = testutil.Now.Add(-48 * time.Hour)
	day2 = testutil.Now.Add(-24 * time.Hour)
)

func seedDrop(t *testing.T, db *sqlx.DB, hidden *bool) {
	t.Helper()
	testutil.InsertProduct(t, db, model.Product{ID: 1, Name: "Leche Entera 1L", Rank: 2})
	testutil.InsertShopPrice(t, db, model.ShopPrice{ProductID: 1, ShopID: 1, CurrentPrice: testutil.Dec("80"), Hidden: hidden, UpdatedAt: testutil.Time(day2)})
	testutil.InsertHistory(t, db, model.PriceHistory{ProductID: 1, ShopID: 1, Price: testutil.Dec("100"), CreatedAt: day1})
	testutil.InsertHistory(t, db, model.PriceHistory{ProductID: 1, ShopID: 1, Price: testutil.Dec("80"), CreatedAt: day2})
}

func TestRefresh_ProducesDeal(t *testing.T) {
	db := testutil.NewDB(t)
	seedDrop(t, db, nil)
	uc := NewDealUseCase(repository.NewPGRepository(db), logger.NewNop())

	n, err := uc.Refresh(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("want 1 deal, got %d", n)
	}

	list, err := uc.ListDeals(context.Background(), dto.DealFilters{})
	if err != nil {
		t.Fatal(err)
	}
	if list.Total != 1 || len(list.Deals) != 1 {
		t.Fatalf("unexpected list %+v", list)
	}
	d := list.Deals[0]
	if !d.DropAmount.Equal(decimal.NewFromInt(20)) || !d.DropPercentage.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("want 20 / 20%%, got %s / %s", d.DropAmount, d.DropPercentage)
	}
	if d.ProductName != "Leche Entera 1L" || d.Rank != 2 || d.AmountOfShops != 1 {
		t.Fatalf("unexpected deal %+v", d)
	}
}

func TestRefresh_HiddenRecordHasNoDeal(t *testing.T) {
	db := testutil.NewDB(t)
	seedDrop(t, db, testutil.Bool(true))
	uc := NewDealUseCase(repository.NewPGRepository(db), logger.NewNop())

	n, err := uc.Refresh(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("hidden record produced %d deals", n)
	}
}

func TestRefresh_ReboundRemovesDeal(t *testing.T) {
	db := testutil.NewDB(t)
	seedDrop(t, db, nil)
	uc := NewDealUseCase(repository.NewPGRepository(db), logger.NewNop())

	if n, err := uc.Refresh(context.Background()); err != nil || n != 1 {
		t.Fatalf("first refresh: n=%d err=%v", n, err)
	}

	testutil.InsertHistory(t, db, model.PriceHistory{ProductID: 1, ShopID: 1, Price: testutil.Dec("100"), CreatedAt: testutil.Now})
	if _, err := db.Exec(`UPDATE shop_prices SET current_price = 100`); err != nil {
		t.Fatal(err)
	}

	n, err := uc.Refresh(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("rebounded price still on deal: %d", n)
	}
	var rows int
	if err := db.Get(&rows, `SELECT COUNT(*) FROM todays_deals`); err != nil {
		t.Fatal(err)
	}
	if rows != 0 {
		t.Fatalf("stale deal rows left: %d", rows)
	}
}

func TestListDeals_CachedAndInvalidated(t *testing.T) {
	db := testutil.NewDB(t)
	seedDrop(t, db, nil)
	mc := newMemCache()
	uc := NewDealUseCase(repository.NewPGRepository(db), logger.NewNop(), WithCache(mc, time.Minute))
	ctx := context.Background()

	if _, err := uc.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	first, err := uc.ListDeals(ctx, dto.DealFilters{ShopIDs: []int64{1}})
	if err != nil {
		t.Fatal(err)
	}
	if len(mc.data) != 1 {
		t.Fatalf("want one cached entry, got %d", len(mc.data))
	}

	// a direct table change is invisible while the entry is cached
	if _, err := db.Exec(`DELETE FROM todays_deals`); err != nil {
		t.Fatal(err)
	}
	second, err := uc.ListDeals(ctx, dto.DealFilters{ShopIDs: []int64{1}})
	if err != nil {
		t.Fatal(err)
	}
	if second.Total != first.Total {
		t.Fatalf("cache bypassed: %d vs %d", second.Total, first.Total)
	}

	if _, err := uc.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	if len(mc.dels) != 2 || mc.dels[0] != deal.ListCachePrefix {
		t.Fatalf("refresh did not invalidate: %v", mc.dels)
	}
}

func TestListDeals_InvalidFilters(t *testing.T) {
	db := testutil.NewDB(t)
	uc := NewDealUseCase(repository.NewPGRepository(db), logger.NewNop())

	_, err := uc.ListDeals(context.Background(), dto.DealFilters{Sort: "cheapest"})
	if !errors.Is(err, dto.ErrInvalidFilters) {
		t.Fatalf("want ErrInvalidFilters, got %v", err)
	}
}

func TestCacheKey_StableAcrossIDOrder(t *testing.T) {
	a := dto.DealFilters{ShopIDs: []int64{3, 1}}
	b := dto.DealFilters{ShopIDs: []int64{1, 3}}
	a.Normalize()
	b.Normalize()
	if cacheKey(a) != cacheKey(b) {
		t.Fatal("equal filters produced different keys")
	}
	if !strings.HasPrefix(cacheKey(a), deal.ListCachePrefix) {
		t.Fatal("key outside the invalidation prefix")
	}
}

func TestGetPriceTimeline(t *testing.T) {
	db := testutil.NewDB(t)
	seedDrop(t, db, nil)
	uc := NewDealUseCase(repository.NewPGRepository(db), logger.NewNop())

	points, err := uc.GetPriceTimeline(context.Background(), 1, testutil.Now)
	if err != nil {
		t.Fatal(err)
	}
	// 100, 80, then 80 extended to now
	if len(points) != 3 || !points[2].Synthetic || !points[2].Price.Equal(decimal.NewFromInt(80)) {
		t.Fatalf("unexpected timeline %+v", points)
	}

	if _, err := uc.GetPriceTimeline(context.Background(), 42, testutil.Now); !errors.Is(err, deal.ErrProductNotFound) {
		t.Fatalf("want ErrProductNotFound, got %v", err)
	}
}
