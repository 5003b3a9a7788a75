package scrape

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fekuna/pricewatch-service/config"
	dealrepo "github.com/fekuna/pricewatch-service/internal/deal/repository"
	dealuc "github.com/fekuna/pricewatch-service/internal/deal/usecase"
	"github.com/fekuna/pricewatch-service/internal/deal/dto"
	"github.com/fekuna/pricewatch-service/internal/model"
	"github.com/fekuna/pricewatch-service/internal/price"
	pricerepo "github.com/fekuna/pricewatch-service/internal/price/repository"
	priceuc "github.com/fekuna/pricewatch-service/internal/price/usecase"
	"github.com/fekuna/pricewatch-service/internal/shop"
	"github.com/fekuna/pricewatch-service/internal/shop/adapter"
	"github.com/fekuna/pricewatch-service/internal/testutil"
	"github.com/fekuna/pricewatch-service/pkg/logger"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

var testWindows = price.Windows{Visible: 12 * time.Hour, Hidden: 72 * time.Hour}

func noSleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }

func newJobs(db *sqlx.DB, reg shop.Registry, cfg config.ScrapeConfig) *Jobs {
	clock := func() time.Time { return testutil.Now }
	prices := priceuc.NewPriceUseCase(pricerepo.NewPGRepository(db), testWindows, logger.NewNop(), priceuc.WithClock(clock))
	deals := dealuc.NewDealUseCase(dealrepo.NewPGRepository(db), logger.NewNop(), dealuc.WithClock(clock))
	j := NewJobs(prices, reg, deals, logger.NewNop(), cfg)
	j.Now = clock
	j.Sleep = noSleep
	return j
}

func TestSweep_EndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/leche-entera-1l" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"price": 130, "regular_price": 150, "available": true}`))
	}))
	defer srv.Close()

	a, err := adapter.NewJSONAPIAdapter(adapter.JSONAPIOptions{ShopID: 1, BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}

	db := testutil.NewDB(t)
	testutil.InsertProduct(t, db, model.Product{ID: 1, Name: "Leche Entera 1L"})
	testutil.InsertShopPrice(t, db, model.ShopPrice{
		ProductID:    1,
		ShopID:       1,
		URL:          "leche-entera-1l",
		CurrentPrice: testutil.Dec("150"),
		UpdatedAt:    testutil.Time(testutil.Now.Add(-13 * time.Hour)),
	})

	jobs := newJobs(db, shop.Registry{1: a}, config.ScrapeConfig{
		CallTimeout:          time.Second,
		SweepLimit:           1000,
		RefreshDealsAfterRun: true,
	})

	summary, err := jobs.Sweep(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if summary.Selected != 1 || summary.Changed != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	sp := testutil.GetShopPrice(t, db, 1, 1)
	if !sp.CurrentPrice.Equal(decimal.NewFromInt(130)) || !sp.UpdatedAt.Equal(testutil.Now) {
		t.Fatalf("record not updated: %+v", sp)
	}
	hist := testutil.History(t, db, 1, 1)
	if len(hist) != 2 || !hist[0].Price.Equal(decimal.NewFromInt(150)) || !hist[1].Price.Equal(decimal.NewFromInt(130)) || !hist[1].CreatedAt.Equal(testutil.Now) {
		t.Fatalf("unexpected history %+v", hist)
	}

	list, err := dealuc.NewDealUseCase(dealrepo.NewPGRepository(db), logger.NewNop()).ListDeals(context.Background(), dto.DealFilters{})
	if err != nil {
		t.Fatal(err)
	}
	if len(list.Deals) != 1 {
		t.Fatalf("want 1 deal, got %d", len(list.Deals))
	}
	d := list.Deals[0]
	if !d.DropAmount.Equal(decimal.NewFromInt(20)) || !d.DropPercentage.Equal(decimal.RequireFromString("13.33")) {
		t.Fatalf("want 20 / 13.33%%, got %s / %s", d.DropAmount, d.DropPercentage)
	}

	// a second sweep finds nothing due
	summary, err = jobs.Sweep(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if summary.Selected != 0 {
		t.Fatalf("fresh record selected again: %+v", summary)
	}
}

func TestBatchSweep_DoesNotRetryWithinJob(t *testing.T) {
	db := testutil.NewDB(t)
	for pid := int64(1); pid <= 7; pid++ {
		testutil.InsertProduct(t, db, model.Product{ID: pid, Name: "p"})
		testutil.InsertShopPrice(t, db, model.ShopPrice{ProductID: pid, ShopID: 1})
	}
	testutil.InsertShopPrice(t, db, model.ShopPrice{ProductID: 1, ShopID: 2})

	// product 1 always fails at shop 1 and stays due
	failing := &fakeAdapter{shopID: 1, result: func(rec model.ShopPrice) (model.Observation, error) {
		if rec.ProductID == 1 {
			return model.Observation{}, &shop.FetchError{ShopID: 1, Err: errors.New("boom")}
		}
		return model.Observation{CurrentPrice: testutil.Dec("10")}, nil
	}}
	other := &fakeAdapter{shopID: 2}

	jobs := newJobs(db, shop.Registry{1: failing, 2: other}, config.ScrapeConfig{
		BatchIterations: 10,
		BatchPerShop:    3,
	})

	summary, err := jobs.BatchSweep(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if summary.Selected != 8 {
		t.Fatalf("want every record attempted exactly once, got %+v", summary)
	}
	if failing.calls.Load() != 7 || other.calls.Load() != 1 {
		t.Fatalf("unexpected calls %d/%d", failing.calls.Load(), other.calls.Load())
	}
	if summary.FetchErrors != 1 || summary.Updated != 7 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if failing.maxSeen.Load() != 1 {
		t.Fatalf("shop 1 saw %d concurrent calls", failing.maxSeen.Load())
	}
}

func TestDealSweep_RefreshesAllShopsOfDealProducts(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.InsertProduct(t, db, model.Product{ID: 1, Name: "on deal"})
	testutil.InsertProduct(t, db, model.Product{ID: 2, Name: "not on deal"})
	// fresh and hidden records are refreshed anyway
	testutil.InsertShopPrice(t, db, model.ShopPrice{ProductID: 1, ShopID: 1, CurrentPrice: testutil.Dec("80"), UpdatedAt: testutil.Time(testutil.Now)})
	testutil.InsertShopPrice(t, db, model.ShopPrice{ProductID: 1, ShopID: 2, Hidden: testutil.Bool(true), UpdatedAt: testutil.Time(testutil.Now)})
	testutil.InsertShopPrice(t, db, model.ShopPrice{ProductID: 2, ShopID: 1})
	if _, err := db.Exec(`INSERT INTO todays_deals
		(product_id, shop_id, price_today, price_before_today, drop_amount, drop_percentage, rank, amount_of_shops, dropped_at)
		VALUES (1, 1, 80, 100, 20, 20, 0, 1, ?)`, testutil.Now); err != nil {
		t.Fatal(err)
	}

	s1, s2 := &fakeAdapter{shopID: 1}, &fakeAdapter{shopID: 2}
	jobs := newJobs(db, shop.Registry{1: s1, 2: s2}, config.ScrapeConfig{})

	summary, err := jobs.DealSweep(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if summary.Selected != 2 || s1.calls.Load() != 1 || s2.calls.Load() != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if sp := testutil.GetShopPrice(t, db, 1, 2); sp.IsHidden() {
		t.Fatal("priced observation did not unhide the record")
	}
}

func TestRefreshDeals_WithoutRefresher(t *testing.T) {
	j := NewJobs(nil, shop.Registry{}, nil, logger.NewNop(), config.ScrapeConfig{})
	if _, err := j.RefreshDeals(context.Background()); err == nil {
		t.Fatal("expected error without refresher")
	}
}
