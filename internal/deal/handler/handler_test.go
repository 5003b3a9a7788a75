package handler

import (
	"context"
	"testing"
	"time"

	"github.com/fekuna/pricewatch-service/internal/deal"
	dealrepo "github.com/fekuna/pricewatch-service/internal/deal/repository"
	dealuc "github.com/fekuna/pricewatch-service/internal/deal/usecase"
	"github.com/fekuna/pricewatch-service/internal/model"
	"github.com/fekuna/pricewatch-service/internal/price"
	pricerepo "github.com/fekuna/pricewatch-service/internal/price/repository"
	priceuc "github.com/fekuna/pricewatch-service/internal/price/usecase"
	"github.com/fekuna/pricewatch-service/internal/testutil"
	"github.com/fekuna/pricewatch-service/pkg/logger"
)

// newUseCases seeds one product dropping 100 -> 80 at shop 1 and listed at 90
// at shop 2, then refreshes the deals snapshot.
func newUseCases(t *testing.T) (deal.UseCase, price.UseCase) {
	t.Helper()
	db := testutil.NewDB(t)
	testutil.InsertProduct(t, db, model.Product{ID: 1, Name: "Leche Entera 1L", CategoryID: testutil.Int64(10)})
	testutil.InsertShopPrice(t, db, model.ShopPrice{ProductID: 1, ShopID: 1, CurrentPrice: testutil.Dec("80"), UpdatedAt: testutil.Time(testutil.Now)})
	testutil.InsertShopPrice(t, db, model.ShopPrice{ProductID: 1, ShopID: 2, CurrentPrice: testutil.Dec("90"), UpdatedAt: testutil.Time(testutil.Now)})
	testutil.InsertHistory(t, db, model.PriceHistory{ProductID: 1, ShopID: 1, Price: testutil.Dec("100"), CreatedAt: testutil.Now.Add(-48 * time.Hour)})
	testutil.InsertHistory(t, db, model.PriceHistory{ProductID: 1, ShopID: 1, Price: testutil.Dec("80"), CreatedAt: testutil.Now.Add(-24 * time.Hour)})

	clock := func() time.Time { return testutil.Now }
	deals := dealuc.NewDealUseCase(dealrepo.NewPGRepository(db), logger.NewNop(), dealuc.WithClock(clock))
	prices := priceuc.NewPriceUseCase(pricerepo.NewPGRepository(db),
		price.Windows{Visible: 12 * time.Hour, Hidden: 72 * time.Hour}, logger.NewNop(), priceuc.WithClock(clock))
	if _, err := deals.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	return deals, prices
}
