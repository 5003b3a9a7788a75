package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fekuna/pricewatch-service/internal/model"
	"github.com/fekuna/pricewatch-service/internal/product"
	"github.com/fekuna/pricewatch-service/internal/testutil"
	"github.com/jmoiron/sqlx"
)

func count(t *testing.T, db *sqlx.DB, query string, args ...interface{}) int {
	t.Helper()
	var n int
	if err := db.Get(&n, query, args...); err != nil {
		t.Fatal(err)
	}
	return n
}

func seedMerge(t *testing.T, db *sqlx.DB) {
	t.Helper()
	testutil.InsertProduct(t, db, model.Product{ID: 1, Name: "Leche Entera 1L"})
	testutil.InsertProduct(t, db, model.Product{ID: 2, Name: "Leche Entera 1 L"})
	// keep at shops 1 and 2, drop at shops 2 and 3
	testutil.InsertShopPrice(t, db, model.ShopPrice{ProductID: 1, ShopID: 1, URL: "keep-1", CurrentPrice: testutil.Dec("100")})
	testutil.InsertShopPrice(t, db, model.ShopPrice{ProductID: 1, ShopID: 2, URL: "keep-2", CurrentPrice: testutil.Dec("105")})
	testutil.InsertShopPrice(t, db, model.ShopPrice{ProductID: 2, ShopID: 2, URL: "drop-2", CurrentPrice: testutil.Dec("99")})
	testutil.InsertShopPrice(t, db, model.ShopPrice{ProductID: 2, ShopID: 3, URL: "drop-3", CurrentPrice: testutil.Dec("98")})
	testutil.InsertHistory(t, db, model.PriceHistory{ProductID: 1, ShopID: 1, Price: testutil.Dec("100"), CreatedAt: testutil.Now.Add(-time.Hour)})
	testutil.InsertHistory(t, db, model.PriceHistory{ProductID: 2, ShopID: 2, Price: testutil.Dec("99"), CreatedAt: testutil.Now.Add(-time.Hour)})
	testutil.InsertHistory(t, db, model.PriceHistory{ProductID: 2, ShopID: 3, Price: testutil.Dec("98"), CreatedAt: testutil.Now.Add(-time.Hour)})
	if _, err := db.Exec(`INSERT INTO todays_deals
		(product_id, shop_id, price_today, price_before_today, drop_amount, drop_percentage, rank, amount_of_shops, dropped_at)
		VALUES (2, 3, 98, 100, 2, 2, 0, 2, ?)`, testutil.Now); err != nil {
		t.Fatal(err)
	}
}

func TestMerge(t *testing.T) {
	db := testutil.NewDB(t)
	seedMerge(t, db)
	repo := NewPGRepository(db)

	res, err := repo.Merge(context.Background(), 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if res.MovedRecords != 1 || res.DroppedRecords != 1 || res.HistoryDeleted != 2 || res.DealsDeleted != 1 {
		t.Fatalf("unexpected result %+v", res)
	}

	// keep's own row at shop 2 wins
	if sp := testutil.GetShopPrice(t, db, 1, 2); sp.URL != "keep-2" {
		t.Fatalf("keep row replaced: %+v", sp)
	}
	if sp := testutil.GetShopPrice(t, db, 1, 3); sp.URL != "drop-3" {
		t.Fatalf("drop row not reparented: %+v", sp)
	}
	if n := count(t, db, `SELECT COUNT(*) FROM shop_prices WHERE product_id = 2`); n != 0 {
		t.Fatalf("%d rows left on dropped product", n)
	}
	if n := count(t, db, `SELECT COUNT(*) FROM price_history WHERE product_id = 2`); n != 0 {
		t.Fatalf("%d history rows left on dropped product", n)
	}
	if n := count(t, db, `SELECT COUNT(*) FROM price_history WHERE product_id = 1`); n != 1 {
		t.Fatalf("keep history changed: %d rows", n)
	}

	p, err := repo.FindByID(context.Background(), 2)
	if err != nil {
		t.Fatal(err)
	}
	if !p.Deleted {
		t.Fatal("dropped product not soft-deleted")
	}

	// merging into or from a deleted product is refused
	if _, err := repo.Merge(context.Background(), 1, 2); !errors.Is(err, product.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestMerge_MissingProductChangesNothing(t *testing.T) {
	db := testutil.NewDB(t)
	seedMerge(t, db)
	repo := NewPGRepository(db)

	if _, err := repo.Merge(context.Background(), 1, 42); !errors.Is(err, product.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if n := count(t, db, `SELECT COUNT(*) FROM shop_prices`); n != 4 {
		t.Fatalf("rows changed: %d", n)
	}
}

func TestUpsertShopURL(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.InsertProduct(t, db, model.Product{ID: 1, Name: "a"})
	testutil.InsertShopPrice(t, db, model.ShopPrice{
		ProductID:    1,
		ShopID:       1,
		URL:          "old",
		CurrentPrice: testutil.Dec("10"),
		Hidden:       testutil.Bool(true),
		UpdatedAt:    testutil.Time(testutil.Now),
	})
	repo := NewPGRepository(db)
	ctx := context.Background()

	if err := repo.UpsertShopURL(ctx, 1, 1, "new"); err != nil {
		t.Fatal(err)
	}
	sp := testutil.GetShopPrice(t, db, 1, 1)
	if sp.URL != "new" || sp.IsHidden() || sp.UpdatedAt != nil {
		t.Fatalf("existing row not reset: %+v", sp)
	}
	if sp.CurrentPrice == nil || sp.CurrentPrice.String() != "10" {
		t.Fatalf("price should survive a url change: %+v", sp)
	}

	if err := repo.UpsertShopURL(ctx, 1, 2, "fresh"); err != nil {
		t.Fatal(err)
	}
	sp = testutil.GetShopPrice(t, db, 1, 2)
	if sp.URL != "fresh" || sp.Hidden == nil || *sp.Hidden || sp.UpdatedAt != nil || sp.CurrentPrice != nil {
		t.Fatalf("unexpected new row %+v", sp)
	}
}

func TestFindByID_Missing(t *testing.T) {
	db := testutil.NewDB(t)
	if _, err := NewPGRepository(db).FindByID(context.Background(), 9); !errors.Is(err, product.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}
