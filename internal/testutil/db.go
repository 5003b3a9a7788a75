// Package testutil provides an in-memory SQLite database with the production
// tables, plus fixture helpers shared by package tests.
package testutil

import (
	"testing"
	"time"

	"github.com/fekuna/pricewatch-service/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

const schema = `
CREATE TABLE products(
  id INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  unit TEXT,
  category_id INTEGER,
  brand_id INTEGER,
  possible_brand_id INTEGER,
  base_unit_amount NUMERIC,
  rank INTEGER NOT NULL DEFAULT 0,
  deleted BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE TABLE shop_prices(
  product_id INTEGER NOT NULL,
  shop_id INTEGER NOT NULL,
  url TEXT NOT NULL DEFAULT '',
  current_price NUMERIC,
  regular_price NUMERIC,
  hidden BOOLEAN,
  updated_at TIMESTAMP,
  PRIMARY KEY(product_id, shop_id)
);
CREATE TABLE price_history(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  product_id INTEGER NOT NULL,
  shop_id INTEGER NOT NULL,
  price NUMERIC,
  created_at TIMESTAMP NOT NULL
);
CREATE TABLE todays_deals(
  product_id INTEGER NOT NULL,
  shop_id INTEGER NOT NULL,
  price_today NUMERIC NOT NULL,
  price_before_today NUMERIC NOT NULL,
  drop_amount NUMERIC NOT NULL,
  drop_percentage NUMERIC NOT NULL,
  rank INTEGER NOT NULL DEFAULT 0,
  amount_of_shops INTEGER NOT NULL DEFAULT 0,
  dropped_at TIMESTAMP NOT NULL,
  PRIMARY KEY(product_id, shop_id)
);
`

// NewDB opens a fresh in-memory database. A single connection is kept so
// every query sees the same memory database.
func NewDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func InsertProduct(t *testing.T, db *sqlx.DB, p model.Product) {
	t.Helper()
	_, err := db.NamedExec(`
		INSERT INTO products (id, name, unit, category_id, brand_id, possible_brand_id, base_unit_amount, rank, deleted)
		VALUES (:id, :name, :unit, :category_id, :brand_id, :possible_brand_id, :base_unit_amount, :rank, :deleted)`, p)
	if err != nil {
		t.Fatal(err)
	}
}

func InsertShopPrice(t *testing.T, db *sqlx.DB, sp model.ShopPrice) {
	t.Helper()
	_, err := db.NamedExec(`
		INSERT INTO shop_prices (product_id, shop_id, url, current_price, regular_price, hidden, updated_at)
		VALUES (:product_id, :shop_id, :url, :current_price, :regular_price, :hidden, :updated_at)`, sp)
	if err != nil {
		t.Fatal(err)
	}
}

func InsertHistory(t *testing.T, db *sqlx.DB, h model.PriceHistory) {
	t.Helper()
	_, err := db.NamedExec(`
		INSERT INTO price_history (product_id, shop_id, price, created_at)
		VALUES (:product_id, :shop_id, :price, :created_at)`, h)
	if err != nil {
		t.Fatal(err)
	}
}

func GetShopPrice(t *testing.T, db *sqlx.DB, productID, shopID int64) model.ShopPrice {
	t.Helper()
	var sp model.ShopPrice
	err := db.Get(&sp, `
		SELECT product_id, shop_id, url, current_price, regular_price, hidden, updated_at
		FROM shop_prices WHERE product_id = ? AND shop_id = ?`, productID, shopID)
	if err != nil {
		t.Fatal(err)
	}
	return sp
}

func History(t *testing.T, db *sqlx.DB, productID, shopID int64) []model.PriceHistory {
	t.Helper()
	var out []model.PriceHistory
	err := db.Select(&out, `
		SELECT id, product_id, shop_id, price, created_at
		FROM price_history WHERE product_id = ? AND shop_id = ?
		ORDER BY created_at, id`, productID, shopID)
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func Dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func Bool(b bool) *bool { return &b }

func Time(t time.Time) *time.Time {
	u := t.UTC()
	return &u
}

func Int64(v int64) *int64 { return &v }

// Now is a fixed reference instant used across tests.
var Now = time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC)
