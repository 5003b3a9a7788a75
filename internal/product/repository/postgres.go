package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fekuna/pricewatch-service/internal/model"
	"github.com/fekuna/pricewatch-service/internal/product"
	"github.com/fekuna/pricewatch-service/internal/product/dto"
	"github.com/jmoiron/sqlx"
)

const productColumns = `id, name, unit, category_id, brand_id, possible_brand_id, base_unit_amount, rank, deleted`

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

// FindByID returns soft-deleted products too; callers decide what a deleted
// product means for them.
func (r *PGRepository) FindByID(ctx context.Context, id int64) (*model.Product, error) {
	var p model.Product
	query := `SELECT ` + productColumns + ` FROM products WHERE id = ? LIMIT 1`
	err := r.DB.GetContext(ctx, &p, r.DB.Rebind(query), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PGRepository) Merge(ctx context.Context, keepID, dropID int64) (*dto.MergeResult, error) {
	res := &dto.MergeResult{KeepID: keepID, DropID: dropID}

	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	for _, id := range []int64{keepID, dropID} {
		var deleted bool
		err := tx.GetContext(ctx, &deleted, tx.Rebind(`SELECT deleted FROM products WHERE id = ?`), id)
		if errors.Is(err, sql.ErrNoRows) || (err == nil && deleted) {
			return nil, fmt.Errorf("product %d: %w", id, product.ErrNotFound)
		}
		if err != nil {
			return nil, err
		}
	}

	steps := []struct {
		query string
		args  []interface{}
		count *int64
	}{
		{
			`DELETE FROM shop_prices
			WHERE product_id = ? AND shop_id IN (SELECT shop_id FROM shop_prices WHERE product_id = ?)`,
			[]interface{}{dropID, keepID},
			&res.DroppedRecords,
		},
		{`UPDATE shop_prices SET product_id = ? WHERE product_id = ?`, []interface{}{keepID, dropID}, &res.MovedRecords},
		{`DELETE FROM price_history WHERE product_id = ?`, []interface{}{dropID}, &res.HistoryDeleted},
		{`DELETE FROM todays_deals WHERE product_id = ?`, []interface{}{dropID}, &res.DealsDeleted},
		{`UPDATE products SET deleted = ? WHERE id = ?`, []interface{}{true, dropID}, nil},
	}
	for _, s := range steps {
		out, err := tx.ExecContext(ctx, tx.Rebind(s.query), s.args...)
		if err != nil {
			return nil, fmt.Errorf("merge %d into %d: %w", dropID, keepID, err)
		}
		if s.count != nil {
			if *s.count, err = out.RowsAffected(); err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return res, nil
}

// UpsertShopURL clears updated_at so the record is due on the next sweep.
func (r *PGRepository) UpsertShopURL(ctx context.Context, productID, shopID int64, url string) error {
	query := `
		INSERT INTO shop_prices (product_id, shop_id, url, hidden, updated_at)
		VALUES (?, ?, ?, ?, NULL)
		ON CONFLICT (product_id, shop_id)
		DO UPDATE SET url = excluded.url, hidden = excluded.hidden, updated_at = NULL`
	_, err := r.DB.ExecContext(ctx, r.DB.Rebind(query), productID, shopID, url, false)
	return err
}
