package repository

import (
	"context"
	"fmt"

	"github.com/fekuna/pricewatch-service/internal/model"
	"github.com/jmoiron/sqlx"
)

const productColumns = `p.id, p.name, p.unit, p.category_id, p.brand_id, p.possible_brand_id, p.base_unit_amount, p.rank, p.deleted`

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Pool(ctx context.Context, categoryID, shopID int64, excludeIDs []int64, limit int) ([]model.Product, error) {
	query := `SELECT ` + productColumns + `
		FROM products p
		WHERE p.deleted = ? AND p.category_id = ?
		  AND EXISTS (SELECT 1 FROM shop_prices sp WHERE sp.product_id = p.id AND sp.shop_id = ?)`
	args := []interface{}{false, categoryID, shopID}

	if len(excludeIDs) > 0 {
		query += ` AND p.id NOT IN (?)`
		args = append(args, excludeIDs)
	}
	query += ` ORDER BY p.id LIMIT ?`
	args = append(args, limit)

	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, err
	}

	var out []model.Product
	if err := r.DB.SelectContext(ctx, &out, r.DB.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("select duplicate pool: %w", err)
	}
	return out, nil
}

func (r *PGRepository) Unlisted(ctx context.Context, shopID int64) ([]model.Product, error) {
	query := `SELECT ` + productColumns + `
		FROM products p
		WHERE p.deleted = ?
		  AND NOT EXISTS (SELECT 1 FROM shop_prices sp WHERE sp.product_id = p.id AND sp.shop_id = ?)
		ORDER BY p.id`

	var out []model.Product
	if err := r.DB.SelectContext(ctx, &out, r.DB.Rebind(query), false, shopID); err != nil {
		return nil, fmt.Errorf("select unlisted products: %w", err)
	}
	return out, nil
}
