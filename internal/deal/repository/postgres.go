package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/fekuna/pricewatch-service/internal/deal"
	"github.com/fekuna/pricewatch-service/internal/deal/dto"
	"github.com/fekuna/pricewatch-service/internal/model"
	"github.com/jmoiron/sqlx"
)

const listedWhere = `
	p.deleted = ?
	AND sp.current_price IS NOT NULL
	AND (sp.hidden IS NULL OR sp.hidden = ?)`

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) ListedPrices(ctx context.Context) ([]deal.ListedPrice, error) {
	query := `SELECT sp.product_id, sp.shop_id, sp.current_price, p.rank
		FROM shop_prices sp
		JOIN products p ON p.id = sp.product_id
		WHERE` + listedWhere + `
		ORDER BY sp.product_id, sp.shop_id`

	var out []deal.ListedPrice
	if err := r.DB.SelectContext(ctx, &out, r.DB.Rebind(query), false, false); err != nil {
		return nil, fmt.Errorf("select listed prices: %w", err)
	}
	return out, nil
}

func (r *PGRepository) ListedHistory(ctx context.Context) ([]model.PriceHistory, error) {
	query := `SELECT h.id, h.product_id, h.shop_id, h.price, h.created_at
		FROM price_history h
		JOIN shop_prices sp ON sp.product_id = h.product_id AND sp.shop_id = h.shop_id
		JOIN products p ON p.id = sp.product_id
		WHERE` + listedWhere + `
		ORDER BY h.product_id, h.shop_id, h.created_at, h.id`

	var out []model.PriceHistory
	if err := r.DB.SelectContext(ctx, &out, r.DB.Rebind(query), false, false); err != nil {
		return nil, fmt.Errorf("select listed history: %w", err)
	}
	return out, nil
}

// ReplaceAll swaps the snapshot in one transaction so readers never see a
// half-built table.
func (r *PGRepository) ReplaceAll(ctx context.Context, deals []model.Deal) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM todays_deals`); err != nil {
		return fmt.Errorf("clear deals: %w", err)
	}

	if len(deals) > 0 {
		stmt, err := tx.PrepareNamedContext(ctx, `
			INSERT INTO todays_deals (
				product_id, shop_id, price_today, price_before_today,
				drop_amount, drop_percentage, rank, amount_of_shops, dropped_at
			) VALUES (
				:product_id, :shop_id, :price_today, :price_before_today,
				:drop_amount, :drop_percentage, :rank, :amount_of_shops, :dropped_at
			)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, d := range deals {
			if _, err := stmt.ExecContext(ctx, d); err != nil {
				return fmt.Errorf("insert deal %d/%d: %w", d.ProductID, d.ShopID, err)
			}
		}
	}
	return tx.Commit()
}

func filterClause(f dto.DealFilters) (string, []interface{}) {
	conditions := []string{"p.deleted = ?"}
	args := []interface{}{false}

	if len(f.ShopIDs) > 0 {
		conditions = append(conditions, "d.shop_id IN (?)")
		args = append(args, f.ShopIDs)
	}
	if len(f.CategoryIDs) > 0 {
		conditions = append(conditions, "p.category_id IN (?)")
		args = append(args, f.CategoryIDs)
	}
	if f.MinPrice != nil {
		conditions = append(conditions, "d.price_today >= ?")
		args = append(args, *f.MinPrice)
	}
	if f.MaxPrice != nil {
		conditions = append(conditions, "d.price_today <= ?")
		args = append(args, *f.MaxPrice)
	}
	if f.MinDropPct != nil {
		conditions = append(conditions, "d.drop_percentage >= ?")
		args = append(args, *f.MinDropPct)
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func orderBy(sort string) string {
	// Whitelisted; never interpolate user input.
	switch sort {
	case dto.SortPriceAsc:
		return "d.price_today ASC, d.drop_percentage DESC"
	case dto.SortPriceDesc:
		return "d.price_today DESC, d.drop_percentage DESC"
	case dto.SortRecent:
		return "d.dropped_at DESC, d.drop_percentage DESC"
	case dto.SortRelevance:
		return "d.rank DESC, d.drop_percentage DESC"
	default:
		return "d.drop_percentage DESC, d.rank DESC"
	}
}

func (r *PGRepository) List(ctx context.Context, f dto.DealFilters) ([]model.DealView, int, error) {
	where, args := filterClause(f)
	from := ` FROM todays_deals d JOIN products p ON p.id = d.product_id`

	countQuery, countArgs, err := sqlx.In(`SELECT COUNT(*)`+from+where, args...)
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.DB.GetContext(ctx, &total, r.DB.Rebind(countQuery), countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count deals: %w", err)
	}

	query := `SELECT d.product_id, d.shop_id, d.price_today, d.price_before_today,
			d.drop_amount, d.drop_percentage, d.rank, d.amount_of_shops, d.dropped_at,
			p.name AS product_name, p.unit, p.category_id` + from + where +
		fmt.Sprintf(" ORDER BY %s, d.product_id, d.shop_id LIMIT %d OFFSET %d", orderBy(f.Sort), f.Limit, f.Offset)

	query, listArgs, err := sqlx.In(query, args...)
	if err != nil {
		return nil, 0, err
	}
	var deals []model.DealView
	if err := r.DB.SelectContext(ctx, &deals, r.DB.Rebind(query), listArgs...); err != nil {
		return nil, 0, fmt.Errorf("list deals: %w", err)
	}
	return deals, total, nil
}

func (r *PGRepository) Facets(ctx context.Context, f dto.DealFilters) (dto.Facets, error) {
	var facets dto.Facets
	where, args := filterClause(f)
	from := ` FROM todays_deals d JOIN products p ON p.id = d.product_id`

	shopQuery, shopArgs, err := sqlx.In(`SELECT d.shop_id AS facet_key, COUNT(*) AS facet_count`+from+where+
		` GROUP BY d.shop_id ORDER BY d.shop_id`, args...)
	if err != nil {
		return facets, err
	}
	if err := r.DB.SelectContext(ctx, &facets.Shops, r.DB.Rebind(shopQuery), shopArgs...); err != nil {
		return facets, fmt.Errorf("shop facets: %w", err)
	}

	catQuery, catArgs, err := sqlx.In(`SELECT COALESCE(p.category_id, 0) AS facet_key, COUNT(*) AS facet_count`+from+where+
		` GROUP BY COALESCE(p.category_id, 0) ORDER BY 1`, args...)
	if err != nil {
		return facets, err
	}
	if err := r.DB.SelectContext(ctx, &facets.Categories, r.DB.Rebind(catQuery), catArgs...); err != nil {
		return facets, fmt.Errorf("category facets: %w", err)
	}
	return facets, nil
}

func (r *PGRepository) ProductHistory(ctx context.Context, productID int64) ([]model.PriceHistory, error) {
	query := `SELECT id, product_id, shop_id, price, created_at
		FROM price_history WHERE product_id = ?
		ORDER BY created_at, id`

	var out []model.PriceHistory
	if err := r.DB.SelectContext(ctx, &out, r.DB.Rebind(query), productID); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PGRepository) ProductRecords(ctx context.Context, productID int64) ([]model.ShopPrice, error) {
	query := `SELECT product_id, shop_id, url, current_price, regular_price, hidden, updated_at
		FROM shop_prices WHERE product_id = ? ORDER BY shop_id`

	var out []model.ShopPrice
	if err := r.DB.SelectContext(ctx, &out, r.DB.Rebind(query), productID); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PGRepository) ProductExists(ctx context.Context, productID int64) (bool, error) {
	var n int
	err := r.DB.GetContext(ctx, &n, r.DB.Rebind(`SELECT COUNT(*) FROM products WHERE id = ? AND deleted = ?`), productID, false)
	return n > 0, err
}
