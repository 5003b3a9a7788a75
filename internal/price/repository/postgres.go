package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fekuna/pricewatch-service/internal/model"
	"github.com/fekuna/pricewatch-service/internal/price"
	"github.com/fekuna/pricewatch-service/pkg/postgres"
	"github.com/jmoiron/sqlx"
)

const shopPriceColumns = `sp.product_id, sp.shop_id, sp.url, sp.current_price, sp.regular_price, sp.hidden, sp.updated_at`

// dueClause expects args: deleted=false, false, visible cutoff, true, hidden cutoff.
const dueClause = `
	p.deleted = ?
	AND (
		((sp.hidden IS NULL OR sp.hidden = ?) AND (sp.updated_at IS NULL OR sp.updated_at < ?))
		OR (sp.hidden = ? AND (sp.updated_at IS NULL OR sp.updated_at < ?))
	)`

func dueArgs(c price.Cutoffs) []interface{} {
	return []interface{}{false, false, c.Visible.UTC(), true, c.Hidden.UTC()}
}

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) SelectDue(ctx context.Context, c price.Cutoffs, limit int) ([]model.ShopPrice, error) {
	query := `SELECT ` + shopPriceColumns + `
		FROM shop_prices sp
		JOIN products p ON p.id = sp.product_id
		WHERE` + dueClause + `
		LIMIT ?`
	args := append(dueArgs(c), limit)

	var out []model.ShopPrice
	if err := r.DB.SelectContext(ctx, &out, r.DB.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("select due: %w", err)
	}
	return out, nil
}

func (r *PGRepository) DueShopIDs(ctx context.Context, c price.Cutoffs) ([]int64, error) {
	query := `SELECT DISTINCT sp.shop_id
		FROM shop_prices sp
		JOIN products p ON p.id = sp.product_id
		WHERE` + dueClause + `
		ORDER BY sp.shop_id`

	var ids []int64
	if err := r.DB.SelectContext(ctx, &ids, r.DB.Rebind(query), dueArgs(c)...); err != nil {
		return nil, fmt.Errorf("select due shops: %w", err)
	}
	return ids, nil
}

func (r *PGRepository) SelectDueForShop(ctx context.Context, shopID int64, c price.Cutoffs, limit int) ([]model.ShopPrice, error) {
	// Never-refreshed rows first, then stalest first.
	query := `SELECT ` + shopPriceColumns + `
		FROM shop_prices sp
		JOIN products p ON p.id = sp.product_id
		WHERE sp.shop_id = ? AND` + dueClause + `
		ORDER BY (sp.updated_at IS NOT NULL), sp.updated_at ASC, sp.product_id ASC
		LIMIT ?`
	args := append([]interface{}{shopID}, dueArgs(c)...)
	args = append(args, limit)

	var out []model.ShopPrice
	if err := r.DB.SelectContext(ctx, &out, r.DB.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("select due for shop %d: %w", shopID, err)
	}
	return out, nil
}

func (r *PGRepository) SelectForDealProducts(ctx context.Context) ([]model.ShopPrice, error) {
	query := `SELECT ` + shopPriceColumns + `
		FROM shop_prices sp
		JOIN products p ON p.id = sp.product_id
		WHERE p.deleted = ?
		  AND sp.product_id IN (SELECT DISTINCT product_id FROM todays_deals)
		ORDER BY sp.shop_id, sp.product_id`

	var out []model.ShopPrice
	if err := r.DB.SelectContext(ctx, &out, r.DB.Rebind(query), false); err != nil {
		return nil, fmt.Errorf("select deal records: %w", err)
	}
	return out, nil
}

func (r *PGRepository) ApplyObservation(ctx context.Context, key model.ShopPriceKey, obs model.Observation, now time.Time) (price.ApplyResult, error) {
	now = now.UTC()
	var res price.ApplyResult

	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return res, err
	}
	defer tx.Rollback()

	var stored model.ShopPrice
	err = tx.GetContext(ctx, &stored, tx.Rebind(`SELECT `+shopPriceColumns+`
		FROM shop_prices sp WHERE sp.product_id = ? AND sp.shop_id = ?`), key.ProductID, key.ShopID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return res, fmt.Errorf("shop price %d/%d: %w", key.ProductID, key.ShopID, sql.ErrNoRows)
		}
		return res, err
	}

	hidden := stored.Hidden
	switch {
	case obs.CurrentPrice != nil:
		f := false
		hidden = &f
	case obs.Hidden != nil:
		hidden = obs.Hidden
	}
	res.Previous = stored.CurrentPrice
	res.Current = obs.CurrentPrice
	res.Unhidden = stored.IsHidden() && (hidden == nil || !*hidden)

	if model.SamePrice(stored.CurrentPrice, obs.CurrentPrice) {
		_, err = tx.ExecContext(ctx, tx.Rebind(`
			UPDATE shop_prices SET hidden = ?, updated_at = ?
			WHERE product_id = ? AND shop_id = ?`),
			hidden, now, key.ProductID, key.ShopID)
		if err != nil {
			return res, classify(err)
		}
		return res, classify(tx.Commit())
	}

	res.Changed = true
	if stored.CurrentPrice != nil {
		if err := insertBaseline(ctx, tx, key, stored, now); err != nil {
			return res, classify(err)
		}
	}
	_, err = tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO price_history (product_id, shop_id, price, created_at)
		VALUES (?, ?, ?, ?)`),
		key.ProductID, key.ShopID, obs.CurrentPrice, now)
	if err != nil {
		return res, classify(err)
	}

	_, err = tx.ExecContext(ctx, tx.Rebind(`
		UPDATE shop_prices
		SET current_price = ?, regular_price = ?, hidden = ?, updated_at = ?
		WHERE product_id = ? AND shop_id = ?`),
		obs.CurrentPrice, obs.RegularPrice, hidden, now, key.ProductID, key.ShopID)
	if err != nil {
		return res, classify(err)
	}

	return res, classify(tx.Commit())
}

// insertBaseline records the stored price as the first history entry of a
// pair that has none yet, so the first observed change has something to
// compare against.
func insertBaseline(ctx context.Context, tx *sqlx.Tx, key model.ShopPriceKey, stored model.ShopPrice, now time.Time) error {
	var n int
	err := tx.GetContext(ctx, &n, tx.Rebind(`
		SELECT COUNT(*) FROM price_history WHERE product_id = ? AND shop_id = ?`),
		key.ProductID, key.ShopID)
	if err != nil || n > 0 {
		return err
	}

	at := now.Add(-time.Second)
	if stored.UpdatedAt != nil && stored.UpdatedAt.Before(now) {
		at = stored.UpdatedAt.UTC()
	}
	_, err = tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO price_history (product_id, shop_id, price, created_at)
		VALUES (?, ?, ?, ?)`),
		key.ProductID, key.ShopID, stored.CurrentPrice, at)
	return err
}

func (r *PGRepository) MarkHidden(ctx context.Context, key model.ShopPriceKey, now time.Time) error {
	res, err := r.DB.ExecContext(ctx, r.DB.Rebind(`
		UPDATE shop_prices SET hidden = ?, updated_at = ?
		WHERE product_id = ? AND shop_id = ?`),
		true, now.UTC(), key.ProductID, key.ShopID)
	if err != nil {
		return classify(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("shop price %d/%d: %w", key.ProductID, key.ShopID, sql.ErrNoRows)
	}
	return nil
}

func (r *PGRepository) Cheapest(ctx context.Context, productID int64, shopIDs []int64) (*model.ShopPrice, error) {
	query := `SELECT ` + shopPriceColumns + `
		FROM shop_prices sp
		JOIN products p ON p.id = sp.product_id
		WHERE sp.product_id = ? AND p.deleted = ?
		  AND sp.current_price IS NOT NULL
		  AND (sp.hidden IS NULL OR sp.hidden = ?)`
	args := []interface{}{productID, false, false}

	if len(shopIDs) > 0 {
		inQuery, inArgs, err := sqlx.In(` AND sp.shop_id IN (?)`, shopIDs)
		if err != nil {
			return nil, err
		}
		query += inQuery
		args = append(args, inArgs...)
	}
	query += ` ORDER BY sp.current_price ASC, sp.shop_id ASC LIMIT 1`

	var sp model.ShopPrice
	if err := r.DB.GetContext(ctx, &sp, r.DB.Rebind(query), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &sp, nil
}

func (r *PGRepository) ListByProduct(ctx context.Context, productID int64) ([]model.ShopPrice, error) {
	query := `SELECT ` + shopPriceColumns + `
		FROM shop_prices sp WHERE sp.product_id = ? ORDER BY sp.shop_id`

	var out []model.ShopPrice
	if err := r.DB.SelectContext(ctx, &out, r.DB.Rebind(query), productID); err != nil {
		return nil, err
	}
	return out, nil
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	if postgres.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %v", price.ErrWriteConflict, err)
	}
	return err
}
