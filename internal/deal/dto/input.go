package dto

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

var ErrInvalidFilters = errors.New("invalid deal filters")

func validSort(s string) bool {
	switch s {
	case SortDefault, SortPriceAsc, SortPriceDesc, SortRecent, SortRelevance:
		return true
	}
	return false
}

// Normalize validates f and fills defaults. Id lists are sorted so equal
// filters produce equal cache keys.
func (f *DealFilters) Normalize() error {
	if !validSort(f.Sort) {
		return fmt.Errorf("%w: unknown sort %q", ErrInvalidFilters, f.Sort)
	}
	if f.Offset < 0 {
		return fmt.Errorf("%w: offset must not be negative", ErrInvalidFilters)
	}
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return fmt.Errorf("%w: min_price greater than max_price", ErrInvalidFilters)
	}
	if f.MinDropPct != nil && (f.MinDropPct.IsNegative() || f.MinDropPct.GreaterThan(decimal.NewFromInt(100))) {
		return fmt.Errorf("%w: min_drop_pct out of range", ErrInvalidFilters)
	}
	sort.Slice(f.ShopIDs, func(i, j int) bool { return f.ShopIDs[i] < f.ShopIDs[j] })
	sort.Slice(f.CategoryIDs, func(i, j int) bool { return f.CategoryIDs[i] < f.CategoryIDs[j] })
	return nil
}
