// Package deal derives the today's deals snapshot from price history and
// serves the read queries over it.
package deal

import (
	"sort"

	"github.com/fekuna/pricewatch-service/internal/model"
)

// Compute returns one deal per listed record whose latest history entry is
// cheaper than the one before it.
func Compute(listed []ListedPrice, history []model.PriceHistory) []model.Deal {
	byKey := make(map[model.ShopPriceKey][]model.PriceHistory)
	for _, h := range history {
		k := model.ShopPriceKey{ProductID: h.ProductID, ShopID: h.ShopID}
		byKey[k] = append(byKey[k], h)
	}
	for _, hs := range byKey {
		sort.SliceStable(hs, func(i, j int) bool {
			if !hs[i].CreatedAt.Equal(hs[j].CreatedAt) {
				return hs[i].CreatedAt.Before(hs[j].CreatedAt)
			}
			return hs[i].ID < hs[j].ID
		})
	}

	shops := make(map[int64]int)
	for _, l := range listed {
		shops[l.ProductID]++
	}

	var deals []model.Deal
	for _, l := range listed {
		k := model.ShopPriceKey{ProductID: l.ProductID, ShopID: l.ShopID}
		cur, prev, ok := latestDrop(byKey[k])
		if !ok {
			continue
		}
		deals = append(deals, computeDeal(l.ProductID, l.ShopID, cur, prev, l.Rank, shops[l.ProductID]))
	}

	sort.Slice(deals, func(i, j int) bool {
		a, b := deals[i], deals[j]
		if c := a.DropPercentage.Cmp(b.DropPercentage); c != 0 {
			return c > 0
		}
		if a.Rank != b.Rank {
			return a.Rank > b.Rank
		}
		if a.ProductID != b.ProductID {
			return a.ProductID < b.ProductID
		}
		return a.ShopID < b.ShopID
	})
	return deals
}
