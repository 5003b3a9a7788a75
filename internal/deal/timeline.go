package deal

import (
	"sort"
	"time"

	"github.com/fekuna/pricewatch-service/internal/model"
	"github.com/shopspring/decimal"
)

// ActiveSet holds the shops that currently report a price for a product:
// visible and with a non-null current price.
type ActiveSet map[int64]struct{}

func NewActiveSet(records []model.ShopPrice) ActiveSet {
	set := make(ActiveSet, len(records))
	for _, r := range records {
		if r.HasPrice() {
			set[r.ShopID] = struct{}{}
		}
	}
	return set
}

func (s ActiveSet) Has(shopID int64) bool {
	_, ok := s[shopID]
	return ok
}

type TimelinePoint struct {
	ShopID    int64           `json:"shop_id"`
	Price     decimal.Decimal `json:"price"`
	At        time.Time       `json:"at"`
	Active    bool            `json:"active"`
	Synthetic bool            `json:"synthetic,omitempty"`
}

// BuildTimeline reduces a product's history to the cheapest-price line shown
// in charts. An entry is active only when it is its shop's latest entry and
// that shop still reports a price. Entries without a price are never plotted
// but still count when deciding which entry is a shop's latest.
func BuildTimeline(entries []model.PriceHistory, active ActiveSet, now time.Time) []TimelinePoint {
	sorted := make([]model.PriceHistory, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
		}
		return sorted[i].ID < sorted[j].ID
	})

	latest := make(map[int64]int, len(active))
	for i, e := range sorted {
		latest[e.ShopID] = i
	}

	var out []TimelinePoint
	for i, e := range sorted {
		if e.Price == nil {
			continue
		}
		p := TimelinePoint{
			ShopID: e.ShopID,
			Price:  *e.Price,
			At:     e.CreatedAt.UTC(),
			Active: latest[e.ShopID] == i && active.Has(e.ShopID),
		}
		if len(out) == 0 {
			out = append(out, p)
			continue
		}
		last := out[len(out)-1]
		switch {
		case p.Price.LessThan(last.Price):
		case !last.Active && p.Active:
		case last.ShopID == p.ShopID && p.Active:
		default:
			continue
		}
		out = append(out, p)
	}

	if n := len(out); n > 0 {
		last := out[n-1]
		if last.Active && !sameDay(last.At, now) {
			out = append(out, TimelinePoint{
				ShopID:    last.ShopID,
				Price:     last.Price,
				At:        now.UTC(),
				Active:    true,
				Synthetic: true,
			})
		}
	}
	return out
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// latestDrop inspects one shop's history, ordered oldest first. It reports
// the latest entry and the closest earlier entry with a price when the
// latest one is cheaper.
func latestDrop(history []model.PriceHistory) (cur, prev model.PriceHistory, ok bool) {
	if len(history) < 2 {
		return cur, prev, false
	}
	cur = history[len(history)-1]
	if cur.Price == nil {
		return cur, prev, false
	}
	for i := len(history) - 2; i >= 0; i-- {
		if history[i].Price != nil {
			prev = history[i]
			return cur, prev, cur.Price.LessThan(*prev.Price)
		}
	}
	return cur, prev, false
}

var hundred = decimal.NewFromInt(100)

// computeDeal builds the deal row for a dropped price. Percentages keep two
// decimals.
func computeDeal(productID, shopID int64, cur, prev model.PriceHistory, rank, shops int) model.Deal {
	drop := prev.Price.Sub(*cur.Price)
	pct := decimal.Zero
	if prev.Price.IsPositive() {
		pct = drop.Div(*prev.Price).Mul(hundred).Round(2)
	}
	return model.Deal{
		ProductID:        productID,
		ShopID:           shopID,
		PriceToday:       *cur.Price,
		PriceBeforeToday: *prev.Price,
		DropAmount:       drop,
		DropPercentage:   pct,
		Rank:             rank,
		AmountOfShops:    shops,
		DroppedAt:        cur.CreatedAt.UTC(),
	}
}
