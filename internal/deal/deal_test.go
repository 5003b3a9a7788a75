package deal

import (
	"testing"
	"time"

	"github.com/fekuna/pricewatch-service/internal/model"
	"github.com/fekuna/pricewatch-service/internal/testutil"
	"github.com/shopspring/decimal"
)

var (
	day1 = time.Date(2026, 5, 18, 9, 0, 0, 0, time.UTC)
	day2 = time.Date(2026, 5, 19, 9, 0, 0, 0, time.UTC)
	day3 = time.Date(2026, 5, 20, 9, 0, 0, 0, time.UTC)
)

func entry(id, shopID int64, price string, at time.Time) model.PriceHistory {
	h := model.PriceHistory{ID: id, ProductID: 1, ShopID: shopID, CreatedAt: at}
	if price != "" {
		h.Price = testutil.Dec(price)
	}
	return h
}

func TestCompute_Drop(t *testing.T) {
	listed := []ListedPrice{{ProductID: 1, ShopID: 1, CurrentPrice: decimal.RequireFromString("80"), Rank: 7}}
	history := []model.PriceHistory{
		entry(1, 1, "100", day1),
		entry(2, 1, "80", day2),
	}

	deals := Compute(listed, history)
	if len(deals) != 1 {
		t.Fatalf("want 1 deal, got %d", len(deals))
	}
	d := deals[0]
	if !d.DropAmount.Equal(decimal.RequireFromString("20")) || !d.DropPercentage.Equal(decimal.RequireFromString("20")) {
		t.Fatalf("want 20 / 20%%, got %s / %s", d.DropAmount, d.DropPercentage)
	}
	if !d.PriceToday.Equal(decimal.RequireFromString("80")) || !d.PriceBeforeToday.Equal(decimal.RequireFromString("100")) {
		t.Fatalf("unexpected prices %s / %s", d.PriceToday, d.PriceBeforeToday)
	}
	if d.Rank != 7 || d.AmountOfShops != 1 || !d.DroppedAt.Equal(day2) {
		t.Fatalf("unexpected deal %+v", d)
	}
}

func TestCompute_NoDeal(t *testing.T) {
	cases := []struct {
		name    string
		history []model.PriceHistory
	}{
		{"rise", []model.PriceHistory{entry(1, 1, "80", day1), entry(2, 1, "100", day2)}},
		{"single entry", []model.PriceHistory{entry(1, 1, "80", day1)}},
		{"latest null", []model.PriceHistory{entry(1, 1, "100", day1), entry(2, 1, "", day2)}},
		{"no history", nil},
	}
	listed := []ListedPrice{{ProductID: 1, ShopID: 1, CurrentPrice: decimal.RequireFromString("80")}}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if deals := Compute(listed, tc.history); len(deals) != 0 {
				t.Fatalf("want no deal, got %+v", deals)
			}
		})
	}
}

func TestCompute_SkipsNullPredecessor(t *testing.T) {
	listed := []ListedPrice{{ProductID: 1, ShopID: 1, CurrentPrice: decimal.RequireFromString("130")}}
	history := []model.PriceHistory{
		entry(1, 1, "150", day1),
		entry(2, 1, "", day2),
		entry(3, 1, "130", day3),
	}
	deals := Compute(listed, history)
	if len(deals) != 1 {
		t.Fatalf("want 1 deal, got %d", len(deals))
	}
	if !deals[0].DropPercentage.Equal(decimal.RequireFromString("13.33")) {
		t.Fatalf("want 13.33%%, got %s", deals[0].DropPercentage)
	}
}

func TestCompute_OrderAndShopCount(t *testing.T) {
	listed := []ListedPrice{
		{ProductID: 1, ShopID: 1, Rank: 1},
		{ProductID: 1, ShopID: 2, Rank: 1},
		{ProductID: 2, ShopID: 1, Rank: 5},
	}
	history := []model.PriceHistory{
		{ID: 1, ProductID: 1, ShopID: 1, Price: testutil.Dec("100"), CreatedAt: day1},
		{ID: 2, ProductID: 1, ShopID: 1, Price: testutil.Dec("90"), CreatedAt: day2},
		{ID: 3, ProductID: 2, ShopID: 1, Price: testutil.Dec("10"), CreatedAt: day1},
		{ID: 4, ProductID: 2, ShopID: 1, Price: testutil.Dec("9"), CreatedAt: day2},
		{ID: 5, ProductID: 1, ShopID: 2, Price: testutil.Dec("50"), CreatedAt: day1},
		{ID: 6, ProductID: 1, ShopID: 2, Price: testutil.Dec("25"), CreatedAt: day2},
	}
	deals := Compute(listed, history)
	if len(deals) != 3 {
		t.Fatalf("want 3 deals, got %d", len(deals))
	}
	// 50% first, then the two 10% drops by rank
	if deals[0].ShopID != 2 || deals[1].ProductID != 2 || deals[2].ProductID != 1 {
		t.Fatalf("unexpected order %+v", deals)
	}
	if deals[0].AmountOfShops != 2 || deals[1].AmountOfShops != 1 {
		t.Fatalf("unexpected shop counts %d/%d", deals[0].AmountOfShops, deals[1].AmountOfShops)
	}
}

func TestBuildTimeline(t *testing.T) {
	now := time.Date(2026, 5, 21, 15, 0, 0, 0, time.UTC)

	t.Run("cheaper points kept and active tail extended", func(t *testing.T) {
		entries := []model.PriceHistory{
			entry(1, 1, "100", day1),
			entry(2, 2, "120", day1.Add(time.Hour)),
			entry(3, 2, "90", day2),
		}
		got := BuildTimeline(entries, ActiveSet{1: {}, 2: {}}, now)
		// 120 is not cheaper than 100 and shop 2's entry is not its latest
		if len(got) != 3 {
			t.Fatalf("want 3 points, got %+v", got)
		}
		if got[1].ShopID != 2 || !got[1].Price.Equal(decimal.RequireFromString("90")) || !got[1].Active {
			t.Fatalf("unexpected second point %+v", got[1])
		}
		tail := got[2]
		if !tail.Synthetic || !tail.At.Equal(now) || !tail.Price.Equal(decimal.RequireFromString("90")) {
			t.Fatalf("want synthetic tail at now, got %+v", tail)
		}
	})

	t.Run("inactive shop never extended", func(t *testing.T) {
		entries := []model.PriceHistory{
			entry(1, 1, "100", day1),
			entry(2, 1, "80", day2),
		}
		got := BuildTimeline(entries, ActiveSet{}, now)
		if len(got) != 2 {
			t.Fatalf("want 2 points, got %+v", got)
		}
		for _, p := range got {
			if p.Synthetic || p.Active {
				t.Fatalf("inactive shop produced an active point %+v", p)
			}
		}
	})

	t.Run("new active streak after inactive point", func(t *testing.T) {
		entries := []model.PriceHistory{
			entry(1, 1, "80", day1),
			entry(2, 2, "95", day2),
		}
		// shop 1 delisted, shop 2 live and more expensive
		got := BuildTimeline(entries, ActiveSet{2: {}}, now)
		if len(got) != 3 || got[1].ShopID != 2 || !got[1].Active {
			t.Fatalf("want inactive→active transition kept, got %+v", got)
		}
	})

	t.Run("same shop supersedes itself on rise", func(t *testing.T) {
		entries := []model.PriceHistory{
			entry(1, 1, "80", day1),
			entry(2, 1, "85", day2),
		}
		got := BuildTimeline(entries, ActiveSet{1: {}}, now)
		if len(got) != 3 || !got[1].Price.Equal(decimal.RequireFromString("85")) {
			t.Fatalf("want the rise kept for the same active shop, got %+v", got)
		}
	})

	t.Run("no tail when last point is today", func(t *testing.T) {
		entries := []model.PriceHistory{entry(1, 1, "80", now.Add(-time.Hour))}
		got := BuildTimeline(entries, ActiveSet{1: {}}, now)
		if len(got) != 1 {
			t.Fatalf("want no synthetic point, got %+v", got)
		}
	})

	t.Run("null entries not plotted", func(t *testing.T) {
		entries := []model.PriceHistory{
			entry(1, 1, "80", day1),
			entry(2, 1, "", day2),
		}
		got := BuildTimeline(entries, ActiveSet{1: {}}, now)
		// the 80 entry is no longer shop 1's latest, so it is inactive
		if len(got) != 1 || got[0].Active {
			t.Fatalf("unexpected timeline %+v", got)
		}
	})
}

func TestNewActiveSet(t *testing.T) {
	set := NewActiveSet([]model.ShopPrice{
		{ShopID: 1, CurrentPrice: testutil.Dec("1")},
		{ShopID: 2, CurrentPrice: testutil.Dec("1"), Hidden: testutil.Bool(true)},
		{ShopID: 3},
		{ShopID: 4, CurrentPrice: testutil.Dec("1"), Hidden: testutil.Bool(false)},
	})
	if !set.Has(1) || set.Has(2) || set.Has(3) || !set.Has(4) {
		t.Fatalf("unexpected set %v", set)
	}
}
