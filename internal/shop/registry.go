package shop

import "sort"

// Registry maps a shop id to its adapter. It is built once at startup and is
// read-only afterwards, so it is safe for concurrent use.
type Registry map[int64]Adapter

func (r Registry) Get(shopID int64) (Adapter, bool) {
	a, ok := r[shopID]
	return a, ok
}

// ShopIDs returns the registered shop ids in ascending order.
func (r Registry) ShopIDs() []int64 {
	ids := make([]int64, 0, len(r))
	for id := range r {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
