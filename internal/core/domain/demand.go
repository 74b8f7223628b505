package domain

import "sort"

// Demand maps a product id to the number of units a cart requests for it.
// It is derived fresh for every checkout attempt and never persisted.
type Demand map[string]int

// AggregateDemand folds a cart's items into per-product unit counts.
// The result does not depend on item order; an empty cart yields an
// empty demand.
func AggregateDemand(items []Item) Demand {
	demand := make(Demand, len(items))
	for _, item := range items {
		demand[item.ProductID]++
	}
	return demand
}

// ProductIDs returns the demanded product ids in ascending order. Checkout
// locks product rows in exactly this order so that concurrent checkouts with
// overlapping product sets cannot deadlock.
func (d Demand) ProductIDs() []string {
	ids := make([]string, 0, len(d))
	for id := range d {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
