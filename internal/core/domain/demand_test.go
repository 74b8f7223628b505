package domain

import "testing"

func TestAggregateDemand(t *testing.T) {
	items := []Item{
		{ID: "i1", CartID: "c1", ProductID: "apple"},
		{ID: "i2", CartID: "c1", ProductID: "banana"},
		{ID: "i3", CartID: "c1", ProductID: "apple"},
		{ID: "i4", CartID: "c1", ProductID: "apple"},
	}

	demand := AggregateDemand(items)

	if len(demand) != 2 {
		t.Fatalf("expected 2 products, got %d", len(demand))
	}
	if demand["apple"] != 3 {
		t.Errorf("expected 3 units of apple, got %d", demand["apple"])
	}
	if demand["banana"] != 1 {
		t.Errorf("expected 1 unit of banana, got %d", demand["banana"])
	}
}

func TestAggregateDemand_OrderIndependent(t *testing.T) {
	forward := []Item{
		{ID: "i1", ProductID: "a"},
		{ID: "i2", ProductID: "b"},
		{ID: "i3", ProductID: "a"},
	}
	reversed := []Item{forward[2], forward[1], forward[0]}

	d1 := AggregateDemand(forward)
	d2 := AggregateDemand(reversed)

	if len(d1) != len(d2) {
		t.Fatalf("demand size differs: %d vs %d", len(d1), len(d2))
	}
	for id, qty := range d1 {
		if d2[id] != qty {
			t.Errorf("product %s: %d vs %d", id, qty, d2[id])
		}
	}
}

func TestAggregateDemand_EmptyCart(t *testing.T) {
	demand := AggregateDemand(nil)
	if len(demand) != 0 {
		t.Errorf("expected empty demand, got %v", demand)
	}
}

func TestDemand_ProductIDsAscending(t *testing.T) {
	demand := Demand{"pear": 1, "apple": 2, "mango": 4, "banana": 1}

	ids := demand.ProductIDs()

	want := []string{"apple", "banana", "mango", "pear"}
	if len(ids) != len(want) {
		t.Fatalf("expected %d ids, got %d", len(want), len(ids))
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], ids[i])
		}
	}
}
