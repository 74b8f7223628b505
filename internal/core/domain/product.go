package domain

type Product struct {
	ID             string
	Title          string
	Price          int
	InventoryCount int
}

func (p Product) InStock() bool {
	return p.InventoryCount > 0
}
