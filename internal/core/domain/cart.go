package domain

import "time"

type CartStatus string

const (
	CartStatusOpen      CartStatus = "open"
	CartStatusCompleted CartStatus = "completed"
)

type Cart struct {
	ID        string
	Status    CartStatus
	Total     int
	Items     []Item
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c *Cart) Open() bool {
	return c.Status == CartStatusOpen
}

// Item is one demanded unit of a product inside a cart. Items are immutable
// once created and only ever removed together with their cart.
type Item struct {
	ID        string
	CartID    string
	ProductID string
	CreatedAt time.Time
}

// CheckoutResult is the outcome of a checkout attempt. InsufficientStock holds
// the full set of product ids whose stock could not cover the cart's demand,
// never just the first one found.
type CheckoutResult struct {
	Success           bool
	InsufficientStock []string
}
