package port

import (
	"context"

	"github.com/rojasecr/MarketplaceQL/internal/core/domain"
)

type Store interface {
	// CreateCart persists a new open cart with no items.
	CreateCart(ctx context.Context, cart domain.Cart) error

	// GetCart returns a cart with its items, or domain.ErrCartNotFound.
	GetCart(ctx context.Context, id string) (*domain.Cart, error)

	// AddItem appends one item to an open cart, updates the cart's derived
	// total and returns the updated cart. It never touches inventory.
	AddItem(ctx context.Context, item domain.Item) (*domain.Cart, error)

	// GetProduct returns a product, or domain.ErrProductNotFound.
	GetProduct(ctx context.Context, id string) (*domain.Product, error)

	ListProducts(ctx context.Context, inStockOnly bool) ([]domain.Product, error)

	// BeginCheckout opens a scoped transaction for a single checkout attempt.
	// The caller must release it via Commit or Rollback on every exit path.
	BeginCheckout(ctx context.Context) (CheckoutTx, error)
}

// CheckoutTx is the transaction handle the checkout engine drives. All reads
// and writes inside it are isolated from concurrent checkouts touching
// overlapping rows.
type CheckoutTx interface {
	// Cart returns the cart row under an exclusive lock, with its items.
	Cart(ctx context.Context, id string) (*domain.Cart, error)

	// DecrementStock locks every demanded product row in ascending id order,
	// then either applies all decrements or none. A non-empty return lists
	// every product whose stock falls short of its demand; in that case no
	// row has been mutated. Returns domain.ErrTxConflict on lock contention.
	DecrementStock(ctx context.Context, demand domain.Demand) ([]string, error)

	// CompleteCart transitions an open cart to completed. Completed is
	// terminal; a second completion fails with domain.ErrCartCompleted.
	CompleteCart(ctx context.Context, id string) error

	Commit() error
	Rollback() error
}
