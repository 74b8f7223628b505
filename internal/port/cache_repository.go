package port

import (
	"context"

	"github.com/rojasecr/MarketplaceQL/internal/core/domain"
)

// StockCache mirrors per-product stock counters for the checkout fast path.
// The database remains authoritative; the mirror only lets hopeless checkouts
// fail before opening a transaction.
type StockCache interface {
	// DecrementStock atomically decreases every mirrored counter named in the
	// demand, or none of them. A non-empty return lists every product whose
	// counter falls short; unmirrored products are treated as covered and
	// left to the database check.
	DecrementStock(ctx context.Context, demand domain.Demand) ([]string, error)

	// IncrementStock restores mirrored counters (rollback when the database
	// write fails after the mirror was decremented).
	IncrementStock(ctx context.Context, demand domain.Demand) error

	// SetStock seeds or overwrites one mirrored counter.
	SetStock(ctx context.Context, productID string, quantity int) error
}
