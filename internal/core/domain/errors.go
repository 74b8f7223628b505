package domain

import "errors"

var (
	ErrCartNotFound    = errors.New("cart not found")
	ErrProductNotFound = errors.New("product not found")
	ErrCartCompleted   = errors.New("cart already completed")

	// ErrTxConflict marks transient lock contention (deadlock victim, lock
	// wait timeout). Callers may retry; nothing was committed.
	ErrTxConflict = errors.New("transaction conflict")
)
