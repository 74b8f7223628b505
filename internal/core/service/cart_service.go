package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rojasecr/MarketplaceQL/internal/core/domain"
	"github.com/rojasecr/MarketplaceQL/internal/pkg/telemetry"
	"github.com/rojasecr/MarketplaceQL/internal/port"
)

// ErrCheckoutContention is returned once the retry budget for transient lock
// contention is exhausted. Nothing was committed; the caller may retry.
var ErrCheckoutContention = errors.New("checkout retries exhausted")

type CheckoutConfig struct {
	// MaxAttempts bounds how often one CompleteCart call retries after a
	// transaction conflict.
	MaxAttempts int
	// RetryBackoff is the base delay between attempts, scaled linearly.
	RetryBackoff time.Duration
	// AttemptTimeout bounds the lock wait of a single attempt.
	AttemptTimeout time.Duration
}

func (c CheckoutConfig) withDefaults() CheckoutConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 50 * time.Millisecond
	}
	if c.AttemptTimeout <= 0 {
		c.AttemptTimeout = 5 * time.Second
	}
	return c
}

type CartService struct {
	store   port.Store
	cache   port.StockCache
	logger  *zap.Logger
	metrics *telemetry.CheckoutMetrics
	cfg     CheckoutConfig
}

func NewCartService(store port.Store, cache port.StockCache, logger *zap.Logger, metrics *telemetry.CheckoutMetrics, cfg CheckoutConfig) *CartService {
	return &CartService{
		store:   store,
		cache:   cache,
		logger:  logger,
		metrics: metrics,
		cfg:     cfg.withDefaults(),
	}
}

func (s *CartService) CreateCart(ctx context.Context) (*domain.Cart, error) {
	now := time.Now()
	cart := domain.Cart{
		ID:        uuid.NewString(),
		Status:    domain.CartStatusOpen,
		Total:     0,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.CreateCart(ctx, cart); err != nil {
		return nil, fmt.Errorf("create cart: %w", err)
	}

	s.logger.Info("cart created", zap.String("cart_id", cart.ID))
	return &cart, nil
}

// AddItem appends one unit of demand for a product to an open cart. Stock is
// not checked here; a cart may transiently reference more units than are
// available, which only surfaces at checkout.
func (s *CartService) AddItem(ctx context.Context, cartID, productID string) (*domain.Cart, error) {
	item := domain.Item{
		ID:        uuid.NewString(),
		CartID:    cartID,
		ProductID: productID,
		CreatedAt: time.Now(),
	}

	cart, err := s.store.AddItem(ctx, item)
	if err != nil {
		return nil, err
	}

	s.logger.Info("item added",
		zap.String("cart_id", cartID),
		zap.String("product_id", productID),
		zap.String("item_id", item.ID),
	)
	return cart, nil
}

func (s *CartService) GetCart(ctx context.Context, cartID string) (*domain.Cart, error) {
	return s.store.GetCart(ctx, cartID)
}

func (s *CartService) ListProducts(ctx context.Context, inStockOnly bool) ([]domain.Product, error) {
	return s.store.ListProducts(ctx, inStockOnly)
}

// CompleteCart runs the all-or-nothing checkout of a cart. On success every
// demanded unit has been decremented from inventory and the cart is terminal.
// On insufficient stock nothing is mutated, the full shortfall set is
// reported and the cart stays open for correction.
func (s *CartService) CompleteCart(ctx context.Context, cartID string) (*domain.CheckoutResult, error) {
	start := time.Now()
	result, err := s.completeWithRetry(ctx, cartID)

	outcome := "error"
	switch {
	case err == nil && result.Success:
		outcome = "success"
	case err == nil:
		outcome = "insufficient_stock"
	case errors.Is(err, domain.ErrCartNotFound), errors.Is(err, domain.ErrCartCompleted):
		outcome = "rejected"
	case errors.Is(err, ErrCheckoutContention):
		outcome = "contention"
	}
	s.metrics.Attempts.WithLabelValues(outcome).Inc()
	s.metrics.Duration.Observe(time.Since(start).Seconds())

	if err != nil {
		return nil, err
	}

	if result.Success {
		s.logger.Info("cart completed", zap.String("cart_id", cartID))
	} else {
		s.logger.Info("checkout rejected, insufficient stock",
			zap.String("cart_id", cartID),
			zap.Strings("products", result.InsufficientStock),
		)
	}
	return result, nil
}

func (s *CartService) completeWithRetry(ctx context.Context, cartID string) (*domain.CheckoutResult, error) {
	var lastErr error
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, s.cfg.AttemptTimeout)
		result, err := s.tryCompleteCart(attemptCtx, cartID)
		cancel()

		// A timed-out attempt released its locks; only the per-attempt
		// deadline counts as contention, not cancellation of the caller.
		retryable := errors.Is(err, domain.ErrTxConflict) ||
			(errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil)
		if !retryable {
			return result, err
		}

		lastErr = err
		s.metrics.Retries.Inc()
		s.logger.Warn("checkout contention, retrying",
			zap.String("cart_id", cartID),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.cfg.RetryBackoff * time.Duration(attempt)):
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrCheckoutContention, lastErr)
}

func (s *CartService) tryCompleteCart(ctx context.Context, cartID string) (*domain.CheckoutResult, error) {
	cart, err := s.store.GetCart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if !cart.Open() {
		return nil, domain.ErrCartCompleted
	}

	demand := domain.AggregateDemand(cart.Items)

	// Fast-path gate against the stock mirror: a shortfall here fails the
	// checkout without opening a transaction. The mirror is a hint only, the
	// database check below stays authoritative.
	gated := false
	if len(demand) > 0 {
		short, err := s.cache.DecrementStock(ctx, demand)
		switch {
		case err != nil:
			s.logger.Warn("stock mirror unavailable, checking database only", zap.Error(err))
		case len(short) > 0:
			return &domain.CheckoutResult{Success: false, InsufficientStock: short}, nil
		default:
			gated = true
		}
	}

	result, txDemand, err := s.commitCheckout(ctx, cartID)
	if gated {
		// Mirror bookkeeping runs detached: the attempt's context may
		// already be dead (per-attempt deadline, caller gone) and a rejected
		// compensation would leave the mirror stale-low, falsely failing
		// every later checkout of those products at the gate.
		mirrorCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.AttemptTimeout)
		defer cancel()

		if err != nil || !result.Success {
			if rbErr := s.cache.IncrementStock(mirrorCtx, demand); rbErr != nil {
				s.logger.Error("CRITICAL stock mirror rollback failed",
					zap.String("cart_id", cartID),
					zap.Error(rbErr),
				)
			}
		} else if extra := extraDemand(txDemand, demand); len(extra) > 0 {
			// Items appended between the unlocked read and the locked one
			// were decremented from the database but not the mirror; take
			// them out too. Best effort: a short mirror skips the batch and
			// stays stale-high, which only weakens the gate.
			if _, syncErr := s.cache.DecrementStock(mirrorCtx, extra); syncErr != nil {
				s.logger.Warn("stock mirror sync failed",
					zap.String("cart_id", cartID),
					zap.Error(syncErr),
				)
			}
		}
	}
	return result, err
}

func (s *CartService) commitCheckout(ctx context.Context, cartID string) (*domain.CheckoutResult, domain.Demand, error) {
	tx, err := s.store.BeginCheckout(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin checkout: %w", err)
	}
	defer tx.Rollback()

	cart, err := tx.Cart(ctx, cartID)
	if err != nil {
		return nil, nil, err
	}
	if !cart.Open() {
		return nil, nil, domain.ErrCartCompleted
	}

	// The locked row is authoritative; items may have grown since the
	// unlocked read that fed the mirror gate.
	demand := domain.AggregateDemand(cart.Items)

	if len(demand) > 0 {
		short, err := tx.DecrementStock(ctx, demand)
		if err != nil {
			return nil, nil, err
		}
		if len(short) > 0 {
			return &domain.CheckoutResult{Success: false, InsufficientStock: short}, demand, nil
		}
	}

	if err := tx.CompleteCart(ctx, cartID); err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit checkout: %w", err)
	}
	return &domain.CheckoutResult{Success: true}, demand, nil
}

// extraDemand returns the units the transaction decremented beyond what the
// gate took from the mirror.
func extraDemand(txDemand, gateDemand domain.Demand) domain.Demand {
	extra := make(domain.Demand)
	for id, qty := range txDemand {
		if d := qty - gateDemand[id]; d > 0 {
			extra[id] = d
		}
	}
	return extra
}
