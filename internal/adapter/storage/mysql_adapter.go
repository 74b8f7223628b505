package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/rojasecr/MarketplaceQL/internal/core/domain"
	"github.com/rojasecr/MarketplaceQL/internal/port"
)

type productRow struct {
	ID             string `db:"id"`
	Title          string `db:"title"`
	Price          int    `db:"price"`
	InventoryCount int    `db:"inventory_count"`
}

type cartRow struct {
	ID        string    `db:"id"`
	Status    string    `db:"status"`
	Total     int       `db:"total"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type itemRow struct {
	ID        string    `db:"id"`
	CartID    string    `db:"cart_id"`
	ProductID string    `db:"product_id"`
	CreatedAt time.Time `db:"created_at"`
}

type MySQLAdapter struct {
	db *sqlx.DB
}

func NewMySQLAdapter(db *sqlx.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

func (m *MySQLAdapter) CreateCart(ctx context.Context, cart domain.Cart) error {
	_, err := m.db.NamedExecContext(ctx, `
		INSERT INTO carts (id, status, total, created_at, updated_at)
		VALUES (:id, :status, :total, :created_at, :updated_at)`,
		cartRow{
			ID:        cart.ID,
			Status:    string(cart.Status),
			Total:     cart.Total,
			CreatedAt: cart.CreatedAt,
			UpdatedAt: cart.UpdatedAt,
		},
	)
	if err != nil {
		return fmt.Errorf("insert cart: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) GetCart(ctx context.Context, id string) (*domain.Cart, error) {
	var row cartRow
	err := m.db.GetContext(ctx, &row, `
		SELECT id, status, total, created_at, updated_at
		FROM carts WHERE id = ?`, id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrCartNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query cart: %w", err)
	}

	items, err := cartItems(ctx, m.db, id)
	if err != nil {
		return nil, err
	}
	return assembleCart(row, items), nil
}

func (m *MySQLAdapter) AddItem(ctx context.Context, item domain.Item) (*domain.Cart, error) {
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var cart cartRow
	err = tx.GetContext(ctx, &cart, `
		SELECT id, status, total, created_at, updated_at
		FROM carts WHERE id = ? FOR UPDATE`, item.CartID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrCartNotFound
	}
	if err != nil {
		return nil, translateErr("lock cart", err)
	}
	if cart.Status != string(domain.CartStatusOpen) {
		return nil, domain.ErrCartCompleted
	}

	var price int
	err = tx.GetContext(ctx, &price, `SELECT price FROM products WHERE id = ?`, item.ProductID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO items (id, cart_id, product_id, created_at)
		VALUES (:id, :cart_id, :product_id, :created_at)`,
		itemRow{
			ID:        item.ID,
			CartID:    item.CartID,
			ProductID: item.ProductID,
			CreatedAt: item.CreatedAt,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE carts SET total = total + ?, updated_at = ? WHERE id = ?`,
		price, time.Now(), item.CartID,
	)
	if err != nil {
		return nil, fmt.Errorf("update cart total: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, translateErr("commit add item", err)
	}
	return m.GetCart(ctx, item.CartID)
}

func (m *MySQLAdapter) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var row productRow
	err := m.db.GetContext(ctx, &row, `
		SELECT id, title, price, inventory_count
		FROM products WHERE id = ?`, id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}
	p := domain.Product(row)
	return &p, nil
}

func (m *MySQLAdapter) ListProducts(ctx context.Context, inStockOnly bool) ([]domain.Product, error) {
	query := `SELECT id, title, price, inventory_count FROM products`
	if inStockOnly {
		query += ` WHERE inventory_count > 0`
	}
	query += ` ORDER BY id`

	var rows []productRow
	if err := m.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}

	products := make([]domain.Product, len(rows))
	for i, row := range rows {
		products[i] = domain.Product(row)
	}
	return products, nil
}

func (m *MySQLAdapter) BeginCheckout(ctx context.Context) (port.CheckoutTx, error) {
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return &checkoutTx{tx: tx}, nil
}

type checkoutTx struct {
	tx   *sqlx.Tx
	done bool
}

func (t *checkoutTx) Cart(ctx context.Context, id string) (*domain.Cart, error) {
	var row cartRow
	err := t.tx.GetContext(ctx, &row, `
		SELECT id, status, total, created_at, updated_at
		FROM carts WHERE id = ? FOR UPDATE`, id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrCartNotFound
	}
	if err != nil {
		return nil, translateErr("lock cart", err)
	}

	items, err := cartItems(ctx, t.tx, id)
	if err != nil {
		return nil, err
	}
	return assembleCart(row, items), nil
}

func (t *checkoutTx) DecrementStock(ctx context.Context, demand domain.Demand) ([]string, error) {
	// Lock product rows in ascending id order, the fixed total order shared
	// by every checkout, so overlapping transactions cannot deadlock.
	ids := demand.ProductIDs()

	var short []string
	for _, id := range ids {
		var count int
		err := t.tx.GetContext(ctx, &count, `
			SELECT inventory_count FROM products WHERE id = ? FOR UPDATE`, id,
		)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
		}
		if err != nil {
			return nil, translateErr("lock product", err)
		}
		if count < demand[id] {
			short = append(short, id)
		}
	}
	if len(short) > 0 {
		return short, nil
	}

	for _, id := range ids {
		res, err := t.tx.ExecContext(ctx, `
			UPDATE products SET inventory_count = inventory_count - ?
			WHERE id = ? AND inventory_count >= ?`,
			demand[id], id, demand[id],
		)
		if err != nil {
			return nil, translateErr("decrement stock", err)
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("decrement stock: %w", err)
		}
		if rows == 0 {
			// Cannot happen while the row lock is held; treat as conflict.
			return nil, fmt.Errorf("%w: stock moved under lock for %s", domain.ErrTxConflict, id)
		}
	}
	return nil, nil
}

func (t *checkoutTx) CompleteCart(ctx context.Context, id string) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE carts SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(domain.CartStatusCompleted), time.Now(), id, string(domain.CartStatusOpen),
	)
	if err != nil {
		return translateErr("complete cart", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("complete cart: %w", err)
	}
	if rows == 0 {
		return domain.ErrCartCompleted
	}
	return nil
}

func (t *checkoutTx) Commit() error {
	t.done = true
	if err := t.tx.Commit(); err != nil {
		return translateErr("commit", err)
	}
	return nil
}

func (t *checkoutTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

func cartItems(ctx context.Context, q sqlx.QueryerContext, cartID string) ([]domain.Item, error) {
	var rows []itemRow
	err := sqlx.SelectContext(ctx, q, &rows, `
		SELECT id, cart_id, product_id, created_at
		FROM items WHERE cart_id = ? ORDER BY created_at, id`, cartID,
	)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}

	items := make([]domain.Item, len(rows))
	for i, row := range rows {
		items[i] = domain.Item(row)
	}
	return items, nil
}

func assembleCart(row cartRow, items []domain.Item) *domain.Cart {
	return &domain.Cart{
		ID:        row.ID,
		Status:    domain.CartStatus(row.Status),
		Total:     row.Total,
		Items:     items,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

// translateErr maps the MySQL error codes for lock wait timeout (1205) and
// deadlock victim (1213) onto the retryable conflict error.
func translateErr(op string, err error) error {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case 1205, 1213:
			return fmt.Errorf("%s: %w", op, domain.ErrTxConflict)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
