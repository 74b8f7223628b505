package storage

// Schema is the logical layout the MySQL adapter expects. Applied by
// cmd/seed and by the integration tests.
const Schema = `
CREATE TABLE IF NOT EXISTS products (
	id              VARCHAR(36) PRIMARY KEY,
	title           VARCHAR(255) NOT NULL,
	price           INT NOT NULL,
	inventory_count INT NOT NULL DEFAULT 0,
	CONSTRAINT chk_products_stock CHECK (inventory_count >= 0)
);

CREATE TABLE IF NOT EXISTS carts (
	id         VARCHAR(36) PRIMARY KEY,
	status     VARCHAR(16) NOT NULL DEFAULT 'open',
	total      INT NOT NULL DEFAULT 0,
	created_at DATETIME(6) NOT NULL,
	updated_at DATETIME(6) NOT NULL
);

CREATE TABLE IF NOT EXISTS items (
	id         VARCHAR(36) PRIMARY KEY,
	cart_id    VARCHAR(36) NOT NULL,
	product_id VARCHAR(36) NOT NULL,
	created_at DATETIME(6) NOT NULL,
	KEY idx_items_cart (cart_id),
	CONSTRAINT fk_items_cart FOREIGN KEY (cart_id) REFERENCES carts (id),
	CONSTRAINT fk_items_product FOREIGN KEY (product_id) REFERENCES products (id)
);
`
