package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Bootstrap DDL. The CHECK on quantity_on_hand is a backstop behind the
// validate-before-mutate pass in the confirmation transaction.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS vendors (
		id           TEXT PRIMARY KEY,
		name         TEXT NOT NULL,
		is_company   BOOLEAN NOT NULL DEFAULT FALSE,
		address_type TEXT NOT NULL DEFAULT '',
		street       TEXT NOT NULL DEFAULT '',
		zip_code     TEXT NOT NULL DEFAULT '',
		city         TEXT NOT NULL DEFAULT '',
		state        TEXT NOT NULL DEFAULT '',
		country      TEXT NOT NULL DEFAULT '',
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id                  TEXT PRIMARY KEY,
		favorite            TEXT NOT NULL DEFAULT '',
		name                TEXT NOT NULL,
		internal_reference  TEXT NOT NULL DEFAULT '',
		responsible         TEXT NOT NULL DEFAULT '',
		barcode             TEXT NOT NULL DEFAULT '',
		sales_price         NUMERIC(10,2) NOT NULL,
		cost                NUMERIC(10,2) NOT NULL,
		product_category    TEXT NOT NULL DEFAULT '',
		product_type        TEXT NOT NULL DEFAULT '',
		quantity_on_hand    INTEGER NOT NULL DEFAULT 0 CHECK (quantity_on_hand >= 0),
		forecasted_quantity INTEGER NOT NULL DEFAULT 0,
		available           BOOLEAN NOT NULL DEFAULT TRUE,
		created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS purchase_orders (
		id                      TEXT PRIMARY KEY,
		order_reference         TEXT NOT NULL UNIQUE,
		vendor_id               TEXT NOT NULL REFERENCES vendors(id),
		priority                TEXT NOT NULL DEFAULT 'Normal',
		purchase_representative TEXT NOT NULL DEFAULT '',
		order_deadline          TIMESTAMPTZ,
		source_document         TEXT NOT NULL DEFAULT '',
		total                   NUMERIC(12,2) NOT NULL DEFAULT 0,
		status                  TEXT NOT NULL,
		created_at              TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at              TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS purchase_order_lines (
		id         TEXT PRIMARY KEY,
		order_id   TEXT NOT NULL REFERENCES purchase_orders(id) ON DELETE CASCADE,
		product_id TEXT NOT NULL REFERENCES products(id),
		quantity   INTEGER NOT NULL,
		price_unit NUMERIC(10,2) NOT NULL,
		subtotal   NUMERIC(12,2) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS customers (
		id               TEXT PRIMARY KEY,
		name             TEXT NOT NULL,
		email            TEXT NOT NULL UNIQUE,
		phone            TEXT NOT NULL DEFAULT '',
		billing_address  TEXT NOT NULL DEFAULT '',
		shipping_address TEXT NOT NULL DEFAULT '',
		created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS sales_orders (
		id          TEXT PRIMARY KEY,
		number      TEXT NOT NULL UNIQUE,
		customer_id TEXT NOT NULL REFERENCES customers(id),
		status      TEXT NOT NULL DEFAULT 'DRAFT',
		notes       TEXT NOT NULL DEFAULT '',
		vat_rate    NUMERIC(5,2) NOT NULL DEFAULT 0,
		order_total NUMERIC(10,2) NOT NULL DEFAULT 0,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sales_orders_status ON sales_orders(status)`,
	`CREATE TABLE IF NOT EXISTS sales_order_lines (
		id           TEXT PRIMARY KEY,
		order_id     TEXT NOT NULL REFERENCES sales_orders(id) ON DELETE CASCADE,
		product_id   TEXT NOT NULL REFERENCES products(id),
		qty          INTEGER NOT NULL CHECK (qty > 0),
		unit_price   NUMERIC(10,2) NOT NULL,
		discount_pct NUMERIC(5,2) NOT NULL DEFAULT 0,
		sub_total    NUMERIC(10,2) NOT NULL DEFAULT 0,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS reservations (
		id         TEXT PRIMARY KEY,
		order_id   TEXT NOT NULL REFERENCES sales_orders(id) ON DELETE CASCADE,
		product_id TEXT NOT NULL,
		qty        INTEGER NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
