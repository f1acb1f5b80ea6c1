package telesales

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres error codes that signal unresolved lock contention: the caller may
// retry without re-reading business state.
const (
	pgLockNotAvailable     = "55P03"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

func translateLockErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgLockNotAvailable, pgSerializationFailure, pgDeadlockDetected:
			return ErrOrderLocked
		}
	}
	return err
}

// InConfirmTx implements ConfirmStore on Postgres. fn runs inside a single
// transaction; any error rolls it back.
func (r *Repo) InConfirmTx(ctx context.Context, fn func(tx ConfirmTx) error) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&confirmTx{repo: r, tx: tx}); err != nil {
		return translateLockErr(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return translateLockErr(err)
	}
	return nil
}

type confirmTx struct {
	repo *Repo
	tx   pgx.Tx
}

func (c *confirmTx) LockOrder(ctx context.Context, number string) (*SalesOrder, error) {
	var o SalesOrder
	err := c.tx.QueryRow(ctx, `
		SELECT id, number, customer_id, status, notes, vat_rate, order_total, created_at, updated_at
		FROM sales_orders WHERE number=$1 FOR UPDATE`, number).
		Scan(&o.ID, &o.Number, &o.CustomerID, &o.Status, &o.Notes, &o.VATRate, &o.OrderTotal, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (c *confirmTx) OrderLines(ctx context.Context, orderID string) ([]SalesOrderLine, error) {
	rows, err := c.tx.Query(ctx, `
		SELECT id, order_id, product_id, qty, unit_price, discount_pct, sub_total, created_at
		FROM sales_order_lines WHERE order_id=$1 ORDER BY created_at, id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SalesOrderLine
	for rows.Next() {
		var l SalesOrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.Qty, &l.UnitPrice, &l.DiscountPct, &l.SubTotal, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// LockProducts takes all product row locks in one read. The ids arrive
// pre-sorted from the service, and ORDER BY id keeps the acquisition order
// identical for every concurrent confirmation.
func (c *confirmTx) LockProducts(ctx context.Context, ids []string) (map[string]ProductStock, error) {
	rows, err := c.tx.Query(ctx, `
		SELECT id, quantity_on_hand FROM products
		WHERE id = ANY($1) ORDER BY id FOR UPDATE`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]ProductStock, len(ids))
	for rows.Next() {
		var ps ProductStock
		if err := rows.Scan(&ps.ID, &ps.QuantityOnHand); err != nil {
			return nil, err
		}
		out[ps.ID] = ps
	}
	return out, rows.Err()
}

func (c *confirmTx) DeductStock(ctx context.Context, productID string, qty int) error {
	_, err := c.tx.Exec(ctx, `
		UPDATE products SET quantity_on_hand = quantity_on_hand - $2, updated_at = now()
		WHERE id=$1`, productID, qty)
	return err
}

func (c *confirmTx) AddReservations(ctx context.Context, res []Reservation) error {
	for i := range res {
		res[i].ID = uuid.NewString()
		if _, err := c.tx.Exec(ctx, `
			INSERT INTO reservations(id, order_id, product_id, qty)
			VALUES ($1,$2,$3,$4)`,
			res[i].ID, res[i].OrderID, res[i].ProductID, res[i].Qty); err != nil {
			return err
		}
	}
	return nil
}

func (c *confirmTx) SetStatus(ctx context.Context, orderID string, status Status) error {
	_, err := c.tx.Exec(ctx, `UPDATE sales_orders SET status=$2, updated_at=now() WHERE id=$1`, orderID, status)
	return err
}

func (c *confirmTx) RefreshOrder(ctx context.Context, orderID string) (*SalesOrder, error) {
	order, err := c.repo.getOrder(ctx, c.tx, `id=$1`, orderID)
	if err != nil {
		return nil, err
	}
	if err := c.repo.loadOrderChildren(ctx, c.tx, order); err != nil {
		return nil, err
	}
	return order, nil
}
