package telesales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type Repo struct{ DB *pgxpool.Pool }

var ErrCustomerNotFound = errors.New("customer not found")

// ---- customers ----

func (r *Repo) CreateCustomer(ctx context.Context, c *Customer) error {
	c.ID = uuid.NewString()
	row := r.DB.QueryRow(ctx, `
		INSERT INTO customers(id, name, email, phone, billing_address, shipping_address)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at, updated_at`,
		c.ID, c.Name, c.Email, c.Phone, c.BillingAddress, c.ShippingAddress)
	return row.Scan(&c.CreatedAt, &c.UpdatedAt)
}

func (r *Repo) GetCustomer(ctx context.Context, id string) (*Customer, error) {
	var c Customer
	err := r.DB.QueryRow(ctx, `
		SELECT id, name, email, phone, billing_address, shipping_address, created_at, updated_at
		FROM customers WHERE id=$1`, id).
		Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.BillingAddress, &c.ShippingAddress, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

type CustomerFilter struct {
	Name  string
	Email string
	Phone string
}

func (r *Repo) ListCustomers(ctx context.Context, f CustomerFilter, limit, offset int) ([]Customer, int, error) {
	where, args := "TRUE", []any{}
	if f.Name != "" {
		args = append(args, f.Name)
		where += fmt.Sprintf(" AND lower(name) = lower($%d)", len(args))
	}
	if f.Email != "" {
		args = append(args, f.Email)
		where += fmt.Sprintf(" AND email = $%d", len(args))
	}
	if f.Phone != "" {
		args = append(args, f.Phone)
		where += fmt.Sprintf(" AND phone = $%d", len(args))
	}

	var total int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM customers WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := r.DB.Query(ctx, fmt.Sprintf(`
		SELECT id, name, email, phone, billing_address, shipping_address, created_at, updated_at
		FROM customers WHERE %s ORDER BY name LIMIT $%d OFFSET $%d`,
		where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.BillingAddress, &c.ShippingAddress, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (r *Repo) UpdateCustomer(ctx context.Context, c *Customer) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE customers SET name=$2, email=$3, phone=$4, billing_address=$5, shipping_address=$6, updated_at=now()
		WHERE id=$1`,
		c.ID, c.Name, c.Email, c.Phone, c.BillingAddress, c.ShippingAddress)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrCustomerNotFound
	}
	return nil
}

func (r *Repo) DeleteCustomer(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM customers WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrCustomerNotFound
	}
	return nil
}

// ---- sales orders ----

type LineInput struct {
	ProductID   string          `json:"product_id"`
	Qty         int             `json:"qty"`
	DiscountPct decimal.Decimal `json:"discount_pct"`
}

// CreateOrderTx inserts the order header, all lines and the recomputed total
// in a single transaction: a bad line aborts the whole order. Unit prices are
// snapshotted from the products table, never trusted from the client.
func (r *Repo) CreateOrderTx(ctx context.Context, customerID, notes string, vatRate decimal.Decimal, lines []LineInput) (*SalesOrder, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var cust Customer
	err = tx.QueryRow(ctx, `
		SELECT id, name, email, phone, billing_address, shipping_address, created_at, updated_at
		FROM customers WHERE id=$1`, customerID).
		Scan(&cust.ID, &cust.Name, &cust.Email, &cust.Phone, &cust.BillingAddress, &cust.ShippingAddress, &cust.CreatedAt, &cust.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, err
	}

	prices := map[string]decimal.Decimal{}
	for _, li := range lines {
		if li.Qty <= 0 {
			return nil, fmt.Errorf("invalid qty for product %s", li.ProductID)
		}
		if _, ok := prices[li.ProductID]; ok {
			continue
		}
		var p decimal.Decimal
		err := tx.QueryRow(ctx, `SELECT sales_price FROM products WHERE id=$1`, li.ProductID).Scan(&p)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("product not found: %s", li.ProductID)
		}
		if err != nil {
			return nil, err
		}
		prices[li.ProductID] = p
	}

	order := &SalesOrder{
		ID:         uuid.NewString(),
		Number:     NewOrderNumber(),
		CustomerID: customerID,
		Status:     StatusDraft,
		Notes:      notes,
		VATRate:    vatRate,
		Customer:   &cust,
	}
	if err := tx.QueryRow(ctx, `
		INSERT INTO sales_orders(id, number, customer_id, status, notes, vat_rate, order_total)
		VALUES ($1,$2,$3,$4,$5,$6,0)
		RETURNING created_at, updated_at`,
		order.ID, order.Number, order.CustomerID, order.Status, order.Notes, order.VATRate).
		Scan(&order.CreatedAt, &order.UpdatedAt); err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, li := range lines {
		line := SalesOrderLine{
			ID:          uuid.NewString(),
			OrderID:     order.ID,
			ProductID:   li.ProductID,
			Qty:         li.Qty,
			UnitPrice:   prices[li.ProductID],
			DiscountPct: li.DiscountPct,
		}
		line.SubTotal = LineSubTotal(line.Qty, line.UnitPrice, line.DiscountPct)
		if err := tx.QueryRow(ctx, `
			INSERT INTO sales_order_lines(id, order_id, product_id, qty, unit_price, discount_pct, sub_total)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
			RETURNING created_at`,
			line.ID, line.OrderID, line.ProductID, line.Qty, line.UnitPrice, line.DiscountPct, line.SubTotal).
			Scan(&line.CreatedAt); err != nil {
			return nil, err
		}
		total = total.Add(line.SubTotal)
		order.Lines = append(order.Lines, line)
	}

	order.OrderTotal = total
	if _, err := tx.Exec(ctx, `UPDATE sales_orders SET order_total=$2, updated_at=now() WHERE id=$1`,
		order.ID, order.OrderTotal); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *Repo) GetOrderByNumber(ctx context.Context, number string) (*SalesOrder, error) {
	order, err := r.getOrder(ctx, r.DB, `number=$1`, number)
	if err != nil {
		return nil, err
	}
	if err := r.loadOrderChildren(ctx, r.DB, order); err != nil {
		return nil, err
	}
	return order, nil
}

// querier lets order loading run on the pool or inside a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *Repo) getOrder(ctx context.Context, q querier, cond string, arg any) (*SalesOrder, error) {
	var o SalesOrder
	err := q.QueryRow(ctx, `
		SELECT id, number, customer_id, status, notes, vat_rate, order_total, created_at, updated_at
		FROM sales_orders WHERE `+cond, arg).
		Scan(&o.ID, &o.Number, &o.CustomerID, &o.Status, &o.Notes, &o.VATRate, &o.OrderTotal, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *Repo) loadOrderChildren(ctx context.Context, q querier, o *SalesOrder) error {
	var cust Customer
	if err := q.QueryRow(ctx, `
		SELECT id, name, email, phone, billing_address, shipping_address, created_at, updated_at
		FROM customers WHERE id=$1`, o.CustomerID).
		Scan(&cust.ID, &cust.Name, &cust.Email, &cust.Phone, &cust.BillingAddress, &cust.ShippingAddress, &cust.CreatedAt, &cust.UpdatedAt); err != nil {
		return err
	}
	o.Customer = &cust

	rows, err := q.Query(ctx, `
		SELECT id, order_id, product_id, qty, unit_price, discount_pct, sub_total, created_at
		FROM sales_order_lines WHERE order_id=$1 ORDER BY created_at, id`, o.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var l SalesOrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.Qty, &l.UnitPrice, &l.DiscountPct, &l.SubTotal, &l.CreatedAt); err != nil {
			return err
		}
		o.Lines = append(o.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	rrows, err := q.Query(ctx, `
		SELECT id, order_id, product_id, qty, created_at
		FROM reservations WHERE order_id=$1 ORDER BY created_at, id`, o.ID)
	if err != nil {
		return err
	}
	defer rrows.Close()
	for rrows.Next() {
		var res Reservation
		if err := rrows.Scan(&res.ID, &res.OrderID, &res.ProductID, &res.Qty, &res.CreatedAt); err != nil {
			return err
		}
		o.Reservations = append(o.Reservations, res)
	}
	return rrows.Err()
}

type OrderFilter struct {
	Status        Status
	CreatedBefore time.Time
	CreatedAfter  time.Time
}

func (r *Repo) ListOrders(ctx context.Context, f OrderFilter, limit, offset int) ([]SalesOrder, int, error) {
	where, args := "TRUE", []any{}
	if f.Status != "" {
		args = append(args, f.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if !f.CreatedBefore.IsZero() {
		args = append(args, f.CreatedBefore)
		where += fmt.Sprintf(" AND created_at <= $%d", len(args))
	}
	if !f.CreatedAfter.IsZero() {
		args = append(args, f.CreatedAfter)
		where += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}

	var total int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM sales_orders WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := r.DB.Query(ctx, fmt.Sprintf(`
		SELECT id, number, customer_id, status, notes, vat_rate, order_total, created_at, updated_at
		FROM sales_orders WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []SalesOrder
	for rows.Next() {
		var o SalesOrder
		if err := rows.Scan(&o.ID, &o.Number, &o.CustomerID, &o.Status, &o.Notes, &o.VATRate, &o.OrderTotal, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, o)
	}
	return out, total, rows.Err()
}

// DeleteOrder removes a DRAFT order and, by cascade, its lines. Confirmed and
// cancelled orders are kept as history.
func (r *Repo) DeleteOrder(ctx context.Context, number string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM sales_orders WHERE number=$1 AND status=$2`, number, StatusDraft)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		order, err := r.getOrder(ctx, r.DB, `number=$1`, number)
		if err != nil {
			return err
		}
		return &InvalidStateError{Number: order.Number, Current: order.Status}
	}
	return nil
}

func (r *Repo) GetOrderStatus(ctx context.Context, number string) (Status, error) {
	var s string
	err := r.DB.QueryRow(ctx, `SELECT status FROM sales_orders WHERE number=$1`, number).Scan(&s)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrOrderNotFound
	}
	if err != nil {
		return "", err
	}
	return Status(s), nil
}

// ---- reservations (read-only; writes happen inside the confirmation tx) ----

var ErrReservationNotFound = errors.New("reservation not found")

func (r *Repo) GetReservation(ctx context.Context, id string) (*Reservation, error) {
	var res Reservation
	err := r.DB.QueryRow(ctx, `
		SELECT id, order_id, product_id, qty, created_at FROM reservations WHERE id=$1`, id).
		Scan(&res.ID, &res.OrderID, &res.ProductID, &res.Qty, &res.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *Repo) ListReservations(ctx context.Context, orderID string, limit, offset int) ([]Reservation, int, error) {
	where, args := "TRUE", []any{}
	if orderID != "" {
		args = append(args, orderID)
		where += fmt.Sprintf(" AND order_id = $%d", len(args))
	}

	var total int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM reservations WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := r.DB.Query(ctx, fmt.Sprintf(`
		SELECT id, order_id, product_id, qty, created_at
		FROM reservations WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Reservation
	for rows.Next() {
		var res Reservation
		if err := rows.Scan(&res.ID, &res.OrderID, &res.ProductID, &res.Qty, &res.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, res)
	}
	return out, total, rows.Err()
}
