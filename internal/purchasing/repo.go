package purchasing

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

var (
	ErrVendorNotFound = errors.New("vendor not found")
	ErrOrderNotFound  = errors.New("purchase order not found")
)

// ---- vendors ----

func (r *Repo) CreateVendor(ctx context.Context, v *Vendor) error {
	v.ID = uuid.NewString()
	row := r.DB.QueryRow(ctx, `
		INSERT INTO vendors(id, name, is_company, address_type, street, zip_code, city, state, country)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at, updated_at`,
		v.ID, v.Name, v.IsCompany, v.AddressType, v.Street, v.ZipCode, v.City, v.State, v.Country)
	return row.Scan(&v.CreatedAt, &v.UpdatedAt)
}

func (r *Repo) GetVendor(ctx context.Context, id string) (*Vendor, error) {
	var v Vendor
	err := r.DB.QueryRow(ctx, `
		SELECT id, name, is_company, address_type, street, zip_code, city, state, country, created_at, updated_at
		FROM vendors WHERE id=$1`, id).
		Scan(&v.ID, &v.Name, &v.IsCompany, &v.AddressType, &v.Street, &v.ZipCode, &v.City, &v.State, &v.Country, &v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrVendorNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *Repo) ListVendors(ctx context.Context, query string, limit, offset int) ([]Vendor, int, error) {
	where, args := "TRUE", []any{}
	if query != "" {
		args = append(args, "%"+query+"%")
		where += fmt.Sprintf(" AND name ILIKE $%d", len(args))
	}

	var total int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM vendors WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := r.DB.Query(ctx, fmt.Sprintf(`
		SELECT id, name, is_company, address_type, street, zip_code, city, state, country, created_at, updated_at
		FROM vendors WHERE %s ORDER BY name LIMIT $%d OFFSET $%d`,
		where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Vendor
	for rows.Next() {
		var v Vendor
		if err := rows.Scan(&v.ID, &v.Name, &v.IsCompany, &v.AddressType, &v.Street, &v.ZipCode, &v.City, &v.State, &v.Country, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, v)
	}
	return out, total, rows.Err()
}

func (r *Repo) UpdateVendor(ctx context.Context, v *Vendor) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE vendors SET name=$2, is_company=$3, address_type=$4, street=$5, zip_code=$6,
			city=$7, state=$8, country=$9, updated_at=now()
		WHERE id=$1`,
		v.ID, v.Name, v.IsCompany, v.AddressType, v.Street, v.ZipCode, v.City, v.State, v.Country)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrVendorNotFound
	}
	return nil
}

func (r *Repo) DeleteVendor(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM vendors WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrVendorNotFound
	}
	return nil
}

// ---- purchase orders ----

type LineInput struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	PriceUnit decimal.Decimal `json:"price_unit"`
}

// CreateOrderTx inserts the purchase order and its lines in one transaction;
// total is the sum of line subtotals.
func (r *Repo) CreateOrderTx(ctx context.Context, o *Order, lines []LineInput) (*Order, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM vendors WHERE id=$1)`, o.VendorID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrVendorNotFound
	}

	o.ID = uuid.NewString()
	if o.Status == "" {
		o.Status = StatusRFQ
	}
	if o.Priority == "" {
		o.Priority = "Normal"
	}
	var deadline *time.Time
	if !o.OrderDeadline.IsZero() {
		deadline = &o.OrderDeadline
	}
	if err := tx.QueryRow(ctx, `
		INSERT INTO purchase_orders(id, order_reference, vendor_id, priority, purchase_representative,
			order_deadline, source_document, total, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,0,$8)
		RETURNING created_at, updated_at`,
		o.ID, o.OrderReference, o.VendorID, o.Priority, o.PurchaseRepresentative,
		deadline, o.SourceDocument, o.Status).
		Scan(&o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, li := range lines {
		if li.Quantity <= 0 {
			return nil, fmt.Errorf("invalid quantity for product %s", li.ProductID)
		}
		var knownProduct bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE id=$1)`, li.ProductID).Scan(&knownProduct); err != nil {
			return nil, err
		}
		if !knownProduct {
			return nil, fmt.Errorf("product not found: %s", li.ProductID)
		}
		line := OrderLine{
			ID:        uuid.NewString(),
			OrderID:   o.ID,
			ProductID: li.ProductID,
			Quantity:  li.Quantity,
			PriceUnit: li.PriceUnit,
			Subtotal:  li.PriceUnit.Mul(decimal.NewFromInt(int64(li.Quantity))).Round(2),
		}
		if err := tx.QueryRow(ctx, `
			INSERT INTO purchase_order_lines(id, order_id, product_id, quantity, price_unit, subtotal)
			VALUES ($1,$2,$3,$4,$5,$6)
			RETURNING created_at`,
			line.ID, line.OrderID, line.ProductID, line.Quantity, line.PriceUnit, line.Subtotal).
			Scan(&line.CreatedAt); err != nil {
			return nil, err
		}
		total = total.Add(line.Subtotal)
		o.Lines = append(o.Lines, line)
	}

	o.Total = total
	if _, err := tx.Exec(ctx, `UPDATE purchase_orders SET total=$2, updated_at=now() WHERE id=$1`, o.ID, o.Total); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *Repo) GetOrder(ctx context.Context, id string) (*Order, error) {
	var o Order
	var deadline *time.Time
	err := r.DB.QueryRow(ctx, `
		SELECT id, order_reference, vendor_id, priority, purchase_representative,
			order_deadline, source_document, total, status, created_at, updated_at
		FROM purchase_orders WHERE id=$1`, id).
		Scan(&o.ID, &o.OrderReference, &o.VendorID, &o.Priority, &o.PurchaseRepresentative,
			&deadline, &o.SourceDocument, &o.Total, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	if deadline != nil {
		o.OrderDeadline = *deadline
	}

	rows, err := r.DB.Query(ctx, `
		SELECT id, order_id, product_id, quantity, price_unit, subtotal, created_at
		FROM purchase_order_lines WHERE order_id=$1 ORDER BY created_at, id`, o.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var l OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.Quantity, &l.PriceUnit, &l.Subtotal, &l.CreatedAt); err != nil {
			return nil, err
		}
		o.Lines = append(o.Lines, l)
	}
	return &o, rows.Err()
}

func (r *Repo) ListOrders(ctx context.Context, status Status, limit, offset int) ([]Order, int, error) {
	where, args := "TRUE", []any{}
	if status != "" {
		args = append(args, status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}

	var total int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM purchase_orders WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := r.DB.Query(ctx, fmt.Sprintf(`
		SELECT id, order_reference, vendor_id, priority, purchase_representative,
			order_deadline, source_document, total, status, created_at, updated_at
		FROM purchase_orders WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		var o Order
		var deadline *time.Time
		if err := rows.Scan(&o.ID, &o.OrderReference, &o.VendorID, &o.Priority, &o.PurchaseRepresentative,
			&deadline, &o.SourceDocument, &o.Total, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, 0, err
		}
		if deadline != nil {
			o.OrderDeadline = *deadline
		}
		out = append(out, o)
	}
	return out, total, rows.Err()
}

func (r *Repo) DeleteOrder(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM purchase_orders WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}
