package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

var ErrProductNotFound = errors.New("product not found")

const productCols = `id, favorite, name, internal_reference, responsible, barcode,
	sales_price, cost, product_category, product_type,
	quantity_on_hand, forecasted_quantity, available, created_at, updated_at`

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Favorite, &p.Name, &p.InternalReference, &p.Responsible, &p.Barcode,
		&p.SalesPrice, &p.Cost, &p.ProductCategory, &p.ProductType,
		&p.QuantityOnHand, &p.ForecastedQuantity, &p.Available, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) Create(ctx context.Context, p *Product) error {
	p.ID = uuid.NewString()
	row := r.DB.QueryRow(ctx, `
		INSERT INTO products(id, favorite, name, internal_reference, responsible, barcode,
			sales_price, cost, product_category, product_type,
			quantity_on_hand, forecasted_quantity, available)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		RETURNING created_at, updated_at`,
		p.ID, p.Favorite, p.Name, p.InternalReference, p.Responsible, p.Barcode,
		p.SalesPrice, p.Cost, p.ProductCategory, p.ProductType,
		p.QuantityOnHand, p.ForecastedQuantity, p.Available)
	return row.Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *Repo) Get(ctx context.Context, id string) (*Product, error) {
	return scanProduct(r.DB.QueryRow(ctx, `SELECT `+productCols+` FROM products WHERE id=$1`, id))
}

type Filter struct {
	Query    string // matches name or barcode
	Category string
}

func (r *Repo) List(ctx context.Context, f Filter, limit, offset int) ([]Product, int, error) {
	where, args := "TRUE", []any{}
	if f.Query != "" {
		args = append(args, "%"+f.Query+"%")
		where += fmt.Sprintf(" AND (name ILIKE $%d OR barcode ILIKE $%d)", len(args), len(args))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		where += fmt.Sprintf(" AND product_category = $%d", len(args))
	}

	var total int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := r.DB.Query(ctx, fmt.Sprintf(
		`SELECT %s FROM products WHERE %s ORDER BY name LIMIT $%d OFFSET $%d`,
		productCols, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *p)
	}
	return out, total, rows.Err()
}

func (r *Repo) Update(ctx context.Context, p *Product) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE products SET favorite=$2, name=$3, internal_reference=$4, responsible=$5, barcode=$6,
			sales_price=$7, cost=$8, product_category=$9, product_type=$10,
			quantity_on_hand=$11, forecasted_quantity=$12, available=$13, updated_at=now()
		WHERE id=$1`,
		p.ID, p.Favorite, p.Name, p.InternalReference, p.Responsible, p.Barcode,
		p.SalesPrice, p.Cost, p.ProductCategory, p.ProductType,
		p.QuantityOnHand, p.ForecastedQuantity, p.Available)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}
