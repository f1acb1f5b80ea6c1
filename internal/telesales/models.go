package telesales

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Customer struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone"`
	BillingAddress  string    `json:"billing_address"`
	ShippingAddress string    `json:"shipping_address"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type SalesOrder struct {
	ID         string          `json:"id"`
	Number     string          `json:"number"`
	CustomerID string          `json:"customer_id"`
	Status     Status          `json:"status"`
	Notes      string          `json:"notes,omitempty"`
	VATRate    decimal.Decimal `json:"vat_rate"`
	OrderTotal decimal.Decimal `json:"order_total"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`

	Customer     *Customer        `json:"customer,omitempty"`
	Lines        []SalesOrderLine `json:"lines,omitempty"`
	Reservations []Reservation    `json:"reservations,omitempty"`
}

// SalesOrderLine snapshots unit_price from the product at creation time;
// neither unit_price nor sub_total is ever recomputed afterwards.
type SalesOrderLine struct {
	ID          string          `json:"id"`
	OrderID     string          `json:"order_id"`
	ProductID   string          `json:"product_id"`
	Qty         int             `json:"qty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	DiscountPct decimal.Decimal `json:"discount_pct"`
	SubTotal    decimal.Decimal `json:"sub_total"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Reservation is the audit trail of a stock movement: insert-only, one per
// order line, written by the confirmation transaction.
type Reservation struct {
	ID        string    `json:"id"`
	OrderID   string    `json:"order_id"`
	ProductID string    `json:"product_id"`
	Qty       int       `json:"qty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewOrderNumber generates a human-readable unique order number, e.g. SO-1A2B3C4D5E.
func NewOrderNumber() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "SO-" + strings.ToUpper(hex[:10])
}

var oneHundred = decimal.NewFromInt(100)

// LineSubTotal computes qty * unit_price * (1 - discount_pct/100), rounded
// to 2 decimal places.
func LineSubTotal(qty int, unitPrice, discountPct decimal.Decimal) decimal.Decimal {
	gross := unitPrice.Mul(decimal.NewFromInt(int64(qty)))
	disc := decimal.NewFromInt(1).Sub(discountPct.Div(oneHundred))
	return gross.Mul(disc).Round(2)
}
