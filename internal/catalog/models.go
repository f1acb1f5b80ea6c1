package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product carries the catalog fields plus the stock counter the confirmation
// transaction decrements. quantity_on_hand never goes below zero.
type Product struct {
	ID                 string          `json:"id"`
	Favorite           string          `json:"favorite,omitempty"`
	Name               string          `json:"name"`
	InternalReference  string          `json:"internal_reference,omitempty"`
	Responsible        string          `json:"responsible,omitempty"`
	Barcode            string          `json:"barcode,omitempty"`
	SalesPrice         decimal.Decimal `json:"sales_price"`
	Cost               decimal.Decimal `json:"cost"`
	ProductCategory    string          `json:"product_category,omitempty"`
	ProductType        string          `json:"product_type,omitempty"`
	QuantityOnHand     int             `json:"quantity_on_hand"`
	ForecastedQuantity int             `json:"forecasted_quantity"`
	Available          bool            `json:"available"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}
