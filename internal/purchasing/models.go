package purchasing

import (
	"time"

	"github.com/shopspring/decimal"
)

type Vendor struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	IsCompany   bool      `json:"is_company"`
	AddressType string    `json:"address_type,omitempty"`
	Street      string    `json:"street,omitempty"`
	ZipCode     string    `json:"zip_code,omitempty"`
	City        string    `json:"city,omitempty"`
	State       string    `json:"state,omitempty"`
	Country     string    `json:"country,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Status string

const (
	StatusRFQ           Status = "RFQ"
	StatusRFQSent       Status = "RFQ_SENT"
	StatusPurchaseOrder Status = "PURCHASE_ORDER"
	StatusCancelled     Status = "CANCELLED"
	StatusLocked        Status = "LOCKED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusRFQ, StatusRFQSent, StatusPurchaseOrder, StatusCancelled, StatusLocked:
		return true
	}
	return false
}

type Order struct {
	ID                     string          `json:"id"`
	OrderReference         string          `json:"order_reference"`
	VendorID               string          `json:"vendor_id"`
	Priority               string          `json:"priority"`
	PurchaseRepresentative string          `json:"purchase_representative"`
	OrderDeadline          time.Time       `json:"order_deadline"`
	SourceDocument         string          `json:"source_document,omitempty"`
	Total                  decimal.Decimal `json:"total"`
	Status                 Status          `json:"status"`
	CreatedAt              time.Time       `json:"created_at"`
	UpdatedAt              time.Time       `json:"updated_at"`

	Lines []OrderLine `json:"lines,omitempty"`
}

type OrderLine struct {
	ID        string          `json:"id"`
	OrderID   string          `json:"order_id"`
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	PriceUnit decimal.Decimal `json:"price_unit"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	CreatedAt time.Time       `json:"created_at"`
}
