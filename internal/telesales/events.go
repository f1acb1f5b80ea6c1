package telesales

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCreated   = "SaleOrderCreated"
	EventOrderConfirmed = "SaleOrderConfirmed"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order number
	Payload       json.RawMessage `json:"payload"`
}

type LineQty struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

type OrderCreatedPayload struct {
	OrderID    string `json:"order_id"`
	Number     string `json:"number"`
	CustomerID string `json:"customer_id"`
	OrderTotal string `json:"order_total"`
}

type OrderConfirmedPayload struct {
	OrderID    string    `json:"order_id"`
	Number     string    `json:"number"`
	CustomerID string    `json:"customer_id"`
	Items      []LineQty `json:"items"`
	OrderTotal string    `json:"order_total"`
}
