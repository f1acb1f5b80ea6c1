package telesales

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound = errors.New("sale order not found")

	// ErrOrderLocked reports lock contention the store could not resolve.
	// It is the only confirmation failure safe to retry as-is.
	ErrOrderLocked = errors.New("order is locked")
)

type InvalidStateError struct {
	Number  string
	Current Status
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("Sale order %s is not in DRAFT state, current status: %s", e.Number, e.Current)
}

type EmptyOrderError struct {
	Number string
}

func (e *EmptyOrderError) Error() string {
	return fmt.Sprintf("Sale order %s has no order lines", e.Number)
}

type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("Product %s not found in stock", e.ProductID)
}

type InsufficientStockError struct {
	ProductID string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Insufficient stock for product %s, available: %d, requested: %d",
		e.ProductID, e.Available, e.Requested)
}
