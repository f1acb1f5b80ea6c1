package telesales

import (
	"context"
	"sort"
)

// ProductStock is the slice of a product the confirmation protocol cares
// about: its identity and how many units are on hand while its row is locked.
type ProductStock struct {
	ID             string
	QuantityOnHand int
}

// ConfirmTx is the set of store operations available inside a single
// confirmation transaction. Row locks taken by LockOrder and LockProducts are
// held until the transaction commits or rolls back.
type ConfirmTx interface {
	// LockOrder locks the order row identified by its number and returns the
	// header. Returns ErrOrderNotFound if no such order exists.
	LockOrder(ctx context.Context, number string) (*SalesOrder, error)
	OrderLines(ctx context.Context, orderID string) ([]SalesOrderLine, error)
	// LockProducts locks the given product rows in one read, in the order the
	// ids are passed. Missing products are simply absent from the result.
	LockProducts(ctx context.Context, ids []string) (map[string]ProductStock, error)
	DeductStock(ctx context.Context, productID string, qty int) error
	AddReservations(ctx context.Context, res []Reservation) error
	SetStatus(ctx context.Context, orderID string, status Status) error
	// RefreshOrder re-reads the order with its lines and reservations.
	RefreshOrder(ctx context.Context, orderID string) (*SalesOrder, error)
}

// ConfirmStore runs fn inside one atomic transaction. A non-nil error from fn
// rolls everything back; store-level lock conflicts surface as ErrOrderLocked.
type ConfirmStore interface {
	InConfirmTx(ctx context.Context, fn func(tx ConfirmTx) error) error
}

// Confirmer carries a DRAFT sales order to CONFIRMED: it locks the order row,
// then every referenced product row, validates state and stock for all lines
// before touching anything, and only then deducts stock, writes reservations
// and flips the status. All of it commits or none of it does.
type Confirmer struct {
	Store ConfirmStore
}

func (c *Confirmer) Confirm(ctx context.Context, number string) (*SalesOrder, error) {
	var out *SalesOrder
	err := c.Store.InConfirmTx(ctx, func(tx ConfirmTx) error {
		// Order row first, product rows second, products in sorted id order:
		// every caller acquires locks the same way, so two confirmations
		// sharing products cannot deadlock.
		order, err := tx.LockOrder(ctx, number)
		if err != nil {
			return err
		}
		if order.Status != StatusDraft {
			return &InvalidStateError{Number: number, Current: order.Status}
		}

		lines, err := tx.OrderLines(ctx, order.ID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return &EmptyOrderError{Number: number}
		}

		// Demand is aggregated per product before the check, so a product
		// referenced by several lines is validated against its summed
		// quantity, not line by line against a stale snapshot.
		demand := aggregateDemand(lines)
		stock, err := tx.LockProducts(ctx, sortedProductIDs(demand))
		if err != nil {
			return err
		}

		// Validate every line before mutating anything.
		for _, line := range lines {
			ps, ok := stock[line.ProductID]
			if !ok {
				return &ProductNotFoundError{ProductID: line.ProductID}
			}
			if need := demand[line.ProductID]; ps.QuantityOnHand < need {
				return &InsufficientStockError{
					ProductID: line.ProductID,
					Available: ps.QuantityOnHand,
					Requested: need,
				}
			}
		}

		reservations := make([]Reservation, 0, len(lines))
		for _, line := range lines {
			if err := tx.DeductStock(ctx, line.ProductID, line.Qty); err != nil {
				return err
			}
			reservations = append(reservations, Reservation{
				OrderID:   order.ID,
				ProductID: line.ProductID,
				Qty:       line.Qty,
			})
		}
		if err := tx.AddReservations(ctx, reservations); err != nil {
			return err
		}
		if err := tx.SetStatus(ctx, order.ID, StatusConfirmed); err != nil {
			return err
		}

		out, err = tx.RefreshOrder(ctx, order.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func aggregateDemand(lines []SalesOrderLine) map[string]int {
	demand := make(map[string]int, len(lines))
	for _, line := range lines {
		demand[line.ProductID] += line.Qty
	}
	return demand
}

func sortedProductIDs(demand map[string]int) []string {
	ids := make([]string, 0, len(demand))
	for id := range demand {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
