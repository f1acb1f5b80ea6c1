package telesales

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
)

// memStore is an in-memory ConfirmStore. The mutex plays the role of the row
// locks: transactions run one at a time, and a failed transaction restores
// the pre-transaction state.
type memStore struct {
	mu           sync.Mutex
	orders       map[string]*SalesOrder // by number
	lines        map[string][]SalesOrderLine
	stock        map[string]int
	reservations []Reservation
	lockErr      error // injected lock conflict
}

func newMemStore() *memStore {
	return &memStore{
		orders: map[string]*SalesOrder{},
		lines:  map[string][]SalesOrderLine{},
		stock:  map[string]int{},
	}
}

func (s *memStore) addOrder(number string, status Status, lines ...SalesOrderLine) {
	id := "id-" + number
	s.orders[number] = &SalesOrder{ID: id, Number: number, CustomerID: "cust-1", Status: status}
	for i := range lines {
		lines[i].ID = fmt.Sprintf("%s-line-%d", number, i)
		lines[i].OrderID = id
	}
	s.lines[id] = lines
}

func (s *memStore) InConfirmTx(ctx context.Context, fn func(tx ConfirmTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lockErr != nil {
		return s.lockErr
	}

	stockBefore := maps.Clone(s.stock)
	statusBefore := map[string]Status{}
	for n, o := range s.orders {
		statusBefore[n] = o.Status
	}
	resBefore := len(s.reservations)

	if err := fn(&memTx{s: s}); err != nil {
		s.stock = stockBefore
		for n, st := range statusBefore {
			s.orders[n].Status = st
		}
		s.reservations = s.reservations[:resBefore]
		return err
	}
	return nil
}

type memTx struct{ s *memStore }

func (t *memTx) LockOrder(_ context.Context, number string) (*SalesOrder, error) {
	o, ok := t.s.orders[number]
	if !ok {
		return nil, ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (t *memTx) OrderLines(_ context.Context, orderID string) ([]SalesOrderLine, error) {
	return t.s.lines[orderID], nil
}

func (t *memTx) LockProducts(_ context.Context, ids []string) (map[string]ProductStock, error) {
	out := map[string]ProductStock{}
	for _, id := range ids {
		if qty, ok := t.s.stock[id]; ok {
			out[id] = ProductStock{ID: id, QuantityOnHand: qty}
		}
	}
	return out, nil
}

func (t *memTx) DeductStock(_ context.Context, productID string, qty int) error {
	if t.s.stock[productID] < qty {
		return fmt.Errorf("stock underflow for %s", productID)
	}
	t.s.stock[productID] -= qty
	return nil
}

func (t *memTx) AddReservations(_ context.Context, res []Reservation) error {
	t.s.reservations = append(t.s.reservations, res...)
	return nil
}

func (t *memTx) SetStatus(_ context.Context, orderID string, status Status) error {
	for _, o := range t.s.orders {
		if o.ID == orderID {
			o.Status = status
			return nil
		}
	}
	return fmt.Errorf("unknown order %s", orderID)
}

func (t *memTx) RefreshOrder(_ context.Context, orderID string) (*SalesOrder, error) {
	for _, o := range t.s.orders {
		if o.ID == orderID {
			cp := *o
			cp.Lines = t.s.lines[orderID]
			for _, r := range t.s.reservations {
				if r.OrderID == orderID {
					cp.Reservations = append(cp.Reservations, r)
				}
			}
			return &cp, nil
		}
	}
	return nil, ErrOrderNotFound
}

func price(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestConfirm_Success(t *testing.T) {
	store := newMemStore()
	store.stock["p1"] = 5
	store.addOrder("SO-1", StatusDraft, SalesOrderLine{ProductID: "p1", Qty: 3, UnitPrice: price("10.00")})
	c := &Confirmer{Store: store}

	order, err := c.Confirm(context.Background(), "SO-1")
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if order.Status != StatusConfirmed {
		t.Errorf("expected CONFIRMED, got %s", order.Status)
	}
	if store.stock["p1"] != 2 {
		t.Errorf("expected stock 2, got %d", store.stock["p1"])
	}
	if len(order.Reservations) != 1 {
		t.Fatalf("expected 1 reservation, got %d", len(order.Reservations))
	}
	if r := order.Reservations[0]; r.ProductID != "p1" || r.Qty != 3 {
		t.Errorf("unexpected reservation %+v", r)
	}
	if store.orders["SO-1"].Status != StatusConfirmed {
		t.Errorf("status not persisted")
	}
}

func TestConfirm_OrderNotFound(t *testing.T) {
	c := &Confirmer{Store: newMemStore()}
	_, err := c.Confirm(context.Background(), "SO-missing")
	if !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestConfirm_NotDraft(t *testing.T) {
	store := newMemStore()
	store.stock["p1"] = 5
	store.addOrder("SO-1", StatusConfirmed, SalesOrderLine{ProductID: "p1", Qty: 1})
	c := &Confirmer{Store: store}

	_, err := c.Confirm(context.Background(), "SO-1")
	var invalid *InvalidStateError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidStateError, got %v", err)
	}
	if invalid.Current != StatusConfirmed {
		t.Errorf("expected current CONFIRMED, got %s", invalid.Current)
	}
	if store.stock["p1"] != 5 || len(store.reservations) != 0 {
		t.Errorf("side effects leaked: stock=%d reservations=%d", store.stock["p1"], len(store.reservations))
	}
}

func TestConfirm_EmptyOrder(t *testing.T) {
	store := newMemStore()
	store.addOrder("SO-1", StatusDraft)
	c := &Confirmer{Store: store}

	_, err := c.Confirm(context.Background(), "SO-1")
	var empty *EmptyOrderError
	if !errors.As(err, &empty) {
		t.Fatalf("expected EmptyOrderError, got %v", err)
	}
	if store.orders["SO-1"].Status != StatusDraft {
		t.Errorf("status changed on failure")
	}
}

func TestConfirm_ProductNotFound(t *testing.T) {
	store := newMemStore()
	store.stock["p1"] = 5
	store.addOrder("SO-1", StatusDraft,
		SalesOrderLine{ProductID: "p1", Qty: 1},
		SalesOrderLine{ProductID: "ghost", Qty: 1},
	)
	c := &Confirmer{Store: store}

	_, err := c.Confirm(context.Background(), "SO-1")
	var missing *ProductNotFoundError
	if !errors.As(err, &missing) {
		t.Fatalf("expected ProductNotFoundError, got %v", err)
	}
	if missing.ProductID != "ghost" {
		t.Errorf("expected ghost, got %s", missing.ProductID)
	}
	if store.stock["p1"] != 5 || len(store.reservations) != 0 {
		t.Errorf("side effects committed for a failed order")
	}
}

func TestConfirm_InsufficientStock_AllOrNothing(t *testing.T) {
	store := newMemStore()
	store.stock["p1"] = 10
	store.stock["p2"] = 1
	store.addOrder("SO-1", StatusDraft,
		SalesOrderLine{ProductID: "p1", Qty: 4}, // would pass alone
		SalesOrderLine{ProductID: "p2", Qty: 3},
	)
	c := &Confirmer{Store: store}

	_, err := c.Confirm(context.Background(), "SO-1")
	var short *InsufficientStockError
	if !errors.As(err, &short) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if short.ProductID != "p2" || short.Available != 1 || short.Requested != 3 {
		t.Errorf("unexpected detail %+v", short)
	}
	// no product may be decremented, even the one that validated fine
	if store.stock["p1"] != 10 || store.stock["p2"] != 1 {
		t.Errorf("partial mutation: p1=%d p2=%d", store.stock["p1"], store.stock["p2"])
	}
	if len(store.reservations) != 0 {
		t.Errorf("reservations written on failure")
	}
	if store.orders["SO-1"].Status != StatusDraft {
		t.Errorf("status changed on failure")
	}
}

func TestConfirm_DuplicateProductLinesAggregated(t *testing.T) {
	store := newMemStore()
	store.stock["p1"] = 5
	store.addOrder("SO-1", StatusDraft,
		SalesOrderLine{ProductID: "p1", Qty: 3},
		SalesOrderLine{ProductID: "p1", Qty: 4},
	)
	c := &Confirmer{Store: store}

	// 3+4 > 5: a per-line check would pass both lines, the aggregate must not
	_, err := c.Confirm(context.Background(), "SO-1")
	var short *InsufficientStockError
	if !errors.As(err, &short) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if short.Available != 5 || short.Requested != 7 {
		t.Errorf("expected available=5 requested=7, got %+v", short)
	}
	if store.stock["p1"] != 5 {
		t.Errorf("stock changed on failure: %d", store.stock["p1"])
	}
}

func TestConfirm_DuplicateProductLinesSuccess(t *testing.T) {
	store := newMemStore()
	store.stock["p1"] = 8
	store.addOrder("SO-1", StatusDraft,
		SalesOrderLine{ProductID: "p1", Qty: 3},
		SalesOrderLine{ProductID: "p1", Qty: 4},
	)
	c := &Confirmer{Store: store}

	order, err := c.Confirm(context.Background(), "SO-1")
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if store.stock["p1"] != 1 {
		t.Errorf("expected stock 1, got %d", store.stock["p1"])
	}
	if len(order.Reservations) != 2 {
		t.Fatalf("expected one reservation per line, got %d", len(order.Reservations))
	}
	reserved := 0
	for _, r := range order.Reservations {
		reserved += r.Qty
	}
	if reserved != 7 {
		t.Errorf("reserved quantity %d does not match decremented stock 7", reserved)
	}
}

func TestConfirm_SecondAttemptFails(t *testing.T) {
	store := newMemStore()
	store.stock["p1"] = 5
	store.addOrder("SO-1", StatusDraft, SalesOrderLine{ProductID: "p1", Qty: 2})
	c := &Confirmer{Store: store}

	if _, err := c.Confirm(context.Background(), "SO-1"); err != nil {
		t.Fatalf("first confirm failed: %v", err)
	}
	_, err := c.Confirm(context.Background(), "SO-1")
	var invalid *InvalidStateError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidStateError on second confirm, got %v", err)
	}
	// no double decrement, no extra reservation
	if store.stock["p1"] != 3 {
		t.Errorf("expected stock 3, got %d", store.stock["p1"])
	}
	if len(store.reservations) != 1 {
		t.Errorf("expected 1 reservation, got %d", len(store.reservations))
	}
}

func TestConfirm_ConcurrentSameOrder(t *testing.T) {
	store := newMemStore()
	store.stock["p1"] = 5
	store.addOrder("SO-1", StatusDraft, SalesOrderLine{ProductID: "p1", Qty: 2})
	c := &Confirmer{Store: store}

	var success, invalid atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Confirm(context.Background(), "SO-1")
			switch {
			case err == nil:
				success.Add(1)
			default:
				var is *InvalidStateError
				if errors.As(err, &is) {
					invalid.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	if success.Load() != 1 || invalid.Load() != 1 {
		t.Errorf("expected exactly one success and one InvalidState, got success=%d invalid=%d",
			success.Load(), invalid.Load())
	}
	if store.stock["p1"] != 3 {
		t.Errorf("double decrement: stock=%d", store.stock["p1"])
	}
	if len(store.reservations) != 1 {
		t.Errorf("expected 1 reservation, got %d", len(store.reservations))
	}
}

func TestConfirm_SharedProductSequential(t *testing.T) {
	store := newMemStore()
	store.stock["p1"] = 10
	store.addOrder("SO-A", StatusDraft, SalesOrderLine{ProductID: "p1", Qty: 6})
	store.addOrder("SO-B", StatusDraft, SalesOrderLine{ProductID: "p1", Qty: 6})
	c := &Confirmer{Store: store}

	if _, err := c.Confirm(context.Background(), "SO-A"); err != nil {
		t.Fatalf("first order should confirm: %v", err)
	}
	if store.stock["p1"] != 4 {
		t.Fatalf("expected stock 4 after first confirm, got %d", store.stock["p1"])
	}

	_, err := c.Confirm(context.Background(), "SO-B")
	var short *InsufficientStockError
	if !errors.As(err, &short) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if short.Available != 4 || short.Requested != 6 {
		t.Errorf("expected available=4 requested=6, got %+v", short)
	}
	if store.stock["p1"] != 4 {
		t.Errorf("second confirm must not touch stock, got %d", store.stock["p1"])
	}
}

func TestConfirm_LockConflict(t *testing.T) {
	store := newMemStore()
	store.lockErr = ErrOrderLocked
	c := &Confirmer{Store: store}

	_, err := c.Confirm(context.Background(), "SO-1")
	if !errors.Is(err, ErrOrderLocked) {
		t.Errorf("expected ErrOrderLocked, got %v", err)
	}
}
