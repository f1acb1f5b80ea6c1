package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	kafkax "github.com/kev205/mssales/internal/kafka"
	"github.com/kev205/mssales/internal/redisx"
	"github.com/kev205/mssales/internal/telesales"
)

// OrderConfirmer is what the confirm endpoint needs from the domain layer.
type OrderConfirmer interface {
	Confirm(ctx context.Context, number string) (*telesales.SalesOrder, error)
}

type TelesalesHandler struct {
	Repo      *telesales.Repo
	Confirmer OrderConfirmer
	Redis     *redis.Client
	Created   *kafkax.Producer // telesales.order.created
	Confirmed *kafkax.Producer // telesales.order.confirmed
	Service   string
}

func (h *TelesalesHandler) Register(r *chi.Mux) {
	r.Route("/api/customers", func(r chi.Router) {
		r.Get("/", h.listCustomers)
		r.Post("/", h.createCustomer)
		r.Get("/{id}", h.getCustomer)
		r.Put("/{id}", h.updateCustomer)
		r.Delete("/{id}", h.deleteCustomer)
	})
	r.Route("/api/sales-orders", func(r chi.Router) {
		r.Get("/", h.listOrders)
		r.Post("/", h.createOrder)
		r.Get("/{number}", h.getOrder)
		r.Get("/{number}/status", h.orderStatus)
		r.Delete("/{number}", h.deleteOrder)
		r.Post("/{number}/confirm", h.confirmOrder)
	})
	r.Route("/api/reservations", func(r chi.Router) {
		r.Get("/", h.listReservations)
		r.Get("/{id}", h.getReservation)
	})
}

// ---- customers ----

func (h *TelesalesHandler) listCustomers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	limit, offset := pageParams(r)
	f := telesales.CustomerFilter{
		Name:  r.URL.Query().Get("name"),
		Email: r.URL.Query().Get("email"),
		Phone: r.URL.Query().Get("phone"),
	}
	items, total, err := h.Repo.ListCustomers(ctx, f, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if items == nil {
		items = []telesales.Customer{}
	}
	writeJSON(w, http.StatusOK, listResponse{Count: total, Results: items})
}

func (h *TelesalesHandler) createCustomer(w http.ResponseWriter, r *http.Request) {
	var c telesales.Customer
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if c.Name == "" || c.Email == "" {
		writeError(w, http.StatusBadRequest, "missing fields")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Repo.CreateCustomer(ctx, &c); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *TelesalesHandler) getCustomer(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c, err := h.Repo.GetCustomer(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *TelesalesHandler) updateCustomer(w http.ResponseWriter, r *http.Request) {
	var c telesales.Customer
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	c.ID = chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Repo.UpdateCustomer(ctx, &c); err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *TelesalesHandler) deleteCustomer(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Repo.DeleteCustomer(ctx, chi.URLParam(r, "id")); err != nil {
		h.writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- sales orders ----

type CreateSalesOrderReq struct {
	CustomerID string                `json:"customer_id"`
	Notes      string                `json:"notes"`
	VATRate    decimal.Decimal       `json:"vat_rate"`
	Lines      []telesales.LineInput `json:"lines"`
}

func (h *TelesalesHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateSalesOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.CustomerID == "" {
		writeError(w, http.StatusBadRequest, "missing fields")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	order, err := h.Repo.CreateOrderTx(ctx, req.CustomerID, req.Notes, req.VATRate, req.Lines)
	if err != nil {
		if errors.Is(err, telesales.ErrCustomerNotFound) {
			writeError(w, http.StatusNotFound, "customer not found")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.cacheStatus(ctx, order.Number, order.Status)
	h.publish(h.Created, r, telesales.EventOrderCreated, order.Number, telesales.OrderCreatedPayload{
		OrderID:    order.ID,
		Number:     order.Number,
		CustomerID: order.CustomerID,
		OrderTotal: order.OrderTotal.String(),
	})

	writeJSON(w, http.StatusCreated, order)
}

func (h *TelesalesHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	q := r.URL.Query()
	f := telesales.OrderFilter{Status: telesales.Status(q.Get("status"))}
	if f.Status != "" && !f.Status.Valid() {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}
	if v := q.Get("created_before"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid created_before")
			return
		}
		f.CreatedBefore = t
	}
	if v := q.Get("created_after"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid created_after")
			return
		}
		f.CreatedAfter = t
	}

	limit, offset := pageParams(r)
	items, total, err := h.Repo.ListOrders(ctx, f, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if items == nil {
		items = []telesales.SalesOrder{}
	}
	writeJSON(w, http.StatusOK, listResponse{Count: total, Results: items})
}

func (h *TelesalesHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Repo.GetOrderByNumber(ctx, chi.URLParam(r, "number"))
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// orderStatus serves the status from the Redis cache when it is warm and
// falls back to Postgres otherwise.
func (h *TelesalesHandler) orderStatus(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if h.Redis != nil {
		key := fmt.Sprintf(redisx.KeyOrderStatus, number)
		if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			writeJSON(w, http.StatusOK, json.RawMessage(s))
			return
		}
	}

	status, err := h.Repo.GetOrderStatus(ctx, number)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	h.cacheStatus(ctx, number, status)
	writeJSON(w, http.StatusOK, map[string]telesales.Status{"status": status})
}

func (h *TelesalesHandler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	err := h.Repo.DeleteOrder(ctx, chi.URLParam(r, "number"))
	if err != nil {
		var invalid *telesales.InvalidStateError
		if errors.As(err, &invalid) {
			writeError(w, http.StatusBadRequest, invalid.Error())
			return
		}
		h.writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- confirmation ----

func (h *TelesalesHandler) confirmOrder(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	order, err := h.Confirmer.Confirm(ctx, number)
	if err != nil {
		writeConfirmError(w, err)
		return
	}

	h.cacheStatus(ctx, order.Number, order.Status)
	items := make([]telesales.LineQty, 0, len(order.Lines))
	for _, line := range order.Lines {
		items = append(items, telesales.LineQty{ProductID: line.ProductID, Qty: line.Qty})
	}
	h.publish(h.Confirmed, r, telesales.EventOrderConfirmed, order.Number, telesales.OrderConfirmedPayload{
		OrderID:    order.ID,
		Number:     order.Number,
		CustomerID: order.CustomerID,
		Items:      items,
		OrderTotal: order.OrderTotal.String(),
	})

	writeJSON(w, http.StatusOK, order)
}

func writeConfirmError(w http.ResponseWriter, err error) {
	var (
		invalid *telesales.InvalidStateError
		empty   *telesales.EmptyOrderError
		missing *telesales.ProductNotFoundError
		short   *telesales.InsufficientStockError
	)
	switch {
	case errors.Is(err, telesales.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, "Sale order not found")
	case errors.As(err, &invalid):
		writeError(w, http.StatusBadRequest, invalid.Error())
	case errors.As(err, &empty):
		writeError(w, http.StatusBadRequest, empty.Error())
	case errors.As(err, &missing):
		writeError(w, http.StatusNotFound, missing.Error())
	case errors.As(err, &short):
		writeError(w, http.StatusBadRequest, short.Error())
	case errors.Is(err, telesales.ErrOrderLocked):
		writeJSON(w, http.StatusConflict, map[string]any{
			"status":  http.StatusConflict,
			"message": "Order is locked, please try again",
		})
	default:
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Error confirming sale order: %v", err))
	}
}

// ---- reservations ----

func (h *TelesalesHandler) listReservations(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	limit, offset := pageParams(r)
	items, total, err := h.Repo.ListReservations(ctx, r.URL.Query().Get("order_id"), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if items == nil {
		items = []telesales.Reservation{}
	}
	writeJSON(w, http.StatusOK, listResponse{Count: total, Results: items})
}

func (h *TelesalesHandler) getReservation(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	res, err := h.Repo.GetReservation(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ---- helpers ----

// cacheStatus refreshes the Redis status cache; Postgres stays the source of
// truth, so failures here are ignored.
func (h *TelesalesHandler) cacheStatus(ctx context.Context, number string, status telesales.Status) {
	if h.Redis == nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyOrderStatus, number)
	body, _ := json.Marshal(map[string]telesales.Status{"status": status})
	_ = h.Redis.Set(ctx, key, body, redisx.TTLStatusCache).Err()
}

func (h *TelesalesHandler) publish(p *kafkax.Producer, r *http.Request, eventType, number string, payload any) {
	if p == nil {
		return
	}
	ev := telesales.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       r.Header.Get("X-Request-Id"),
		CorrelationID: number,
		Payload:       kafkax.MustMarshal(payload),
	}
	p.Publish(telesales.PartitionKey(number), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (h *TelesalesHandler) writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, telesales.ErrCustomerNotFound):
		writeError(w, http.StatusNotFound, "customer not found")
	case errors.Is(err, telesales.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, "Sale order not found")
	case errors.Is(err, telesales.ErrReservationNotFound):
		writeError(w, http.StatusNotFound, "reservation not found")
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
