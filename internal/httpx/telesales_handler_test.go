package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kev205/mssales/internal/telesales"
)

type stubConfirmer struct {
	order *telesales.SalesOrder
	err   error
}

func (s *stubConfirmer) Confirm(ctx context.Context, number string) (*telesales.SalesOrder, error) {
	return s.order, s.err
}

func confirmRequest(t *testing.T, c *stubConfirmer) *httptest.ResponseRecorder {
	t.Helper()
	h := &TelesalesHandler{Confirmer: c}
	r := NewRouter()
	h.Register(r)

	req := httptest.NewRequest(http.MethodPost, "/api/sales-orders/SO-123/confirm", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json body %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestConfirmEndpoint_Success(t *testing.T) {
	order := &telesales.SalesOrder{ID: "id-1", Number: "SO-123", Status: telesales.StatusConfirmed}
	rec := confirmRequest(t, &stubConfirmer{order: order})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["status"] != string(telesales.StatusConfirmed) {
		t.Errorf("expected status CONFIRMED, got %v", body["status"])
	}
	if body["number"] != "SO-123" {
		t.Errorf("expected number SO-123, got %v", body["number"])
	}
}

func TestConfirmEndpoint_ErrorMapping(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{
			name:     "order not found",
			err:      telesales.ErrOrderNotFound,
			wantCode: http.StatusNotFound,
			wantBody: "Sale order not found",
		},
		{
			name:     "not draft",
			err:      &telesales.InvalidStateError{Number: "SO-123", Current: telesales.StatusConfirmed},
			wantCode: http.StatusBadRequest,
			wantBody: "Sale order SO-123 is not in DRAFT state, current status: CONFIRMED",
		},
		{
			name:     "no lines",
			err:      &telesales.EmptyOrderError{Number: "SO-123"},
			wantCode: http.StatusBadRequest,
			wantBody: "Sale order SO-123 has no order lines",
		},
		{
			name:     "product missing",
			err:      &telesales.ProductNotFoundError{ProductID: "p9"},
			wantCode: http.StatusNotFound,
			wantBody: "Product p9 not found in stock",
		},
		{
			name:     "insufficient stock",
			err:      &telesales.InsufficientStockError{ProductID: "p1", Available: 5, Requested: 10},
			wantCode: http.StatusBadRequest,
			wantBody: "Insufficient stock for product p1, available: 5, requested: 10",
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rec := confirmRequest(t, &stubConfirmer{err: c.err})
			if rec.Code != c.wantCode {
				t.Fatalf("expected %d, got %d", c.wantCode, rec.Code)
			}
			body := decodeBody(t, rec)
			if body["error"] != c.wantBody {
				t.Errorf("expected %q, got %q", c.wantBody, body["error"])
			}
		})
	}
}

func TestConfirmEndpoint_LockConflict(t *testing.T) {
	rec := confirmRequest(t, &stubConfirmer{err: telesales.ErrOrderLocked})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["message"] != "Order is locked, please try again" {
		t.Errorf("unexpected message %v", body["message"])
	}
	if int(body["status"].(float64)) != http.StatusConflict {
		t.Errorf("expected status field 409, got %v", body["status"])
	}
}

func TestConfirmEndpoint_UnexpectedError(t *testing.T) {
	rec := confirmRequest(t, &stubConfirmer{err: context.DeadlineExceeded})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	msg, _ := body["error"].(string)
	if !strings.HasPrefix(msg, "Error confirming sale order: ") {
		t.Errorf("unexpected error body %q", msg)
	}
}
