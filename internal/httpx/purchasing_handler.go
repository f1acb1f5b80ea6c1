package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kev205/mssales/internal/purchasing"
)

type PurchasingHandler struct {
	Repo *purchasing.Repo
}

func (h *PurchasingHandler) Register(r *chi.Mux) {
	r.Route("/api/vendors", func(r chi.Router) {
		r.Get("/", h.listVendors)
		r.Post("/", h.createVendor)
		r.Get("/{id}", h.getVendor)
		r.Put("/{id}", h.updateVendor)
		r.Delete("/{id}", h.deleteVendor)
	})
	r.Route("/api/purchase-orders", func(r chi.Router) {
		r.Get("/", h.listOrders)
		r.Post("/", h.createOrder)
		r.Get("/{id}", h.getOrder)
		r.Delete("/{id}", h.deleteOrder)
	})
}

func (h *PurchasingHandler) listVendors(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	limit, offset := pageParams(r)
	items, total, err := h.Repo.ListVendors(ctx, r.URL.Query().Get("q"), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if items == nil {
		items = []purchasing.Vendor{}
	}
	writeJSON(w, http.StatusOK, listResponse{Count: total, Results: items})
}

func (h *PurchasingHandler) createVendor(w http.ResponseWriter, r *http.Request) {
	var v purchasing.Vendor
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if v.Name == "" {
		writeError(w, http.StatusBadRequest, "missing fields")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Repo.CreateVendor(ctx, &v); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (h *PurchasingHandler) getVendor(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	v, err := h.Repo.GetVendor(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *PurchasingHandler) updateVendor(w http.ResponseWriter, r *http.Request) {
	var v purchasing.Vendor
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	v.ID = chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Repo.UpdateVendor(ctx, &v); err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *PurchasingHandler) deleteVendor(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Repo.DeleteVendor(ctx, chi.URLParam(r, "id")); err != nil {
		h.writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type CreatePurchaseOrderReq struct {
	OrderReference         string                 `json:"order_reference"`
	VendorID               string                 `json:"vendor_id"`
	Priority               string                 `json:"priority"`
	PurchaseRepresentative string                 `json:"purchase_representative"`
	OrderDeadline          time.Time              `json:"order_deadline"`
	SourceDocument         string                 `json:"source_document"`
	Status                 purchasing.Status      `json:"status"`
	Lines                  []purchasing.LineInput `json:"lines"`
}

func (h *PurchasingHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req CreatePurchaseOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.OrderReference == "" || req.VendorID == "" {
		writeError(w, http.StatusBadRequest, "missing fields")
		return
	}
	if req.Status != "" && !req.Status.Valid() {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	order := &purchasing.Order{
		OrderReference:         req.OrderReference,
		VendorID:               req.VendorID,
		Priority:               req.Priority,
		PurchaseRepresentative: req.PurchaseRepresentative,
		OrderDeadline:          req.OrderDeadline,
		SourceDocument:         req.SourceDocument,
		Status:                 req.Status,
	}
	order, err := h.Repo.CreateOrderTx(ctx, order, req.Lines)
	if err != nil {
		if errors.Is(err, purchasing.ErrVendorNotFound) {
			writeError(w, http.StatusNotFound, "vendor not found")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (h *PurchasingHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	limit, offset := pageParams(r)
	items, total, err := h.Repo.ListOrders(ctx, purchasing.Status(r.URL.Query().Get("status")), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if items == nil {
		items = []purchasing.Order{}
	}
	writeJSON(w, http.StatusOK, listResponse{Count: total, Results: items})
}

func (h *PurchasingHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Repo.GetOrder(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *PurchasingHandler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Repo.DeleteOrder(ctx, chi.URLParam(r, "id")); err != nil {
		h.writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PurchasingHandler) writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, purchasing.ErrVendorNotFound):
		writeError(w, http.StatusNotFound, "vendor not found")
	case errors.Is(err, purchasing.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, "purchase order not found")
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
