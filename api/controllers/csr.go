package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/retailhub/portal-gateway/api/middleware"
	"github.com/retailhub/portal-gateway/api/responses"
	"github.com/retailhub/portal-gateway/api/validators"
	"github.com/retailhub/portal-gateway/internal/notify"
	"github.com/retailhub/portal-gateway/internal/views/csr"
	"github.com/retailhub/portal-gateway/pkg/backend"
	pkgerrors "github.com/retailhub/portal-gateway/pkg/errors"
	"github.com/retailhub/portal-gateway/pkg/logger"
)

type csrView struct {
	PendingOrders []backend.Order      `json:"pendingOrders"`
	Products      []backend.Product    `json:"products"`
	Notification  *notify.Notification `json:"notification,omitempty"`
}

func csrInstance(w http.ResponseWriter, r *http.Request, svc *csr.Service, logg *logger.Logger) (*csr.Instance, bool) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
		return nil, false
	}
	inst, err := svc.Mount(r.Context(), sess)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mounting csr console"))
		return nil, false
	}
	return inst, true
}

// CsrView renders the approval queue and the catalog.
func CsrView(svc *csr.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inst, ok := csrInstance(w, r, svc, logg)
		if !ok {
			return
		}
		view := csrView{
			PendingOrders: []backend.Order{},
			Products:      []backend.Product{},
		}
		if pending, fetched := inst.PendingOrders(); fetched {
			view.PendingOrders = pending
		}
		if products, fetched := inst.Products(); fetched {
			view.Products = products
		}
		if note, live := inst.Notification(); live {
			view.Notification = &note
		}
		responses.WriteSuccess(w, view)
	}
}

func CsrApproveOrder(svc *csr.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inst, ok := csrInstance(w, r, svc, logg)
		if !ok {
			return
		}
		orderID, err := orderIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := inst.ApproveOrder(r.Context(), orderID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "approved"})
	}
}

type createProductRequest struct {
	SKU      string `json:"sku" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Quantity int    `json:"quantity" validate:"gte=0"`
}

func CsrCreateProduct(svc *csr.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inst, ok := csrInstance(w, r, svc, logg)
		if !ok {
			return
		}
		var body createProductRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product := backend.Product{SKU: body.SKU, Name: body.Name, Quantity: body.Quantity}
		if err := inst.CreateProduct(r.Context(), product); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{"status": "created"})
	}
}

type updateStockRequest struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

func CsrUpdateStock(svc *csr.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inst, ok := csrInstance(w, r, svc, logg)
		if !ok {
			return
		}
		var body updateStockRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := inst.UpdateStock(r.Context(), chi.URLParam(r, "sku"), body.Quantity); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "updated"})
	}
}

func CsrDismissNotification(svc *csr.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inst, ok := csrInstance(w, r, svc, logg)
		if !ok {
			return
		}
		inst.DismissNotification()
		responses.WriteSuccess(w, map[string]string{"status": "dismissed"})
	}
}
