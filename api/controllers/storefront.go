package controllers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/retailhub/portal-gateway/api/middleware"
	"github.com/retailhub/portal-gateway/api/responses"
	"github.com/retailhub/portal-gateway/api/validators"
	"github.com/retailhub/portal-gateway/internal/cart"
	"github.com/retailhub/portal-gateway/internal/notify"
	"github.com/retailhub/portal-gateway/internal/views/storefront"
	"github.com/retailhub/portal-gateway/pkg/backend"
	pkgerrors "github.com/retailhub/portal-gateway/pkg/errors"
	"github.com/retailhub/portal-gateway/pkg/logger"
	"github.com/shopspring/decimal"
)

type storefrontCart struct {
	Items []cart.Item     `json:"items"`
	Total decimal.Decimal `json:"total"`
}

type storefrontView struct {
	Products     []backend.Product    `json:"products"`
	Orders       []backend.Order      `json:"orders"`
	Balance      *decimal.Decimal     `json:"balance,omitempty"`
	Cart         storefrontCart       `json:"cart"`
	Notification *notify.Notification `json:"notification,omitempty"`
}

func storefrontInstance(w http.ResponseWriter, r *http.Request, svc *storefront.Service, logg *logger.Logger) (*storefront.Instance, bool) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
		return nil, false
	}
	inst, err := svc.Mount(r.Context(), sess)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mounting storefront"))
		return nil, false
	}
	return inst, true
}

// StorefrontView renders the customer's current snapshot: catalog,
// orders, balance, cart, and the live banner.
func StorefrontView(svc *storefront.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inst, ok := storefrontInstance(w, r, svc, logg)
		if !ok {
			return
		}

		view := storefrontView{
			Products: []backend.Product{},
			Orders:   []backend.Order{},
			Cart: storefrontCart{
				Items: inst.Cart().Items(),
				Total: inst.Cart().Total(),
			},
		}
		if products, fetched := inst.Products(); fetched {
			view.Products = products
		}
		if orders, fetched := inst.Orders(); fetched {
			view.Orders = orders
		}
		if balance, fetched := inst.Balance(); fetched {
			view.Balance = &balance
		}
		if note, live := inst.Notification(); live {
			view.Notification = &note
		}
		responses.WriteSuccess(w, view)
	}
}

type addToCartRequest struct {
	SKU string `json:"sku" validate:"required"`
}

func StorefrontAddToCart(svc *storefront.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inst, ok := storefrontInstance(w, r, svc, logg)
		if !ok {
			return
		}
		var body addToCartRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item := inst.AddToCart(body.SKU)
		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

func StorefrontRemoveFromCart(svc *storefront.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inst, ok := storefrontInstance(w, r, svc, logg)
		if !ok {
			return
		}
		if err := inst.RemoveFromCart(chi.URLParam(r, "itemId")); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "removed"})
	}
}

// StorefrontCheckout places the whole cart and reports the per-line
// outcome, including partial results.
func StorefrontCheckout(svc *storefront.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inst, ok := storefrontInstance(w, r, svc, logg)
		if !ok {
			return
		}
		result, err := inst.Checkout(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type buyNowRequest struct {
	SKU string `json:"sku" validate:"required"`
}

func StorefrontBuyNow(svc *storefront.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inst, ok := storefrontInstance(w, r, svc, logg)
		if !ok {
			return
		}
		var body buyNowRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := inst.BuyNow(r.Context(), body.SKU); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{"status": "order placed"})
	}
}

func StorefrontPayOrder(svc *storefront.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inst, ok := storefrontInstance(w, r, svc, logg)
		if !ok {
			return
		}
		orderID, err := orderIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := inst.PayOrder(r.Context(), orderID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "paid"})
	}
}

func StorefrontCancelOrder(svc *storefront.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inst, ok := storefrontInstance(w, r, svc, logg)
		if !ok {
			return
		}
		orderID, err := orderIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := inst.CancelOrder(r.Context(), orderID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "canceled"})
	}
}

func StorefrontAddFunds(svc *storefront.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inst, ok := storefrontInstance(w, r, svc, logg)
		if !ok {
			return
		}
		if err := inst.AddFunds(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "funds added"})
	}
}

func StorefrontDismissNotification(svc *storefront.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inst, ok := storefrontInstance(w, r, svc, logg)
		if !ok {
			return
		}
		inst.DismissNotification()
		responses.WriteSuccess(w, map[string]string{"status": "dismissed"})
	}
}

func orderIDParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "orderId")
	orderID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id")
	}
	return orderID, nil
}
