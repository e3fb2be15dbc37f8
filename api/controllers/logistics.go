package controllers

import (
	"net/http"

	"github.com/retailhub/portal-gateway/api/middleware"
	"github.com/retailhub/portal-gateway/api/responses"
	"github.com/retailhub/portal-gateway/internal/notify"
	"github.com/retailhub/portal-gateway/internal/views/logistics"
	"github.com/retailhub/portal-gateway/pkg/backend"
	pkgerrors "github.com/retailhub/portal-gateway/pkg/errors"
	"github.com/retailhub/portal-gateway/pkg/logger"
)

type logisticsView struct {
	PaidOrders   []backend.Order      `json:"paidOrders"`
	Notification *notify.Notification `json:"notification,omitempty"`
}

func logisticsInstance(w http.ResponseWriter, r *http.Request, svc *logistics.Service, logg *logger.Logger) (*logistics.Instance, bool) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
		return nil, false
	}
	inst, err := svc.Mount(r.Context(), sess)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mounting logistics console"))
		return nil, false
	}
	return inst, true
}

// LogisticsView renders the shipping queue.
func LogisticsView(svc *logistics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inst, ok := logisticsInstance(w, r, svc, logg)
		if !ok {
			return
		}
		view := logisticsView{PaidOrders: []backend.Order{}}
		if paid, fetched := inst.PaidOrders(); fetched {
			view.PaidOrders = paid
		}
		if note, live := inst.Notification(); live {
			view.Notification = &note
		}
		responses.WriteSuccess(w, view)
	}
}

func LogisticsShipOrder(svc *logistics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inst, ok := logisticsInstance(w, r, svc, logg)
		if !ok {
			return
		}
		orderID, err := orderIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := inst.ShipOrder(r.Context(), orderID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "shipped"})
	}
}

func LogisticsDismissNotification(svc *logistics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inst, ok := logisticsInstance(w, r, svc, logg)
		if !ok {
			return
		}
		inst.DismissNotification()
		responses.WriteSuccess(w, map[string]string{"status": "dismissed"})
	}
}
