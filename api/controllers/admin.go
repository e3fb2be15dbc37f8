package controllers

import (
	"net/http"

	"github.com/retailhub/portal-gateway/api/middleware"
	"github.com/retailhub/portal-gateway/api/responses"
	"github.com/retailhub/portal-gateway/api/validators"
	"github.com/retailhub/portal-gateway/internal/notify"
	"github.com/retailhub/portal-gateway/internal/views/admin"
	"github.com/retailhub/portal-gateway/pkg/backend"
	"github.com/retailhub/portal-gateway/pkg/enums"
	pkgerrors "github.com/retailhub/portal-gateway/pkg/errors"
	"github.com/retailhub/portal-gateway/pkg/logger"
)

type adminView struct {
	Ledger       []backend.Transaction `json:"ledger"`
	AllowedRoles []enums.Role          `json:"allowedRoles"`
	Notification *notify.Notification  `json:"notification,omitempty"`
}

func adminInstance(w http.ResponseWriter, r *http.Request, svc *admin.Service, logg *logger.Logger) (*admin.Instance, bool) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
		return nil, false
	}
	inst, err := svc.Mount(r.Context(), sess)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mounting admin console"))
		return nil, false
	}
	return inst, true
}

// AdminView renders the payment ledger and the account-creation form.
func AdminView(svc *admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inst, ok := adminInstance(w, r, svc, logg)
		if !ok {
			return
		}
		view := adminView{
			Ledger:       []backend.Transaction{},
			AllowedRoles: admin.AllowedRoles(),
		}
		if ledger, fetched := inst.Ledger(); fetched {
			view.Ledger = ledger
		}
		if note, live := inst.Notification(); live {
			view.Notification = &note
		}
		responses.WriteSuccess(w, view)
	}
}

func AdminRegisterInternal(svc *admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inst, ok := adminInstance(w, r, svc, logg)
		if !ok {
			return
		}
		var body registerStaffRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		role, err := enums.ParseRole(body.Role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role"))
			return
		}
		if err := inst.RegisterInternal(r.Context(), body.Username, body.Password, role); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{"status": "registered"})
	}
}

func AdminDismissNotification(svc *admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inst, ok := adminInstance(w, r, svc, logg)
		if !ok {
			return
		}
		inst.DismissNotification()
		responses.WriteSuccess(w, map[string]string{"status": "dismissed"})
	}
}
