package controllers

import (
	"net/http"

	"github.com/retailhub/portal-gateway/api/middleware"
	"github.com/retailhub/portal-gateway/api/responses"
	"github.com/retailhub/portal-gateway/api/validators"
	"github.com/retailhub/portal-gateway/internal/notify"
	"github.com/retailhub/portal-gateway/internal/views/tenant"
	"github.com/retailhub/portal-gateway/pkg/enums"
	pkgerrors "github.com/retailhub/portal-gateway/pkg/errors"
	"github.com/retailhub/portal-gateway/pkg/logger"
)

type tenantView struct {
	AllowedRoles []enums.Role         `json:"allowedRoles"`
	Notification *notify.Notification `json:"notification,omitempty"`
}

func tenantInstance(w http.ResponseWriter, r *http.Request, svc *tenant.Service, logg *logger.Logger) (*tenant.Instance, bool) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
		return nil, false
	}
	inst, err := svc.Mount(r.Context(), sess)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mounting tenant console"))
		return nil, false
	}
	return inst, true
}

// TenantView renders the staff onboarding console.
func TenantView(svc *tenant.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inst, ok := tenantInstance(w, r, svc, logg)
		if !ok {
			return
		}
		view := tenantView{AllowedRoles: tenant.AllowedRoles()}
		if note, live := inst.Notification(); live {
			view.Notification = &note
		}
		responses.WriteSuccess(w, view)
	}
}

type registerStaffRequest struct {
	Username string `json:"username" validate:"required,min=3"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"required"`
}

func TenantRegisterStaff(svc *tenant.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inst, ok := tenantInstance(w, r, svc, logg)
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
		if err := inst.RegisterStaff(r.Context(), body.Username, body.Password, role); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{"status": "registered"})
	}
}

func TenantDismissNotification(svc *tenant.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inst, ok := tenantInstance(w, r, svc, logg)
		if !ok {
			return
		}
		inst.DismissNotification()
		responses.WriteSuccess(w, map[string]string{"status": "dismissed"})
	}
}
