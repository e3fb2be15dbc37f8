package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/retailhub/portal-gateway/api/middleware"
	"github.com/retailhub/portal-gateway/api/responses"
	"github.com/retailhub/portal-gateway/api/validators"
	"github.com/retailhub/portal-gateway/internal/session"
	pkgAuth "github.com/retailhub/portal-gateway/pkg/auth"
	"github.com/retailhub/portal-gateway/pkg/backend"
	"github.com/retailhub/portal-gateway/pkg/config"
	pkgerrors "github.com/retailhub/portal-gateway/pkg/errors"
	"github.com/retailhub/portal-gateway/pkg/logger"
)

// Unmounter tears down a view instance when its session ends.
type Unmounter interface {
	Unmount(sessionID string)
}

// Registrar is the public signup slice of the auth service client.
type Registrar interface {
	Register(ctx context.Context, username, password string) (backend.RegisterResponse, error)
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token   string          `json:"token"`
	Session session.Session `json:"session"`
}

// AuthLogin signs a user in and hands back the gateway session token.
func AuthLogin(store *session.Store, cfg config.SessionConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body loginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sess, err := store.Login(r.Context(), body.Username, body.Password)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		token, err := pkgAuth.MintSessionToken(cfg, time.Now(), pkgAuth.SessionTokenPayload{
			SessionID: sess.ID,
			Username:  sess.Username,
			Role:      sess.Role,
		})
		if err != nil {
			store.Logout(r.Context(), sess.ID)
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "minting session token"))
			return
		}

		responses.WriteSuccess(w, loginResponse{Token: token, Session: sess})
	}
}

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3"`
	Password string `json:"password" validate:"required,min=6"`
}

// AuthRegister creates a public customer account.
func AuthRegister(auth Registrar, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body registerRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := auth.Register(r.Context(), body.Username, body.Password)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// AuthLogout closes the session and tears down any mounted views.
func AuthLogout(store *session.Store, logg *logger.Logger, views ...Unmounter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := middleware.SessionFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		for _, view := range views {
			view.Unmount(sess.ID)
		}
		store.Logout(r.Context(), sess.ID)
		responses.WriteSuccess(w, map[string]string{"status": "logged out"})
	}
}

// PortalMe tells the front end which console the session belongs on.
func PortalMe(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := middleware.SessionFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}
		responses.WriteSuccess(w, sess)
	}
}
