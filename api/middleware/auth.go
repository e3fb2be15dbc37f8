package middleware

import (
	"net/http"
	"strings"

	"github.com/retailhub/portal-gateway/api/responses"
	"github.com/retailhub/portal-gateway/internal/session"
	pkgAuth "github.com/retailhub/portal-gateway/pkg/auth"
	"github.com/retailhub/portal-gateway/pkg/config"
	pkgerrors "github.com/retailhub/portal-gateway/pkg/errors"
	"github.com/retailhub/portal-gateway/pkg/logger"
)

// SessionReader is the read-only slice of the session store the
// middleware needs.
type SessionReader interface {
	Get(sessionID string) (session.Session, bool)
}

// Auth validates the gateway session token and seeds the request context
// with the live session.
func Auth(cfg config.SessionConfig, sessions SessionReader, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseSessionToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			sess, ok := sessions.Get(claims.SessionID)
			if !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session expired"))
				return
			}

			ctx := WithSession(r.Context(), sess)
			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"session_id": sess.ID,
					"username":   sess.Username,
					"actor_role": string(sess.Role),
					"portal":     sess.Portal.String(),
				})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
