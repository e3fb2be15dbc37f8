package middleware

import (
	"context"

	"github.com/retailhub/portal-gateway/internal/session"
)

type contextKey string

const ctxSession contextKey = "portal_session"

// SessionFromContext returns the authenticated session seeded by Auth.
func SessionFromContext(ctx context.Context) (session.Session, bool) {
	if ctx == nil {
		return session.Session{}, false
	}
	if sess, ok := ctx.Value(ctxSession).(session.Session); ok {
		return sess, true
	}
	return session.Session{}, false
}

// WithSession injects the session into the context.
func WithSession(ctx context.Context, sess session.Session) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSession, sess)
}
