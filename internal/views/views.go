// Package views holds the pieces shared by the per-portal view services.
package views

import (
	"context"

	pkgerrors "github.com/retailhub/portal-gateway/pkg/errors"
)

// TokenSource hands out the backend token for a session.
type TokenSource interface {
	Token(ctx context.Context, sessionID string) (string, error)
}

// FailureMessage renders a dispatcher failure for the notification
// banner. Coded errors already carry the upstream body text or the
// offline wording; anything else falls back to the raw error string.
func FailureMessage(err error) string {
	if err == nil {
		return ""
	}
	if typed := pkgerrors.As(err); typed != nil && typed.Message() != "" {
		return typed.Message()
	}
	return err.Error()
}
