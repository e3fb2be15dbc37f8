package backend

import (
	"net/http"

	"github.com/retailhub/portal-gateway/pkg/config"
	"github.com/retailhub/portal-gateway/pkg/enums"
)

// Credentials attaches authorization to an outgoing backend request. The
// deployed service variants accept either a bearer token or HTTP Basic
// credentials, so the strategy is selected by the active backend profile.
type Credentials interface {
	Apply(req *http.Request)
}

// BearerToken carries the opaque token issued by the auth service.
type BearerToken string

// Apply sets the Authorization header.
func (b BearerToken) Apply(req *http.Request) {
	if b == "" {
		return
	}
	req.Header.Set("Authorization", "Bearer "+string(b))
}

// BasicAuth carries static service credentials.
type BasicAuth struct {
	User     string
	Password string
}

// Apply sets HTTP Basic authorization.
func (b BasicAuth) Apply(req *http.Request) {
	req.SetBasicAuth(b.User, b.Password)
}

// Anonymous sends no authorization at all.
type Anonymous struct{}

// Apply is a no-op.
func (Anonymous) Apply(*http.Request) {}

// credentialsFor resolves the request credentials for a profile and an
// optional per-session token. Basic profiles ignore the token; bearer
// profiles without a token fall back to anonymous (public endpoints).
func credentialsFor(profile config.BackendProfile, token string) Credentials {
	switch profile.Scheme {
	case enums.AuthSchemeBasic:
		return BasicAuth{User: profile.BasicUser, Password: profile.BasicPassword}
	case enums.AuthSchemeBearer:
		if token == "" {
			return Anonymous{}
		}
		return BearerToken(token)
	default:
		return Anonymous{}
	}
}
