package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/retailhub/portal-gateway/pkg/config"
	"github.com/retailhub/portal-gateway/pkg/enums"
)

// AuthClient talks to the authentication/issuance service.
type AuthClient struct {
	client
}

// NewAuthClient builds a client for the auth service profile.
func NewAuthClient(profile config.BackendProfile, opts ...Option) (*AuthClient, error) {
	base, err := newClient(profile, opts...)
	if err != nil {
		return nil, err
	}
	return &AuthClient{client: base}, nil
}

// Login exchanges credentials for a token and identity.
func (c *AuthClient) Login(ctx context.Context, username, password string) (LoginResponse, error) {
	query := url.Values{}
	query.Set("username", username)
	query.Set("password", password)

	var resp LoginResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", query, nil, &resp); err != nil {
		return LoginResponse{}, err
	}
	return resp, nil
}

// Register creates a public customer account.
func (c *AuthClient) Register(ctx context.Context, username, password string) (RegisterResponse, error) {
	query := url.Values{}
	query.Set("username", username)
	query.Set("password", password)

	var resp RegisterResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/register", query, nil, &resp); err != nil {
		return RegisterResponse{}, err
	}
	return resp, nil
}

// RegisterInternal creates a staff or tenant account. The service answers
// with a plain-text confirmation.
func (c *AuthClient) RegisterInternal(ctx context.Context, token, username, password string, role enums.Role) (string, error) {
	query := url.Values{}
	query.Set("username", username)
	query.Set("password", password)
	query.Set("role", role.String())

	bound := c.forToken(token)
	return bound.doText(ctx, http.MethodPost, "/api/auth/register-internal", query)
}
