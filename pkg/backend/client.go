package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/retailhub/portal-gateway/pkg/config"
	pkgerrors "github.com/retailhub/portal-gateway/pkg/errors"
)

const responseBodyReadLimit int64 = 64 * 1024

var errBaseURLRequired = errors.New("backend base url is required")

// client is the shared transport core of the four service clients. It owns
// URL building, credential attachment, and the status-to-error mapping every
// dispatcher relies on.
type client struct {
	httpClient *http.Client
	baseURL    string
	profile    config.BackendProfile
	token      string
}

// Option configures optional client behavior.
type Option func(*client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

func newClient(profile config.BackendProfile, opts ...Option) (client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(profile.BaseURL), "/")
	if baseURL == "" {
		return client{}, errBaseURLRequired
	}
	c := client{
		// No per-call timeout beyond the transport default; a hung call
		// delays one render cycle and nothing else.
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		profile:    profile,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&c)
		}
	}
	return c, nil
}

// forToken returns a copy bound to a per-session bearer token. Basic-auth
// profiles carry static credentials and ignore the token.
func (c client) forToken(token string) client {
	c.token = token
	return c
}

// doJSON issues a request and decodes a JSON response into out (may be nil).
func (c *client) doJSON(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	payload, err := c.do(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "decoding backend response")
	}
	return nil
}

// doText issues a request and returns the raw response body, trimmed. The
// OMS and auth services answer several mutations with plain-text status
// confirmations.
func (c *client) doText(ctx context.Context, method, path string, query url.Values) (string, error) {
	payload, err := c.do(ctx, method, path, query, nil)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(payload)), nil
}

func (c *client) do(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding request body")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building backend request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json, text/plain")
	credentialsFor(c.profile, c.token).Apply(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Transport failure, no response at all. Distinct from any
		// authorization denial so the views can say "service offline".
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "service offline")
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "reading backend response")
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return payload, nil
	}
	return nil, statusError(resp.StatusCode, payload)
}

// statusError converts a non-2xx response into a coded error. The response
// body text is surfaced verbatim when the service provided one; otherwise a
// generic denial carries the numeric status.
func statusError(status int, payload []byte) error {
	message := strings.TrimSpace(string(payload))
	if message == "" {
		message = fmt.Sprintf("request denied (status %d)", status)
	}

	switch {
	case status == http.StatusUnauthorized:
		return pkgerrors.New(pkgerrors.CodeUnauthorized, message)
	case status == http.StatusForbidden:
		return pkgerrors.New(pkgerrors.CodeForbidden, message)
	case status == http.StatusNotFound:
		return pkgerrors.New(pkgerrors.CodeNotFound, message)
	case status == http.StatusConflict:
		return pkgerrors.New(pkgerrors.CodeConflict, message)
	case status >= 400 && status < 500:
		return pkgerrors.New(pkgerrors.CodeValidation, message)
	default:
		return pkgerrors.New(pkgerrors.CodeUpstream, message)
	}
}
