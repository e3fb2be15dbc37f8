package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailhub/portal-gateway/internal/session"
	"github.com/retailhub/portal-gateway/internal/views/admin"
	"github.com/retailhub/portal-gateway/internal/views/csr"
	"github.com/retailhub/portal-gateway/internal/views/logistics"
	"github.com/retailhub/portal-gateway/internal/views/storefront"
	"github.com/retailhub/portal-gateway/internal/views/tenant"
	"github.com/retailhub/portal-gateway/pkg/backend"
	"github.com/retailhub/portal-gateway/pkg/config"
	"github.com/retailhub/portal-gateway/pkg/enums"
	"github.com/retailhub/portal-gateway/pkg/logger"
)

type fakeBackends struct{}

func (fakeBackends) Login(_ context.Context, username, password string) (backend.LoginResponse, error) {
	role := "ROLE_CUSTOMER"
	if username == "csr1" {
		role = "ROLE_CSR"
	}
	return backend.LoginResponse{
		Token: "opaque-" + username,
		User:  backend.AuthUser{Username: username, Role: role},
	}, nil
}

func (fakeBackends) Register(_ context.Context, username, _ string) (backend.RegisterResponse, error) {
	return backend.RegisterResponse{Username: username, Role: "ROLE_CUSTOMER"}, nil
}

func (fakeBackends) RegisterInternal(_ context.Context, _, username, _ string, role enums.Role) (string, error) {
	return "created " + username + " as " + string(role), nil
}

func (fakeBackends) Products(_ context.Context, _ string) ([]backend.Product, error) {
	return []backend.Product{{SKU: "SKU-1", Name: "Walnut Desk", Quantity: 4}}, nil
}

func (fakeBackends) CreateProduct(_ context.Context, _ string, p backend.Product) (backend.Product, error) {
	return p, nil
}

func (fakeBackends) UpdateProduct(_ context.Context, _, _ string, p backend.Product) (backend.Product, error) {
	return p, nil
}

func (fakeBackends) MyOrders(_ context.Context, _, _ string) ([]backend.Order, error) {
	return nil, nil
}

func (fakeBackends) Pending(_ context.Context, _ string) ([]backend.Order, error) {
	return nil, nil
}

func (fakeBackends) Paid(_ context.Context, _ string) ([]backend.Order, error) {
	return nil, nil
}

func (fakeBackends) Create(_ context.Context, _, sku string, _ int, _ string) (string, error) {
	return "Order created for " + sku, nil
}

func (fakeBackends) Approve(_ context.Context, _ string, _ int64) (string, error) {
	return "approved", nil
}

func (fakeBackends) Ship(_ context.Context, _ string, _ int64) (string, error) {
	return "shipped", nil
}

func (fakeBackends) Pay(_ context.Context, _ string, _ int64) (string, error) {
	return "paid", nil
}

func (fakeBackends) Cancel(_ context.Context, _ string, _ int64) (string, error) {
	return "canceled", nil
}

func (fakeBackends) WalletBalance(_ context.Context, _, _ string) (decimal.Decimal, error) {
	return decimal.NewFromInt(5000), nil
}

func (fakeBackends) AddFunds(_ context.Context, _, _ string, _ decimal.Decimal) (string, error) {
	return "funds added", nil
}

func (fakeBackends) History(_ context.Context, _ string) ([]backend.Transaction, error) {
	return nil, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		Session: config.SessionConfig{
			JWTSecret:         "router-test-secret",
			JWTIssuer:         "retailhub-portal",
			ExpirationMinutes: 60,
			TokenKeyPrefix:    "portal:token",
		},
	}
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	logg := logger.New(logger.Options{
		ServiceName: "router-test",
		Level:       zerolog.Disabled,
		Output:      io.Discard,
	})
	cfg := testConfig()
	be := fakeBackends{}

	store, err := session.NewStore(session.StoreParams{
		Logger:  logg,
		Auth:    be,
		Vault:   session.NewMemoryVault(),
		Session: cfg.Session,
	})
	require.NoError(t, err)

	sf, err := storefront.NewService(storefront.ServiceParams{
		Logger:    logg,
		Inventory: be,
		OMS:       be,
		Payment:   be,
		Tokens:    store,
		UnitPrice: decimal.NewFromInt(999),
	})
	require.NoError(t, err)

	cs, err := csr.NewService(csr.ServiceParams{Logger: logg, OMS: be, Inventory: be, Tokens: store})
	require.NoError(t, err)

	lg, err := logistics.NewService(logistics.ServiceParams{Logger: logg, OMS: be, Tokens: store})
	require.NoError(t, err)

	tn, err := tenant.NewService(tenant.ServiceParams{Logger: logg, Auth: be, Tokens: store})
	require.NoError(t, err)

	ad, err := admin.NewService(admin.ServiceParams{Logger: logg, Auth: be, Payment: be, Tokens: store})
	require.NoError(t, err)

	return NewRouter(RouterParams{
		Config:     cfg,
		Logger:     logg,
		Sessions:   store,
		Registrar:  be,
		Storefront: sf,
		Csr:        cs,
		Logistics:  lg,
		Tenant:     tn,
		Admin:      ad,
		Metrics:    prometheus.NewRegistry(),
	})
}

func login(t *testing.T, router http.Handler, username string) string {
	t.Helper()

	body, _ := json.Marshal(map[string]string{"username": username, "password": "pw123456"})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var envelope struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NotEmpty(t, envelope.Data.Token)
	return envelope.Data.Token
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test", rec.Header().Get("X-RetailHub-Env"))
}

func TestHealthReadyWithoutRedis(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsExposed(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	router := newTestRouter(t)

	for _, path := range []string{
		"/api/portal/me",
		"/api/portal/storefront/",
		"/api/portal/csr/",
		"/api/portal/logistics/",
		"/api/portal/tenant/",
		"/api/portal/admin/",
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestCustomerLoginLandsOnStorefront(t *testing.T) {
	router := newTestRouter(t)
	token := login(t, router, "alice")

	req := httptest.NewRequest(http.MethodGet, "/api/portal/storefront/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestCustomerCannotOpenCsrConsole(t *testing.T) {
	router := newTestRouter(t)
	token := login(t, router, "alice")

	req := httptest.NewRequest(http.MethodGet, "/api/portal/csr/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCsrLoginLandsOnConsole(t *testing.T) {
	router := newTestRouter(t)
	token := login(t, router, "csr1")

	req := httptest.NewRequest(http.MethodGet, "/api/portal/csr/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/api/portal/storefront/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAddToCartRoundTrip(t *testing.T) {
	router := newTestRouter(t)
	token := login(t, router, "alice")

	body, _ := json.Marshal(map[string]string{"sku": "SKU-1"})
	req := httptest.NewRequest(http.MethodPost, "/api/portal/storefront/cart", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "SKU-1")
}

func TestRegisterIsPublic(t *testing.T) {
	router := newTestRouter(t)

	body, _ := json.Marshal(map[string]string{"username": "newbie", "password": "pw123456"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(body)))

	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestLogoutInvalidatesSession(t *testing.T) {
	router := newTestRouter(t)
	token := login(t, router, "alice")

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/api/portal/storefront/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUnknownRouteReturns404(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/portal/warehouse/", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
