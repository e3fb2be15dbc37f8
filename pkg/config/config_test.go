package config

import (
	"os"
	"testing"
	"time"

	"github.com/retailhub/portal-gateway/pkg/enums"
	"github.com/shopspring/decimal"
)

func TestLoad_Success(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.App.Env != "dev" {
		t.Fatalf("expected App.Env to be dev, got %q", cfg.App.Env)
	}
	if cfg.Backends.OMS.BaseURL != "http://localhost:8082" {
		t.Fatalf("unexpected OMS base URL %q", cfg.Backends.OMS.BaseURL)
	}
	if cfg.Backends.Auth.Scheme != enums.AuthSchemeBearer {
		t.Fatalf("expected default bearer scheme, got %q", cfg.Backends.Auth.Scheme)
	}
	if got := cfg.Poll.StorefrontInterval; got != 2*time.Second {
		t.Fatalf("expected storefront interval 2s, got %v", got)
	}
	if got := cfg.Poll.DashboardInterval; got != 5*time.Second {
		t.Fatalf("expected dashboard interval 5s, got %v", got)
	}
	if !cfg.Cart.UnitPrice().Equal(decimal.RequireFromString("999.00")) {
		t.Fatalf("unexpected unit price %s", cfg.Cart.UnitPrice())
	}
	if cfg.Redis.Enabled() {
		t.Fatalf("redis should be disabled without URL or address")
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setMinimalEnv(t)
	if err := os.Unsetenv(EnvAppEnv); err != nil {
		t.Fatalf("failed to unset %s: %v", EnvAppEnv, err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected missing required env to return an error")
	}
}

func TestLoad_BasicSchemeRequiresCredentials(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv("RETAILHUB_PAYMENT_SCHEME", "basic")

	if _, err := Load(); err == nil {
		t.Fatal("expected basic scheme without credentials to fail")
	}

	t.Setenv("RETAILHUB_PAYMENT_BASIC_USER", "svc")
	t.Setenv("RETAILHUB_PAYMENT_BASIC_PASSWORD", "secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if cfg.Backends.Payment.Scheme != enums.AuthSchemeBasic {
		t.Fatalf("expected basic scheme, got %q", cfg.Backends.Payment.Scheme)
	}
}

func TestLoad_RejectsBadUnitPrice(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv("RETAILHUB_CART_UNIT_PRICE", "not-a-price")

	if _, err := Load(); err == nil {
		t.Fatal("expected invalid unit price to fail")
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()

	t.Setenv(EnvAppEnv, "dev")
	t.Setenv(EnvAppPort, "8090")
	t.Setenv(EnvSessionJWTSecret, "secret")
	t.Setenv(EnvAuthBaseURL, "http://localhost:8081")
	t.Setenv(EnvOMSBaseURL, "http://localhost:8082")
	t.Setenv(EnvInventoryBaseURL, "http://localhost:8085")
	t.Setenv(EnvPaymentBaseURL, "http://localhost:8084")
}
