package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/retailhub/portal-gateway/pkg/config"
	"github.com/retailhub/portal-gateway/pkg/enums"
)

func testSessionConfig() config.SessionConfig {
	return config.SessionConfig{
		JWTSecret:         "test-secret",
		JWTIssuer:         "retailhub-portal",
		ExpirationMinutes: 60,
	}
}

func TestMintAndParseRoundTrip(t *testing.T) {
	cfg := testSessionConfig()
	now := time.Now()

	signed, err := MintSessionToken(cfg, now, SessionTokenPayload{
		SessionID: "sess-1",
		Username:  "alice",
		Role:      enums.RoleCustomer,
	})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	claims, err := ParseSessionToken(cfg, signed)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.SessionID != "sess-1" || claims.Username != "alice" {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if claims.Role != enums.RoleCustomer {
		t.Fatalf("unexpected role %q", claims.Role)
	}
	if claims.ID == "" {
		t.Fatalf("expected generated jti")
	}
}

func TestMintRejectsInvalidRole(t *testing.T) {
	_, err := MintSessionToken(testSessionConfig(), time.Now(), SessionTokenPayload{
		SessionID: "sess-1",
		Username:  "alice",
		Role:      enums.Role("WIZARD"),
	})
	if err == nil || !strings.Contains(err.Error(), "invalid role") {
		t.Fatalf("expected invalid role error, got %v", err)
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	cfg := testSessionConfig()
	signed, err := MintSessionToken(cfg, time.Now().Add(-2*time.Hour), SessionTokenPayload{
		SessionID: "sess-1",
		Username:  "alice",
		Role:      enums.RoleCSR,
	})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := ParseSessionToken(cfg, signed); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	cfg := testSessionConfig()
	signed, err := MintSessionToken(cfg, time.Now(), SessionTokenPayload{
		SessionID: "sess-1",
		Username:  "alice",
		Role:      enums.RoleAdmin,
	})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	other := cfg
	other.JWTSecret = "different"
	if _, err := ParseSessionToken(other, signed); err == nil {
		t.Fatal("expected signature mismatch to be rejected")
	}
}
