package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/retailhub/portal-gateway/pkg/enums"
)

// SessionTokenPayload captures the data available when minting a gateway JWT.
// The opaque backend token never rides inside the JWT; it stays server-side
// keyed by SessionID.
type SessionTokenPayload struct {
	SessionID string
	Username  string
	Role      enums.Role
	JTI       string
}

// SessionTokenClaims represents the typed JWT handed to the browser.
type SessionTokenClaims struct {
	SessionID string     `json:"session_id"`
	Username  string     `json:"username"`
	Role      enums.Role `json:"role"`
	jwt.RegisteredClaims
}
