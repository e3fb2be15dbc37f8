package backend

import (
	"time"

	"github.com/retailhub/portal-gateway/pkg/enums"
	"github.com/shopspring/decimal"
)

// Product mirrors an inventory row. Quantities are last-fetched values, never
// computed locally.
type Product struct {
	SKU      string `json:"sku"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// Order mirrors an OMS row.
type Order struct {
	ID         int64             `json:"id"`
	CustomerID string            `json:"customerId"`
	SKU        string            `json:"sku"`
	Quantity   int               `json:"quantity"`
	Status     enums.OrderStatus `json:"status"`
	Amount     decimal.Decimal   `json:"amount"`
}

// Transaction mirrors a payment ledger row, read-only and append-only from
// the gateway's perspective.
type Transaction struct {
	ID        int64           `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Gateway   string          `json:"type"`
	AccountID string          `json:"accountId"`
	Amount    decimal.Decimal `json:"amount"`
	Success   bool            `json:"success"`
}

// AuthUser is the identity block inside a login response.
type AuthUser struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// LoginResponse is the auth service's successful login body.
type LoginResponse struct {
	Token string   `json:"token"`
	User  AuthUser `json:"user"`
}

// RegisterResponse is the auth service's successful signup body.
type RegisterResponse struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}
