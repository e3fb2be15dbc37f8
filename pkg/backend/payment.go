package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/retailhub/portal-gateway/pkg/config"
	"github.com/shopspring/decimal"
)

// PaymentClient talks to the payment/wallet service.
type PaymentClient struct {
	client
}

// NewPaymentClient builds a client for the payment profile.
func NewPaymentClient(profile config.BackendProfile, opts ...Option) (*PaymentClient, error) {
	base, err := newClient(profile, opts...)
	if err != nil {
		return nil, err
	}
	return &PaymentClient{client: base}, nil
}

// WalletBalance returns the scalar balance for a username. The service
// answers with a bare JSON number.
func (c *PaymentClient) WalletBalance(ctx context.Context, token, username string) (decimal.Decimal, error) {
	query := url.Values{}
	query.Set("username", username)

	bound := c.forToken(token)
	var balance decimal.Decimal
	if err := bound.doJSON(ctx, http.MethodGet, "/api/payment/wallet/balance", query, nil, &balance); err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

// AddFunds credits a wallet and returns the service confirmation.
func (c *PaymentClient) AddFunds(ctx context.Context, token, username string, amount decimal.Decimal) (string, error) {
	query := url.Values{}
	query.Set("username", username)
	query.Set("amount", amount.String())

	bound := c.forToken(token)
	return bound.doText(ctx, http.MethodPost, "/api/payment/wallet/add", query)
}

// History lists the payment ledger.
func (c *PaymentClient) History(ctx context.Context, token string) ([]Transaction, error) {
	bound := c.forToken(token)
	var rows []Transaction
	if err := bound.doJSON(ctx, http.MethodGet, "/api/payment/history", nil, nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
