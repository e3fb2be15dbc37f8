package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/retailhub/portal-gateway/pkg/config"
)

// OMSClient talks to the order-management service.
type OMSClient struct {
	client
}

// NewOMSClient builds a client for the OMS profile.
func NewOMSClient(profile config.BackendProfile, opts ...Option) (*OMSClient, error) {
	base, err := newClient(profile, opts...)
	if err != nil {
		return nil, err
	}
	return &OMSClient{client: base}, nil
}

// Pending lists orders awaiting CSR approval.
func (c *OMSClient) Pending(ctx context.Context, token string) ([]Order, error) {
	bound := c.forToken(token)
	var orders []Order
	if err := bound.doJSON(ctx, http.MethodGet, "/api/oms/pending", nil, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// Paid lists orders ready for shipping.
func (c *OMSClient) Paid(ctx context.Context, token string) ([]Order, error) {
	bound := c.forToken(token)
	var orders []Order
	if err := bound.doJSON(ctx, http.MethodGet, "/api/oms/paid", nil, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// MyOrders lists a customer's own orders.
func (c *OMSClient) MyOrders(ctx context.Context, token, customer string) ([]Order, error) {
	query := url.Values{}
	query.Set("customer", customer)

	bound := c.forToken(token)
	var orders []Order
	if err := bound.doJSON(ctx, http.MethodGet, "/api/oms/my-orders", query, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// Create places one order for a single SKU. The service answers with the
// order id or a status line.
func (c *OMSClient) Create(ctx context.Context, token, sku string, qty int, customer string) (string, error) {
	query := url.Values{}
	query.Set("sku", sku)
	query.Set("qty", strconv.Itoa(qty))
	query.Set("customer", customer)

	bound := c.forToken(token)
	return bound.doText(ctx, http.MethodPost, "/api/oms/create", query)
}

// Approve transitions a CREATED order to APPROVED.
func (c *OMSClient) Approve(ctx context.Context, token string, orderID int64) (string, error) {
	return c.transition(ctx, token, orderID, "approve")
}

// Ship transitions a PAID order to SHIPPED.
func (c *OMSClient) Ship(ctx context.Context, token string, orderID int64) (string, error) {
	return c.transition(ctx, token, orderID, "ship")
}

// Pay transitions an APPROVED order to PAID.
func (c *OMSClient) Pay(ctx context.Context, token string, orderID int64) (string, error) {
	return c.transition(ctx, token, orderID, "pay")
}

// Cancel transitions a CREATED order to CANCELED.
func (c *OMSClient) Cancel(ctx context.Context, token string, orderID int64) (string, error) {
	return c.transition(ctx, token, orderID, "cancel")
}

func (c *OMSClient) transition(ctx context.Context, token string, orderID int64, action string) (string, error) {
	bound := c.forToken(token)
	return bound.doText(ctx, http.MethodPost, fmt.Sprintf("/api/oms/%d/%s", orderID, action), nil)
}
