package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/retailhub/portal-gateway/pkg/config"
)

// InventoryClient talks to the inventory/catalog service.
type InventoryClient struct {
	client
}

// NewInventoryClient builds a client for the inventory profile.
func NewInventoryClient(profile config.BackendProfile, opts ...Option) (*InventoryClient, error) {
	base, err := newClient(profile, opts...)
	if err != nil {
		return nil, err
	}
	return &InventoryClient{client: base}, nil
}

// Products lists the catalog.
func (c *InventoryClient) Products(ctx context.Context, token string) ([]Product, error) {
	bound := c.forToken(token)
	var products []Product
	if err := bound.doJSON(ctx, http.MethodGet, "/api/inventory/products", nil, nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// CreateProduct adds a catalog entry.
func (c *InventoryClient) CreateProduct(ctx context.Context, token string, product Product) (Product, error) {
	bound := c.forToken(token)
	var created Product
	if err := bound.doJSON(ctx, http.MethodPost, "/api/inventory/products", nil, product, &created); err != nil {
		return Product{}, err
	}
	return created, nil
}

// UpdateProduct replaces a catalog entry, stock level included.
func (c *InventoryClient) UpdateProduct(ctx context.Context, token, sku string, product Product) (Product, error) {
	bound := c.forToken(token)
	var updated Product
	path := "/api/inventory/products/" + url.PathEscape(sku)
	if err := bound.doJSON(ctx, http.MethodPut, path, nil, product, &updated); err != nil {
		return Product{}, err
	}
	return updated, nil
}
