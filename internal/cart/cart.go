package cart

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

// Item is one cart line. Product details are copied in at add time, so a
// later catalog change never rewrites what the shopper already picked.
type Item struct {
	ID        string          `json:"id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	AddedAt   time.Time       `json:"addedAt"`
}

// CheckoutFunc places one order for a single cart line.
type CheckoutFunc func(ctx context.Context, item Item) error

// FailedItem pairs a line that could not be ordered with the reason.
type FailedItem struct {
	Item   Item   `json:"item"`
	Reason string `json:"reason"`
}

// CheckoutResult reports the per-line outcome of a checkout pass.
type CheckoutResult struct {
	Succeeded []Item       `json:"succeeded"`
	Failed    []FailedItem `json:"failed"`
	Err       error        `json:"-"`
}

// Cart is a session-scoped, in-memory cart. Lines keep insertion order
// and the same SKU may appear on several lines; each add is its own line.
type Cart struct {
	unitPrice decimal.Decimal

	mu    sync.Mutex
	items []Item
}

// New builds an empty cart priced at the given fixed unit price.
func New(unitPrice decimal.Decimal) *Cart {
	return &Cart{unitPrice: unitPrice}
}

// Add appends a line for the product and returns the new line.
func (c *Cart) Add(sku, name string) Item {
	item := Item{
		ID:        uuid.NewString(),
		SKU:       sku,
		Name:      name,
		UnitPrice: c.unitPrice,
		AddedAt:   time.Now(),
	}
	c.mu.Lock()
	c.items = append(c.items, item)
	c.mu.Unlock()
	return item
}

// Remove deletes the line with the given ID; it reports whether a line
// was removed.
func (c *Cart) Remove(itemID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, item := range c.items {
		if item.ID == itemID {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return true
		}
	}
	return false
}

// Items returns a copy of the lines in insertion order.
func (c *Cart) Items() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of lines.
func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Total sums the line prices.
func (c *Cart) Total() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := decimal.Zero
	for _, item := range c.items {
		total = total.Add(item.UnitPrice)
	}
	return total
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.mu.Lock()
	c.items = nil
	c.mu.Unlock()
}

// Checkout places one order per line, sequentially and in insertion
// order. Lines that succeed leave the cart; lines that fail stay, in
// their original order, so the shopper can retry after fixing the cause.
// Err aggregates every per-line failure.
func (c *Cart) Checkout(ctx context.Context, place CheckoutFunc) CheckoutResult {
	snapshot := c.Items()

	var result CheckoutResult
	succeeded := make(map[string]bool, len(snapshot))
	for _, item := range snapshot {
		if err := place(ctx, item); err != nil {
			result.Failed = append(result.Failed, FailedItem{Item: item, Reason: err.Error()})
			result.Err = multierr.Append(result.Err, err)
			continue
		}
		succeeded[item.ID] = true
		result.Succeeded = append(result.Succeeded, item)
	}

	if len(succeeded) > 0 {
		c.mu.Lock()
		kept := c.items[:0]
		for _, item := range c.items {
			if !succeeded[item.ID] {
				kept = append(kept, item)
			}
		}
		c.items = kept
		c.mu.Unlock()
	}
	return result
}
