// Package storefront is the customer side of ordering: a basket, a typed
// API client and the place-order → checkout → payment-widget handoff.
package storefront

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/shashiranjanraj/diner/app/models"
)

// Basket is an in-memory list of menu items. Adding an item twice keeps two
// entries; each entry is ordered with quantity 1.
type Basket struct {
	mu    sync.Mutex
	items []models.MenuItem
}

func NewBasket() *Basket { return &Basket{} }

func (b *Basket) Add(item models.MenuItem) {
	b.mu.Lock()
	b.items = append(b.items, item)
	b.mu.Unlock()
}

// Items returns a copy of the entries in insertion order.
func (b *Basket) Items() []models.MenuItem {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.MenuItem, len(b.items))
	copy(out, b.items)
	return out
}

// Total sums the entry prices.
func (b *Basket) Total() decimal.Decimal {
	b.mu.Lock()
	defer b.mu.Unlock()
	total := decimal.Zero
	for _, it := range b.items {
		total = total.Add(it.Price)
	}
	return total
}

func (b *Basket) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

func (b *Basket) Clear() {
	b.mu.Lock()
	b.items = nil
	b.mu.Unlock()
}
