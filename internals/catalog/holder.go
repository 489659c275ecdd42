package catalog

import (
	"sync"

	"coinvert/internals/core/domain"
)

// Holder guards the current catalog snapshot. Readers get whole snapshots,
// refreshes swap them wholesale, so the coin-id index is never patched in
// place.
type Holder struct {
	mu      sync.RWMutex
	current *domain.Catalog
}

// NewHolder returns a Holder seeded with the given snapshot.
func NewHolder(c *domain.Catalog) *Holder {
	return &Holder{current: c}
}

// Get returns the current snapshot.
func (h *Holder) Get() *domain.Catalog {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Swap replaces the current snapshot. Nil swaps are ignored so a broken
// refresh can never blank the catalog.
func (h *Holder) Swap(c *domain.Catalog) {
	if c == nil {
		return
	}
	h.mu.Lock()
	h.current = c
	h.mu.Unlock()
}
