package consumption

import (
	"context"
	"sync"
	"time"
)

// TotalsCache stores recipe ingredient totals per production order.
type TotalsCache interface {
	Get(ctx context.Context, orderNumber string) (RecipeTotals, bool, error)
	Set(ctx context.Context, orderNumber string, totals RecipeTotals, ttl time.Duration) error
	Delete(ctx context.Context, orderNumber string) error
}

type memoryEntry struct {
	totals    RecipeTotals
	expiresAt time.Time
}

// MemoryCache is an in-process TotalsCache for single-instance deployments.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, orderNumber string) (RecipeTotals, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[orderNumber]
	c.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if !c.now().Before(entry.expiresAt) {
		c.mu.Lock()
		if current, ok := c.entries[orderNumber]; ok && current.expiresAt.Equal(entry.expiresAt) {
			delete(c.entries, orderNumber)
		}
		c.mu.Unlock()
		return nil, false, nil
	}
	return entry.totals, true, nil
}

func (c *MemoryCache) Set(_ context.Context, orderNumber string, totals RecipeTotals, ttl time.Duration) error {
	c.mu.Lock()
	c.entries[orderNumber] = memoryEntry{totals: totals, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, orderNumber string) error {
	c.mu.Lock()
	delete(c.entries, orderNumber)
	c.mu.Unlock()
	return nil
}
