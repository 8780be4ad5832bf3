package cache

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/ogero/mediacatalog/pkg/catalog"
)

// Loader is the read side of the durable store the cache mirrors.
type Loader interface {
	GetAll(ctx context.Context) ([]catalog.Item, error)
}

// Cache is a full in-process snapshot of the store contents.
// The snapshot is replaced wholesale and never patched, so readers need no locking.
type Cache struct {
	snapshot atomic.Pointer[[]catalog.Item]
}

// New creates an empty Cache.
func New() *Cache {
	c := &Cache{}
	c.Replace(nil)
	return c
}

// Load replaces the snapshot with everything the loader currently holds.
// On error the previous snapshot is kept.
func (c *Cache) Load(ctx context.Context, loader Loader) error {
	items, err := loader.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to cache.Loader.GetAll: %w", err)
	}
	c.Replace(items)
	return nil
}

// Replace swaps in a copy of items as the new snapshot.
func (c *Cache) Replace(items []catalog.Item) {
	snapshot := make([]catalog.Item, len(items))
	copy(snapshot, items)
	c.snapshot.Store(&snapshot)
}

// Items returns the current snapshot. Callers must not modify it.
func (c *Cache) Items() []catalog.Item {
	return *c.snapshot.Load()
}

// Len returns the number of items in the current snapshot.
func (c *Cache) Len() int {
	return len(*c.snapshot.Load())
}

// Get returns the item with id from the current snapshot.
func (c *Cache) Get(id string) (catalog.Item, bool) {
	for _, item := range c.Items() {
		if item.ID == id {
			return item, true
		}
	}
	return catalog.Item{}, false
}
