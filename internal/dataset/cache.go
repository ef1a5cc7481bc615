package dataset

import (
	"context"
	"log"
	"path/filepath"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Source produces a dataset for a path. *Loader satisfies it.
type Source interface {
	Load(path string) (*Dataset, error)
}

// Cache memoizes datasets by absolute path. Concurrent first calls for the
// same path share one load; failed loads are not stored.
type Cache struct {
	source Source

	mu         sync.RWMutex
	entries    map[string]*Dataset
	generation map[string]uint64
	group      singleflight.Group
}

// NewCache creates a cache backed by source
func NewCache(source Source) *Cache {
	return &Cache{
		source:     source,
		entries:    make(map[string]*Dataset),
		generation: make(map[string]uint64),
	}
}

// Get returns the memoized dataset for path, loading it on first use.
func (c *Cache) Get(ctx context.Context, path string) (*Dataset, error) {
	key := cacheKey(path)

	c.mu.RLock()
	ds, ok := c.entries[key]
	gen := c.generation[key]
	c.mu.RUnlock()
	if ok {
		return ds, nil
	}

	ch := c.group.DoChan(key, func() (interface{}, error) {
		loaded, err := c.source.Load(path)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		// An Invalidate during the load means the file changed under us.
		if c.generation[key] == gen {
			c.entries[key] = loaded
		}
		c.mu.Unlock()
		return loaded, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Dataset), nil
	}
}

// Invalidate forgets the dataset for path so the next Get reloads it.
func (c *Cache) Invalidate(path string) {
	key := cacheKey(path)

	c.mu.Lock()
	_, had := c.entries[key]
	delete(c.entries, key)
	c.generation[key]++
	c.mu.Unlock()

	c.group.Forget(key)
	if had {
		log.Printf("[DatasetCache] Invalidated %s", key)
	}
}

// Reset forgets every dataset.
func (c *Cache) Reset() {
	c.mu.Lock()
	for key := range c.entries {
		c.generation[key]++
		c.group.Forget(key)
	}
	c.entries = make(map[string]*Dataset)
	c.mu.Unlock()
}

func cacheKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// Len returns the number of memoized datasets.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
