package ply

import (
	"container/list"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/gogpu/mesh"
)

// DefaultCacheCapacity is the number of meshes a Cache keeps when
// NewCache is given a non-positive capacity.
const DefaultCacheCapacity = 32

type cacheKey struct {
	path  string
	flags Flags
}

func (k cacheKey) String() string { return fmt.Sprintf("%s#%d", k.path, k.flags) }

type cacheEntry struct {
	key  cacheKey
	data *Data
}

// Cache keeps recently loaded meshes so that a file opened by several
// models is parsed once. Concurrent loads of the same file share a single
// parse. Cache is safe for concurrent use.
//
// Entries are evicted least recently used first. A Cache never sees
// changes to a file after it was loaded; call Forget to reload.
type Cache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List // front is most recently used
	entries  map[cacheKey]*list.Element
	group    singleflight.Group

	hits, misses uint64
}

// NewCache creates a cache holding up to capacity meshes.
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &Cache{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[cacheKey]*list.Element),
	}
}

// Open returns the mesh at path loaded with flags. The result is a copy
// the caller owns; it carries no GPU state.
func (c *Cache) Open(path string, flags Flags) (*Data, error) {
	key := cacheKey{path: path, flags: flags}
	if d, ok := c.lookup(key); ok {
		return d.Clone(), nil
	}

	v, err, _ := c.group.Do(key.String(), func() (any, error) {
		// Another caller may have stored key since the lookup above.
		if d, ok := c.peek(key); ok {
			return d, nil
		}
		d, err := Open(path, flags)
		if err != nil {
			return nil, err
		}
		c.store(key, d)
		return d, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Data).Clone(), nil
}

func (c *Cache) lookup(key cacheKey) (*Data, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	c.order.MoveToFront(e)
	return e.Value.(*cacheEntry).data, true
}

// peek is lookup without touching recency or stats.
func (c *Cache) peek(key cacheKey) (*Data, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		return e.Value.(*cacheEntry).data, true
	}
	return nil, false
}

func (c *Cache) store(key cacheKey, d *Data) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		e.Value.(*cacheEntry).data = d
		c.order.MoveToFront(e)
		return
	}
	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, data: d})
	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		ent := c.order.Remove(oldest).(*cacheEntry)
		delete(c.entries, ent.key)
		mesh.Logger().Debug("ply: cache evict", "path", ent.key.path)
	}
}

// Forget drops every entry for path, whatever flags it was loaded with.
func (c *Cache) Forget(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, e := range c.entries {
		if key.path == path {
			c.order.Remove(e)
			delete(c.entries, key)
		}
	}
}

// Len returns the number of cached meshes.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Stats returns the hit and miss counts of lookups so far.
func (c *Cache) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
